/*
Copyright (c) Facebook, Inc. and its affiliates.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tp

import (
	"testing"

	"github.com/someip-go/someip/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseMessage(payload []byte) *wire.Message {
	return &wire.Message{
		Header: wire.Header{
			MessageID:        wire.MessageID{ServiceID: 0x1234, MethodID: 0x5678},
			RequestID:        wire.RequestID{ClientID: 0x1, SessionID: 0x1},
			ProtocolVersion:  wire.ProtocolVersion,
			InterfaceVersion: 0x01,
			MessageType:      wire.MessageRequest,
			ReturnCode:       wire.EOk,
		},
		Payload: payload,
	}
}

func TestSegmentRejectsUnalignedSegmentSize(t *testing.T) {
	_, err := Segment(baseMessage(make([]byte, 100)), 17)
	assert.Error(t, err)
}

func TestSegmentProducesExpectedFragments(t *testing.T) {
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	for i, f := range frags {
		assert.True(t, f.MessageType.IsTP())
		h, err := UnmarshalHeader(f.Payload)
		require.NoError(t, err)
		assert.Equal(t, uint32(i*1024), h.Offset)
		if i < 2 {
			assert.True(t, h.More)
			assert.Len(t, f.Payload[HeaderSize:], 1024)
		} else {
			assert.False(t, h.More)
			assert.Len(t, f.Payload[HeaderSize:], 3000-2*1024)
		}
	}
}

func TestSegmentEmptyPayloadProducesOneFragment(t *testing.T) {
	frags, err := Segment(baseMessage(nil), DefaultSegmentSize)
	require.NoError(t, err)
	require.Len(t, frags, 1)
	h, err := UnmarshalHeader(frags[0].Payload)
	require.NoError(t, err)
	assert.False(t, h.More)
	assert.Equal(t, uint32(0), h.Offset)
}
