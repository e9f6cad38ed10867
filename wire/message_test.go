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

package wire

import (
	"encoding/binary"
	"testing"

	"github.com/someip-go/someip/someiperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessageRoundTripMinimal(t *testing.T) {
	// S1 - minimal message round-trip.
	m := &Message{
		Header: Header{
			MessageID:        MessageID{ServiceID: 0x1234, MethodID: 0x5678},
			RequestID:        RequestID{ClientID: 0x9ABC, SessionID: 0x0001},
			ProtocolVersion:  ProtocolVersion,
			InterfaceVersion: 0x01,
			MessageType:      MessageRequest,
			ReturnCode:       EOk,
		},
		Payload: []byte{0xDE, 0xAD, 0xBE, 0xEF},
	}

	b, err := m.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, 20, len(b))
	assert.Equal(t, uint32(0x0000000C), binary32(b[4:8]))

	var got Message
	require.NoError(t, got.UnmarshalBinary(b))
	assert.Equal(t, m.MessageID, got.MessageID)
	assert.Equal(t, m.RequestID, got.RequestID)
	assert.Equal(t, m.MessageType, got.MessageType)
	assert.Equal(t, m.ReturnCode, got.ReturnCode)
	assert.Equal(t, m.Payload, got.Payload)
}

func binary32(b []byte) uint32 {
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

func TestMessageRoundTripProperty(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x01},
		make([]byte, 1500),
		[]byte("hello SOME/IP world"),
	}
	for _, p := range payloads {
		m := &Message{
			Header: Header{
				MessageID:        MessageID{ServiceID: 0x4321, MethodID: 0x8765},
				RequestID:        RequestID{ClientID: 0x1111, SessionID: 0x2222},
				ProtocolVersion:  ProtocolVersion,
				InterfaceVersion: 0x03,
				MessageType:      MessageNotification,
				ReturnCode:       EOk,
			},
			Payload: p,
		}
		b, err := m.MarshalBinary()
		require.NoError(t, err)
		var got Message
		require.NoError(t, got.UnmarshalBinary(b))
		assert.Equal(t, m.Header, got.Header)
		assert.Equal(t, m.Payload, got.Payload)
	}
}

func TestUnmarshalRejectsShortBuffer(t *testing.T) {
	var m Message
	err := m.UnmarshalBinary(make([]byte, 10))
	assert.True(t, someiperr.Is(err, someiperr.InvalidArgument))
}

func TestUnmarshalRejectsBadLength(t *testing.T) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[4:], 3) // length < 8
	var m Message
	err := m.UnmarshalBinary(b)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}

func TestUnmarshalRejectsLengthBeyondBuffer(t *testing.T) {
	b := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(b[4:], 1000)
	var m Message
	err := m.UnmarshalBinary(b)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}

func TestUnmarshalRejectsWrongProtocolVersion(t *testing.T) {
	m := &Message{
		Header: Header{
			ProtocolVersion: 0x02,
			MessageType:     MessageRequest,
			ReturnCode:      EOk,
		},
	}
	b, err := m.MarshalBinary()
	require.NoError(t, err)

	var got Message
	err = got.UnmarshalBinary(b)
	assert.True(t, someiperr.Is(err, someiperr.WrongProtocolVersion))
}

func TestMessageTypeTPHelpers(t *testing.T) {
	assert.True(t, MessageTPRequest.IsTP())
	assert.False(t, MessageRequest.IsTP())
	assert.Equal(t, MessageTPRequest, MessageRequest.AsTP())
	assert.Equal(t, MessageRequest, MessageTPRequest.WithoutTP())
}
