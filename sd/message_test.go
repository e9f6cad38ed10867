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

package sd

import (
	"net"
	"testing"

	"github.com/someip-go/someip/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntryRoundTrip(t *testing.T) {
	e := Entry{
		Type:              EntryOfferService,
		ServiceID:         0x0100,
		InstanceID:        0x0001,
		MajorVersion:      1,
		TTL:               0xFFFFFF,
		MinorOrEventgroup: 0,
	}
	buf := make([]byte, EntrySize)
	_, err := e.MarshalBinaryTo(buf)
	require.NoError(t, err)

	got, err := UnmarshalEntry(buf)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

// invariant 8: encode_then_decode preserves the set of (entry,
// options) associations even though the options array is deduplicated
// on the wire.
func TestSDMessageOptionDedupRoundTrip(t *testing.T) {
	ep := IPv4Endpoint{Address: net.IPv4(192, 168, 1, 10), Proto: ProtoUDP, Port: 30500}

	msg := &SDMessage{
		Reboot:           false,
		UnicastSupported: true,
		Entries: []EntryOptions{
			{
				Entry:    Entry{Type: EntryOfferService, ServiceID: 0x0100, InstanceID: 1, MajorVersion: 1, TTL: 3},
				Options1: []Option{ep},
			},
			{
				Entry:    Entry{Type: EntryOfferService, ServiceID: 0x0101, InstanceID: 1, MajorVersion: 1, TTL: 3},
				Options1: []Option{ep},
			},
		},
	}

	wireMsg, err := msg.Encode()
	require.NoError(t, err)

	got, err := Decode(wireMsg)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)

	// both entries reference the same option run: the encoder must have
	// deduplicated it to a single wire copy.
	assert.Equal(t, got.Entries[0].Entry.Index1Opt, got.Entries[1].Entry.Index1Opt)
	assert.Equal(t, got.Entries[0].Entry.NumOpt1, got.Entries[1].Entry.NumOpt1)

	for _, eo := range got.Entries {
		require.Len(t, eo.Options1, 1)
		got1, ok := eo.Options1[0].(IPv4Endpoint)
		require.True(t, ok)
		assert.True(t, got1.Address.Equal(ep.Address))
		assert.Equal(t, ep.Port, got1.Port)
		assert.Equal(t, ep.Proto, got1.Proto)
	}
}

func TestSDMessageEmptyEntriesRoundTrip(t *testing.T) {
	msg := &SDMessage{}
	wireMsg, err := msg.Encode()
	require.NoError(t, err)
	got, err := Decode(wireMsg)
	require.NoError(t, err)
	assert.Empty(t, got.Entries)
}

func TestSDMessageRejectsTruncatedPayload(t *testing.T) {
	_, err := Decode(&wire.Message{Payload: []byte{0x00}})
	assert.Error(t, err)
}
