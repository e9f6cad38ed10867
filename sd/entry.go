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

// Package sd implements the SOME/IP Service Discovery protocol: the
// entries/options wire codec and the offer/find/subscribe state
// engine layered on top of it.
package sd

import (
	"encoding/binary"
	"fmt"

	"github.com/someip-go/someip/someiperr"
)

// EntrySize is the fixed wire size of one SD entry.
const EntrySize = 16

// EntryType is the entry's type byte.
type EntryType uint8

// Entry types, as per the SD entries array.
const (
	EntryFindService            EntryType = 0x00
	EntryOfferService            EntryType = 0x01
	EntrySubscribeEventgroup     EntryType = 0x06
	EntrySubscribeEventgroupAck  EntryType = 0x07
)

var entryTypeToString = map[EntryType]string{
	EntryFindService:           "FIND_SERVICE",
	EntryOfferService:          "OFFER_SERVICE",
	EntrySubscribeEventgroup:   "SUBSCRIBE_EVENTGROUP",
	EntrySubscribeEventgroupAck: "SUBSCRIBE_EVENTGROUP_ACK",
}

func (t EntryType) String() string {
	if s, ok := entryTypeToString[t]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(t))
}

// StopTTL is the ttl value that turns OfferService into
// StopOfferService and SubscribeEventgroup into
// StopSubscribeEventgroup.
const StopTTL = 0

// Entry is one 16-byte element of the SD entries array. Option
// references are indices into the shared, deduplicated options array
// carried alongside the entries in an SDMessage.
type Entry struct {
	Type             EntryType
	Index1Opt        uint8
	Index2Opt        uint8
	NumOpt1          uint8 // low nibble
	NumOpt2          uint8 // high nibble
	ServiceID        uint16
	InstanceID       uint16
	MajorVersion     uint8
	TTL              uint32 // 24 bits on the wire
	MinorOrEventgroup uint32
}

// IsStop reports whether this entry's ttl marks a withdrawal
// (StopOfferService / StopSubscribeEventgroup).
func (e Entry) IsStop() bool { return e.TTL == StopTTL }

// MarshalBinaryTo writes the 16-byte entry into b.
func (e Entry) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < EntrySize {
		return 0, someiperr.New(someiperr.InvalidArgument, "buffer too small for SD entry")
	}
	b[0] = byte(e.Type)
	b[1] = e.Index1Opt
	b[2] = e.Index2Opt
	b[3] = (e.NumOpt2 << 4) | (e.NumOpt1 & 0x0F)
	binary.BigEndian.PutUint16(b[4:], e.ServiceID)
	binary.BigEndian.PutUint16(b[6:], e.InstanceID)
	b[8] = e.MajorVersion
	b[9] = byte(e.TTL >> 16)
	b[10] = byte(e.TTL >> 8)
	b[11] = byte(e.TTL)
	binary.BigEndian.PutUint32(b[12:], e.MinorOrEventgroup)
	return EntrySize, nil
}

// UnmarshalEntry parses one 16-byte entry out of b.
func UnmarshalEntry(b []byte) (Entry, error) {
	if len(b) < EntrySize {
		return Entry{}, someiperr.New(someiperr.MalformedMessage, "buffer too small for SD entry")
	}
	return Entry{
		Type:              EntryType(b[0]),
		Index1Opt:         b[1],
		Index2Opt:         b[2],
		NumOpt1:           b[3] & 0x0F,
		NumOpt2:           b[3] >> 4,
		ServiceID:         binary.BigEndian.Uint16(b[4:]),
		InstanceID:        binary.BigEndian.Uint16(b[6:]),
		MajorVersion:      b[8],
		TTL:               uint32(b[9])<<16 | uint32(b[10])<<8 | uint32(b[11]),
		MinorOrEventgroup: binary.BigEndian.Uint32(b[12:]),
	}, nil
}
