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

// Package tp implements the SOME/IP Transport Protocol: the segmenter
// that splits an oversize message into fragments and the reassembler
// that recovers it on the receiving side.
package tp

import (
	"encoding/binary"

	"github.com/someip-go/someip/someiperr"
)

// HeaderSize is the fixed wire size of the TP header.
const HeaderSize = 4

// moreFlag is the low bit of the big-endian u32 header.
const moreFlag = 0x01

// offsetUnit is the granularity (bytes) the offset field is expressed in.
const offsetUnit = 16

// Header is the 4-byte TP header: (offset<<4)|(reserved<<1)|more, as a
// single big-endian u32.
type Header struct {
	// Offset is the byte offset of this fragment's slice within the
	// original payload. Always a multiple of 16.
	Offset uint32
	// More indicates additional fragments follow this one.
	More bool
}

// MarshalBinaryTo writes the 4-byte header into b.
func (h Header) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < HeaderSize {
		return 0, someiperr.New(someiperr.InvalidArgument, "buffer too small for TP header")
	}
	if h.Offset%offsetUnit != 0 {
		return 0, someiperr.New(someiperr.InvalidArgument, "TP offset %d is not 16-byte aligned", h.Offset)
	}
	v := (h.Offset / offsetUnit) << 4
	if h.More {
		v |= moreFlag
	}
	binary.BigEndian.PutUint32(b, v)
	return HeaderSize, nil
}

// UnmarshalHeader parses a 4-byte TP header out of b. Reserved bits
// 1-3 are ignored on receive, per the wire format's silence on their
// meaning.
func UnmarshalHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, someiperr.New(someiperr.InvalidArgument, "buffer too small for TP header")
	}
	v := binary.BigEndian.Uint32(b)
	return Header{
		Offset: (v >> 4) * offsetUnit,
		More:   v&moreFlag != 0,
	}, nil
}
