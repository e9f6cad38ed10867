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

	"github.com/someip-go/someip/someiperr"
)

// E2EHeaderSize is the fixed wire size of the E2E header.
const E2EHeaderSize = 12

// E2EHeader is the fixed 12-byte layout the standard E2E profile
// writes into the payload at a configurable offset.
type E2EHeader struct {
	CRC             uint32
	Counter         uint32
	DataID          uint16
	FreshnessValue  uint16
}

// MarshalBinaryTo writes the 12-byte header into b.
func (h *E2EHeader) MarshalBinaryTo(b []byte) (int, error) {
	if len(b) < E2EHeaderSize {
		return 0, someiperr.New(someiperr.InvalidArgument, "buffer too small for E2E header")
	}
	binary.BigEndian.PutUint32(b[0:], h.CRC)
	binary.BigEndian.PutUint32(b[4:], h.Counter)
	binary.BigEndian.PutUint16(b[8:], h.DataID)
	binary.BigEndian.PutUint16(b[10:], h.FreshnessValue)
	return E2EHeaderSize, nil
}

// UnmarshalE2EHeader parses a 12-byte E2E header out of b.
func UnmarshalE2EHeader(b []byte) (*E2EHeader, error) {
	if len(b) < E2EHeaderSize {
		return nil, someiperr.New(someiperr.InvalidArgument, "buffer too small for E2E header")
	}
	return &E2EHeader{
		CRC:            binary.BigEndian.Uint32(b[0:]),
		Counter:        binary.BigEndian.Uint32(b[4:]),
		DataID:         binary.BigEndian.Uint16(b[8:]),
		FreshnessValue: binary.BigEndian.Uint16(b[10:]),
	}, nil
}
