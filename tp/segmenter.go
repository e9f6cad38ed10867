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
	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/wire"
)

// DefaultSegmentSize is the default slice size per fragment.
const DefaultSegmentSize = 1388

// Segment splits msg into an ordered sequence of TP fragments, each a
// complete SOME/IP Message with the TP bit set in message_type.
// segmentSize must be a multiple of 16; msg.Payload need not be.
func Segment(msg *wire.Message, segmentSize uint32) ([]*wire.Message, error) {
	if segmentSize == 0 || segmentSize%offsetUnit != 0 {
		return nil, someiperr.New(someiperr.InvalidArgument, "segment size %d must be a non-zero multiple of %d", segmentSize, offsetUnit)
	}

	payload := msg.Payload
	total := uint32(len(payload))
	var out []*wire.Message

	for offset := uint32(0); ; offset += segmentSize {
		end := offset + segmentSize
		more := end < total
		if !more {
			end = total
		}
		slice := payload[offset:end]

		frag := &wire.Message{Header: msg.Header}
		frag.MessageType = msg.MessageType.AsTP()
		frag.Payload = make([]byte, HeaderSize+len(slice))
		h := Header{Offset: offset, More: more}
		if _, err := h.MarshalBinaryTo(frag.Payload); err != nil {
			return nil, err
		}
		copy(frag.Payload[HeaderSize:], slice)
		out = append(out, frag)

		if !more {
			break
		}
	}
	return out, nil
}
