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

// HeaderSize is the size in bytes of the fixed SOME/IP header.
const HeaderSize = 16

// FixedTailSize is the portion of HeaderSize counted by the length
// field: everything after the length field itself (request_id through
// return_code).
const FixedTailSize = 8

// Header is the fixed 16-byte SOME/IP header.
type Header struct {
	MessageID        MessageID
	Length           uint32
	RequestID        RequestID
	ProtocolVersion  uint8
	InterfaceVersion uint8
	MessageType      MessageType
	ReturnCode       ReturnCode
}

// Message is the canonical SOME/IP frame: header plus payload, and an
// optional E2E header tracked as structured side-data rather than
// requiring callers to re-parse the payload to find it.
type Message struct {
	Header
	Payload []byte
	E2E     *E2EHeader
}

// PayloadLength returns the length field's implied payload size.
func (m *Message) PayloadLength() int {
	return int(m.Length) - FixedTailSize
}

// IsTP reports whether this message is a TP fragment.
func (m *Message) IsTP() bool {
	return m.MessageType.IsTP()
}

// MarshalBinaryTo marshals the message into b, returning the number of
// bytes written. Produces exactly HeaderSize + len(Payload) bytes.
func (m *Message) MarshalBinaryTo(b []byte) (int, error) {
	total := HeaderSize + len(m.Payload)
	if len(b) < total {
		return 0, someiperr.New(someiperr.InvalidArgument, "buffer too small: need %d, have %d", total, len(b))
	}
	m.Length = uint32(FixedTailSize + len(m.Payload))
	binary.BigEndian.PutUint16(b[0:], m.MessageID.ServiceID)
	binary.BigEndian.PutUint16(b[2:], m.MessageID.MethodID)
	binary.BigEndian.PutUint32(b[4:], m.Length)
	binary.BigEndian.PutUint16(b[8:], m.RequestID.ClientID)
	binary.BigEndian.PutUint16(b[10:], m.RequestID.SessionID)
	b[12] = m.ProtocolVersion
	b[13] = m.InterfaceVersion
	b[14] = byte(m.MessageType)
	b[15] = byte(m.ReturnCode)
	copy(b[HeaderSize:], m.Payload)
	return total, nil
}

// MarshalBinary allocates a buffer sized exactly for this message and
// marshals into it.
func (m *Message) MarshalBinary() ([]byte, error) {
	buf := make([]byte, HeaderSize+len(m.Payload))
	n, err := m.MarshalBinaryTo(buf)
	return buf[:n], err
}

// UnmarshalBinary parses a SOME/IP frame out of b, validating the
// invariants from the message model: buffer length, length field
// bounds, and protocol version. message_type/return_code values
// outside the known enumerators are preserved, not rejected.
func (m *Message) UnmarshalBinary(b []byte) error {
	if len(b) < HeaderSize {
		return someiperr.New(someiperr.InvalidArgument, "need at least %d bytes, have %d", HeaderSize, len(b))
	}
	length := binary.BigEndian.Uint32(b[4:])
	if length < FixedTailSize {
		return someiperr.New(someiperr.MalformedMessage, "length field %d is smaller than the fixed tail (%d)", length, FixedTailSize)
	}
	if int(length) > len(b)-FixedTailSize {
		return someiperr.New(someiperr.MalformedMessage, "length field %d exceeds available buffer", length)
	}

	m.MessageID.ServiceID = binary.BigEndian.Uint16(b[0:])
	m.MessageID.MethodID = binary.BigEndian.Uint16(b[2:])
	m.Length = length
	m.RequestID.ClientID = binary.BigEndian.Uint16(b[8:])
	m.RequestID.SessionID = binary.BigEndian.Uint16(b[10:])
	m.ProtocolVersion = b[12]
	m.InterfaceVersion = b[13]
	m.MessageType = MessageType(b[14])
	m.ReturnCode = ReturnCode(b[15])

	if m.ProtocolVersion != ProtocolVersion {
		return someiperr.New(someiperr.WrongProtocolVersion, "unsupported protocol_version 0x%02x", m.ProtocolVersion)
	}

	payloadLen := int(length) - FixedTailSize
	m.Payload = make([]byte, payloadLen)
	copy(m.Payload, b[HeaderSize:HeaderSize+payloadLen])
	return nil
}
