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

// Package wire implements the SOME/IP message model: the 16-byte fixed
// header, payload framing, and the MessageType/ReturnCode enumerations,
// bit-exact with the public SOME/IP wire format.
package wire

import "fmt"

// ProtocolVersion is the only protocol_version this module ever sends.
const ProtocolVersion uint8 = 0x01

// EventIDFlag is the high bit of method_id that marks a message id as
// an event rather than a method.
const EventIDFlag uint16 = 0x8000

// TPFlag is the bit in MessageType that marks a message as a TP
// fragment of a larger message.
const TPFlag uint8 = 0x20

// MessageType is the message_type field, Table-enumerated.
type MessageType uint8

// Message types, as per the SOME/IP header format.
const (
	MessageRequest           MessageType = 0x00
	MessageRequestNoReturn   MessageType = 0x01
	MessageNotification      MessageType = 0x02
	MessageResponse          MessageType = 0x80
	MessageError             MessageType = 0x81
	MessageTPRequest         MessageType = 0x20
	MessageTPRequestNoReturn MessageType = 0x21
	MessageTPNotification    MessageType = 0x22
	MessageTPResponse        MessageType = 0x23
	MessageTPError           MessageType = 0x24
)

// messageTypeToString is the String() backing map.
var messageTypeToString = map[MessageType]string{
	MessageRequest:           "REQUEST",
	MessageRequestNoReturn:   "REQUEST_NO_RETURN",
	MessageNotification:      "NOTIFICATION",
	MessageResponse:          "RESPONSE",
	MessageError:             "ERROR",
	MessageTPRequest:         "TP_REQUEST",
	MessageTPRequestNoReturn: "TP_REQUEST_NO_RETURN",
	MessageTPNotification:    "TP_NOTIFICATION",
	MessageTPResponse:        "TP_RESPONSE",
	MessageTPError:           "TP_ERROR",
}

func (m MessageType) String() string {
	if s, ok := messageTypeToString[m]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(m))
}

// IsTP reports whether the TP segmentation bit is set.
func (m MessageType) IsTP() bool {
	return uint8(m)&TPFlag != 0
}

// AsTP returns m with the TP bit set, for the segmenter to mark
// fragments of a message whose original type did not have it.
func (m MessageType) AsTP() MessageType {
	return MessageType(uint8(m) | TPFlag)
}

// WithoutTP returns m with the TP bit cleared, restoring the original
// message type once reassembly completes.
func (m MessageType) WithoutTP() MessageType {
	return MessageType(uint8(m) &^ TPFlag)
}

// ReturnCode is the return_code field.
type ReturnCode uint8

// Return codes, as per the SOME/IP header format.
const (
	EOk                      ReturnCode = 0x00
	ENotOk                   ReturnCode = 0x01
	EUnknownService          ReturnCode = 0x02
	EUnknownMethod           ReturnCode = 0x03
	ENotReady                ReturnCode = 0x04
	ENotReachable            ReturnCode = 0x05
	ETimeout                 ReturnCode = 0x06
	EWrongProtocolVersion    ReturnCode = 0x07
	EWrongInterfaceVersion   ReturnCode = 0x08
	EMalformedMessage        ReturnCode = 0x09
)

var returnCodeToString = map[ReturnCode]string{
	EOk:                    "E_OK",
	ENotOk:                 "E_NOT_OK",
	EUnknownService:        "E_UNKNOWN_SERVICE",
	EUnknownMethod:         "E_UNKNOWN_METHOD",
	ENotReady:              "E_NOT_READY",
	ENotReachable:          "E_NOT_REACHABLE",
	ETimeout:               "E_TIMEOUT",
	EWrongProtocolVersion:  "E_WRONG_PROTOCOL_VERSION",
	EWrongInterfaceVersion: "E_WRONG_INTERFACE_VERSION",
	EMalformedMessage:      "E_MALFORMED_MESSAGE",
}

func (r ReturnCode) String() string {
	if s, ok := returnCodeToString[r]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(0x%02x)", uint8(r))
}

// MessageID is the (service_id, method_id) pair that identifies a
// method or event. It is a plain comparable value, usable directly as
// a map key.
type MessageID struct {
	ServiceID uint16
	MethodID  uint16
}

// IsEvent reports whether the high bit of MethodID (the event flag) is set.
func (m MessageID) IsEvent() bool {
	return m.MethodID&EventIDFlag != 0
}

// RequestID is the (client_id, session_id) pair identifying an
// in-flight request. SessionID 0 means "no session".
type RequestID struct {
	ClientID  uint16
	SessionID uint16
}
