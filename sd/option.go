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
	"encoding/binary"
	"net"

	"github.com/someip-go/someip/someiperr"
)

// OptionType is the option's type byte.
type OptionType uint8

// Option types this codec understands.
const (
	OptionConfiguration OptionType = 0x01
	OptionIPv4Endpoint  OptionType = 0x04
	OptionIPv6Endpoint  OptionType = 0x06
	OptionIPv4Multicast OptionType = 0x14
	OptionIPv6Multicast OptionType = 0x16
)

// L4Proto is the transport protocol carried in an endpoint option.
type L4Proto uint8

// Transport protocol numbers used by endpoint options.
const (
	ProtoUDP L4Proto = 0x11
	ProtoTCP L4Proto = 0x06
)

// Option is one TLV element of the SD options array: length(u16) |
// type(u8) | body. Encode/Decode round-trip the raw bytes so that
// byte-exact dedup comparisons in the message codec are trivial.
type Option interface {
	// Type returns the option's type byte.
	Type() OptionType
	// Body returns the option's encoded body, excluding the 3-byte
	// length+type header.
	Body() []byte
}

// IPv4Endpoint is the type=0x04 option: a unicast IPv4 service
// endpoint.
type IPv4Endpoint struct {
	Address net.IP
	Proto   L4Proto
	Port    uint16
}

func (o IPv4Endpoint) Type() OptionType { return OptionIPv4Endpoint }

func (o IPv4Endpoint) Body() []byte {
	b := make([]byte, 9)
	b[0] = 0 // reserved
	copy(b[1:5], o.Address.To4())
	b[5] = 0 // reserved
	b[6] = byte(o.Proto)
	binary.BigEndian.PutUint16(b[7:], o.Port)
	return b
}

// IPv4Multicast is the type=0x14 option: an IPv4 multicast group for
// event notifications.
type IPv4Multicast struct {
	Address net.IP
	Proto   L4Proto
	Port    uint16
}

func (o IPv4Multicast) Type() OptionType { return OptionIPv4Multicast }
func (o IPv4Multicast) Body() []byte     { return IPv4Endpoint(o).Body() }

// IPv6Endpoint is the type=0x06 option: a unicast IPv6 service
// endpoint.
type IPv6Endpoint struct {
	Address net.IP
	Proto   L4Proto
	Port    uint16
}

func (o IPv6Endpoint) Type() OptionType { return OptionIPv6Endpoint }

func (o IPv6Endpoint) Body() []byte {
	b := make([]byte, 21)
	b[0] = 0 // reserved
	copy(b[1:17], o.Address.To16())
	b[17] = 0 // reserved
	b[18] = byte(o.Proto)
	binary.BigEndian.PutUint16(b[19:], o.Port)
	return b
}

// IPv6Multicast is the type=0x16 option: an IPv6 multicast group.
type IPv6Multicast struct {
	Address net.IP
	Proto   L4Proto
	Port    uint16
}

func (o IPv6Multicast) Type() OptionType { return OptionIPv6Multicast }
func (o IPv6Multicast) Body() []byte     { return IPv6Endpoint(o).Body() }

// Configuration is the type=0x01 option: a run of "key=value" strings,
// each preceded by a one-byte length and not terminated.
type Configuration struct {
	Entries map[string]string
}

func (o Configuration) Type() OptionType { return OptionConfiguration }

func (o Configuration) Body() []byte {
	var b []byte
	for k, v := range o.Entries {
		kv := k + "=" + v
		b = append(b, byte(len(kv)))
		b = append(b, kv...)
	}
	return b
}

// rawOption is the decoder's neutral representation: a type byte plus
// its raw body, used both directly (Configuration-like opaque options)
// and as the intermediate step before typed decoding.
type rawOption struct {
	typ  OptionType
	body []byte
}

func (o rawOption) Type() OptionType { return o.typ }
func (o rawOption) Body() []byte     { return o.body }

// encodeOption serializes one option as length(u16)|type(u8)|body.
func encodeOption(o Option) []byte {
	body := o.Body()
	b := make([]byte, 3+len(body))
	binary.BigEndian.PutUint16(b[0:], uint16(1+len(body)))
	b[2] = byte(o.Type())
	copy(b[3:], body)
	return b
}

// decodeOption parses one TLV option out of b, returning the option
// and the number of bytes consumed.
func decodeOption(b []byte) (Option, int, error) {
	if len(b) < 3 {
		return nil, 0, someiperr.New(someiperr.MalformedMessage, "buffer too small for SD option header")
	}
	length := binary.BigEndian.Uint16(b[0:])
	if int(length) < 1 || int(length)-1 > len(b)-3 {
		return nil, 0, someiperr.New(someiperr.MalformedMessage, "SD option length %d exceeds buffer", length)
	}
	typ := OptionType(b[2])
	body := append([]byte(nil), b[3:3+int(length)-1]...)
	total := 3 + int(length) - 1

	switch typ {
	case OptionIPv4Endpoint, OptionIPv4Multicast:
		if len(body) < 9 {
			return nil, 0, someiperr.New(someiperr.MalformedMessage, "IPv4 endpoint option too short")
		}
		ep := IPv4Endpoint{
			Address: net.IPv4(body[1], body[2], body[3], body[4]),
			Proto:   L4Proto(body[6]),
			Port:    binary.BigEndian.Uint16(body[7:]),
		}
		if typ == OptionIPv4Multicast {
			return IPv4Multicast(ep), total, nil
		}
		return ep, total, nil
	case OptionIPv6Endpoint, OptionIPv6Multicast:
		if len(body) < 21 {
			return nil, 0, someiperr.New(someiperr.MalformedMessage, "IPv6 endpoint option too short")
		}
		ep := IPv6Endpoint{
			Address: net.IP(append([]byte(nil), body[1:17]...)),
			Proto:   L4Proto(body[18]),
			Port:    binary.BigEndian.Uint16(body[19:]),
		}
		if typ == OptionIPv6Multicast {
			return IPv6Multicast(ep), total, nil
		}
		return ep, total, nil
	default:
		return rawOption{typ: typ, body: body}, total, nil
	}
}
