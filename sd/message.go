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
	"bytes"
	"encoding/binary"

	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/wire"
)

// ServiceID, MethodID and ClientID are the fixed message-id fields an
// SD message always carries.
const (
	ServiceID = 0xFFFF
	MethodID  = 0x8100
	ClientID  = 0x0000
)

const (
	flagReboot  = 0x80
	flagUnicast = 0x40
)

// MulticastGroup and Port are the well-known SD transport endpoint.
const (
	MulticastGroup = "224.244.224.245"
	Port           = 30490
)

// EntryOptions pairs one Entry with the (up to two) option runs it
// references. Encode deduplicates identical runs across entries;
// Decode resolves entries back to their referenced runs.
type EntryOptions struct {
	Entry    Entry
	Options1 []Option
	Options2 []Option
}

// SDMessage is the parsed form of an SD payload: the reboot/unicast
// flags plus the entries, each paired with its resolved options.
type SDMessage struct {
	Reboot           bool
	UnicastSupported bool
	Entries          []EntryOptions
}

// Encode serializes m into a complete SOME/IP Message with the fixed
// SD message-id/type/return-code fields, deduplicating identical
// option runs via the index1/index2/#opt1/#opt2 reference scheme.
func (m *SDMessage) Encode() (*wire.Message, error) {
	var global []Option
	var encoded [][]byte

	type resolved struct {
		e            Entry
		i1, n1, i2, n2 uint8
	}
	entries := make([]resolved, 0, len(m.Entries))
	for _, eo := range m.Entries {
		i1, n1 := dedupeRun(&global, &encoded, eo.Options1)
		i2, n2 := dedupeRun(&global, &encoded, eo.Options2)
		e := eo.Entry
		e.Index1Opt, e.NumOpt1 = i1, n1
		e.Index2Opt, e.NumOpt2 = i2, n2
		entries = append(entries, resolved{e, i1, n1, i2, n2})
	}

	entriesBuf := make([]byte, 0, EntrySize*len(entries))
	for _, r := range entries {
		buf := make([]byte, EntrySize)
		if _, err := r.e.MarshalBinaryTo(buf); err != nil {
			return nil, err
		}
		entriesBuf = append(entriesBuf, buf...)
	}

	var optionsBuf []byte
	for _, o := range global {
		optionsBuf = append(optionsBuf, encodeOption(o)...)
	}

	payload := make([]byte, 4+4+len(entriesBuf)+4+len(optionsBuf))
	flags := byte(0)
	if m.Reboot {
		flags |= flagReboot
	}
	if m.UnicastSupported {
		flags |= flagUnicast
	}
	payload[0] = flags
	binary.BigEndian.PutUint32(payload[4:], uint32(len(entriesBuf)))
	copy(payload[8:], entriesBuf)
	optOff := 8 + len(entriesBuf)
	binary.BigEndian.PutUint32(payload[optOff:], uint32(len(optionsBuf)))
	copy(payload[optOff+4:], optionsBuf)

	return &wire.Message{
		Header: wire.Header{
			MessageID:        wire.MessageID{ServiceID: ServiceID, MethodID: MethodID},
			RequestID:        wire.RequestID{ClientID: ClientID},
			ProtocolVersion:  wire.ProtocolVersion,
			InterfaceVersion: 0x01,
			MessageType:      wire.MessageNotification,
			ReturnCode:       wire.EOk,
		},
		Payload: payload,
	}, nil
}

// Decode parses an SD payload out of msg.
func Decode(msg *wire.Message) (*SDMessage, error) {
	b := msg.Payload
	if len(b) < 8 {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD payload shorter than fixed header")
	}
	flags := b[0]
	entriesLen := binary.BigEndian.Uint32(b[4:])
	if int(entriesLen) > len(b)-8 {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD entries_length exceeds payload")
	}
	if entriesLen%EntrySize != 0 {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD entries_length %d is not a multiple of entry size", entriesLen)
	}
	entriesEnd := 8 + int(entriesLen)

	var rawEntries []Entry
	for off := 8; off < entriesEnd; off += EntrySize {
		e, err := UnmarshalEntry(b[off:])
		if err != nil {
			return nil, err
		}
		rawEntries = append(rawEntries, e)
	}

	if len(b) < entriesEnd+4 {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD payload truncated before options_length")
	}
	optionsLen := binary.BigEndian.Uint32(b[entriesEnd:])
	optOff := entriesEnd + 4
	if int(optionsLen) > len(b)-optOff {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD options_length exceeds payload")
	}

	var options []Option
	for off, end := optOff, optOff+int(optionsLen); off < end; {
		o, n, err := decodeOption(b[off:end])
		if err != nil {
			return nil, err
		}
		options = append(options, o)
		off += n
	}

	out := &SDMessage{
		Reboot:           flags&flagReboot != 0,
		UnicastSupported: flags&flagUnicast != 0,
	}
	for _, e := range rawEntries {
		opts1, err := sliceOptions(options, e.Index1Opt, e.NumOpt1)
		if err != nil {
			return nil, err
		}
		opts2, err := sliceOptions(options, e.Index2Opt, e.NumOpt2)
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, EntryOptions{Entry: e, Options1: opts1, Options2: opts2})
	}
	return out, nil
}

func sliceOptions(all []Option, index, count uint8) ([]Option, error) {
	if count == 0 {
		return nil, nil
	}
	if int(index)+int(count) > len(all) {
		return nil, someiperr.New(someiperr.MalformedMessage, "SD option reference [%d,%d) out of range (have %d)", index, int(index)+int(count), len(all))
	}
	return append([]Option(nil), all[index:int(index)+int(count)]...), nil
}

// dedupeRun finds run as a contiguous, byte-exact subsequence of the
// options accumulated so far, appending it only if no such match
// exists. This is the option-index compression scheme: identical
// option runs referenced by multiple entries are emitted once.
func dedupeRun(global *[]Option, encoded *[][]byte, run []Option) (index, count uint8) {
	if len(run) == 0 {
		return 0, 0
	}
	enc := make([][]byte, len(run))
	for i, o := range run {
		enc[i] = encodeOption(o)
	}

	n := len(*global)
outer:
	for start := 0; start+len(run) <= n; start++ {
		for i := range run {
			if !bytes.Equal((*encoded)[start+i], enc[i]) {
				continue outer
			}
		}
		return uint8(start), uint8(len(run))
	}

	start := n
	*global = append(*global, run...)
	*encoded = append(*encoded, enc...)
	return uint8(start), uint8(len(run))
}
