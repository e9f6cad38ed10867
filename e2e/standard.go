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

package e2e

import (
	"sync"
	"time"

	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/wire"
	"github.com/someip-go/someip/wire/crc"
)

// maxReplayWindow bounds how many past counters a stream remembers for
// replay detection, so a long-lived stream doesn't grow unboundedly.
const maxReplayWindow = 4096

// FreshnessSource supplies the monotonic tick the standard profile
// stamps into freshness_value. The default implementation derives it
// from wall-clock milliseconds since the source was created; tests
// inject a deterministic source instead.
type FreshnessSource interface {
	// Tick returns the current freshness value for dataID.
	Tick(dataID uint16) uint16
}

// monotonicFreshness is the default FreshnessSource: elapsed
// milliseconds since creation, truncated into the wire's 16 bits.
type monotonicFreshness struct {
	start time.Time
}

// NewMonotonicFreshness returns the default FreshnessSource.
func NewMonotonicFreshness() FreshnessSource {
	return &monotonicFreshness{start: time.Now()}
}

func (m *monotonicFreshness) Tick(uint16) uint16 {
	return uint16(time.Since(m.start).Milliseconds())
}

// streamState is the per-data_id counter and replay bookkeeping the
// standard profile maintains, each guarded by its own lock so
// concurrent streams never contend with each other.
type streamState struct {
	mu          sync.Mutex
	counter     uint32
	seenOrder   []uint32
	seen        map[uint32]struct{}
}

func newStreamState() *streamState {
	return &streamState{seen: make(map[uint32]struct{})}
}

func (s *streamState) nextCounter(maxValue uint32) uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.counter
	if s.counter >= maxValue {
		s.counter = 0
	} else {
		s.counter++
	}
	return v
}

// observe records counter as seen and reports whether it was already
// observed (a replay).
func (s *streamState) observe(counter uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.seen[counter]; dup {
		return true
	}
	s.seen[counter] = struct{}{}
	s.seenOrder = append(s.seenOrder, counter)
	if len(s.seenOrder) > maxReplayWindow {
		oldest := s.seenOrder[0]
		s.seenOrder = s.seenOrder[1:]
		delete(s.seen, oldest)
	}
	return false
}

// StandardProfile is the built-in, non-AUTOSAR reference E2E profile:
// CRC + counter + freshness in the fixed 12-byte layout from the
// message model.
type StandardProfile struct {
	mu        sync.Mutex
	streams   map[uint16]*streamState
	freshness FreshnessSource
}

// NewStandardProfile returns a StandardProfile using the default
// wall-clock-derived freshness source.
func NewStandardProfile() *StandardProfile {
	return &StandardProfile{
		streams:   make(map[uint16]*streamState),
		freshness: NewMonotonicFreshness(),
	}
}

// WithFreshnessSource overrides the freshness source, for tests that
// need a deterministic sequence.
func (p *StandardProfile) WithFreshnessSource(src FreshnessSource) *StandardProfile {
	p.freshness = src
	return p
}

// ID implements Profile.
func (p *StandardProfile) ID() uint32 { return 0 }

// Name implements Profile.
func (p *StandardProfile) Name() string { return "standard" }

// HeaderSize implements Profile.
func (p *StandardProfile) HeaderSize() uint32 { return wire.E2EHeaderSize }

func (p *StandardProfile) streamFor(dataID uint16) *streamState {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.streams[dataID]
	if !ok {
		s = newStreamState()
		p.streams[dataID] = s
	}
	return s
}

// ensureRoom grows msg.Payload so that [offset, offset+size) is
// addressable, zero-filling any newly created bytes.
func ensureRoom(payload []byte, offset, size int) []byte {
	need := offset + size
	if len(payload) >= need {
		return payload
	}
	grown := make([]byte, need)
	copy(grown, payload)
	return grown
}

// Protect implements Profile: it fills in CRC, counter, data_id and
// freshness_value and embeds the 12-byte header at cfg.Offset.
func (p *StandardProfile) Protect(msg *wire.Message, cfg *Config) error {
	off := int(cfg.Offset)
	msg.Payload = ensureRoom(msg.Payload, off, wire.E2EHeaderSize)

	h := &wire.E2EHeader{DataID: cfg.DataID}
	if cfg.EnableCounter {
		stream := p.streamFor(cfg.DataID)
		h.Counter = stream.nextCounter(cfg.MaxCounterValue)
	}
	if cfg.EnableFreshness {
		h.FreshnessValue = p.freshness.Tick(cfg.DataID)
	}

	// write header with CRC field zeroed, then compute CRC over the
	// protected region (the full payload, header CRC field zeroed).
	if _, err := h.MarshalBinaryTo(msg.Payload[off:]); err != nil {
		return someiperr.Wrap(someiperr.InvalidArgument, err)
	}
	if cfg.EnableCRC {
		h.CRC = crc.Compute(cfg.CRCType, msg.Payload)
		if _, err := h.MarshalBinaryTo(msg.Payload[off:]); err != nil {
			return someiperr.Wrap(someiperr.InvalidArgument, err)
		}
	}

	msg.E2E = h
	return nil
}

// Validate implements Profile: recomputes the CRC with the header's
// CRC field zeroed and compares, checks for a replayed counter, and
// checks freshness against the configured timeout.
func (p *StandardProfile) Validate(msg *wire.Message, cfg *Config) error {
	off := int(cfg.Offset)
	if len(msg.Payload) < off+wire.E2EHeaderSize {
		return someiperr.New(someiperr.InvalidArgument, "payload too short for E2E header at offset %d", off)
	}
	h, err := wire.UnmarshalE2EHeader(msg.Payload[off:])
	if err != nil {
		return someiperr.Wrap(someiperr.InvalidArgument, err)
	}

	if cfg.EnableCRC {
		scratch := append([]byte(nil), msg.Payload...)
		zero := &wire.E2EHeader{DataID: h.DataID, Counter: h.Counter, FreshnessValue: h.FreshnessValue}
		if _, err := zero.MarshalBinaryTo(scratch[off:]); err != nil {
			return someiperr.Wrap(someiperr.InvalidArgument, err)
		}
		want := crc.Compute(cfg.CRCType, scratch)
		if want != h.CRC {
			return someiperr.New(someiperr.InvalidArgument, "E2E CRC mismatch: got 0x%x want 0x%x", h.CRC, want)
		}
	}

	if cfg.EnableCounter {
		stream := p.streamFor(cfg.DataID)
		if stream.observe(h.Counter) {
			return someiperr.New(someiperr.InvalidArgument, "replayed counter %d for data_id %d", h.Counter, h.DataID)
		}
	}

	if cfg.EnableFreshness {
		current := p.freshness.Tick(cfg.DataID)
		delta := int32(current) - int32(h.FreshnessValue)
		if delta < 0 {
			delta = -delta
		}
		if uint32(delta) > cfg.FreshnessTimeoutMs {
			return someiperr.New(someiperr.Timeout, "freshness value %d is %dms stale (limit %dms)", h.FreshnessValue, delta, cfg.FreshnessTimeoutMs)
		}
	}

	msg.E2E = h
	return nil
}
