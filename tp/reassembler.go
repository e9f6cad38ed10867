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
	"bytes"
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/wire"
	"golang.org/x/sync/errgroup"
)

// DefaultReassemblyTimeout is how long a reassembly context may sit
// without progress before it is reaped.
const DefaultReassemblyTimeout = 5 * time.Second

// DefaultMaxBufferPerContext bounds the bytes a single reassembly
// context may buffer before it is discarded as malformed.
const DefaultMaxBufferPerContext = 64 * 1024

// Key identifies one in-flight reassembly: a message from a given peer
// endpoint, uniquely addressed by its method/session coordinates.
type Key struct {
	Peer             string
	ServiceID        uint16
	MethodID         uint16
	ClientID         uint16
	SessionID        uint16
	InterfaceVersion uint8
}

// Listener receives reassembly outcomes.
type Listener interface {
	// OnComplete is called with a fully reassembled message.
	OnComplete(key Key, msg *wire.Message)
	// OnError is called when a context is discarded: malformed
	// fragments or a reassembly timeout.
	OnError(key Key, err error)
}

// Stats is a point-in-time snapshot of reassembler activity.
type Stats struct {
	ActiveContexts int
	Completed      uint64
	Malformed      uint64
	TimedOut       uint64
	FragmentsSeen  uint64
}

type fragment struct {
	offset  uint32
	payload []byte
}

type reassemblyContext struct {
	header        wire.Header
	fragments     []fragment
	totalLength   *uint32
	bufferedBytes uint32
	lastActivity  time.Time
}

// Reassembler maintains per-key reassembly contexts and recovers
// complete messages from out-of-order, duplicated TP fragment streams.
// All state mutation is serialized through a single lock, per the
// concurrency model's per-instance-lock rule; separate Reassemblers
// are fully independent.
type Reassembler struct {
	mu       sync.Mutex
	contexts map[Key]*reassemblyContext

	reassemblyTimeout   time.Duration
	maxBufferPerContext uint32
	listener            Listener

	completed uint64
	malformed uint64
	timedOut  uint64
	fragments uint64
}

// NewReassembler constructs a Reassembler with the given limits. A nil
// listener is valid; outcomes are simply not reported anywhere.
func NewReassembler(reassemblyTimeout time.Duration, maxBufferPerContext uint32, listener Listener) *Reassembler {
	if reassemblyTimeout <= 0 {
		reassemblyTimeout = DefaultReassemblyTimeout
	}
	if maxBufferPerContext == 0 {
		maxBufferPerContext = DefaultMaxBufferPerContext
	}
	return &Reassembler{
		contexts:            make(map[Key]*reassemblyContext),
		reassemblyTimeout:   reassemblyTimeout,
		maxBufferPerContext: maxBufferPerContext,
		listener:            listener,
	}
}

// Insert feeds one TP fragment frame (a complete wire.Message with the
// TP bit set) into the reassembler. It returns a non-nil Message when
// this fragment completes reassembly, or an error if the fragment (or
// the context it belongs to) is malformed. Duplicate fragments are
// dropped silently: both return values are nil.
func (r *Reassembler) Insert(peer string, frag *wire.Message) (*wire.Message, error) {
	if len(frag.Payload) < HeaderSize {
		return nil, someiperr.New(someiperr.MalformedMessage, "TP fragment payload shorter than TP header")
	}
	th, err := UnmarshalHeader(frag.Payload)
	if err != nil {
		return nil, err
	}
	body := frag.Payload[HeaderSize:]
	o := th.Offset
	p := uint32(len(body))

	if th.More && p%offsetUnit != 0 {
		return nil, someiperr.New(someiperr.MalformedMessage, "non-final TP fragment length %d is not 16-byte aligned", p)
	}

	key := Key{
		Peer:             peer,
		ServiceID:        frag.MessageID.ServiceID,
		MethodID:         frag.MessageID.MethodID,
		ClientID:         frag.RequestID.ClientID,
		SessionID:        frag.RequestID.SessionID,
		InterfaceVersion: frag.InterfaceVersion,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	atomic.AddUint64(&r.fragments, 1)

	ctx, ok := r.contexts[key]
	if !ok {
		ctx = &reassemblyContext{header: frag.Header}
		r.contexts[key] = ctx
	}

	msg, err := r.insertLocked(key, ctx, o, p, body, th.More)
	if err != nil {
		delete(r.contexts, key)
		atomic.AddUint64(&r.malformed, 1)
		if r.listener != nil {
			r.listener.OnError(key, err)
		}
		return nil, err
	}
	if msg != nil {
		delete(r.contexts, key)
		atomic.AddUint64(&r.completed, 1)
		if r.listener != nil {
			r.listener.OnComplete(key, msg)
		}
	}
	return msg, nil
}

func (r *Reassembler) insertLocked(key Key, ctx *reassemblyContext, o, p uint32, body []byte, more bool) (*wire.Message, error) {
	newEnd := o + p

	for _, f := range ctx.fragments {
		fEnd := f.offset + uint32(len(f.payload))
		if o == f.offset && p == uint32(len(f.payload)) && bytes.Equal(f.payload, body) {
			// exact duplicate: drop silently, still counts as activity.
			ctx.lastActivity = time.Now()
			return nil, nil
		}
		if o < fEnd && f.offset < newEnd {
			return nil, someiperr.New(someiperr.MalformedMessage, "overlapping TP fragments disagree at offset %d", o)
		}
	}

	if ctx.totalLength != nil && newEnd > *ctx.totalLength {
		return nil, someiperr.New(someiperr.MalformedMessage, "TP fragment end %d exceeds known total length %d", newEnd, *ctx.totalLength)
	}

	if ctx.bufferedBytes+p > r.maxBufferPerContext {
		return nil, someiperr.New(someiperr.MalformedMessage, "TP reassembly context exceeds buffer cap (%d bytes)", r.maxBufferPerContext)
	}

	stored := make([]byte, p)
	copy(stored, body)
	ctx.fragments = append(ctx.fragments, fragment{offset: o, payload: stored})
	sort.Slice(ctx.fragments, func(i, j int) bool { return ctx.fragments[i].offset < ctx.fragments[j].offset })
	ctx.bufferedBytes += p
	ctx.lastActivity = time.Now()

	if !more {
		total := newEnd
		ctx.totalLength = &total
	}

	if ctx.totalLength == nil {
		return nil, nil
	}

	var next uint32
	for _, f := range ctx.fragments {
		if f.offset != next {
			return nil, nil // gap remains
		}
		next += uint32(len(f.payload))
	}
	if next != *ctx.totalLength {
		return nil, nil
	}

	payload := make([]byte, *ctx.totalLength)
	for _, f := range ctx.fragments {
		copy(payload[f.offset:], f.payload)
	}

	msg := &wire.Message{Header: ctx.header}
	msg.MessageType = msg.MessageType.WithoutTP()
	msg.MessageID = wire.MessageID{ServiceID: key.ServiceID, MethodID: key.MethodID}
	msg.RequestID = wire.RequestID{ClientID: key.ClientID, SessionID: key.SessionID}
	msg.InterfaceVersion = key.InterfaceVersion
	msg.Payload = payload
	msg.Length = uint32(wire.FixedTailSize) + *ctx.totalLength
	return msg, nil
}

// Reap discards contexts whose deadline has passed, reporting TIMEOUT
// to the listener for each. It must be called at least every
// reassemblyTimeout/2, which Run does automatically.
func (r *Reassembler) Reap() {
	now := time.Now()
	r.mu.Lock()
	var expired []Key
	for key, ctx := range r.contexts {
		if now.Sub(ctx.lastActivity) > r.reassemblyTimeout {
			expired = append(expired, key)
			delete(r.contexts, key)
		}
	}
	r.mu.Unlock()

	for _, key := range expired {
		atomic.AddUint64(&r.timedOut, 1)
		if r.listener != nil {
			r.listener.OnError(key, someiperr.New(someiperr.Timeout, "TP reassembly timed out for %+v", key))
		}
	}
}

// DiscardAll drops every outstanding context and reports TIMEOUT for
// each, mirroring the shutdown behavior of a stopped transport.
func (r *Reassembler) DiscardAll() {
	r.mu.Lock()
	keys := make([]Key, 0, len(r.contexts))
	for key := range r.contexts {
		keys = append(keys, key)
	}
	r.contexts = make(map[Key]*reassemblyContext)
	r.mu.Unlock()

	for _, key := range keys {
		atomic.AddUint64(&r.timedOut, 1)
		if r.listener != nil {
			r.listener.OnError(key, someiperr.New(someiperr.Timeout, "TP reassembly aborted for %+v", key))
		}
	}
}

// Run starts the periodic reaper and blocks until ctx is canceled.
func (r *Reassembler) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(r.reassemblyTimeout / 2)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				r.DiscardAll()
				return gctx.Err()
			case <-ticker.C:
				r.Reap()
			}
		}
	})
	return g.Wait()
}

// Stats returns a snapshot of reassembler activity.
func (r *Reassembler) Stats() Stats {
	r.mu.Lock()
	active := len(r.contexts)
	r.mu.Unlock()
	return Stats{
		ActiveContexts: active,
		Completed:      atomic.LoadUint64(&r.completed),
		Malformed:      atomic.LoadUint64(&r.malformed),
		TimedOut:       atomic.LoadUint64(&r.timedOut),
		FragmentsSeen:  atomic.LoadUint64(&r.fragments),
	}
}
