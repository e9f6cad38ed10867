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
	"testing"
	"time"

	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingListener struct {
	completed []*wire.Message
	errs      []error
}

func (l *recordingListener) OnComplete(_ Key, msg *wire.Message) { l.completed = append(l.completed, msg) }
func (l *recordingListener) OnError(_ Key, err error)            { l.errs = append(l.errs, err) }

func feedAll(t *testing.T, r *Reassembler, peer string, order []int, frags []*wire.Message) *wire.Message {
	t.Helper()
	var final *wire.Message
	for _, idx := range order {
		msg, err := r.Insert(peer, frags[idx])
		require.NoError(t, err)
		if msg != nil {
			final = msg
		}
	}
	return final
}

// invariant 2: for any permutation of fragments, reassembly recovers
// the exact original payload.
func TestReassemblePermutationInvariant(t *testing.T) {
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)
	require.Len(t, frags, 3)

	permutations := [][]int{
		{0, 1, 2},
		{2, 0, 1},
		{1, 2, 0},
		{2, 1, 0},
	}
	for _, perm := range permutations {
		r := NewReassembler(time.Second, DefaultMaxBufferPerContext, nil)
		got := feedAll(t, r, "peer1", perm, frags)
		require.NotNil(t, got)
		assert.Equal(t, payload, got.Payload)
		assert.Equal(t, wire.MessageRequest, got.MessageType)
	}
}

// invariant 3: duplicate fragments never corrupt the reassembled output.
func TestReassembleDuplicateFragmentsAreHarmless(t *testing.T) {
	payload := make([]byte, 3000)
	for i := range payload {
		payload[i] = byte(i)
	}
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)

	r := NewReassembler(time.Second, DefaultMaxBufferPerContext, nil)
	got := feedAll(t, r, "peer1", []int{1, 0, 1, 2}, frags)
	require.NotNil(t, got)
	assert.Equal(t, payload, got.Payload)
}

// invariant 4: overlapping fragments that disagree yield a malformed
// context and no message.
func TestReassembleOverlapMismatchIsMalformed(t *testing.T) {
	payload := make([]byte, 2048)
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)
	require.Len(t, frags, 2)

	tampered := &wire.Message{Header: frags[0].Header, Payload: append([]byte(nil), frags[0].Payload...)}
	tampered.Payload[HeaderSize] ^= 0xFF // same offset/length, different bytes

	r := NewReassembler(time.Second, DefaultMaxBufferPerContext, nil)
	_, err = r.Insert("peer1", frags[0])
	require.NoError(t, err)
	_, err = r.Insert("peer1", tampered)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))

	stats := r.Stats()
	assert.Equal(t, 0, stats.ActiveContexts)
	assert.EqualValues(t, 1, stats.Malformed)
}

// S3 - a context with only a first fragment is reaped as TIMEOUT.
func TestReassemblerReapsTimedOutContext(t *testing.T) {
	payload := make([]byte, 2048)
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)

	listener := &recordingListener{}
	r := NewReassembler(10*time.Millisecond, DefaultMaxBufferPerContext, listener)
	_, err = r.Insert("peer1", frags[0])
	require.NoError(t, err)

	time.Sleep(30 * time.Millisecond)
	r.Reap()

	require.Len(t, listener.errs, 1)
	assert.True(t, someiperr.Is(listener.errs[0], someiperr.Timeout))
	assert.Equal(t, 0, r.Stats().ActiveContexts)
}

func TestReassemblerEnforcesMemoryBound(t *testing.T) {
	payload := make([]byte, 4096)
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)

	r := NewReassembler(time.Second, 1500, nil)
	_, err = r.Insert("peer1", frags[0])
	require.NoError(t, err)
	_, err = r.Insert("peer1", frags[1])
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}

func TestReassemblerRejectsFragmentBeyondKnownTotalLength(t *testing.T) {
	payload := make([]byte, 2048)
	frags, err := Segment(baseMessage(payload), 1024)
	require.NoError(t, err)

	r := NewReassembler(time.Second, DefaultMaxBufferPerContext, nil)
	_, err = r.Insert("peer1", frags[1]) // final fragment first, fixes total_length
	require.NoError(t, err)

	extra := &wire.Message{Header: frags[1].Header, Payload: append([]byte(nil), frags[1].Payload...)}
	h := Header{Offset: 2048, More: false}
	_, _ = h.MarshalBinaryTo(extra.Payload)
	_, err = r.Insert("peer1", extra)
	assert.True(t, someiperr.Is(err, someiperr.MalformedMessage))
}
