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

package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

// invariant 6: 0xFFFF calls starting from 1 produce exactly 1..0xFFFF
// in order, the 0x10000th call yields 1 again, and 0 never appears.
func TestManagerNextCyclesThroughFullRange(t *testing.T) {
	m := NewManager()
	k := Key{ServiceID: 0x1, ClientID: 0x2}

	for want := uint16(1); want != 0; want++ {
		got := m.Next(k)
		assert.Equal(t, want, got)
		assert.NotEqual(t, uint16(0), got)
		if want == 0xFFFF {
			break
		}
	}
	assert.Equal(t, uint16(1), m.Next(k))
}

func TestManagerNextIsIndependentPerKey(t *testing.T) {
	m := NewManager()
	a := Key{ServiceID: 1, ClientID: 1}
	b := Key{ServiceID: 1, ClientID: 2}

	assert.Equal(t, uint16(1), m.Next(a))
	assert.Equal(t, uint16(2), m.Next(a))
	assert.Equal(t, uint16(1), m.Next(b))
}

func TestManagerNextIsConcurrencySafe(t *testing.T) {
	m := NewManager()
	k := Key{ServiceID: 9, ClientID: 9}

	var wg sync.WaitGroup
	seen := make(chan uint16, 2000)
	for i := 0; i < 2000; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- m.Next(k)
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[uint16]struct{})
	for v := range seen {
		assert.NotEqual(t, uint16(0), v)
		unique[v] = struct{}{}
	}
	assert.Len(t, unique, 2000)
}
