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

package stats

import (
	"sync"
	"testing"

	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/tp"
	"github.com/stretchr/testify/assert"
)

func TestCountersIncAndSnapshot(t *testing.T) {
	c := NewCounters()
	c.Inc(CounterSDOffersSent, 1)
	c.Inc(CounterSDOffersSent, 2)

	snap := c.Snapshot()
	assert.Equal(t, int64(3), snap[CounterSDOffersSent])
}

func TestCountersSnapshotIsACopy(t *testing.T) {
	c := NewCounters()
	c.Inc(CounterSDFindsSent, 1)

	snap := c.Snapshot()
	snap[CounterSDFindsSent] = 99

	assert.Equal(t, int64(1), c.Snapshot()[CounterSDFindsSent])
}

func TestCountersConcurrentInc(t *testing.T) {
	c := NewCounters()
	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Inc(CounterE2ESuccess, 1)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(200), c.Snapshot()[CounterE2ESuccess])
}

func TestRecordTPStats(t *testing.T) {
	c := NewCounters()
	c.RecordTPStats(tp.Stats{Completed: 4, Malformed: 1, TimedOut: 2, FragmentsSeen: 10})

	snap := c.Snapshot()
	assert.Equal(t, int64(4), snap[CounterTPCompleted])
	assert.Equal(t, int64(1), snap[CounterTPMalformed])
	assert.Equal(t, int64(2), snap[CounterTPTimedOut])
	assert.Equal(t, int64(10), snap[CounterTPFragmentsSeen])
}

func TestRecordE2EValidationClassifiesOutcome(t *testing.T) {
	c := NewCounters()
	c.RecordE2EValidation(nil)
	c.RecordE2EValidation(someiperr.New(someiperr.Timeout, "stale"))
	c.RecordE2EValidation(someiperr.New(someiperr.InvalidArgument, "bad crc"))

	snap := c.Snapshot()
	assert.Equal(t, int64(1), snap[CounterE2ESuccess])
	assert.Equal(t, int64(1), snap[CounterE2ETimeout])
	assert.Equal(t, int64(1), snap[CounterE2EInvalid])
}

func TestFlattenKeySanitizesName(t *testing.T) {
	got := flattenKey("tp.reassembly.completed")
	assert.Equal(t, "someip_tp_reassembly_completed", got)
}
