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
	"github.com/someip-go/someip/someiperr"
	"github.com/someip-go/someip/tp"
)

// RecordTPStats overwrites the tp.* counters from a tp.Reassembler
// snapshot. Call this periodically, e.g. from the same goroutine that
// reaps expired reassembly contexts.
func (c *Counters) RecordTPStats(s tp.Stats) {
	c.Set(CounterTPCompleted, int64(s.Completed))
	c.Set(CounterTPMalformed, int64(s.Malformed))
	c.Set(CounterTPTimedOut, int64(s.TimedOut))
	c.Set(CounterTPFragmentsSeen, int64(s.FragmentsSeen))
}

// RecordE2EValidation classifies the error returned by a Profile's
// Validate call and increments the matching outcome counter.
func (c *Counters) RecordE2EValidation(err error) {
	switch {
	case err == nil:
		c.Inc(CounterE2ESuccess, 1)
	case someiperr.Is(err, someiperr.Timeout):
		c.Inc(CounterE2ETimeout, 1)
	default:
		c.Inc(CounterE2EInvalid, 1)
	}
}

// RecordSDOfferSent increments the offer-sent counter.
func (c *Counters) RecordSDOfferSent() {
	c.Inc(CounterSDOffersSent, 1)
}

// RecordSDFindSent increments the find-sent counter.
func (c *Counters) RecordSDFindSent() {
	c.Inc(CounterSDFindsSent, 1)
}

// RecordSDReboot increments the peer-reboot counter.
func (c *Counters) RecordSDReboot() {
	c.Inc(CounterSDReboots, 1)
}
