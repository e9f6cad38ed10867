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

// Package stats collects and exposes counters for the TP reassembler,
// SD state engine and E2E validation outcomes, via a JSON HTTP
// endpoint and a Prometheus exporter.
package stats

import "sync"

// Counters is a mutex-guarded map of named counters, incremented from
// any goroutine and snapshotted for reporting.
type Counters struct {
	mu     sync.Mutex
	values map[string]int64
}

// NewCounters returns an empty Counters.
func NewCounters() *Counters {
	return &Counters{values: make(map[string]int64)}
}

// Inc increments the named counter by delta.
func (c *Counters) Inc(name string, delta int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] += delta
}

// Set sets the named counter to v.
func (c *Counters) Set(name string, v int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[name] = v
}

// Snapshot returns a copy of all counters.
func (c *Counters) Snapshot() map[string]int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]int64, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Well-known counter names populated by the TP, SD and E2E
// subsystems.
const (
	CounterTPCompleted     = "tp.reassembly.completed"
	CounterTPMalformed     = "tp.reassembly.malformed"
	CounterTPTimedOut      = "tp.reassembly.timed_out"
	CounterTPFragmentsSeen = "tp.reassembly.fragments_seen"
	CounterSDOffersSent    = "sd.offers_sent"
	CounterSDFindsSent     = "sd.finds_sent"
	CounterSDReboots       = "sd.peer_reboots"
	CounterE2ESuccess      = "e2e.validate.success"
	CounterE2EInvalid      = "e2e.validate.invalid_argument"
	CounterE2ETimeout      = "e2e.validate.timeout"
)
