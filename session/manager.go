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

// Package session implements the per-(service, client) session_id
// counter used to stamp outgoing requests.
package session

import "sync"

// Key identifies one session counter stream.
type Key struct {
	ServiceID uint16
	ClientID  uint16
}

// Manager hands out session_id values that cycle through 1..0xFFFF,
// skipping 0, which the wire format reserves for "no session". A
// single mutex guards the whole map, mirroring the session manager's
// concurrency requirement of one lock per key's logical owner.
type Manager struct {
	mu     sync.Mutex
	values map[Key]uint16
}

// NewManager returns an empty session Manager.
func NewManager() *Manager {
	return &Manager{values: make(map[Key]uint16)}
}

// Next returns the current session_id for k, then advances it per
// "1 + (v mod 0xFFFF)": values 1..=0xFFFF, wrapping back to 1 and
// never producing 0.
func (m *Manager) Next(k Key) uint16 {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[k]
	if !ok {
		v = 1
	}
	m.values[k] = 1 + (v % 0xFFFF)
	return v
}
