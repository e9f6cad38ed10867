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

import "sync"

// PeerState tracks one remote SD endpoint's session counter sequence
// so reboots can be detected. A rise of the reboot flag, or any
// non-monotonic continuation of the counter, is treated as a reboot:
// cached subscriptions/offers from that peer must be discarded.
type PeerState struct {
	mu          sync.Mutex
	seen        bool
	lastCounter uint16
	rebootFlag  bool
}

// NewPeerState returns a PeerState with no observed history.
func NewPeerState() *PeerState {
	return &PeerState{}
}

// Observe records one incoming SD message's (session counter, reboot
// flag) pair and reports whether it represents a reboot of the peer.
func (p *PeerState) Observe(counter uint16, reboot bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.seen {
		p.seen = true
		p.lastCounter = counter
		p.rebootFlag = reboot
		return false
	}

	isReboot := false
	if reboot && !p.rebootFlag {
		isReboot = true
	} else if counter <= p.lastCounter {
		isReboot = true
	}

	p.lastCounter = counter
	p.rebootFlag = reboot
	return isReboot
}

// peerRegistry is a mutex-guarded map of PeerState by endpoint string,
// the same syncMap-wrapper shape used for subscription bookkeeping.
type peerRegistry struct {
	mu    sync.Mutex
	peers map[string]*PeerState
}

func newPeerRegistry() *peerRegistry {
	return &peerRegistry{peers: make(map[string]*PeerState)}
}

func (r *peerRegistry) get(endpoint string) *PeerState {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.peers[endpoint]
	if !ok {
		p = NewPeerState()
		r.peers[endpoint] = p
	}
	return p
}

func (r *peerRegistry) reset(endpoint string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.peers, endpoint)
}
