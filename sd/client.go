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
	"sync"

	"github.com/someip-go/someip/someiperr"
)

// ClientState is the client-side mirror of State: it searches for a
// service until an offer is observed, then tracks it.
type ClientState int

// Client lifecycle states.
const (
	ClientIdle ClientState = iota
	ClientInitialWait
	ClientRepetition
	ClientTracking
	ClientStopped
)

// ClientInstance issues FindService until an OfferService for the
// wanted service is observed, then subscribes to event groups against
// the discovered endpoint.
type ClientInstance struct {
	mu    sync.Mutex
	state ClientState

	serviceID, majorVersion uint16
	cfg                     ServerConfig
	sched                   Scheduler
	sendFn                  func(*SDMessage) error

	timer     Timer
	peer      string
	eventgroups map[uint16]bool
}

// NewClientInstance constructs a ClientInstance in state idle.
func NewClientInstance(serviceID, majorVersion uint16, cfg ServerConfig, sched Scheduler, sendFn func(*SDMessage) error) *ClientInstance {
	return &ClientInstance{
		state:       ClientIdle,
		serviceID:   serviceID,
		majorVersion: majorVersion,
		cfg:         cfg,
		sched:       sched,
		sendFn:      sendFn,
		eventgroups: make(map[uint16]bool),
	}
}

// State returns the client's current state.
func (c *ClientInstance) State() ClientState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Find starts the find-service search.
func (c *ClientInstance) Find() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ClientIdle && c.state != ClientStopped {
		return someiperr.New(someiperr.InvalidArgument, "Find called in invalid state")
	}
	c.state = ClientInitialWait
	c.timer = c.sched.After(c.cfg.InitialDelayMin, c.sendFindLocked)
	return nil
}

func (c *ClientInstance) sendFindLocked() {
	c.mu.Lock()
	if c.state != ClientInitialWait && c.state != ClientRepetition {
		c.mu.Unlock()
		return
	}
	c.state = ClientRepetition
	serviceID, majorVersion := c.serviceID, c.majorVersion
	delay := c.cfg.RepetitionsBaseDelay
	c.timer = c.sched.After(delay, c.sendFindLocked)
	c.mu.Unlock()

	_ = c.sendFn(&SDMessage{
		Entries: []EntryOptions{{
			Entry: Entry{
				Type:         EntryFindService,
				ServiceID:    serviceID,
				MajorVersion: uint8(majorVersion),
				TTL:          0xFFFFFF,
			},
		}},
	})
}

// OnOfferReceived transitions the client to TRACKING once an offer
// for the wanted service is observed from peerEndpoint.
func (c *ClientInstance) OnOfferReceived(peerEndpoint string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == ClientStopped {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = ClientTracking
	c.peer = peerEndpoint
}

// SubscribeEventgroup sends a SubscribeEventgroup entry for the
// currently tracked offer.
func (c *ClientInstance) SubscribeEventgroup(eventgroupID uint16, clientID uint16) error {
	c.mu.Lock()
	if c.state != ClientTracking {
		c.mu.Unlock()
		return someiperr.New(someiperr.NotReady, "SubscribeEventgroup called without a tracked offer")
	}
	c.eventgroups[eventgroupID] = true
	serviceID, majorVersion := c.serviceID, c.majorVersion
	c.mu.Unlock()

	return c.sendFn(&SDMessage{
		Entries: []EntryOptions{{
			Entry: Entry{
				Type:              EntrySubscribeEventgroup,
				ServiceID:         serviceID,
				MajorVersion:      uint8(majorVersion),
				TTL:               0xFFFFFF,
				MinorOrEventgroup: uint32(eventgroupID),
			},
		}},
	})
}

// Stop halts the client state machine.
func (c *ClientInstance) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.state = ClientStopped
}
