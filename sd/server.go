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
	"math/rand"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/someip-go/someip/someiperr"
)

// State is one of the five states a local service's offer lifecycle
// can be in.
type State int

// Offer lifecycle states.
const (
	StateDown State = iota
	StateInitialWait
	StateRepetition
	StateMain
	StateStopped
)

var stateToString = map[State]string{
	StateDown:        "DOWN",
	StateInitialWait: "INITIAL_WAIT",
	StateRepetition:  "REPETITION",
	StateMain:        "MAIN",
	StateStopped:     "STOPPED",
}

func (s State) String() string {
	if v, ok := stateToString[s]; ok {
		return v
	}
	return "UNKNOWN"
}

// ServerConfig carries the timing parameters of the offer state
// machine.
type ServerConfig struct {
	InitialDelayMin      time.Duration
	InitialDelayMax      time.Duration
	RepetitionsBaseDelay time.Duration
	RepetitionsMax       int
	CyclicOfferDelay     time.Duration
	TTL                  uint32
}

// DefaultServerConfig returns reasonable SD timing defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		InitialDelayMin:      10 * time.Millisecond,
		InitialDelayMax:      50 * time.Millisecond,
		RepetitionsBaseDelay: 100 * time.Millisecond,
		RepetitionsMax:       3,
		CyclicOfferDelay:     2 * time.Second,
		TTL:                  3,
	}
}

// ServerInstance drives one local service's DOWN → INITIAL_WAIT →
// REPETITION → MAIN → STOPPED lifecycle, sending OfferService /
// StopOfferService through sendFn.
type ServerInstance struct {
	mu    sync.Mutex
	state State

	serviceID, instanceID uint16
	majorVersion          uint8
	cfg                   ServerConfig
	sched                 Scheduler
	sendFn                func(*SDMessage) error

	timer      Timer
	peers      *peerRegistry
	drainCount int
}

// NewServerInstance constructs a ServerInstance in state DOWN.
func NewServerInstance(serviceID, instanceID uint16, majorVersion uint8, cfg ServerConfig, sched Scheduler, sendFn func(*SDMessage) error) *ServerInstance {
	return &ServerInstance{
		state:        StateDown,
		serviceID:    serviceID,
		instanceID:   instanceID,
		majorVersion: majorVersion,
		cfg:          cfg,
		sched:        sched,
		sendFn:       sendFn,
		peers:        newPeerRegistry(),
	}
}

// State returns the instance's current state.
func (s *ServerInstance) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Offer begins the offer lifecycle: DOWN → INITIAL_WAIT, arming a
// random delay before the first OfferService is sent.
func (s *ServerInstance) Offer() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateDown && s.state != StateStopped {
		return someiperr.New(someiperr.InvalidArgument, "Offer called in state %s", s.state)
	}
	s.state = StateInitialWait
	delay := s.cfg.InitialDelayMin
	if span := s.cfg.InitialDelayMax - s.cfg.InitialDelayMin; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span) + 1))
	}
	s.timer = s.sched.After(delay, s.enterRepetition)
	return nil
}

func (s *ServerInstance) enterRepetition() {
	s.mu.Lock()
	if s.state != StateInitialWait {
		s.mu.Unlock()
		return
	}
	s.state = StateRepetition
	s.mu.Unlock()

	s.sendOffer()
	s.scheduleRepetition(s.cfg.RepetitionsBaseDelay, 0)
}

func (s *ServerInstance) scheduleRepetition(delay time.Duration, iteration int) {
	s.mu.Lock()
	if s.state != StateRepetition {
		s.mu.Unlock()
		return
	}
	if iteration >= s.cfg.RepetitionsMax {
		s.mu.Unlock()
		s.enterMain()
		return
	}
	s.timer = s.sched.After(delay, func() {
		s.sendOffer()
		s.scheduleRepetition(delay*2, iteration+1)
	})
	s.mu.Unlock()
}

func (s *ServerInstance) enterMain() {
	s.mu.Lock()
	if s.state != StateRepetition {
		s.mu.Unlock()
		return
	}
	s.state = StateMain
	s.mu.Unlock()
	s.scheduleCyclic()
}

func (s *ServerInstance) scheduleCyclic() {
	s.mu.Lock()
	if s.state != StateMain {
		s.mu.Unlock()
		return
	}
	s.timer = s.sched.After(s.cfg.CyclicOfferDelay, func() {
		s.sendOffer()
		s.scheduleCyclic()
	})
	s.mu.Unlock()
}

func (s *ServerInstance) sendOffer() {
	_ = s.sendFn(&SDMessage{
		UnicastSupported: true,
		Entries: []EntryOptions{{
			Entry: Entry{
				Type:         EntryOfferService,
				ServiceID:    s.serviceID,
				InstanceID:   s.instanceID,
				MajorVersion: s.majorVersion,
				TTL:          s.cfg.TTL,
			},
		}},
	})
}

// StopOffer transitions to STOPPED, canceling any pending timer and
// sending a StopOfferService (ttl=0).
func (s *ServerInstance) StopOffer() error {
	return s.stop(false)
}

// Drain performs the same withdrawal as StopOffer, but logs it as an
// externally-triggered graceful drain rather than an application-level
// stop, and increments drainCount so callers can tell the two apart.
// Meant to be invoked from WatchDrain, not from application code that
// wants an ordinary StopOffer.
func (s *ServerInstance) Drain() error {
	return s.stop(true)
}

// WatchDrain polls shouldDrain every interval, using the instance's
// own Scheduler, and calls Drain the moment it first reports true.
// Mirrors ptp/ptp4u/drain's FileDrain poll loop, adapted to take an
// injectable predicate instead of hardcoding a killswitch file path.
// The returned func stops the poll loop; it is a no-op after Drain has
// already fired.
func (s *ServerInstance) WatchDrain(shouldDrain func() bool, interval time.Duration) func() {
	stop := make(chan struct{})
	var poll func()
	poll = func() {
		select {
		case <-stop:
			return
		default:
		}
		if shouldDrain() {
			if err := s.Drain(); err != nil {
				log.Debugf("drain predicate fired but instance was not drainable: %v", err)
			}
			return
		}
		s.sched.After(interval, poll)
	}
	poll()
	return func() { close(stop) }
}

func (s *ServerInstance) stop(draining bool) error {
	s.mu.Lock()
	if s.state == StateDown || s.state == StateStopped {
		s.mu.Unlock()
		return someiperr.New(someiperr.InvalidArgument, "StopOffer called in state %s", s.state)
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.state = StateStopped
	if draining {
		s.drainCount++
	}
	s.mu.Unlock()

	if draining {
		log.Infof("service 0x%04x instance 0x%04x draining (externally triggered)", s.serviceID, s.instanceID)
	} else {
		log.Infof("service 0x%04x instance 0x%04x stopping offer", s.serviceID, s.instanceID)
	}

	return s.sendFn(&SDMessage{
		Entries: []EntryOptions{{
			Entry: Entry{
				Type:         EntryOfferService,
				ServiceID:    s.serviceID,
				InstanceID:   s.instanceID,
				MajorVersion: s.majorVersion,
				TTL:          StopTTL,
			},
		}},
	})
}

// DrainCount returns how many times this instance has been stopped via
// Drain rather than StopOffer, for callers that want to distinguish
// graceful drains from ordinary stops in metrics.
func (s *ServerInstance) DrainCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drainCount
}

// HandleReboot observes a peer's session counter and reboot flag,
// discarding the peer's cached state if a reboot is detected.
func (s *ServerInstance) HandleReboot(peerEndpoint string, counter uint16, reboot bool) bool {
	if s.peers.get(peerEndpoint).Observe(counter, reboot) {
		s.peers.reset(peerEndpoint)
		return true
	}
	return false
}
