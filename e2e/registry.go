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

package e2e

import (
	"sync"

	"github.com/someip-go/someip/someiperr"
)

// Registry is the one process-wide mutable singleton this module
// permits: a map of E2E profiles keyed by both id and name. One
// RWMutex guards it: registrations take the write lock and are
// serialized, lookups take the read lock and do not block each other,
// mirroring
// the mutex-guarded map pattern used for subscription bookkeeping
// elsewhere in this stack.
type Registry struct {
	mu       sync.RWMutex
	byID     map[uint32]Profile
	byName   map[string]Profile
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the process-wide registry, creating and initializing
// it (with the standard profile registered) on first use. Callers that
// want a private registry for tests should use NewRegistry instead.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry()
		_ = defaultReg.Register(NewStandardProfile())
	})
	return defaultReg
}

// NewRegistry returns an empty registry with nothing registered. Most
// callers want Default(); this constructor exists for tests and for
// processes that need full control over what gets id 0.
func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[uint32]Profile),
		byName: make(map[string]Profile),
	}
}

// Register adds p to the registry. Fails if either its id or its name
// is already taken.
func (r *Registry) Register(p Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[p.ID()]; ok {
		return someiperr.New(someiperr.InvalidArgument, "profile id %d already registered", p.ID())
	}
	if _, ok := r.byName[p.Name()]; ok {
		return someiperr.New(someiperr.InvalidArgument, "profile name %q already registered", p.Name())
	}
	r.byID[p.ID()] = p
	r.byName[p.Name()] = p
	return nil
}

// Unregister removes the profile with the given id, also removing its
// name entry.
func (r *Registry) Unregister(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[id]
	if !ok {
		return
	}
	delete(r.byID, id)
	delete(r.byName, p.Name())
}

// Lookup resolves a profile by id first, falling back to name if id is
// not 0 and not found, or the id is the zero value and only the name
// is meaningful.
func (r *Registry) Lookup(id uint32, name string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.byID[id]; ok {
		return p, nil
	}
	if p, ok := r.byName[name]; ok {
		return p, nil
	}
	return nil, someiperr.New(someiperr.NotInitialized, "no E2E profile registered for id=%d name=%q", id, name)
}

// LookupConfig resolves the profile named by cfg.
func (r *Registry) LookupConfig(cfg *Config) (Profile, error) {
	return r.Lookup(cfg.ProfileID, cfg.ProfileName)
}
