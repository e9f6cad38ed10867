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

import "github.com/someip-go/someip/wire"

// Profile is the polymorphic E2E protection abstraction. Implementations
// are registered with a Registry and looked up by id or name.
type Profile interface {
	// Protect computes and embeds the profile's protection header into
	// msg's payload according to cfg.
	Protect(msg *wire.Message, cfg *Config) error
	// Validate checks msg's embedded protection header against cfg and
	// the profile's own replay/freshness state.
	Validate(msg *wire.Message, cfg *Config) error
	// HeaderSize returns the number of bytes this profile's header
	// occupies in the payload.
	HeaderSize() uint32
	// Name returns the profile's registration name.
	Name() string
	// ID returns the profile's registration id.
	ID() uint32
}
