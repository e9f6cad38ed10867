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

// Package e2e implements the pluggable CRC/counter/freshness
// End-to-End protection framework: a profile registry plus the
// built-in standard profile.
package e2e

import "github.com/someip-go/someip/wire/crc"

// Config is the per-message E2E configuration surface.
type Config struct {
	ProfileID           uint32 `yaml:"profile_id"`
	ProfileName         string `yaml:"profile_name"`
	DataID              uint16 `yaml:"data_id"`
	Offset              uint32 `yaml:"offset"`
	EnableCRC           bool   `yaml:"enable_crc"`
	EnableCounter       bool   `yaml:"enable_counter"`
	EnableFreshness     bool   `yaml:"enable_freshness"`
	MaxCounterValue     uint32 `yaml:"max_counter_value"`
	FreshnessTimeoutMs  uint32 `yaml:"freshness_timeout_ms"`
	CRCType             crc.Type `yaml:"crc_type"`
}

// DefaultConfig returns a Config populated with documented defaults.
func DefaultConfig(dataID uint16) Config {
	return Config{
		ProfileID:          0,
		ProfileName:        "standard",
		DataID:             dataID,
		Offset:             8,
		EnableCRC:          true,
		EnableCounter:      true,
		EnableFreshness:    true,
		MaxCounterValue:    0xFFFFFFFF,
		FreshnessTimeoutMs: 1000,
		CRCType:            crc.TypeCRC16,
	}
}
