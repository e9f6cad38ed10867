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

// Package config loads the YAML configuration surface consumed by the
// UDP transport, TP, SD and E2E subsystems.
package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"

	"github.com/someip-go/someip/e2e"
	"github.com/someip-go/someip/transport"
)

// TPConfig is the TP segmenter/reassembler configuration surface.
type TPConfig struct {
	MaxSegmentSize      uint32        `yaml:"max_segment_size"`
	ReassemblyTimeout   time.Duration `yaml:"reassembly_timeout"`
	MaxBufferPerContext uint32        `yaml:"max_buffer_per_context"`
}

// DefaultTPConfig returns the TP defaults.
func DefaultTPConfig() TPConfig {
	return TPConfig{
		MaxSegmentSize:      1388,
		ReassemblyTimeout:   5 * time.Second,
		MaxBufferPerContext: 64 * 1024,
	}
}

// SDConfig is the SD timing configuration surface.
type SDConfig struct {
	InitialDelayMin      time.Duration `yaml:"initial_delay_min"`
	InitialDelayMax      time.Duration `yaml:"initial_delay_max"`
	RepetitionsBaseDelay time.Duration `yaml:"repetitions_base_delay"`
	RepetitionsMax       int           `yaml:"repetitions_max"`
	CyclicOfferDelay     time.Duration `yaml:"cyclic_offer_delay"`
}

// DefaultSDConfig returns sane SD timing defaults.
func DefaultSDConfig() SDConfig {
	return SDConfig{
		InitialDelayMin:      10 * time.Millisecond,
		InitialDelayMax:      50 * time.Millisecond,
		RepetitionsBaseDelay: 200 * time.Millisecond,
		RepetitionsMax:       3,
		CyclicOfferDelay:     2 * time.Second,
	}
}

// Config is the top-level configuration surface for a SOME/IP
// endpoint: one UDP socket configuration, one TP configuration, one SD
// configuration, and the default E2E configuration new streams start
// from.
type Config struct {
	UDP transport.Config `yaml:"udp"`
	TP  TPConfig          `yaml:"tp"`
	SD  SDConfig          `yaml:"sd"`
	E2E e2e.Config        `yaml:"e2e"`
}

// Default returns a Config populated entirely with documented
// defaults.
func Default() Config {
	return Config{
		UDP: transport.DefaultConfig(),
		TP:  DefaultTPConfig(),
		SD:  DefaultSDConfig(),
		E2E: e2e.DefaultConfig(0),
	}
}

// Read loads a Config from a YAML file at path, starting from Default
// and overlaying whatever fields the file sets.
func Read(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return &cfg, nil
}

// Write serializes cfg to path as YAML.
func Write(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
