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

package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadWriteRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.TP.MaxSegmentSize = 512
	cfg.SD.RepetitionsMax = 5

	path := filepath.Join(t.TempDir(), "someip.yaml")
	require.NoError(t, Write(path, &cfg))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(512), got.TP.MaxSegmentSize)
	assert.Equal(t, 5, got.SD.RepetitionsMax)
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
