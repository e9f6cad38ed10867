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

package transport

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUDPConnLoopbackRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReusePort = false

	server, err := NewUDPConn(net.ParseIP("127.0.0.1"), 0, cfg)
	require.NoError(t, err)
	defer server.Close()

	client, err := NewUDPConn(net.ParseIP("127.0.0.1"), 0, cfg)
	require.NoError(t, err)
	defer client.Close()

	serverAddr, err := server.LocalAddr()
	require.NoError(t, err)

	payload := []byte("hello someip")
	n, err := client.WriteTo(payload, serverAddr.IP, serverAddr.Port)
	require.NoError(t, err)
	assert.Equal(t, len(payload), n)

	buf := make([]byte, 1500)
	got, _, err := server.ReadFrom(buf)
	require.NoError(t, err)
	assert.Equal(t, payload, buf[:got])
}
