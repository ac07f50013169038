/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package reachability

import (
	"context"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listen(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}

			_ = conn.Close()
		}
	}()

	return ln.Addr().(*net.TCPAddr).Port
}

// closedPort returns a port that refuses connections.
func closedPort(t *testing.T) int {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	return port
}

func TestTCPProber_Reachable(t *testing.T) {
	open := listen(t)
	p := NewTCPProber([]int{closedPort(t), open}, time.Second)

	r := p.Probe(context.Background(), "127.0.0.1")

	assert.True(t, r.Reachable)
	assert.Equal(t, net.JoinHostPort("127.0.0.1", strconv.Itoa(open)), r.Address)
	assert.Empty(t, r.Error)
}

func TestTCPProber_NotReachable(t *testing.T) {
	p := NewTCPProber([]int{closedPort(t)}, time.Second)

	r := p.Probe(context.Background(), "127.0.0.1")

	assert.False(t, r.Reachable)
	assert.NotEmpty(t, r.Error)
}

func TestTCPProber_CanceledContext(t *testing.T) {
	p := NewTCPProber([]int{listen(t)}, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, p.Probe(ctx, "127.0.0.1").Reachable)
}

func TestNewTCPProber_Defaults(t *testing.T) {
	p := NewTCPProber(nil, 0)

	assert.Equal(t, DefaultPorts(), p.Ports)
	assert.Equal(t, DefaultTimeout, p.Timeout)
}

func TestTCPProber_NoPorts(t *testing.T) {
	p := &TCPProber{Timeout: time.Second}

	r := p.Probe(context.Background(), "127.0.0.1")
	assert.False(t, r.Reachable)
	assert.Equal(t, "no ports configured", r.Error)
}
