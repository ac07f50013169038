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

// Package reachability decides whether a registered device answers on the network.
package reachability

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds each dial when no timeout is configured.
const DefaultTimeout = 2 * time.Second

// DefaultPorts are the management ports tried when none are configured.
func DefaultPorts() []int {
	return []int{22, 23, 80, 443}
}

// Result describes one probe.
type Result struct {
	Reachable bool
	Address   string
	LatencyMS int64
	Error     string
}

// Prober checks reachability of an IPv4 address.
type Prober interface {
	Probe(ctx context.Context, ip string) Result
}

// TCPProber treats a device as reachable when any configured port accepts a TCP connection.
type TCPProber struct {
	Ports   []int
	Timeout time.Duration
}

// NewTCPProber fills in defaults for empty ports or a zero timeout.
func NewTCPProber(ports []int, timeout time.Duration) *TCPProber {
	if len(ports) == 0 {
		ports = DefaultPorts()
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &TCPProber{Ports: ports, Timeout: timeout}
}

// Probe dials every port in parallel and returns the first success, or the last failure.
func (p *TCPProber) Probe(ctx context.Context, ip string) Result {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan Result, len(p.Ports))
	dialer := &net.Dialer{Timeout: p.Timeout}

	for _, port := range p.Ports {
		address := net.JoinHostPort(strings.TrimSpace(ip), strconv.Itoa(port))

		go func() {
			start := time.Now()
			conn, err := dialer.DialContext(ctx, "tcp", address)
			latency := time.Since(start).Milliseconds()

			if err != nil {
				results <- Result{Address: address, LatencyMS: latency, Error: err.Error()}

				return
			}

			_ = conn.Close()

			results <- Result{Reachable: true, Address: address, LatencyMS: latency}
		}()
	}

	last := Result{Address: ip, Error: "no ports configured"}

	for range p.Ports {
		r := <-results
		if r.Reachable {
			return r
		}

		last = r
	}

	return last
}

// ProberFunc adapts a function to Prober.
type ProberFunc func(ctx context.Context, ip string) Result

// Probe calls f.
func (f ProberFunc) Probe(ctx context.Context, ip string) Result {
	return f(ctx, ip)
}
