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

package deviceapi

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Result label values.
const (
	resultSuccess      = "success"
	resultInvalid      = "invalid"
	resultError        = "error"
	resultNotFound     = "not_found"
	resultUnauthorized = "unauthorized"
	resultReachable    = "reachable"
	resultUnreachable  = "unreachable"
)

// Metrics holds the Prometheus collectors of the device API.
type Metrics struct {
	RegistrationsTotal *prometheus.CounterVec
	ChecksTotal        *prometheus.CounterVec
	ProbeDuration      prometheus.Histogram
}

// NewMetrics creates the device API collectors and registers them, along with
// the Go and process collectors, on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RegistrationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tachyon_device_registrations_total",
				Help: "Total device registration requests by result.",
			},
			[]string{"result"},
		),
		ChecksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tachyon_availability_checks_total",
				Help: "Total availability checks by result.",
			},
			[]string{"result"},
		),
		ProbeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tachyon_probe_duration_seconds",
				Help:    "Duration of reachability probes in seconds.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
	}

	reg.MustRegister(
		m.RegistrationsTotal,
		m.ChecksTotal,
		m.ProbeDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return m
}
