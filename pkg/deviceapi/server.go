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

// Package deviceapi serves the device registration and availability HTTP API.
package deviceapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carverauto/tachyon/pkg/devicestore"
	srHttp "github.com/carverauto/tachyon/pkg/http"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/natsutil"
	"github.com/carverauto/tachyon/pkg/reachability"
)

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 30 * time.Second
	defaultIdleTimeout     = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// DeviceStore persists devices and verifies their passwords.
type DeviceStore interface {
	AddDevice(ctx context.Context, name, ip, password string) (*devicestore.Device, error)
	Verify(ctx context.Context, name, password string) (*devicestore.Device, error)
	ListDeviceNames(ctx context.Context) ([]string, error)
}

// Server is the device API.
type Server struct {
	router     *mux.Router
	store      DeviceStore
	prober     reachability.Prober
	publisher  natsutil.Publisher
	registry   *prometheus.Registry
	metrics    *Metrics
	corsConfig srHttp.CORSConfig
	logger     logger.Logger
}

// NewServer creates a new API server backed by store and prober.
func NewServer(store DeviceStore, prober reachability.Prober, options ...func(*Server)) *Server {
	s := &Server{
		router:     mux.NewRouter(),
		store:      store,
		prober:     prober,
		publisher:  natsutil.NopPublisher{},
		registry:   prometheus.NewRegistry(),
		corsConfig: srHttp.AllowAllOrigins(),
		logger:     logger.NewTestLogger(),
	}

	for _, o := range options {
		o(s)
	}

	s.metrics = NewMetrics(s.registry)
	s.setupRoutes()

	return s
}

// WithPublisher sets the device event publisher.
func WithPublisher(p natsutil.Publisher) func(*Server) {
	return func(s *Server) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the server logger.
func WithLogger(log logger.Logger) func(*Server) {
	return func(s *Server) {
		if log != nil {
			s.logger = log
		}
	}
}

// WithCORSConfig replaces the allow-all CORS policy.
func WithCORSConfig(c srHttp.CORSConfig) func(*Server) {
	return func(s *Server) {
		s.corsConfig = c
	}
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/add_device", s.handleAddDevice).Methods(http.MethodPost)
	s.router.HandleFunc("/check_availability", s.handleCheckAvailability).Methods(http.MethodGet, http.MethodPost)
	s.router.HandleFunc("/devices", s.handleListDevices).Methods(http.MethodGet)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
}

// Metrics returns the server collectors.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Handler returns the router wrapped in the common middleware. The middleware
// sits outside the router so preflight requests never reach route matching.
func (s *Server) Handler() http.Handler {
	return srHttp.CommonMiddleware(s.router, s.corsConfig, s.logger)
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
		IdleTimeout:  defaultIdleTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", addr).Msg("Device API listening")

		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	s.logger.Info().Msg("Device API stopped")

	return nil
}
