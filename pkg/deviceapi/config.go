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
	"fmt"
	"time"

	"github.com/carverauto/tachyon/pkg/config"
	"github.com/carverauto/tachyon/pkg/devicestore"
	srHttp "github.com/carverauto/tachyon/pkg/http"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/natsutil"
	"github.com/carverauto/tachyon/pkg/reachability"
)

const (
	defaultListenAddr = ":5000"
	defaultDSN        = "tachyon.db"
)

// ProbeConfig configures the TCP reachability probe.
type ProbeConfig struct {
	Ports   []int           `json:"ports" yaml:"ports"`
	Timeout config.Duration `json:"timeout" yaml:"timeout"`
}

// BackendConfig is the configuration of the tachyon backend service.
// An empty NATSURL disables event publishing. NATSNkeySeedFile enables nkey authentication.
type BackendConfig struct {
	ListenAddr        string             `json:"listen_addr" yaml:"listen_addr"`
	Database          devicestore.Config `json:"database" yaml:"database"`
	Probe             ProbeConfig        `json:"probe" yaml:"probe"`
	CORS              srHttp.CORSConfig  `json:"cors" yaml:"cors"`
	NATSURL           string             `json:"nats_url" yaml:"nats_url"`
	NATSStream        string             `json:"nats_stream" yaml:"nats_stream"`
	NATSSubjectPrefix string             `json:"nats_subject_prefix" yaml:"nats_subject_prefix"`
	NATSNkeySeedFile  string             `json:"nats_nkey_seed_file" yaml:"nats_nkey_seed_file"`
	Logging           *logger.Config     `json:"logging" yaml:"logging"`
}

// DefaultBackendConfig returns the configuration used when nothing overrides it.
func DefaultBackendConfig() *BackendConfig {
	return &BackendConfig{
		ListenAddr: defaultListenAddr,
		Database: devicestore.Config{
			Driver: devicestore.DriverSQLite,
			DSN:    defaultDSN,
		},
		Probe: ProbeConfig{
			Ports:   reachability.DefaultPorts(),
			Timeout: config.Duration(reachability.DefaultTimeout),
		},
		CORS:              srHttp.AllowAllOrigins(),
		NATSStream:        natsutil.DefaultStreamName,
		NATSSubjectPrefix: natsutil.DefaultSubjectPrefix,
		Logging: &logger.Config{
			Level:  "info",
			Output: "stdout",
		},
	}
}

// Validate implements config.Validator.
func (c *BackendConfig) Validate() error {
	if c.ListenAddr == "" {
		return errMissingListenAddr
	}

	switch c.Database.Driver {
	case "", devicestore.DriverSQLite, devicestore.DriverMySQL, devicestore.DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", errUnsupportedDriver, c.Database.Driver)
	}

	for _, p := range c.Probe.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("%w: %d", errInvalidPort, p)
		}
	}

	if c.Probe.Timeout < 0 {
		return errNegativeTimeout
	}

	return nil
}

// ProbeTimeout returns the configured timeout or the prober default.
func (c *BackendConfig) ProbeTimeout() time.Duration {
	if c.Probe.Timeout <= 0 {
		return reachability.DefaultTimeout
	}

	return c.Probe.Timeout.Std()
}
