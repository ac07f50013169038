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
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/tachyon/pkg/config"
	"github.com/carverauto/tachyon/pkg/logger"
)

func TestDefaultBackendConfig(t *testing.T) {
	cfg := DefaultBackendConfig()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":5000", cfg.ListenAddr)
	assert.Equal(t, []int{22, 23, 80, 443}, cfg.Probe.Ports)
	assert.Equal(t, 2*time.Second, cfg.ProbeTimeout())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Empty(t, cfg.NATSURL)
}

func TestBackendConfigFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: "127.0.0.1:8080"
database:
  driver: mysql
  dsn: "root:pw@tcp(localhost:3306)/world"
probe:
  ports: [443]
  timeout: 750ms
nats_url: "nats://localhost:4222"
nats_nkey_seed_file: "/etc/tachyon/backend.nk"
`), 0o600))

	cfg := DefaultBackendConfig()
	require.NoError(t, config.NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, cfg))

	assert.Equal(t, "127.0.0.1:8080", cfg.ListenAddr)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Equal(t, []int{443}, cfg.Probe.Ports)
	assert.Equal(t, 750*time.Millisecond, cfg.ProbeTimeout())
	assert.Equal(t, "nats://localhost:4222", cfg.NATSURL)
	assert.Equal(t, "devices", cfg.NATSSubjectPrefix)
	assert.Equal(t, "/etc/tachyon/backend.nk", cfg.NATSNkeySeedFile)
}

func TestBackendConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*BackendConfig)
		want   error
	}{
		{name: "empty listen addr", mutate: func(c *BackendConfig) { c.ListenAddr = "" }, want: errMissingListenAddr},
		{name: "unknown driver", mutate: func(c *BackendConfig) { c.Database.Driver = "oracle" }, want: errUnsupportedDriver},
		{name: "port zero", mutate: func(c *BackendConfig) { c.Probe.Ports = []int{0} }, want: errInvalidPort},
		{name: "negative timeout", mutate: func(c *BackendConfig) { c.Probe.Timeout = config.Duration(-time.Second) }, want: errNegativeTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultBackendConfig()
			tt.mutate(cfg)

			require.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}
