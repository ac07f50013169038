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

package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/orchestrator"
	"github.com/carverauto/tachyon/pkg/validation"
)

const defaultLogFile = "tachyon.log"

// ClientConfig is the on-disk and environment configuration of the tachyon client.
type ClientConfig struct {
	BaseURL            string         `json:"base_url" yaml:"base_url"`
	PasswordPolicy     string         `json:"password_policy" yaml:"password_policy"`
	AvailabilityMethod string         `json:"availability_method" yaml:"availability_method"`
	DeviceEntry        string         `json:"device_entry" yaml:"device_entry"`
	ErrorSurfacing     string         `json:"error_surfacing" yaml:"error_surfacing"`
	Logging            *logger.Config `json:"logging" yaml:"logging"`
}

// Settings is a validated ClientConfig with every option parsed.
type Settings struct {
	BaseURL      string
	Policy       validation.Policy
	Availability deviceclient.AvailabilityMode
	Entry        DeviceEntry
	Surfacing    orchestrator.ErrorSurfacing
}

// DefaultClientConfig returns the configuration used when no file or environment overrides it.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:            deviceclient.DefaultBaseURL,
		PasswordPolicy:     validation.PolicyBasic.String(),
		AvailabilityMethod: deviceclient.AvailabilityQuery.String(),
		DeviceEntry:        EntrySelect.String(),
		ErrorSurfacing:     orchestrator.SurfacingObserved.String(),
		Logging: &logger.Config{
			Level:  "info",
			Output: defaultLogFile,
		},
	}
}

// LogConfig returns the logging settings with the output defaulted to a file,
// so log lines never land on the terminal the UI draws on.
func (c *ClientConfig) LogConfig() *logger.Config {
	out := logger.Config{Level: "info"}
	if c.Logging != nil {
		out = *c.Logging
	}

	if out.Output == "" {
		out.Output = defaultLogFile
	}

	return &out
}

// Validate implements config.Validator.
func (c *ClientConfig) Validate() error {
	_, err := c.Resolve()

	return err
}

// Resolve parses every option.
func (c *ClientConfig) Resolve() (*Settings, error) {
	u, err := url.Parse(strings.TrimSpace(c.BaseURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", errInvalidBaseURL, c.BaseURL)
	}

	policy, err := validation.ParsePolicy(c.PasswordPolicy)
	if err != nil {
		return nil, err
	}

	mode, err := deviceclient.ParseAvailabilityMode(c.AvailabilityMethod)
	if err != nil {
		return nil, err
	}

	entry, err := ParseDeviceEntry(c.DeviceEntry)
	if err != nil {
		return nil, err
	}

	surfacing, err := orchestrator.ParseErrorSurfacing(c.ErrorSurfacing)
	if err != nil {
		return nil, err
	}

	return &Settings{
		BaseURL:      strings.TrimSpace(c.BaseURL),
		Policy:       policy,
		Availability: mode,
		Entry:        entry,
		Surfacing:    surfacing,
	}, nil
}
