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

// Package orchestrator turns validated form input into backend calls and user-facing outcomes.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/validation"
)

const (
	// MsgRegistrationFailed is shown for any transport failure during registration
	// under SurfacingObserved, and as the fallback under SurfacingDetailed.
	MsgRegistrationFailed = "Error adding device"
	// MsgAvailabilityFailed is the fallback when a failed check carries no detail.
	MsgAvailabilityFailed = "Error checking availability"
)

var errUnknownSurfacing = errors.New("unknown error surfacing policy")

// ErrorSurfacing decides how much of a transport failure reaches the status line.
type ErrorSurfacing int

const (
	// SurfacingObserved shows a fixed message for registration failures and the
	// specific detail for availability failures.
	SurfacingObserved ErrorSurfacing = iota
	// SurfacingDetailed shows the specific detail on both paths.
	SurfacingDetailed
)

func (s ErrorSurfacing) String() string {
	if s == SurfacingDetailed {
		return "detailed"
	}

	return "observed"
}

// ParseErrorSurfacing accepts "observed" and "detailed". Empty means observed.
func ParseErrorSurfacing(s string) (ErrorSurfacing, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "observed":
		return SurfacingObserved, nil
	case "detailed":
		return SurfacingDetailed, nil
	default:
		return SurfacingObserved, fmt.Errorf("%w: %q", errUnknownSurfacing, s)
	}
}

// Orchestrator is stateless between calls and safe to share between forms.
type Orchestrator struct {
	transport deviceclient.Transport
	policy    validation.Policy
	surfacing ErrorSurfacing
	logger    logger.Logger
}

// New creates an Orchestrator.
func New(transport deviceclient.Transport, policy validation.Policy, surfacing ErrorSurfacing, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &Orchestrator{
		transport: transport,
		policy:    policy,
		surfacing: surfacing,
		logger:    log,
	}
}

// Policy returns the password policy registrations are validated against.
func (o *Orchestrator) Policy() validation.Policy {
	return o.policy
}

// SubmitRegistration validates in and, only if it passes, sends it to the backend.
func (o *Orchestrator) SubmitRegistration(ctx context.Context, in models.RegistrationInput) models.Outcome {
	in = in.Normalized()

	if result := validation.ValidateRegistration(in, o.policy); !result.OK() {
		return models.Outcome{Succeeded: false, Message: result.First()}
	}

	resp, err := o.transport.RegisterDevice(ctx, in)
	if err != nil {
		detail := o.detail(err)

		o.logger.Warn().
			Err(err).
			Str("device_name", in.DeviceName).
			Str("detail", detail).
			Msg("Device registration failed")

		if o.surfacing == SurfacingDetailed && detail != "" {
			return models.Outcome{Succeeded: false, Message: detail}
		}

		return models.Outcome{Succeeded: false, Message: MsgRegistrationFailed}
	}

	return models.Outcome{Succeeded: true, Message: resp.Message}
}

// SubmitAvailabilityCheck calls the backend without validating; the form enforces required fields.
func (o *Orchestrator) SubmitAvailabilityCheck(ctx context.Context, deviceName, password string) models.Outcome {
	resp, err := o.transport.CheckAvailability(ctx, deviceName, password)
	if err != nil {
		detail := o.detail(err)

		o.logger.Warn().
			Err(err).
			Str("device_name", deviceName).
			Msg("Availability check failed")

		if detail == "" {
			detail = MsgAvailabilityFailed
		}

		return models.Outcome{Succeeded: false, Message: detail}
	}

	return models.Outcome{Succeeded: true, Message: resp.Message}
}

// ListDevices returns the device directory, or an empty one if the backend call fails.
func (o *Orchestrator) ListDevices(ctx context.Context) models.DeviceDirectory {
	devices, err := o.transport.ListDevices(ctx)
	if err != nil {
		o.logger.Error().Err(err).Msg("Failed to load device directory")

		return models.DeviceDirectory{}
	}

	if devices == nil {
		return models.DeviceDirectory{}
	}

	return devices
}

func (*Orchestrator) detail(err error) string {
	if te, ok := deviceclient.AsTransportError(err); ok {
		return te.Detail
	}

	return err.Error()
}
