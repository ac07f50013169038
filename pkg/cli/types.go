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
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carverauto/tachyon/pkg/models"
)

// Submitter is the request orchestration surface the forms depend on.
type Submitter interface {
	SubmitRegistration(ctx context.Context, in models.RegistrationInput) models.Outcome
	SubmitAvailabilityCheck(ctx context.Context, deviceName, password string) models.Outcome
	ListDevices(ctx context.Context) models.DeviceDirectory
}

// Panel identifies which form the shell shows.
type Panel int

const (
	PanelRegister Panel = iota
	PanelAvailability
)

func (p Panel) String() string {
	if p == PanelAvailability {
		return "availability"
	}

	return "register"
}

type formState int

const (
	stateIdle formState = iota
	stateValidating
	stateSubmitting
	stateShowingResult
)

func (s formState) String() string {
	switch s {
	case stateIdle:
		return "idle"
	case stateValidating:
		return "validating"
	case stateSubmitting:
		return "submitting"
	case stateShowingResult:
		return "showing_result"
	default:
		return "unknown"
	}
}

// DeviceEntry selects how the availability form takes the device name.
type DeviceEntry int

const (
	// EntrySelect picks from the fetched device directory.
	EntrySelect DeviceEntry = iota
	// EntryText takes a free-typed name.
	EntryText
)

func (e DeviceEntry) String() string {
	if e == EntryText {
		return "text"
	}

	return "select"
}

// ParseDeviceEntry accepts "select" and "text". Empty means select.
func ParseDeviceEntry(s string) (DeviceEntry, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "select":
		return EntrySelect, nil
	case "text":
		return EntryText, nil
	default:
		return EntrySelect, fmt.Errorf("%w: %q", errUnknownDeviceEntry, s)
	}
}

// Async results carry the ID of the form instance that started them.

type registrationResultMsg struct {
	formID  uuid.UUID
	outcome models.Outcome
}

type availabilityResultMsg struct {
	formID  uuid.UUID
	outcome models.Outcome
}

type directoryLoadedMsg struct {
	formID  uuid.UUID
	devices models.DeviceDirectory
}

// CmdConfig holds parsed command-line options.
type CmdConfig struct {
	Help       bool
	ConfigFile string
	ServerURL  string
	SubCmd     string
	DeviceName string
	IPAddress  string
	Password   string
	Args       []string
}
