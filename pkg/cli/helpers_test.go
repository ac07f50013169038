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
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/orchestrator"
	"github.com/carverauto/tachyon/pkg/validation"
)

var (
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyCtrlT = tea.KeyMsg{Type: tea.KeyCtrlT}
	keyCtrlY = tea.KeyMsg{Type: tea.KeyCtrlY}
	keyCtrlC = tea.KeyMsg{Type: tea.KeyCtrlC}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// collect runs cmd and any batched commands, returning the produced messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}

	msg := cmd()

	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}

	var out []tea.Msg
	for _, c := range batch {
		out = append(out, collect(c)...)
	}

	return out
}

func find[T tea.Msg](t *testing.T, msgs []tea.Msg) T {
	t.Helper()

	for _, msg := range msgs {
		if typed, ok := msg.(T); ok {
			return typed
		}
	}

	var zero T
	require.Failf(t, "message not produced", "wanted %T in %v", zero, msgs)

	return zero
}

type scheduled struct {
	delay time.Duration
	fire  func(time.Time) tea.Msg
}

// recordingScheduler stands in for tea.Tick; tests fire the recorded callbacks to simulate time passing.
type recordingScheduler struct {
	calls []scheduled
}

func (r *recordingScheduler) schedule(d time.Duration, fn func(time.Time) tea.Msg) tea.Cmd {
	r.calls = append(r.calls, scheduled{delay: d, fire: fn})

	return nil
}

func newSubmitter(t *testing.T, surfacing orchestrator.ErrorSurfacing) (*deviceclient.MockTransport, Submitter) {
	t.Helper()

	transport := deviceclient.NewMockTransport(gomock.NewController(t))

	return transport, orchestrator.New(transport, validation.PolicyBasic, surfacing, logger.NewTestLogger())
}

func validRegistration() models.RegistrationInput {
	return models.RegistrationInput{DeviceName: "core-sw1", IPAddress: "192.168.0.10", Password: "secret1"}
}

func rejected(detail string, status int) error {
	return &deviceclient.TransportError{Kind: deviceclient.KindServerRejected, Detail: detail, StatusCode: status}
}
