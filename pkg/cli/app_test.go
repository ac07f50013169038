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
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/tachyon/pkg/deviceclient"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/orchestrator"
	"github.com/carverauto/tachyon/pkg/status"
	"github.com/carverauto/tachyon/pkg/validation"
)

var errNoClipboard = errors.New("no clipboard utility found")

type appFixture struct {
	model     *Model
	transport *deviceclient.MockTransport
	scheduler *recordingScheduler
	copied    []string
}

func newAppFixture(t *testing.T, surfacing orchestrator.ErrorSurfacing) *appFixture {
	t.Helper()

	transport, submitter := newSubmitter(t, surfacing)
	fx := &appFixture{transport: transport, scheduler: &recordingScheduler{}}

	fx.model = NewModel(Options{
		Submitter: submitter,
		Policy:    validation.PolicyBasic,
		Entry:     EntrySelect,
		Scheduler: fx.scheduler.schedule,
		Clipboard: func(s string) error {
			fx.copied = append(fx.copied, s)

			return nil
		},
	})

	return fx
}

func (fx *appFixture) send(msg tea.Msg) []tea.Msg {
	_, cmd := fx.model.Update(msg)

	return collect(cmd)
}

// register submits a valid registration through the keyboard and delivers the result.
func (fx *appFixture) register(t *testing.T) {
	t.Helper()

	fx.model.Registration().SetInput(validRegistration())
	result := find[registrationResultMsg](t, fx.send(keyEnter))
	fx.send(result)
}

func TestModel_RegistrationSuccessClearsAfterThreeSeconds(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), validRegistration()).
		Return(&models.MessageResponse{Message: "Device added successfully"}, nil)

	fx.register(t)

	msg, ok := fx.model.Status()
	require.True(t, ok)
	assert.Equal(t, "Device added successfully", msg)
	assert.Contains(t, fx.model.View(), "Device added successfully")
	assert.Equal(t, models.RegistrationInput{}, fx.model.Registration().Input())

	require.Len(t, fx.scheduler.calls, 1)
	assert.Equal(t, 3000*time.Millisecond, fx.scheduler.calls[0].delay)

	fx.send(fx.scheduler.calls[0].fire(time.Now()))

	_, ok = fx.model.Status()
	assert.False(t, ok)
	assert.NotContains(t, fx.model.View(), "Device added successfully")
	assert.Equal(t, stateIdle, fx.model.Registration().state)
}

func TestModel_EmptySuccessMessageStillSettlesForm(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(&models.MessageResponse{}, nil)

	fx.register(t)

	_, ok := fx.model.Status()
	assert.False(t, ok)
	assert.Equal(t, stateShowingResult, fx.model.Registration().state)

	require.Len(t, fx.scheduler.calls, 1)
	fx.send(fx.scheduler.calls[0].fire(time.Now()))

	assert.Equal(t, stateIdle, fx.model.Registration().state)
}

func TestModel_RegistrationFailureShowsGenericMessage(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(nil, rejected("Failed to add device: Database Error", 500))

	fx.register(t)

	msg, ok := fx.model.Status()
	require.True(t, ok)
	assert.Equal(t, orchestrator.MsgRegistrationFailed, msg)
	assert.Equal(t, validRegistration(), fx.model.Registration().Input())
}

func TestModel_RegistrationFailureDetailedSurfacing(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingDetailed)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(nil, rejected("Failed to add device: Database Error", 500))

	fx.register(t)

	msg, _ := fx.model.Status()
	assert.Equal(t, "Failed to add device: Database Error", msg)
}

func TestModel_DoubleEnterSendsOneRequest(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(&models.MessageResponse{Message: "Device added successfully"}, nil).
		Times(1)

	fx.model.Registration().SetInput(validRegistration())

	first := fx.send(keyEnter)
	second := fx.send(keyEnter)

	assert.Empty(t, second)
	find[registrationResultMsg](t, first)
}

func TestModel_LaterOutcomeSurvivesEarlierTimer(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(&models.MessageResponse{Message: "Device added successfully"}, nil)
	fx.transport.EXPECT().ListDevices(gomock.Any()).Return([]string{"core-sw1"}, nil)
	fx.transport.EXPECT().
		CheckAvailability(gomock.Any(), "core-sw1", "secret1").
		Return(nil, rejected("Failed to check availability: Incorrect Password", 401))

	fx.register(t)

	fx.send(find[directoryLoadedMsg](t, fx.send(keyCtrlT)))
	require.Equal(t, PanelAvailability, fx.model.Active())

	fx.model.Availability().SetInput(models.AvailabilityInput{DeviceName: "core-sw1", Password: "secret1"})
	fx.send(find[availabilityResultMsg](t, fx.send(keyEnter)))

	msg, _ := fx.model.Status()
	assert.Equal(t, "Failed to check availability: Incorrect Password", msg)
	require.Len(t, fx.scheduler.calls, 2)

	fx.send(fx.scheduler.calls[0].fire(time.Now()))

	msg, ok := fx.model.Status()
	require.True(t, ok)
	assert.Equal(t, "Failed to check availability: Incorrect Password", msg)

	fx.send(fx.scheduler.calls[1].fire(time.Now()))

	_, ok = fx.model.Status()
	assert.False(t, ok)
}

func TestModel_RemountDiscardsStaleResults(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().ListDevices(gomock.Any()).Return([]string{"core-sw1"}, nil).Times(2)

	stale := find[directoryLoadedMsg](t, fx.send(keyCtrlT))
	staleID := fx.model.Availability().ID()

	fx.send(keyCtrlT)
	assert.Equal(t, PanelRegister, fx.model.Active())
	assert.Nil(t, fx.model.Availability())

	fresh := find[directoryLoadedMsg](t, fx.send(keyCtrlT))
	require.NotNil(t, fx.model.Availability())
	assert.NotEqual(t, staleID, fx.model.Availability().ID())

	fx.send(stale)
	assert.True(t, fx.model.Availability().Loading())

	fx.send(availabilityResultMsg{formID: staleID, outcome: models.Outcome{Succeeded: true, Message: "Reachable"}})
	_, ok := fx.model.Status()
	assert.False(t, ok)
	assert.Empty(t, fx.scheduler.calls)

	fx.send(fresh)
	assert.False(t, fx.model.Availability().Loading())
	assert.Equal(t, []string{DevicePlaceholder, "core-sw1"}, fx.model.Availability().Options())
}

func TestModel_CopyStatus(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)
	fx.transport.EXPECT().
		RegisterDevice(gomock.Any(), gomock.Any()).
		Return(&models.MessageResponse{Message: "Device added successfully"}, nil)

	fx.send(keyCtrlY)
	assert.Empty(t, fx.copied)

	fx.register(t)
	fx.send(keyCtrlY)

	assert.Equal(t, []string{"Device added successfully"}, fx.copied)
	assert.Contains(t, fx.model.View(), "Message copied to clipboard!")

	fx.model.copyFn = func(string) error { return errNoClipboard }
	fx.send(keyCtrlY)
	assert.Contains(t, fx.model.View(), "Failed to copy to clipboard")
}

func TestModel_QuitAndStaleClear(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)

	fx.send(status.ClearMsg{Seq: 7})
	_, ok := fx.model.Status()
	assert.False(t, ok)

	msgs := fx.send(keyCtrlC)
	require.Len(t, msgs, 1)
	assert.IsType(t, tea.QuitMsg{}, msgs[0])
}

func TestModel_View(t *testing.T) {
	fx := newAppFixture(t, orchestrator.SurfacingObserved)

	view := fx.model.View()
	assert.Contains(t, view, "Register Device")
	assert.Contains(t, view, "Check Availability")
	assert.Contains(t, view, "Add Device")
	assert.Contains(t, view, "Ctrl+T → switch form")
}
