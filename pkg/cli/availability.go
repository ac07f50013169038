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
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/validation"
)

// DevicePlaceholder is the first, empty option of the device selector.
const DevicePlaceholder = "Select your device"

const (
	availFieldDevice = iota
	availFieldPassword
	availFieldCount
)

// AvailabilityForm checks whether a registered device is reachable.
// Each instance fetches the device directory once, when it is mounted.
type AvailabilityForm struct {
	id            uuid.UUID
	entry         DeviceEntry
	loading       bool
	directory     models.DeviceDirectory
	selected      int
	nameInput     textinput.Model
	passwordInput textinput.Model
	focused       int
	state         formState
	errors        validation.Result
	spinner       spinner.Model
	submitter     Submitter
	styles        *styles
	logger        logger.Logger
}

// NewAvailabilityForm creates an unmounted form; Init mounts it.
func NewAvailabilityForm(submitter Submitter, entry DeviceEntry, st *styles, log logger.Logger) *AvailabilityForm {
	if log == nil {
		log = logger.NewTestLogger()
	}

	return &AvailabilityForm{
		id:            uuid.New(),
		entry:         entry,
		nameInput:     st.newInput("Enter device name"),
		passwordInput: st.newPasswordInput("Enter device password"),
		spinner:       st.newSpinner(),
		submitter:     submitter,
		styles:        st,
		logger:        log,
	}
}

// ID identifies this form instance in async results.
func (f *AvailabilityForm) ID() uuid.UUID {
	return f.id
}

// Init starts the directory fetch. The form refuses submission until it completes.
func (f *AvailabilityForm) Init() tea.Cmd {
	f.loading = true
	f.focus(availFieldDevice)

	id, submitter := f.id, f.submitter

	fetch := func() tea.Msg {
		return directoryLoadedMsg{
			formID:  id,
			devices: submitter.ListDevices(context.Background()),
		}
	}

	return tea.Batch(fetch, f.spinner.Tick, textinput.Blink)
}

// Loading reports whether the directory fetch is still pending.
func (f *AvailabilityForm) Loading() bool {
	return f.loading
}

// Submitting reports whether an availability check is in flight.
func (f *AvailabilityForm) Submitting() bool {
	return f.state == stateSubmitting
}

// Errors returns the inline validation result of the last submit.
func (f *AvailabilityForm) Errors() validation.Result {
	return f.errors
}

// LoadDirectory installs the fetched directory. A nil directory is shown as empty.
func (f *AvailabilityForm) LoadDirectory(devices models.DeviceDirectory) {
	f.loading = false
	f.directory = append(models.DeviceDirectory{}, devices...)
	f.selected = 0

	f.logger.Debug().Int("devices", len(f.directory)).Msg("Device directory loaded")
}

// Options lists the selector entries, placeholder first.
func (f *AvailabilityForm) Options() []string {
	return append([]string{DevicePlaceholder}, f.directory...)
}

// Select picks the option at index i of Options. Out of range indexes are ignored.
func (f *AvailabilityForm) Select(i int) {
	if i >= 0 && i <= len(f.directory) {
		f.selected = i
	}
}

// Input returns the device name and password the form would submit now.
func (f *AvailabilityForm) Input() models.AvailabilityInput {
	in := models.AvailabilityInput{Password: f.passwordInput.Value()}

	if f.entry == EntryText {
		in.DeviceName = strings.TrimSpace(f.nameInput.Value())
	} else if f.selected > 0 {
		in.DeviceName = f.directory[f.selected-1]
	}

	return in
}

// SetInput fills the fields. In select mode the name must be in the directory, or the placeholder stays selected.
func (f *AvailabilityForm) SetInput(in models.AvailabilityInput) {
	f.passwordInput.SetValue(in.Password)

	if f.entry == EntryText {
		f.nameInput.SetValue(in.DeviceName)

		return
	}

	f.selected = 0

	for i, name := range f.directory {
		if name == in.DeviceName {
			f.selected = i + 1

			break
		}
	}
}

// HandleKey moves focus, cycles the selector with left/right, submits on enter and edits the focused field.
func (f *AvailabilityForm) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return f.Submit()
	case "tab", "down", "shift+tab", "up":
		f.focus((f.focused + 1) % availFieldCount)

		return nil
	}

	if f.focused == availFieldDevice && f.entry == EntrySelect {
		f.cycle(msg.String())

		return nil
	}

	var cmd tea.Cmd

	if f.focused == availFieldDevice {
		f.nameInput, cmd = f.nameInput.Update(msg)
	} else {
		f.passwordInput, cmd = f.passwordInput.Update(msg)
	}

	return cmd
}

func (f *AvailabilityForm) cycle(key string) {
	n := len(f.directory) + 1

	switch key {
	case "right", "l":
		f.selected = (f.selected + 1) % n
	case "left", "h":
		f.selected = (f.selected + n - 1) % n
	}
}

// Update forwards non-key messages such as cursor blinks and spinner ticks.
func (f *AvailabilityForm) Update(msg tea.Msg) tea.Cmd {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !f.loading && !f.Submitting() {
			return nil
		}

		var cmd tea.Cmd

		f.spinner, cmd = f.spinner.Update(tick)

		return cmd
	}

	var cmd tea.Cmd

	if f.focused == availFieldDevice && f.entry == EntryText {
		f.nameInput, cmd = f.nameInput.Update(msg)
	} else {
		f.passwordInput, cmd = f.passwordInput.Update(msg)
	}

	return cmd
}

// Submit checks the required fields and starts the availability check.
// It returns nil while the directory is loading, while a check is in flight, or when a field is missing.
func (f *AvailabilityForm) Submit() tea.Cmd {
	if f.loading || f.Submitting() {
		f.logger.Debug().Bool("loading", f.loading).Msg("Availability form busy, ignoring submit")

		return nil
	}

	f.state = stateValidating
	in := f.Input()

	f.errors = validation.ValidateAvailability(in)
	if !f.errors.OK() {
		f.state = stateIdle

		return nil
	}

	f.state = stateSubmitting
	id, submitter := f.id, f.submitter

	request := func() tea.Msg {
		return availabilityResultMsg{
			formID:  id,
			outcome: submitter.SubmitAvailabilityCheck(context.Background(), in.DeviceName, in.Password),
		}
	}

	return tea.Batch(request, f.spinner.Tick)
}

// Complete applies the outcome of the in-flight check. Fields are cleared whatever the outcome.
func (f *AvailabilityForm) Complete(models.Outcome) {
	f.state = stateShowingResult
	f.selected = 0
	f.nameInput.Reset()
	f.passwordInput.Reset()
	f.focus(availFieldDevice)
}

// Settle returns the form to idle once its result is no longer shown.
func (f *AvailabilityForm) Settle() {
	if f.state == stateShowingResult {
		f.state = stateIdle
	}
}

func (f *AvailabilityForm) focus(i int) {
	f.nameInput.Blur()
	f.passwordInput.Blur()

	f.focused = i

	switch {
	case i == availFieldPassword:
		f.passwordInput.Focus()
	case f.entry == EntryText:
		f.nameInput.Focus()
	}
}

// View renders the loading placeholder or the form.
func (f *AvailabilityForm) View() string {
	if f.loading {
		return f.styles.hint.Render(strings.TrimSpace(f.spinner.View() + " Loading devices..."))
	}

	device := []string{f.styles.label.Render("Device Name:"), f.deviceView()}
	if msg := f.errors.Error(validation.FieldDeviceName); msg != "" {
		device = append(device, f.styles.fieldError.Render(msg))
	}

	password := []string{f.styles.label.Render("Password:"), f.passwordInput.View()}
	if msg := f.errors.Error(validation.FieldPassword); msg != "" {
		password = append(password, f.styles.fieldError.Render(msg))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinVertical(lipgloss.Left, device...)+"\n",
		lipgloss.JoinVertical(lipgloss.Left, password...)+"\n",
		f.buttonView(),
	)
}

func (f *AvailabilityForm) deviceView() string {
	if f.entry == EntryText {
		return f.nameInput.View()
	}

	option := f.Options()[f.selected]

	style := f.styles.help
	if f.selected > 0 {
		style = f.styles.success
	}

	if f.focused == availFieldDevice {
		return f.styles.hint.Render("‹ ") + style.Render(option) + f.styles.hint.Render(" ›")
	}

	return "  " + style.Render(option)
}

func (f *AvailabilityForm) buttonView() string {
	if f.Submitting() {
		return f.styles.disabled.Render(strings.TrimSpace(f.spinner.View() + " Checking..."))
	}

	return f.styles.button.Render("Check Availability")
}
