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

const (
	regFieldName = iota
	regFieldIP
	regFieldPassword
	regFieldCount
)

var registrationFields = [regFieldCount]validation.Field{
	regFieldName:     validation.FieldDeviceName,
	regFieldIP:       validation.FieldIPAddress,
	regFieldPassword: validation.FieldPassword,
}

const (
	msgRegistered     = "Device registered successfully!"
	msgRegisterFailed = "Failed to register device. Please try again."
)

// RegistrationForm collects a device name, IPv4 address and password and submits them once at a time.
type RegistrationForm struct {
	id        uuid.UUID
	inputs    [regFieldCount]textinput.Model
	focused   int
	state     formState
	succeeded bool
	errors    validation.Result
	spinner   spinner.Model
	submitter Submitter
	policy    validation.Policy
	styles    *styles
	logger    logger.Logger
}

// NewRegistrationForm creates a mounted registration form with the name field focused.
func NewRegistrationForm(submitter Submitter, policy validation.Policy, st *styles, log logger.Logger) *RegistrationForm {
	if log == nil {
		log = logger.NewTestLogger()
	}

	f := &RegistrationForm{
		id:        uuid.New(),
		spinner:   st.newSpinner(),
		submitter: submitter,
		policy:    policy,
		styles:    st,
		logger:    log,
	}

	f.inputs[regFieldName] = st.newInput("Enter device name")
	f.inputs[regFieldIP] = st.newInput("Enter IP address (e.g., 192.168.0.1)")
	f.inputs[regFieldPassword] = st.newPasswordInput("Enter device password")
	f.inputs[regFieldName].Focus()

	return f
}

// ID identifies this form instance in async results.
func (f *RegistrationForm) ID() uuid.UUID {
	return f.id
}

// Submitting reports whether a registration request is in flight.
func (f *RegistrationForm) Submitting() bool {
	return f.state == stateSubmitting
}

// Errors returns the inline validation result of the last submit.
func (f *RegistrationForm) Errors() validation.Result {
	return f.errors
}

// Input returns the current, untrimmed field values.
func (f *RegistrationForm) Input() models.RegistrationInput {
	return models.RegistrationInput{
		DeviceName: f.inputs[regFieldName].Value(),
		IPAddress:  f.inputs[regFieldIP].Value(),
		Password:   f.inputs[regFieldPassword].Value(),
	}
}

// SetInput fills the fields, as if typed.
func (f *RegistrationForm) SetInput(in models.RegistrationInput) {
	f.inputs[regFieldName].SetValue(in.DeviceName)
	f.inputs[regFieldIP].SetValue(in.IPAddress)
	f.inputs[regFieldPassword].SetValue(in.Password)
}

// HandleKey moves focus, submits on enter, and otherwise edits the focused field.
// Editing stays possible while a request is in flight; the request keeps the values captured at submit time.
func (f *RegistrationForm) HandleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		return f.Submit()
	case "tab", "down":
		f.focus((f.focused + 1) % regFieldCount)

		return nil
	case "shift+tab", "up":
		f.focus((f.focused + regFieldCount - 1) % regFieldCount)

		return nil
	}

	var cmd tea.Cmd

	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)

	return cmd
}

// Update forwards non-key messages such as cursor blinks and spinner ticks.
func (f *RegistrationForm) Update(msg tea.Msg) tea.Cmd {
	if tick, ok := msg.(spinner.TickMsg); ok {
		if !f.Submitting() {
			return nil
		}

		var cmd tea.Cmd

		f.spinner, cmd = f.spinner.Update(tick)

		return cmd
	}

	var cmd tea.Cmd

	f.inputs[f.focused], cmd = f.inputs[f.focused].Update(msg)

	return cmd
}

// Submit validates the current input and starts the request when it passes.
// It returns nil while a request is already in flight or when validation fails.
func (f *RegistrationForm) Submit() tea.Cmd {
	if f.Submitting() {
		f.logger.Debug().Msg("Registration already in flight, ignoring submit")

		return nil
	}

	f.state = stateValidating
	in := f.Input().Normalized()

	f.errors = validation.ValidateRegistration(in, f.policy)
	if !f.errors.OK() {
		f.state = stateIdle

		return nil
	}

	f.state = stateSubmitting
	id, submitter := f.id, f.submitter

	request := func() tea.Msg {
		return registrationResultMsg{
			formID:  id,
			outcome: submitter.SubmitRegistration(context.Background(), in),
		}
	}

	return tea.Batch(request, f.spinner.Tick)
}

// Complete applies the outcome of the in-flight request. Success resets every field.
func (f *RegistrationForm) Complete(o models.Outcome) {
	f.state = stateShowingResult
	f.succeeded = o.Succeeded

	if !o.Succeeded {
		return
	}

	for i := range f.inputs {
		f.inputs[i].Reset()
	}

	f.focus(regFieldName)
}

// Settle returns the form to idle once its result is no longer shown.
func (f *RegistrationForm) Settle() {
	if f.state == stateShowingResult {
		f.state = stateIdle
	}
}

// Focus gives keyboard focus back to the form.
func (f *RegistrationForm) Focus() {
	f.focus(f.focused)
}

func (f *RegistrationForm) focus(i int) {
	for j := range f.inputs {
		f.inputs[j].Blur()
	}

	f.focused = i
	f.inputs[i].Focus()
}

// View renders the fields, their inline errors and the submit button.
func (f *RegistrationForm) View() string {
	labels := [regFieldCount]string{"Device Name:", "IP Address:", "Password:"}
	sections := make([]string, 0, regFieldCount+1)

	for i := range f.inputs {
		section := []string{f.styles.label.Render(labels[i]), f.inputs[i].View()}
		if msg := f.errors.Error(registrationFields[i]); msg != "" {
			section = append(section, f.styles.fieldError.Render(msg))
		}

		sections = append(sections, lipgloss.JoinVertical(lipgloss.Left, section...)+"\n")
	}

	sections = append(sections, f.buttonView())

	if notice := f.noticeView(); notice != "" {
		sections = append(sections, notice)
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// noticeView is the form's own result line, shown until the status line clears.
func (f *RegistrationForm) noticeView() string {
	if f.state != stateShowingResult {
		return ""
	}

	if f.succeeded {
		return f.styles.success.Render(msgRegistered)
	}

	return f.styles.failure.Render(msgRegisterFailed)
}

func (f *RegistrationForm) buttonView() string {
	if f.Submitting() {
		return f.styles.disabled.Render(strings.TrimSpace(f.spinner.View() + " Submitting..."))
	}

	return f.styles.button.Render("Add Device")
}
