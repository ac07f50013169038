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
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/carverauto/tachyon/pkg/logger"
	"github.com/carverauto/tachyon/pkg/models"
	"github.com/carverauto/tachyon/pkg/status"
	"github.com/carverauto/tachyon/pkg/validation"
)

type keyMap struct {
	Submit key.Binding
	Next   key.Binding
	Toggle key.Binding
	Copy   key.Binding
	Quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "submit")),
		Next:   key.NewBinding(key.WithKeys("tab", "down"), key.WithHelp("Tab", "next field")),
		Toggle: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("Ctrl+T", "switch form")),
		Copy:   key.NewBinding(key.WithKeys("ctrl+y"), key.WithHelp("Ctrl+Y", "copy message")),
		Quit:   key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("Ctrl+C/Esc", "quit")),
	}
}

// Options configures the shell Model. Scheduler defaults to tea.Tick and Clipboard to the system clipboard.
type Options struct {
	Submitter Submitter
	Policy    validation.Policy
	Entry     DeviceEntry
	Scheduler status.Scheduler
	Clipboard func(string) error
	Logger    logger.Logger
}

// Model is the application shell: it owns the status board and both forms,
// routes async results to the form instance that started them, and shows one panel at a time.
type Model struct {
	active       Panel
	registration *RegistrationForm
	availability *AvailabilityForm
	board        status.Board
	schedule     status.Scheduler
	submitter    Submitter
	entry        DeviceEntry
	copyFn       func(string) error
	copyMessage  string
	keys         keyMap
	styles       *styles
	logger       logger.Logger
}

// NewModel creates the shell with the registration panel active. The availability panel is mounted on first switch.
func NewModel(opts Options) *Model {
	log := opts.Logger
	if log == nil {
		log = logger.NewTestLogger()
	}

	cp := opts.Clipboard
	if cp == nil {
		cp = clipboard.WriteAll
	}

	st := newStyles()

	return &Model{
		active:       PanelRegister,
		registration: NewRegistrationForm(opts.Submitter, opts.Policy, st, log),
		schedule:     opts.Scheduler,
		submitter:    opts.Submitter,
		entry:        opts.Entry,
		copyFn:       cp,
		keys:         newKeyMap(),
		styles:       st,
		logger:       log,
	}
}

// Active returns the panel on screen.
func (m *Model) Active() Panel {
	return m.active
}

// Registration returns the registration form.
func (m *Model) Registration() *RegistrationForm {
	return m.registration
}

// Availability returns the mounted availability form, or nil.
func (m *Model) Availability() *AvailabilityForm {
	return m.availability
}

// Status returns the live status line message, if any.
func (m *Model) Status() (string, bool) {
	o, ok := m.board.Current()

	return o.Message, ok
}

func (*Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKeyMsg(msg)
	case registrationResultMsg:
		if msg.formID != m.registration.ID() {
			m.discard("registration", msg.formID.String())

			return m, nil
		}

		m.registration.Complete(msg.outcome)

		return m, m.publish(msg.outcome)
	case availabilityResultMsg:
		if m.availability == nil || msg.formID != m.availability.ID() {
			m.discard("availability", msg.formID.String())

			return m, nil
		}

		m.availability.Complete(msg.outcome)

		return m, m.publish(msg.outcome)
	case directoryLoadedMsg:
		if m.availability == nil || msg.formID != m.availability.ID() {
			m.discard("directory", msg.formID.String())

			return m, nil
		}

		m.availability.LoadDirectory(msg.devices)

		return m, nil
	case status.ClearMsg:
		if m.board.Clear(msg.Seq) {
			m.copyMessage = ""
			m.registration.Settle()

			if m.availability != nil {
				m.availability.Settle()
			}
		}

		return m, nil
	case spinner.TickMsg:
		cmds := []tea.Cmd{m.registration.Update(msg)}
		if m.availability != nil {
			cmds = append(cmds, m.availability.Update(msg))
		}

		return m, tea.Batch(cmds...)
	}

	return m, m.activeUpdate(msg)
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Toggle):
		return m.toggle()
	case key.Matches(msg, m.keys.Copy):
		m.copyStatus()

		return nil
	}

	if m.active == PanelAvailability {
		return m.availability.HandleKey(msg)
	}

	return m.registration.HandleKey(msg)
}

func (m *Model) activeUpdate(msg tea.Msg) tea.Cmd {
	if m.active == PanelAvailability {
		return m.availability.Update(msg)
	}

	return m.registration.Update(msg)
}

// toggle switches panels. Leaving the availability panel unmounts its form;
// coming back mounts a fresh instance that refetches the directory.
func (m *Model) toggle() tea.Cmd {
	if m.active == PanelRegister {
		m.active = PanelAvailability
		m.availability = NewAvailabilityForm(m.submitter, m.entry, m.styles, m.logger)

		m.logger.Debug().Str("form_id", m.availability.ID().String()).Msg("Mounted availability form")

		return m.availability.Init()
	}

	m.logger.Debug().Str("form_id", m.availability.ID().String()).Msg("Unmounted availability form")

	m.availability = nil
	m.active = PanelRegister
	m.registration.Focus()

	return textinput.Blink
}

func (m *Model) publish(o models.Outcome) tea.Cmd {
	seq := m.board.Publish(o)
	m.copyMessage = ""

	return status.ClearCmd(seq, m.schedule)
}

func (m *Model) discard(kind, formID string) {
	m.logger.Debug().Str("kind", kind).Str("form_id", formID).Msg("Discarding result for unmounted form")
}

func (m *Model) copyStatus() {
	msg, ok := m.Status()
	if !ok {
		return
	}

	if err := m.copyFn(msg); err != nil {
		m.logger.Debug().Err(err).Msg("Clipboard write failed")
		m.copyMessage = "Failed to copy to clipboard"

		return
	}

	m.copyMessage = "Message copied to clipboard!"
}

func (m *Model) View() string {
	var content strings.Builder

	title := lipgloss.JoinHorizontal(
		lipgloss.Top,
		lipgloss.NewStyle().Foreground(lipgloss.Color(draculaPurple)).Render("📡 "),
		m.styles.title.Render("Tachyon: Device Registration"),
	)

	content.WriteString(title + "\n\n")
	content.WriteString(m.tabsView() + "\n\n")

	if m.active == PanelAvailability {
		content.WriteString(m.availability.View())
	} else {
		content.WriteString(m.registration.View())
	}

	if line := m.statusView(); line != "" {
		content.WriteString("\n\n" + line)
	}

	content.WriteString("\n\n" + m.helpView())

	return m.styles.app.Align(lipgloss.Left).Render(content.String())
}

func (m *Model) tabsView() string {
	register, availability := m.styles.tab, m.styles.tab
	if m.active == PanelAvailability {
		availability = m.styles.activeTab
	} else {
		register = m.styles.activeTab
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		register.Render("Register Device"),
		m.styles.help.Render("│"),
		availability.Render("Check Availability"),
	)
}

func (m *Model) statusView() string {
	o, ok := m.board.Current()
	if !ok {
		return ""
	}

	style := m.styles.failure
	if o.Succeeded {
		style = m.styles.success
	}

	line := style.Render(o.Message)

	if m.copyMessage != "" {
		hint := m.styles.hint
		if strings.HasPrefix(m.copyMessage, "Failed") {
			hint = m.styles.fieldError
		}

		line = lipgloss.JoinVertical(lipgloss.Left, line, hint.Render(m.copyMessage))
	}

	return line
}

func (m *Model) helpView() string {
	bindings := []key.Binding{m.keys.Submit, m.keys.Next, m.keys.Toggle, m.keys.Copy, m.keys.Quit}
	parts := make([]string, 0, len(bindings))

	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, h.Key+" → "+h.Desc)
	}

	return m.styles.help.Render(strings.Join(parts, " | "))
}
