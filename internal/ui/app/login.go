// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// ErrMissingCredentials is shown when a field is left empty.
var ErrMissingCredentials = errors.New("username and password are required")

// =============================================================================
// LOGIN FORM
// =============================================================================

// LoginForm collects credentials. It never holds the token; the session
// manager does.
type LoginForm struct {
	theme *styles.Theme
	keys  KeyMap

	fields  []textinput.Model
	focus   int
	width   int
	err     error
	notice  string
	pending bool
}

const (
	fieldUsername = iota
	fieldPassword
)

// NewLoginForm creates an empty login form.
func NewLoginForm(theme *styles.Theme, keys KeyMap) *LoginForm {
	user := textinput.New()
	user.Placeholder = "username"
	user.Prompt = ""
	user.CharLimit = 128

	pass := textinput.New()
	pass.Placeholder = "password"
	pass.Prompt = ""
	pass.CharLimit = 256
	pass.EchoMode = textinput.EchoPassword
	pass.EchoCharacter = '*'

	return &LoginForm{
		theme:  theme,
		keys:   keys,
		fields: []textinput.Model{user, pass},
	}
}

// Focus focuses the first empty field.
func (f *LoginForm) Focus() tea.Cmd {
	f.focus = fieldUsername
	if f.fields[fieldUsername].Value() != "" {
		f.focus = fieldPassword
	}
	return f.syncFocus()
}

// Reset clears the password and any error. The username is kept so a
// failed attempt can be retried.
func (f *LoginForm) Reset() {
	f.fields[fieldPassword].Reset()
	f.err = nil
	f.pending = false
}

// SetWidth sets the form width.
func (f *LoginForm) SetWidth(w int) {
	f.width = w
	inner := max(min(w-20, 40), 10)
	for i := range f.fields {
		f.fields[i].Width = inner
	}
}

// SetNotice sets the line shown above the form.
func (f *LoginForm) SetNotice(text string) {
	f.notice = text
}

// SetError records a failed attempt and re-enables the form.
func (f *LoginForm) SetError(err error) {
	f.err = err
	f.pending = false
	f.fields[fieldPassword].Reset()
	f.focus = fieldPassword
}

// Pending reports whether a login is outstanding.
func (f *LoginForm) Pending() bool {
	return f.pending
}

// Username returns the username field.
func (f *LoginForm) Username() string {
	return f.fields[fieldUsername].Value()
}

func (f *LoginForm) syncFocus() tea.Cmd {
	var cmd tea.Cmd
	for i := range f.fields {
		if i == f.focus {
			cmd = f.fields[i].Focus()
		} else {
			f.fields[i].Blur()
		}
	}
	return cmd
}

// Update handles keys for the form. Submitting emits a LoginSubmitMsg.
func (f *LoginForm) Update(msg tea.Msg) (*LoginForm, tea.Cmd) {
	if f.pending {
		return f, nil
	}
	if km, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(km, f.keys.NextField):
			f.focus = (f.focus + 1) % len(f.fields)
			return f, f.syncFocus()
		case key.Matches(km, f.keys.PrevField):
			f.focus = (f.focus + len(f.fields) - 1) % len(f.fields)
			return f, f.syncFocus()
		case km.Type == tea.KeyEnter:
			if f.focus == fieldUsername && f.fields[fieldPassword].Value() == "" {
				f.focus = fieldPassword
				return f, f.syncFocus()
			}
			return f, f.submit()
		}
	}

	var cmd tea.Cmd
	f.fields[f.focus], cmd = f.fields[f.focus].Update(msg)
	return f, cmd
}

func (f *LoginForm) submit() tea.Cmd {
	creds := api.Credentials{
		Username: strings.TrimSpace(f.fields[fieldUsername].Value()),
		Password: f.fields[fieldPassword].Value(),
	}
	if creds.Username == "" || creds.Password == "" {
		f.err = ErrMissingCredentials
		return nil
	}
	f.err = nil
	f.pending = true
	return func() tea.Msg { return LoginSubmitMsg{Credentials: creds} }
}

// View renders the form.
func (f *LoginForm) View() string {
	labels := []string{"Username", "Password"}
	lines := []string{f.theme.HeaderTitle.Render("Log in to ragdesk"), ""}
	if f.notice != "" {
		lines = append(lines, f.theme.ThinkingText.Render(f.notice), "")
	}
	for i, field := range f.fields {
		label := f.theme.FormLabel.Render(labels[i])
		if i == f.focus {
			label = f.theme.FormFocused.Render(labels[i])
		}
		lines = append(lines, label+" "+field.View())
	}
	lines = append(lines, "")
	switch {
	case f.pending:
		lines = append(lines, f.theme.ThinkingText.Render("Logging in..."))
	case f.err != nil:
		lines = append(lines, f.theme.ErrorTitle.Render(describeLoginErr(f.err)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func describeLoginErr(err error) string {
	if errors.Is(err, api.ErrUnauthorized) {
		return "Invalid username or password."
	}
	if errors.Is(err, ErrMissingCredentials) {
		return "Username and password are required."
	}
	return api.Describe(err)
}
