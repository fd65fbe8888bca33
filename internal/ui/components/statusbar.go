// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// STATUS BAR COMPONENT
// =============================================================================

// Status represents what the current screen is doing.
type Status int

const (
	StatusReady Status = iota
	StatusLoading
	StatusSending
	StatusChecking
	StatusError
)

// String returns the display string for the status.
func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusLoading:
		return "Loading..."
	case StatusSending:
		return "Sending..."
	case StatusChecking:
		return "Checking access..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Icon returns a shape for the status so it reads without color.
func (s Status) Icon() string {
	switch s {
	case StatusReady:
		return styles.StatusIndicators.Success
	case StatusError:
		return styles.StatusIndicators.Error
	default:
		return styles.StatusIndicators.Pending
	}
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// StatusBar is the bottom line of every screen.
type StatusBar struct {
	Status    Status
	Message   string
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a new StatusBar component.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Width: 80, theme: theme}
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetStatus sets the status and its message. An empty message shows the
// status name.
func (s *StatusBar) SetStatus(status Status, message string) {
	s.Status = status
	s.Message = message
}

// SetShortcuts replaces the key hints.
func (s *StatusBar) SetShortcuts(shortcuts ...Shortcut) {
	s.Shortcuts = shortcuts
}

// View renders the status bar: status on the left, shortcuts on the right.
// Shortcuts are dropped from the right until the line fits.
func (s *StatusBar) View() string {
	msg := s.Message
	if msg == "" {
		msg = s.Status.String()
	}
	left := s.Status.Icon() + " " + msg
	if s.Status == StatusError {
		left = lipgloss.NewStyle().Foreground(styles.Rose).Render(left)
	}

	hints := make([]string, 0, len(s.Shortcuts))
	for _, sc := range s.Shortcuts {
		hints = append(hints, s.theme.ShortcutKey.Render(sc.Key)+" "+s.theme.ShortcutDesc.Render(sc.Desc))
	}

	inner := max(s.Width-2, 10)
	right := strings.Join(hints, "  ")
	for len(hints) > 0 && lipgloss.Width(left)+lipgloss.Width(right)+2 > inner {
		hints = hints[:len(hints)-1]
		right = strings.Join(hints, "  ")
	}

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.theme.StatusBar.Width(s.Width).Render(left + strings.Repeat(" ", gap) + right)
}
