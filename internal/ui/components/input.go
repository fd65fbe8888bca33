// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// INPUT AREA COMPONENT
// =============================================================================

// DefaultMaxChars bounds a single message.
const DefaultMaxChars = 4096

// InputArea is the message composer. While disabled it still renders but
// ignores keystrokes, which keeps the draft visible during a send.
type InputArea struct {
	input    textinput.Model
	maxChars int
	width    int
	focused  bool
	disabled bool
	theme    *styles.Theme
}

// NewInputArea creates a new InputArea component.
func NewInputArea(theme *styles.Theme) *InputArea {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = DefaultMaxChars
	ti.Width = 70
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.TextStyle = lipgloss.NewStyle().Foreground(styles.TextPrimary)
	ti.PlaceholderStyle = lipgloss.NewStyle().Foreground(styles.TextMuted).Italic(true)
	ti.Cursor.Style = lipgloss.NewStyle().Foreground(styles.Cyan)

	return &InputArea{
		input:    ti,
		maxChars: DefaultMaxChars,
		width:    80,
		theme:    theme,
	}
}

// Focus focuses the input.
func (i *InputArea) Focus() tea.Cmd {
	i.focused = true
	return i.input.Focus()
}

// Blur removes focus from the input.
func (i *InputArea) Blur() {
	i.focused = false
	i.input.Blur()
}

// Focused returns whether the input is focused.
func (i *InputArea) Focused() bool {
	return i.focused
}

// SetDisabled toggles whether keystrokes reach the input.
func (i *InputArea) SetDisabled(disabled bool) {
	i.disabled = disabled
}

// Disabled reports whether the input ignores keystrokes.
func (i *InputArea) Disabled() bool {
	return i.disabled
}

// SetWidth sets the input area width.
func (i *InputArea) SetWidth(width int) {
	i.width = width
	inputWidth := width - 10
	if inputWidth < 20 {
		inputWidth = 20
	}
	i.input.Width = inputWidth
}

// SetPlaceholder sets the placeholder text.
func (i *InputArea) SetPlaceholder(placeholder string) {
	i.input.Placeholder = placeholder
}

// Value returns the current input value.
func (i *InputArea) Value() string {
	return i.input.Value()
}

// SetValue sets the input value and moves the cursor to the end.
func (i *InputArea) SetValue(value string) {
	i.input.SetValue(value)
	i.input.CursorEnd()
}

// Reset clears the input.
func (i *InputArea) Reset() {
	i.input.Reset()
}

// Update handles input updates.
func (i *InputArea) Update(msg tea.Msg) (*InputArea, tea.Cmd) {
	if i.disabled {
		if _, ok := msg.(tea.KeyMsg); ok {
			return i, nil
		}
	}
	var cmd tea.Cmd
	i.input, cmd = i.input.Update(msg)
	return i, cmd
}

// View renders the input area with a character counter under it.
func (i *InputArea) View() string {
	border := styles.Overlay
	if i.focused && !i.disabled {
		border = styles.Cyan
	}

	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(max(i.width-2, 10)).
		Render(i.input.View())

	counter := lipgloss.NewStyle().
		Width(max(i.width-4, 10)).
		Align(lipgloss.Right).
		Render(i.renderCharCounter(len([]rune(i.input.Value()))))

	return lipgloss.JoinVertical(lipgloss.Left, box, counter)
}

// renderCharCounter renders the character counter with color coding.
func (i *InputArea) renderCharCounter(count int) string {
	text := fmtNumber(count) + " / " + fmtNumber(i.maxChars) + " chars"

	style := lipgloss.NewStyle().Foreground(styles.TextMuted)
	switch percent := float64(count) / float64(i.maxChars) * 100; {
	case percent >= 90:
		style = lipgloss.NewStyle().Foreground(styles.Rose).Bold(true)
		text += " [!]"
	case percent >= 75:
		style = lipgloss.NewStyle().Foreground(styles.Amber)
		text += " [~]"
	}
	if i.disabled {
		text = "sending... " + text
	}
	return style.Render(text)
}
