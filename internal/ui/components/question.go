// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/survey"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// QUESTION PICKER COMPONENT
// =============================================================================

// QuestionAnsweredMsg is emitted when the user submits a valid answer.
type QuestionAnsweredMsg struct {
	MessageID string
	Answer    survey.Answer
}

// QuestionPicker answers one survey question. Choice kinds show a cursor
// list (space toggles for multi-select, enter submits); free-text kinds
// show a text input.
type QuestionPicker struct {
	msgID string
	q     *survey.Question

	cursor int
	picked []int

	input textinput.Model
	err   error
	width int
	theme *styles.Theme
}

// NewQuestionPicker creates a picker for a question message.
func NewQuestionPicker(msg *model.Message, theme *styles.Theme) *QuestionPicker {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.PromptStyle = theme.InputPrompt
	ti.Placeholder = msg.Question.PlaceholderText()
	ti.CharLimit = DefaultMaxChars
	ti.Width = 60

	return &QuestionPicker{
		msgID: msg.ID,
		q:     msg.Question,
		input: ti,
		width: 80,
		theme: theme,
	}
}

// MessageID returns the id of the question message being answered.
func (p *QuestionPicker) MessageID() string {
	return p.msgID
}

// Err returns the last validation error, if any.
func (p *QuestionPicker) Err() error {
	return p.err
}

// SetWidth sets the picker width.
func (p *QuestionPicker) SetWidth(width int) {
	p.width = width
	p.input.Width = max(width-10, 20)
}

// Focus focuses the text input for free-text questions.
func (p *QuestionPicker) Focus() tea.Cmd {
	if p.q.FreeText() {
		return p.input.Focus()
	}
	return nil
}

// Answer returns the answer as currently entered.
func (p *QuestionPicker) Answer() survey.Answer {
	if p.q.FreeText() {
		return survey.Answer{Text: p.input.Value()}
	}
	choices := p.q.Choices()
	a := survey.Answer{}
	for _, i := range p.picked {
		a.Selected = append(a.Selected, choices[i])
	}
	return a
}

// Update handles navigation, toggling and submission.
func (p *QuestionPicker) Update(msg tea.Msg) (*QuestionPicker, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if p.q.FreeText() {
		if ok && key.Type == tea.KeyEnter {
			return p, p.submit()
		}
		var cmd tea.Cmd
		p.input, cmd = p.input.Update(msg)
		return p, cmd
	}
	if !ok {
		return p, nil
	}

	n := len(p.q.Choices())
	switch key.String() {
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < n-1 {
			p.cursor++
		}
	case " ", "x":
		if p.q.MultiSelect() {
			p.toggle(p.cursor)
		}
	case "enter":
		if !p.q.MultiSelect() && n > 0 {
			p.picked = []int{p.cursor}
		}
		return p, p.submit()
	default:
		if len(key.Runes) == 1 && key.Runes[0] >= '1' && key.Runes[0] <= '9' {
			if i := int(key.Runes[0] - '1'); i < n {
				p.cursor = i
			}
		}
	}
	return p, nil
}

func (p *QuestionPicker) toggle(i int) {
	for k, v := range p.picked {
		if v == i {
			p.picked = append(p.picked[:k], p.picked[k+1:]...)
			return
		}
	}
	p.picked = append(p.picked, i)
}

func (p *QuestionPicker) isPicked(i int) bool {
	for _, v := range p.picked {
		if v == i {
			return true
		}
	}
	return false
}

func (p *QuestionPicker) submit() tea.Cmd {
	a := p.Answer()
	if _, err := p.q.Format(a); err != nil {
		p.err = err
		return nil
	}
	p.err = nil
	id := p.msgID
	return func() tea.Msg {
		return QuestionAnsweredMsg{MessageID: id, Answer: a}
	}
}

// View renders the picker.
func (p *QuestionPicker) View() string {
	var lines []string

	if p.q.FreeText() {
		lines = append(lines, p.input.View())
	} else {
		for i := range p.q.Choices() {
			marker := "( )"
			if p.q.MultiSelect() {
				marker = "[ ]"
				if p.isPicked(i) {
					marker = "[x]"
				}
			}
			line := marker + " " + p.q.ChoiceLabel(i)
			if i == p.cursor {
				lines = append(lines, p.theme.ListItemSelected.Render(line))
			} else {
				lines = append(lines, p.theme.ListItem.Render(line))
			}
		}
	}

	if p.err != nil {
		lines = append(lines, styles.RenderError(p.err.Error()))
	}

	hint := "enter to submit"
	switch {
	case p.q.MultiSelect():
		hint = "space to toggle, enter to submit"
	case !p.q.FreeText():
		hint = "up/down to choose, enter to submit"
	}
	lines = append(lines, p.theme.ShortcutDesc.Render(hint))

	return lipgloss.NewStyle().Width(p.width).Render(strings.Join(lines, "\n"))
}
