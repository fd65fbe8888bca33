// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package survey

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind is the widget a question asks for.
type Kind string

const (
	MultipleChoice Kind = "multiple_choice"
	Dropdown       Kind = "dropdown"
	YesNo          Kind = "yes_no"
	Scale          Kind = "scale"
	MultipleSelect Kind = "multiple_select"
	OpenEnded      Kind = "open_ended"
)

// ErrAnswerRequired is returned when a required question gets an empty
// answer.
var ErrAnswerRequired = errors.New("this question is required")

// ErrInvalidChoice is returned when a selection is not one of the offered
// options.
var ErrInvalidChoice = errors.New("not one of the offered options")

// MaxScaleSteps bounds the number of values a scale question may offer.
const MaxScaleSteps = 100

// Question is an interactive question sent by a survey assistant.
type Question struct {
	Type        Kind     `json:"type"`
	Text        string   `json:"question"`
	Options     []string `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required,omitempty"`
	ScaleMin    int      `json:"scale_min,omitempty"`
	ScaleMax    int      `json:"scale_max,omitempty"`
	ScaleLabels []string `json:"scale_labels,omitempty"`
}

// Parse reports whether reply is a question document. Anything that is not
// a JSON object with non-empty "type" and "question" is ordinary text, as
// is a scale offering more than MaxScaleSteps values.
func Parse(reply string) (*Question, bool) {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "{") {
		return nil, false
	}
	var q Question
	if err := json.Unmarshal([]byte(trimmed), &q); err != nil {
		return nil, false
	}
	if q.Type == "" || strings.TrimSpace(q.Text) == "" {
		return nil, false
	}
	if q.Type == Scale && q.ScaleMax < q.ScaleMin {
		q.ScaleMin, q.ScaleMax = q.ScaleMax, q.ScaleMin
	}
	if q.Type == Scale && q.ScaleMin == 0 && q.ScaleMax == 0 {
		q.ScaleMin, q.ScaleMax = 1, 5
	}
	if q.Type == Scale && !q.scaleInRange() {
		return nil, false
	}
	return &q, true
}

// Known reports whether the kind has a dedicated widget. Unknown kinds
// fall back to free text.
func (q *Question) Known() bool {
	switch q.Type {
	case MultipleChoice, Dropdown, YesNo, Scale, MultipleSelect, OpenEnded:
		return true
	}
	return false
}

// Choices returns the selectable values for single- and multi-select
// kinds, or nil for free-text kinds.
func (q *Question) Choices() []string {
	switch q.Type {
	case MultipleChoice, Dropdown, MultipleSelect:
		return q.Options
	case YesNo:
		return []string{"Yes", "No"}
	case Scale:
		if !q.scaleInRange() {
			return nil
		}
		out := make([]string, 0, q.ScaleMax-q.ScaleMin+1)
		for v := q.ScaleMin; v <= q.ScaleMax; v++ {
			out = append(out, strconv.Itoa(v))
		}
		return out
	}
	return nil
}

// scaleInRange reports whether the scale bounds are ordered and span at
// most MaxScaleSteps values. The span is computed unsigned so extreme
// bounds cannot overflow.
func (q *Question) scaleInRange() bool {
	if q.ScaleMax < q.ScaleMin {
		return false
	}
	return uint64(q.ScaleMax)-uint64(q.ScaleMin) < MaxScaleSteps
}

// ChoiceLabel is the label shown next to choice i. Scale labels, when
// supplied, decorate the numeric values.
func (q *Question) ChoiceLabel(i int) string {
	choices := q.Choices()
	if i < 0 || i >= len(choices) {
		return ""
	}
	if q.Type == Scale && i < len(q.ScaleLabels) && q.ScaleLabels[i] != "" {
		return fmt.Sprintf("%s (%s)", choices[i], q.ScaleLabels[i])
	}
	return choices[i]
}

// MultiSelect reports whether more than one choice may be picked.
func (q *Question) MultiSelect() bool {
	return q.Type == MultipleSelect
}

// FreeText reports whether the answer is typed rather than picked.
func (q *Question) FreeText() bool {
	return q.Type == OpenEnded || !q.Known()
}

// PlaceholderText returns the hint for free-text and dropdown inputs.
func (q *Question) PlaceholderText() string {
	if q.Placeholder != "" {
		return q.Placeholder
	}
	if q.Type == Dropdown {
		return "Select an option"
	}
	return "Enter your response..."
}

// =============================================================================
// ANSWERS
// =============================================================================

// Answer is the user's response to a question.
type Answer struct {
	// Selected holds picked choices, in pick order.
	Selected []string
	// Text holds typed input for free-text questions.
	Text string
}

// Format renders the answer as the message sent to the assistant:
// single-select kinds send the picked value, multi-select joins picks with
// ", ", free-text sends the text. Unknown kinds prefer a pick over text.
func (q *Question) Format(a Answer) (string, error) {
	var out string
	switch q.Type {
	case MultipleChoice, Dropdown, YesNo, Scale:
		if len(a.Selected) > 0 {
			out = a.Selected[0]
		}
	case MultipleSelect:
		out = strings.Join(a.Selected, ", ")
	case OpenEnded:
		out = strings.TrimSpace(a.Text)
	default:
		if len(a.Selected) > 0 && a.Selected[0] != "" {
			out = a.Selected[0]
		} else {
			out = strings.TrimSpace(a.Text)
		}
	}

	if out != "" && !q.FreeText() {
		if err := q.validate(a.Selected); err != nil {
			return "", err
		}
	}
	if q.Required && out == "" {
		return "", ErrAnswerRequired
	}
	return out, nil
}

func (q *Question) validate(selected []string) error {
	choices := q.Choices()
	for _, s := range selected {
		found := false
		for _, c := range choices {
			if c == s {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %q", ErrInvalidChoice, s)
		}
	}
	return nil
}

// Resolve maps typed input onto a choice for line-mode prompts: either a
// 1-based index or the choice text itself (case-insensitive). For
// multi-select, several entries may be given separated by commas.
func (q *Question) Resolve(input string) (Answer, error) {
	input = strings.TrimSpace(input)
	if q.FreeText() {
		return Answer{Text: input}, nil
	}
	if input == "" {
		return Answer{}, nil
	}

	parts := []string{input}
	if q.MultiSelect() {
		parts = strings.Split(input, ",")
	}

	choices := q.Choices()
	var a Answer
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		pick, ok := matchChoice(choices, p)
		if !ok {
			return Answer{}, fmt.Errorf("%w: %q", ErrInvalidChoice, p)
		}
		a.Selected = append(a.Selected, pick)
	}
	return a, nil
}

func matchChoice(choices []string, in string) (string, bool) {
	for _, c := range choices {
		if strings.EqualFold(c, in) {
			return c, true
		}
	}
	if n, err := strconv.Atoi(in); err == nil && n >= 1 && n <= len(choices) {
		return choices[n-1], true
	}
	return "", false
}
