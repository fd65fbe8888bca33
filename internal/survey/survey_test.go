// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package survey

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  bool
	}{
		{"plain text", "Thanks for your answer!", false},
		{"json without question", `{"type":"scale"}`, false},
		{"json without type", `{"question":"Why?"}`, false},
		{"empty question", `{"type":"open_ended","question":"  "}`, false},
		{"broken json", `{"type":"scale",`, false},
		{"array", `["a","b"]`, false},
		{"question", `{"type":"yes_no","question":"Ready?"}`, true},
		{"padded question", "\n  {\"type\":\"open_ended\",\"question\":\"Why?\"}  ", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Parse(tt.reply)
			assert.Equal(t, tt.want, ok)
		})
	}
}

func TestParseScaleDefaults(t *testing.T) {
	q, ok := Parse(`{"type":"scale","question":"Rate it"}`)
	require.True(t, ok)
	assert.Equal(t, []string{"1", "2", "3", "4", "5"}, q.Choices())

	q, ok = Parse(`{"type":"scale","question":"Rate it","scale_min":3,"scale_max":0}`)
	require.True(t, ok)
	assert.Equal(t, []string{"0", "1", "2", "3"}, q.Choices())
}

func TestParseScaleTooWide(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"extreme bounds", `{"type":"scale","question":"rate","scale_min":-9000000000000000000,"scale_max":9000000000000000000}`},
		{"huge span", `{"type":"scale","question":"rate","scale_min":0,"scale_max":1000000000}`},
		{"one past the limit", `{"type":"scale","question":"rate","scale_min":1,"scale_max":101}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := Parse(tt.reply)
			assert.False(t, ok)
			assert.Nil(t, q)
		})
	}

	q, ok := Parse(`{"type":"scale","question":"rate","scale_min":1,"scale_max":100}`)
	require.True(t, ok)
	assert.Len(t, q.Choices(), MaxScaleSteps)

	raw := &Question{Type: Scale, Text: "rate", ScaleMin: -9000000000000000000, ScaleMax: 9000000000000000000}
	assert.Nil(t, raw.Choices())
	_, err := raw.Resolve("1")
	assert.Error(t, err)
}

func TestChoices(t *testing.T) {
	yn := &Question{Type: YesNo, Text: "ok?"}
	assert.Equal(t, []string{"Yes", "No"}, yn.Choices())

	open := &Question{Type: OpenEnded, Text: "why?"}
	assert.Nil(t, open.Choices())
	assert.True(t, open.FreeText())

	odd := &Question{Type: "ranking", Text: "rank"}
	assert.False(t, odd.Known())
	assert.True(t, odd.FreeText())
}

func TestChoiceLabel(t *testing.T) {
	q := &Question{Type: Scale, Text: "Rate", ScaleMin: 1, ScaleMax: 3, ScaleLabels: []string{"Bad", "", "Good"}}
	assert.Equal(t, "1 (Bad)", q.ChoiceLabel(0))
	assert.Equal(t, "2", q.ChoiceLabel(1))
	assert.Equal(t, "3 (Good)", q.ChoiceLabel(2))
	assert.Equal(t, "", q.ChoiceLabel(7))
}

func TestPlaceholderText(t *testing.T) {
	assert.Equal(t, "Select an option", (&Question{Type: Dropdown}).PlaceholderText())
	assert.Equal(t, "Enter your response...", (&Question{Type: OpenEnded}).PlaceholderText())
	assert.Equal(t, "Type here", (&Question{Type: OpenEnded, Placeholder: "Type here"}).PlaceholderText())
}

func TestFormat(t *testing.T) {
	mc := &Question{Type: MultipleChoice, Text: "Pick", Options: []string{"A", "B"}, Required: true}
	out, err := mc.Format(Answer{Selected: []string{"B"}})
	require.NoError(t, err)
	assert.Equal(t, "B", out)

	_, err = mc.Format(Answer{})
	assert.ErrorIs(t, err, ErrAnswerRequired)

	_, err = mc.Format(Answer{Selected: []string{"C"}})
	assert.ErrorIs(t, err, ErrInvalidChoice)

	ms := &Question{Type: MultipleSelect, Text: "Pick many", Options: []string{"Red", "Green", "Blue"}}
	out, err = ms.Format(Answer{Selected: []string{"Blue", "Red"}})
	require.NoError(t, err)
	assert.Equal(t, "Blue, Red", out)

	optional := &Question{Type: OpenEnded, Text: "Anything else?"}
	out, err = optional.Format(Answer{Text: "   "})
	require.NoError(t, err)
	assert.Equal(t, "", out)

	required := &Question{Type: OpenEnded, Text: "Name?", Required: true}
	_, err = required.Format(Answer{Text: "   "})
	assert.ErrorIs(t, err, ErrAnswerRequired)

	unknown := &Question{Type: "ranking", Text: "Rank"}
	out, err = unknown.Format(Answer{Text: "first"})
	require.NoError(t, err)
	assert.Equal(t, "first", out)
}

func TestResolve(t *testing.T) {
	q := &Question{Type: MultipleChoice, Text: "Pick", Options: []string{"Apples", "Pears"}}

	a, err := q.Resolve("2")
	require.NoError(t, err)
	assert.Equal(t, []string{"Pears"}, a.Selected)

	a, err = q.Resolve("apples")
	require.NoError(t, err)
	assert.Equal(t, []string{"Apples"}, a.Selected)

	_, err = q.Resolve("kiwi")
	assert.ErrorIs(t, err, ErrInvalidChoice)

	scale := &Question{Type: Scale, Text: "Rate", ScaleMin: 0, ScaleMax: 10}
	a, err = scale.Resolve("3")
	require.NoError(t, err)
	assert.Equal(t, []string{"3"}, a.Selected, "scale values match before indexes")

	ms := &Question{Type: MultipleSelect, Text: "Pick", Options: []string{"A", "B", "C"}}
	a, err = ms.Resolve("1, c")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "C"}, a.Selected)

	open := &Question{Type: OpenEnded, Text: "Why"}
	a, err = open.Resolve("  because  ")
	require.NoError(t, err)
	assert.Equal(t, "because", a.Text)
}
