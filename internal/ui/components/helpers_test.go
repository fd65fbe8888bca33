// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"testing"
)

// =============================================================================
// HELPER FUNCTION TESTS
// =============================================================================

func TestFmtNumber(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{12345, "12,345"},
		{123456, "123,456"},
		{1234567890, "1,234,567,890"},
		{-1234, "-1,234"},
	}

	for _, tc := range tests {
		if got := fmtNumber(tc.input); got != tc.want {
			t.Errorf("fmtNumber(%d) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestWordWrap(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		width int
		want  string
	}{
		{"fits", "hello world", 20, "hello world"},
		{"wraps", "hello brave new world", 11, "hello brave\nnew world"},
		{"keeps breaks", "a\nb", 10, "a\nb"},
		{"long word", "supercalifragilistic x", 5, "supercalifragilistic\nx"},
		{"zero width", "a b", 0, "a b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := wordWrap(tc.text, tc.width); got != tc.want {
				t.Errorf("wordWrap(%q, %d) = %q, want %q", tc.text, tc.width, got, tc.want)
			}
		})
	}
}

func TestMaxLineWidth(t *testing.T) {
	if got := maxLineWidth("ab\nabcd\nabc"); got != 4 {
		t.Errorf("maxLineWidth = %d, want 4", got)
	}
	// Wide characters take two columns each.
	if got := maxLineWidth(strings.Repeat("日", 3)); got != 6 {
		t.Errorf("maxLineWidth(wide) = %d, want 6", got)
	}
}
