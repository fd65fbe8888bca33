// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/text/unicode/norm"
)

// Ellipsis is appended by TruncateWidth when it shortens a string.
const Ellipsis = "…"

// TruncateWidth shortens s so that it occupies at most maxWidth terminal
// columns, accounting for wide (CJK, emoji) characters. Newlines are folded
// to spaces first so a title never breaks a list row.
func TruncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	s = strings.Join(strings.Fields(s), " ")
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, Ellipsis)
}

// PadWidth right-pads s with spaces to exactly width columns, truncating
// first when it is too long.
func PadWidth(s string, width int) string {
	s = TruncateWidth(s, width)
	return runewidth.FillRight(s, width)
}

// NormalizeInput prepares user-typed text for submission: NFC normalisation
// (so composed and decomposed accents compare equal server-side) and
// surrounding whitespace trimmed. Returns "" for whitespace-only input.
func NormalizeInput(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
