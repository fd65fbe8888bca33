// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/ui/styles"
	"github.com/jeranaias/ragdesk/internal/util"
)

// =============================================================================
// HEADER COMPONENT
// =============================================================================

// Header is the title bar: brand, current assistant and signed-in user.
type Header struct {
	Title     string
	Assistant string
	Kind      string
	Model     string
	Public    bool
	ShowBadge bool
	User      string
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a new Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Title: "ragdesk", Width: 80, theme: theme}
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// SetAssistant shows an assistant in the header.
func (h *Header) SetAssistant(name, kind, model string, public bool) {
	h.Assistant, h.Kind, h.Model, h.Public = name, kind, model, public
	h.ShowBadge = true
}

// ClearAssistant removes the assistant from the header.
func (h *Header) ClearAssistant() {
	h.Assistant, h.Kind, h.Model = "", "", ""
	h.ShowBadge = false
}

// Badge renders the visibility badge for a config.
func Badge(theme *styles.Theme, public bool) string {
	if public {
		return theme.BadgePublic.Render("public")
	}
	return theme.BadgePrivate.Render("private")
}

// View renders the header.
func (h *Header) View() string {
	width := max(h.Width, 40)

	left := []string{h.theme.HeaderTitle.Render(h.Title)}
	if h.Assistant != "" {
		left = append(left, util.TruncateWidth(h.Assistant, width/3))
	}
	if h.Kind != "" {
		left = append(left, h.theme.HeaderMeta.Render(h.Kind))
	}
	if h.Model != "" {
		left = append(left, h.theme.HeaderMeta.Render(h.Model))
	}
	if h.ShowBadge {
		left = append(left, Badge(h.theme, h.Public))
	}
	leftStr := strings.Join(left, " | ")

	right := ""
	if h.User != "" {
		right = h.theme.HeaderMeta.Render(h.User)
	}

	gap := max(width-2-lipgloss.Width(leftStr)-lipgloss.Width(right), 1)
	return h.theme.Header.Width(width).Render(leftStr + strings.Repeat(" ", gap) + right)
}
