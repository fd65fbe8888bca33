// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// =============================================================================
// MARKDOWN RENDERING
// =============================================================================

// Markdown renders assistant replies as terminal markdown. Renderers are
// built lazily per wrap width; a failed build or render falls back to the
// raw text.
type Markdown struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewMarkdown creates a renderer using a glamour standard style name
// ("dark", "light", "notty").
func NewMarkdown(style string) *Markdown {
	if style == "" {
		style = "dark"
	}
	return &Markdown{style: style, renderers: make(map[int]*glamour.TermRenderer)}
}

// Render returns content rendered for the given wrap width.
func (md *Markdown) Render(content string, width int) string {
	if md == nil || strings.TrimSpace(content) == "" {
		return content
	}
	r := md.renderer(width)
	if r == nil {
		return content
	}
	out, err := r.Render(content)
	if err != nil {
		return content
	}
	return strings.Trim(out, "\n")
}

func (md *Markdown) renderer(width int) *glamour.TermRenderer {
	if width < 20 {
		width = 20
	}

	md.mu.Lock()
	defer md.mu.Unlock()

	if r, ok := md.renderers[width]; ok {
		return r
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(md.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		r = nil
	}
	md.renderers[width] = r
	return r
}
