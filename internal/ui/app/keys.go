// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/jeranaias/ragdesk/internal/ui/components"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines the bindings handled by the root model and the list and
// login screens. The conversation screen has its own.
type KeyMap struct {
	Quit      key.Binding
	Back      key.Binding
	Up        key.Binding
	Down      key.Binding
	Open      key.Binding
	Share     key.Binding
	Refresh   key.Binding
	Logout    key.Binding
	NextField key.Binding
	PrevField key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("C-c", "quit"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("j", "down"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open"),
		),
		Share: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "copy link"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Logout: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "log out"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab", "down"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab", "up"),
		),
	}
}

// ListShortcuts returns the hints for the assistant list.
func (k KeyMap) ListShortcuts() []components.Shortcut {
	return shortcuts(k.Open, k.Share, k.Refresh, k.Logout, k.Quit)
}

// LoginShortcuts returns the hints for the login form.
func (k KeyMap) LoginShortcuts() []components.Shortcut {
	return []components.Shortcut{
		{Key: "tab", Desc: "next field"},
		{Key: "enter", Desc: "log in"},
		{Key: "C-c", Desc: "quit"},
	}
}

func shortcuts(bindings ...key.Binding) []components.Shortcut {
	out := make([]components.Shortcut, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		out = append(out, components.Shortcut{Key: h.Key, Desc: h.Desc})
	}
	return out
}
