// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package styles provides the visual styling system for the ragdesk TUI.

# Color System (colors.go)

All colors are Lip Gloss AdaptiveColor values so light and dark terminals
both read well:

	Purple  - assistant messages, selections
	Cyan    - brand, user highlights, prompts
	Emerald - success, public assistants
	Amber   - warnings, private assistants, pending states
	Rose    - errors

Message bubbles use their own tokens (UserBubbleBg, AssistantBubbleFg, ...).

# Theme System (theme.go)

	theme := styles.NewTheme(cfg.UI.Theme) // "auto", "dark", "light" or "ascii"
	header := theme.Header.Render("ragdesk")

"ascii" forces the no-color profile; "dark" and "light" override
background detection.
*/
package styles
