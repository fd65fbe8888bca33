// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat provides the conversation screen of the TUI, used for both
// chat and survey assistants.
//
// The screen drives an internal/chat Session: loads and sends run as
// tea.Cmds whose results come back as LoadedMsg and ReplyMsg and are
// applied on the Update goroutine, where stale results are discarded.
// Survey questions are answered through a components.QuestionPicker in
// place of the text input.
package chat
