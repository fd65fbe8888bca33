// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	convo "github.com/jeranaias/ragdesk/internal/chat"
)

// =============================================================================
// LOAD AND SEND RESULTS
// =============================================================================

// LoadedMsg delivers a finished conversation load.
type LoadedMsg struct {
	Snapshot convo.Snapshot
}

// ReplyMsg delivers the settled outcome of a submission.
type ReplyMsg struct {
	Outcome convo.Outcome
}

// =============================================================================
// NAVIGATION
// =============================================================================

// NavigateMsg asks the application to show another conversation. It is
// also emitted, with the current config, when a new chat gets its id.
type NavigateMsg struct {
	Mode     convo.Mode
	ConfigID string
	ChatID   string
}

// BackMsg asks the application to leave the conversation screen.
type BackMsg struct{}

// NoticeMsg shows a transient line in the status bar.
type NoticeMsg struct {
	Text string
	Err  error
}
