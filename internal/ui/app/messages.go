// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/gate"
	"github.com/jeranaias/ragdesk/internal/video"
)

// CheckedMsg carries a settled visibility fetch for a gated screen.
type CheckedMsg struct {
	Screen Screen
	Result gate.Result
}

// ConfigsMsg carries the assistant list.
type ConfigsMsg struct {
	Stamp uint64
	Items []api.Assistant
	Err   error
}

// ShareMsg reports a copied share link.
type ShareMsg struct {
	URL string
	Err error
}

// LoginSubmitMsg is emitted by the login form when it is submitted.
type LoginSubmitMsg struct {
	Credentials api.Credentials
}

// VideoConfigMsg carries the video assistant's configuration.
type VideoConfigMsg struct {
	ConfigID  string
	Assistant *api.Assistant
	Err       error
}

// VideoReplyMsg carries a settled video request.
type VideoReplyMsg struct {
	Outcome video.Outcome
}

// NavigateMsg asks the root model to switch routes.
type NavigateMsg struct {
	Route Route
}
