// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/jeranaias/ragdesk/internal/api"
)

// Mode selects the chat or survey flavour of a conversation.
type Mode int

const (
	ModeChat Mode = iota
	ModeSurvey
)

// String returns the route segment for the mode.
func (m Mode) String() string {
	if m == ModeSurvey {
		return "survey"
	}
	return "chat"
}

// Backend is the part of the API client a conversation needs.
// *api.Client satisfies it.
type Backend interface {
	GetConfig(ctx context.Context, id string) (*api.Assistant, error)
	GetSurveyConfig(ctx context.Context, id string) (*api.Assistant, error)
	History(ctx context.Context, chatID string) ([]api.HistoryEntry, error)
	ListChatSessions(ctx context.Context, configID string) ([]api.Session, error)
	ListSurveySessions(ctx context.Context, configID string) ([]api.Session, error)
	SendChat(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error)
	InitSurvey(ctx context.Context, configID string) (*api.SurveyStart, error)
	SendSurvey(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error)
}

var _ Backend = (*api.Client)(nil)
