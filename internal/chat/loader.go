// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/model"
)

// LoadRequest names what to load for a conversation screen.
type LoadRequest struct {
	Mode     Mode
	ConfigID string
	ChatID   string
	Stamp    uint64

	// ListSessions loads the viewer's session list; anonymous viewers of a
	// public assistant have none.
	ListSessions bool
}

// Snapshot is a completed load.
type Snapshot struct {
	LoadRequest

	Assistant *api.Assistant
	Messages  []*model.Message
	Sessions  []api.Session

	// Started is set when a survey was started by this load; ChatID then
	// holds the server-assigned id.
	Started bool

	// Err is blocking: the assistant could not be read or a survey could
	// not be started. HistoryErr is shown inline. Session list failures
	// are only logged.
	Err        error
	HistoryErr error
}

// Load fetches the assistant, history and session list in parallel. A
// survey without a chat id is started instead of loading history.
func Load(ctx context.Context, b Backend, req LoadRequest, logger *zap.Logger) Snapshot {
	if logger == nil {
		logger = zap.NewNop()
	}
	snap := Snapshot{LoadRequest: req}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		if req.Mode == ModeSurvey {
			snap.Assistant, err = b.GetSurveyConfig(gctx, req.ConfigID)
		} else {
			snap.Assistant, err = b.GetConfig(gctx, req.ConfigID)
		}
		return err
	})

	switch {
	case req.ChatID != "":
		g.Go(func() error {
			entries, err := b.History(gctx, req.ChatID)
			if err != nil {
				if ctx.Err() == nil {
					snap.HistoryErr = err
				}
				return nil
			}
			snap.Messages = FromHistory(req.Mode, entries)
			return nil
		})
	case req.Mode == ModeSurvey:
		g.Go(func() error {
			start, err := b.InitSurvey(gctx, req.ConfigID)
			if err != nil {
				return err
			}
			snap.ChatID = start.ChatID
			snap.Started = true
			snap.Messages = []*model.Message{replyMessage(ModeSurvey, start.Response, nil, nil)}
			return nil
		})
	}

	if req.ListSessions {
		g.Go(func() error {
			var list []api.Session
			var err error
			if req.Mode == ModeSurvey {
				list, err = b.ListSurveySessions(gctx, req.ConfigID)
			} else {
				list, err = b.ListChatSessions(gctx, req.ConfigID)
			}
			if err != nil {
				logger.Warn("session list failed", zap.String("config_id", req.ConfigID), zap.Error(err))
				return nil
			}
			snap.Sessions = list
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		snap.Err = err
		snap.Messages = nil
	}
	return snap
}

// Apply installs a snapshot. Snapshots for a superseded chat are dropped
// and Apply returns false.
func (s *Session) Apply(snap Snapshot) bool {
	if !s.gen.IsCurrent(snap.Stamp) || snap.ConfigID != s.configID {
		s.logger.Debug("dropping stale load",
			zap.String("config_id", snap.ConfigID), zap.Uint64("stamp", snap.Stamp))
		return false
	}
	if snap.Started && s.chatID != "" {
		return false
	}
	// A new chat may have minted its id while the load was out; the
	// assistant still applies but there is no history to install.
	sameChat := snap.Started || snap.ChatID == s.chatID
	if !sameChat && snap.ChatID != "" {
		return false
	}
	if snap.Err != nil {
		s.err = snap.Err
		return true
	}

	s.assistant = snap.Assistant
	if snap.Sessions != nil {
		s.sessions = snap.Sessions
	}
	if !sameChat {
		return true
	}
	if snap.Started {
		s.chatID = snap.ChatID
		if s.navigate != nil {
			s.navigate(s.mode, s.configID, s.chatID)
		}
	}
	if snap.HistoryErr != nil {
		s.err = snap.HistoryErr
		return true
	}
	if !s.inFlight {
		s.transcript.Replace(snap.Messages)
	}
	return true
}

// Request returns the load request for the session's current binding.
func (s *Session) Request(listSessions bool) LoadRequest {
	return LoadRequest{
		Mode:         s.mode,
		ConfigID:     s.configID,
		ChatID:       s.chatID,
		Stamp:        s.gen.Current(),
		ListSessions: listSessions,
	}
}
