// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/survey"
	"github.com/jeranaias/ragdesk/internal/util"
)

// ErrNotStarted is returned when a survey answer is sent before the survey
// has a chat id.
var ErrNotStarted = errors.New("survey has not started")

// =============================================================================
// SESSION
// =============================================================================

// Session is the state of one conversation screen. It is owned by a single
// goroutine; only Send may run elsewhere.
type Session struct {
	mode     Mode
	configID string
	chatID   string

	transcript *model.Transcript
	assistant  *api.Assistant
	sessions   []api.Session

	inFlight bool
	draft    string
	err      error

	gen      util.Generation
	newID    func() string
	navigate func(mode Mode, configID, chatID string)
	logger   *zap.Logger
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the session's logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithNavigate registers the callback invoked when the session mints a
// chat id for a new conversation.
func WithNavigate(fn func(mode Mode, configID, chatID string)) Option {
	return func(s *Session) { s.navigate = fn }
}

// WithIDFunc replaces the chat id generator.
func WithIDFunc(fn func() string) Option {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewSession creates a session for one assistant. chatID may be empty for
// a new conversation.
func NewSession(mode Mode, configID, chatID string, opts ...Option) *Session {
	s := &Session{
		mode:       mode,
		configID:   configID,
		chatID:     chatID,
		transcript: model.NewTranscript(),
		newID:      uuid.NewString,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.gen.Next()
	return s
}

// Mode returns the conversation flavour.
func (s *Session) Mode() Mode { return s.mode }

// ConfigID returns the assistant id.
func (s *Session) ConfigID() string { return s.configID }

// ChatID returns the conversation id, empty before the first message.
func (s *Session) ChatID() string { return s.chatID }

// Transcript returns the messages on screen.
func (s *Session) Transcript() *model.Transcript { return s.transcript }

// Assistant returns the loaded assistant, or nil before a load settles.
func (s *Session) Assistant() *api.Assistant { return s.assistant }

// Sessions returns the viewer's other conversations with this assistant.
func (s *Session) Sessions() []api.Session { return s.sessions }

// InFlight reports whether a message is awaiting a reply.
func (s *Session) InFlight() bool { return s.inFlight }

// Err returns the last inline error, cleared by the next submission.
func (s *Session) Err() error { return s.err }

// TakeDraft returns text to restore into the input after a failed send,
// and clears it.
func (s *Session) TakeDraft() string {
	d := s.draft
	s.draft = ""
	return d
}

// Stamp returns the current generation.
func (s *Session) Stamp() uint64 { return s.gen.Current() }

// Bind points the session at another conversation. Binding to the current
// chat id is a no-op; anything else clears the transcript and invalidates
// outstanding work.
func (s *Session) Bind(configID, chatID string) uint64 {
	if configID == s.configID && chatID == s.chatID {
		return s.gen.Current()
	}
	s.configID = configID
	s.chatID = chatID
	s.transcript.Clear()
	s.assistant = nil
	s.sessions = nil
	s.inFlight = false
	s.draft = ""
	s.err = nil
	return s.gen.Next()
}

// =============================================================================
// SUBMISSION CYCLE
// =============================================================================

// Pending is one submission waiting to be sent.
type Pending struct {
	Mode     Mode
	ConfigID string
	ChatID   string
	Text     string
	Stamp    uint64
	Minted   bool
}

// Outcome is the settled result of a Pending send.
type Outcome struct {
	Pending
	Reply *api.ChatReply
	Err   error
}

// Submit starts sending input. Empty input, or input while a reply is
// outstanding, is ignored. A new chat conversation gets a freshly minted id
// and the navigate callback is invoked with it.
func (s *Session) Submit(input string) (Pending, bool) {
	text := util.NormalizeInput(input)
	if text == "" {
		return Pending{}, false
	}
	return s.submit(text)
}

// submit sends text as given; an empty text is a skipped optional answer.
func (s *Session) submit(text string) (Pending, bool) {
	if s.inFlight {
		return Pending{}, false
	}
	if s.mode == ModeSurvey && s.chatID == "" {
		s.err = ErrNotStarted
		return Pending{}, false
	}

	minted := false
	if s.chatID == "" {
		s.chatID = s.newID()
		minted = true
		s.logger.Debug("minted chat id", zap.String("chat_id", s.chatID))
	}

	if _, ok := s.transcript.AppendPending(text); !ok {
		return Pending{}, false
	}
	s.inFlight = true
	s.err = nil
	s.draft = ""

	p := Pending{
		Mode:     s.mode,
		ConfigID: s.configID,
		ChatID:   s.chatID,
		Text:     text,
		Stamp:    s.gen.Current(),
		Minted:   minted,
	}
	if minted && s.navigate != nil {
		s.navigate(s.mode, s.configID, s.chatID)
	}
	return p, true
}

// Answer formats a reply to the pending survey question and submits it.
func (s *Session) Answer(q *model.Message, a survey.Answer) (Pending, error) {
	if q == nil || q.Question == nil {
		return Pending{}, fmt.Errorf("no question to answer")
	}
	text, err := q.Question.Format(a)
	if err != nil {
		return Pending{}, err
	}
	p, ok := s.submit(text)
	if !ok {
		if s.err != nil {
			return Pending{}, s.err
		}
		return Pending{}, fmt.Errorf("a reply is still outstanding")
	}
	q.Answered = true
	return p, nil
}

// Send performs the network call for p. It does not touch session state
// and may run on any goroutine.
func Send(ctx context.Context, b Backend, p Pending) Outcome {
	out := Outcome{Pending: p}
	if p.Mode == ModeSurvey {
		out.Reply, out.Err = b.SendSurvey(ctx, p.ConfigID, p.ChatID, p.Text)
	} else {
		out.Reply, out.Err = b.SendChat(ctx, p.ConfigID, p.ChatID, p.Text)
	}
	return out
}

// Settle applies an outcome. Outcomes for a superseded chat are dropped and
// Settle returns false. On success the placeholder becomes the reply; on
// failure both optimistic entries are removed, the text is kept for
// TakeDraft and the error is recorded.
func (s *Session) Settle(o Outcome) bool {
	if !s.gen.IsCurrent(o.Stamp) || o.ChatID != s.chatID {
		s.logger.Debug("dropping stale reply",
			zap.String("chat_id", o.ChatID), zap.Uint64("stamp", o.Stamp))
		return false
	}
	s.inFlight = false

	if o.Err == nil && o.Reply == nil {
		o.Err = fmt.Errorf("empty reply: %w", api.ErrMalformed)
	}
	if o.Err != nil {
		text, _ := s.transcript.RollbackPending()
		if text == "" {
			text = o.Text
		}
		s.draft = text
		s.err = o.Err
		s.unanswer()
		s.logger.Warn("send failed", zap.String("chat_id", o.ChatID), zap.Error(o.Err))
		return true
	}

	s.transcript.ResolvePending(replyMessage(s.mode, o.Reply.Response, o.Reply.Sources, o.Reply.Media))
	return true
}

// unanswer reopens the last question after its answer was rolled back.
func (s *Session) unanswer() {
	last := s.transcript.Last()
	if last != nil && last.Question != nil {
		last.Answered = false
	}
}

// PendingQuestion returns the question awaiting an answer, if any.
func (s *Session) PendingQuestion() *model.Message {
	last := s.transcript.Last()
	if last != nil && last.IsPendingQuestion() {
		return last
	}
	return nil
}
