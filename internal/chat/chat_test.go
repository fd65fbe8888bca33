// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/survey"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// =============================================================================
// FAKE BACKEND
// =============================================================================

type fakeBackend struct {
	mu sync.Mutex

	reply    *api.ChatReply
	sendErr  error
	history  []api.HistoryEntry
	histErr  error
	start    *api.SurveyStart
	startErr error
	cfgErr   error
	listErr  error

	sent []string
}

func (f *fakeBackend) GetConfig(ctx context.Context, id string) (*api.Assistant, error) {
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	return &api.Assistant{ID: id, BotName: "Helper"}, nil
}

func (f *fakeBackend) GetSurveyConfig(ctx context.Context, id string) (*api.Assistant, error) {
	if f.cfgErr != nil {
		return nil, f.cfgErr
	}
	return &api.Assistant{ID: id, BotName: "Pollster", ConfigType: "survey"}, nil
}

func (f *fakeBackend) History(ctx context.Context, chatID string) ([]api.HistoryEntry, error) {
	return f.history, f.histErr
}

func (f *fakeBackend) ListChatSessions(ctx context.Context, configID string) ([]api.Session, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return []api.Session{{ID: "s1", Title: "First"}}, nil
}

func (f *fakeBackend) ListSurveySessions(ctx context.Context, configID string) ([]api.Session, error) {
	return f.ListChatSessions(ctx, configID)
}

func (f *fakeBackend) record(kind, configID, chatID, input string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, fmt.Sprintf("%s %s/%s %s", kind, configID, chatID, input))
}

func (f *fakeBackend) SendChat(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error) {
	f.record("chat", configID, chatID, input)
	return f.reply, f.sendErr
}

func (f *fakeBackend) InitSurvey(ctx context.Context, configID string) (*api.SurveyStart, error) {
	return f.start, f.startErr
}

func (f *fakeBackend) SendSurvey(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error) {
	f.record("survey", configID, chatID, input)
	return f.reply, f.sendErr
}

// entry is the comparable shape of a transcript message.
type entry struct {
	Sender model.Sender
	Text   string
	Typing bool
}

func shape(t *model.Transcript) []entry {
	out := []entry{}
	for _, m := range t.Messages() {
		out = append(out, entry{Sender: m.Sender, Text: m.Text, Typing: m.Typing})
	}
	return out
}

func fixedID(id string) Option {
	return WithIDFunc(func() string { return id })
}

// =============================================================================
// SUBMISSION CYCLE
// =============================================================================

func TestSendSuccess(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: "hi there"}}
	s := NewSession(ModeChat, "cfg", "chat-1")

	p, ok := s.Submit("hello")
	require.True(t, ok)
	assert.True(t, s.InFlight())
	assert.Equal(t, []entry{
		{Sender: model.SenderUser, Text: "hello"},
		{Sender: model.SenderAssistant, Typing: true},
	}, shape(s.Transcript()), "user message and placeholder appear together")

	require.True(t, s.Settle(Send(context.Background(), b, p)))

	want := []entry{
		{Sender: model.SenderUser, Text: "hello"},
		{Sender: model.SenderAssistant, Text: "hi there"},
	}
	if diff := cmp.Diff(want, shape(s.Transcript())); diff != "" {
		t.Errorf("transcript mismatch (-want +got):\n%s", diff)
	}
	assert.False(t, s.InFlight())
	assert.NoError(t, s.Err())
	assert.Equal(t, []string{"chat cfg/chat-1 hello"}, b.sent)
}

func TestSendFailureRollsBack(t *testing.T) {
	b := &fakeBackend{sendErr: errors.New("network down")}
	s := NewSession(ModeChat, "cfg", "chat-1")

	p, ok := s.Submit("hello")
	require.True(t, ok)
	s.Settle(Send(context.Background(), b, p))

	if diff := cmp.Diff([]entry{}, shape(s.Transcript())); diff != "" {
		t.Errorf("transcript should be empty (-want +got):\n%s", diff)
	}
	assert.Equal(t, "hello", s.TakeDraft())
	assert.Equal(t, "", s.TakeDraft(), "draft is taken once")
	assert.EqualError(t, s.Err(), "network down")
	assert.False(t, s.InFlight())
}

func TestSendFailureKeepsEarlierMessages(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: "one"}}
	s := NewSession(ModeChat, "cfg", "chat-1")

	p, _ := s.Submit("first")
	s.Settle(Send(context.Background(), b, p))
	before := s.Transcript().Len()

	b.reply, b.sendErr = nil, api.ErrServer
	p, _ = s.Submit("second")
	s.Settle(Send(context.Background(), b, p))

	assert.Equal(t, before, s.Transcript().Len())
	assert.False(t, s.Transcript().HasTyping())
	assert.ErrorIs(t, s.Err(), api.ErrServer)
}

func TestSendFailureOnLongTranscript(t *testing.T) {
	entries := make([]api.HistoryEntry, 1500)
	for i := range entries {
		entries[i] = api.HistoryEntry{Type: "human", Data: api.HistoryData{Content: api.Content(fmt.Sprintf("m%d", i))}}
	}
	s := NewSession(ModeChat, "cfg", "chat-1")
	s.Transcript().Replace(FromHistory(ModeChat, entries))
	require.Equal(t, 1500, s.Transcript().Len(), "loaded history is shown in full")
	before := shape(s.Transcript())

	b := &fakeBackend{sendErr: api.ErrServer}
	p, ok := s.Submit("hello")
	require.True(t, ok)
	s.Settle(Send(context.Background(), b, p))

	if diff := cmp.Diff(before, shape(s.Transcript())); diff != "" {
		t.Errorf("failed send should restore the transcript (-want +got):\n%s", diff)
	}
	assert.Equal(t, "hello", s.TakeDraft())
}

func TestSubmitIgnoresEmptyAndInFlight(t *testing.T) {
	s := NewSession(ModeChat, "cfg", "chat-1")

	_, ok := s.Submit("   \n ")
	assert.False(t, ok)
	assert.Zero(t, s.Transcript().Len())

	_, ok = s.Submit("one")
	require.True(t, ok)
	_, ok = s.Submit("two")
	assert.False(t, ok, "second submit while in flight is a no-op")
	assert.Equal(t, 2, s.Transcript().Len())
}

func TestSubmitMintsChatID(t *testing.T) {
	var navigated []string
	b := &fakeBackend{reply: &api.ChatReply{Response: "welcome"}}
	s := NewSession(ModeChat, "cfg", "",
		fixedID("new-id"),
		WithNavigate(func(mode Mode, configID, chatID string) {
			navigated = append(navigated, mode.String()+"/"+configID+"/"+chatID)
		}))

	p, ok := s.Submit("hello")
	require.True(t, ok)
	assert.True(t, p.Minted)
	assert.Equal(t, "new-id", s.ChatID())
	assert.Equal(t, []string{"chat/cfg/new-id"}, navigated)

	// The route change re-binds to the same id and must keep in-flight state.
	s.Bind("cfg", "new-id")
	assert.True(t, s.InFlight())

	require.True(t, s.Settle(Send(context.Background(), b, p)))
	assert.Equal(t, 2, s.Transcript().Len())
	assert.Equal(t, []string{"chat cfg/new-id hello"}, b.sent)
}

func TestStaleReplyDropped(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: "late"}}
	s := NewSession(ModeChat, "cfg", "chat-1")

	p, _ := s.Submit("hello")
	s.Bind("cfg", "chat-2")

	assert.False(t, s.Settle(Send(context.Background(), b, p)))
	assert.Zero(t, s.Transcript().Len())
	assert.False(t, s.InFlight())
}

func TestReplyWithMedia(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{
		Response: "here you go",
		Media: []api.Media{
			{URL: "http://cdn/a.png", Type: api.MediaImage},
			{URL: "http://cdn/b.mp4", Type: api.MediaVideo},
			{URL: "", Type: api.MediaImage},
		},
		Sources: []api.Source{{Source: "/docs/manual.pdf", Page: 3}},
	}}
	s := NewSession(ModeChat, "cfg", "chat-1")
	p, _ := s.Submit("show me")
	s.Settle(Send(context.Background(), b, p))

	last := s.Transcript().Last()
	require.NotNil(t, last)
	assert.Equal(t, []model.Attachment{
		{URL: "http://cdn/a.png", Kind: model.AttachmentImage},
		{URL: "http://cdn/b.mp4", Kind: model.AttachmentVideo},
	}, last.Media)
	assert.Len(t, last.Sources, 1)
}

func TestEmptyReplyIsError(t *testing.T) {
	b := &fakeBackend{}
	s := NewSession(ModeChat, "cfg", "chat-1")
	p, _ := s.Submit("hello")
	s.Settle(Send(context.Background(), b, p))

	assert.ErrorIs(t, s.Err(), api.ErrMalformed)
	assert.Zero(t, s.Transcript().Len())
}

// =============================================================================
// SURVEY
// =============================================================================

func TestSurveyQuestionReply(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{
		Response: `{"type":"multiple_choice","question":"Pick one","options":["A","B"],"required":true}`,
	}}
	s := NewSession(ModeSurvey, "svy", "chat-9")

	p, _ := s.Submit("start")
	s.Settle(Send(context.Background(), b, p))

	q := s.PendingQuestion()
	require.NotNil(t, q)
	assert.Equal(t, survey.MultipleChoice, q.Question.Type)

	_, err := s.Answer(q, survey.Answer{})
	assert.ErrorIs(t, err, survey.ErrAnswerRequired)
	assert.False(t, s.InFlight())

	b.reply = &api.ChatReply{Response: "Thanks!"}
	p, err = s.Answer(q, survey.Answer{Selected: []string{"B"}})
	require.NoError(t, err)
	assert.True(t, q.Answered)
	s.Settle(Send(context.Background(), b, p))

	assert.Nil(t, s.PendingQuestion())
	assert.Equal(t, "survey svy/chat-9 B", b.sent[len(b.sent)-1])
}

func TestSurveyAnswerRollbackReopensQuestion(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: `{"type":"yes_no","question":"Ready?"}`}}
	s := NewSession(ModeSurvey, "svy", "chat-9")
	p, _ := s.Submit("start")
	s.Settle(Send(context.Background(), b, p))

	q := s.PendingQuestion()
	require.NotNil(t, q)

	b.reply, b.sendErr = nil, errors.New("offline")
	p, err := s.Answer(q, survey.Answer{Selected: []string{"Yes"}})
	require.NoError(t, err)
	s.Settle(Send(context.Background(), b, p))

	assert.Equal(t, q, s.PendingQuestion(), "question is answerable again")
	assert.Equal(t, "Yes", s.TakeDraft())
}

func TestSurveySkipOptionalSendsEmptyAnswer(t *testing.T) {
	b := &fakeBackend{reply: &api.ChatReply{Response: `{"type":"open_ended","question":"Anything else?"}`}}
	s := NewSession(ModeSurvey, "svy", "chat-9")
	p, _ := s.Submit("start")
	s.Settle(Send(context.Background(), b, p))

	q := s.PendingQuestion()
	require.NotNil(t, q)

	b.reply = &api.ChatReply{Response: "Done."}
	p, err := s.Answer(q, survey.Answer{})
	require.NoError(t, err)
	assert.Equal(t, "", p.Text)
	s.Settle(Send(context.Background(), b, p))

	assert.Equal(t, "survey svy/chat-9 ", b.sent[len(b.sent)-1])
	assert.Nil(t, s.PendingQuestion())
}

func TestSurveyRequiresStart(t *testing.T) {
	s := NewSession(ModeSurvey, "svy", "")
	_, ok := s.Submit("hello")
	assert.False(t, ok)
	assert.ErrorIs(t, s.Err(), ErrNotStarted)
}

// =============================================================================
// LOADING
// =============================================================================

func TestLoadChatHistory(t *testing.T) {
	b := &fakeBackend{history: []api.HistoryEntry{
		{Type: "human", Data: api.HistoryData{Content: "hello"}},
		{Type: "ai", Data: api.HistoryData{
			Content:          "hi there",
			AdditionalKwargs: api.AdditionalKwargs{Media: []api.Media{{URL: "http://x/i.png", Type: api.MediaImage}}},
		}},
	}}
	s := NewSession(ModeChat, "cfg", "chat-1")

	snap := Load(context.Background(), b, s.Request(true), nil)
	require.NoError(t, snap.Err)
	require.True(t, s.Apply(snap))

	assert.Equal(t, "Helper", s.Assistant().BotName)
	assert.Len(t, s.Sessions(), 1)
	want := []entry{
		{Sender: model.SenderUser, Text: "hello"},
		{Sender: model.SenderAssistant, Text: "hi there"},
	}
	if diff := cmp.Diff(want, shape(s.Transcript())); diff != "" {
		t.Errorf("history mismatch (-want +got):\n%s", diff)
	}
	assert.Len(t, s.Transcript().Last().Media, 1)
}

func TestLoadConfigErrorIsBlocking(t *testing.T) {
	b := &fakeBackend{cfgErr: api.ErrNotFound}
	s := NewSession(ModeChat, "cfg", "chat-1")

	snap := Load(context.Background(), b, s.Request(false), nil)
	assert.ErrorIs(t, snap.Err, api.ErrNotFound)
	s.Apply(snap)
	assert.Nil(t, s.Assistant())
	assert.ErrorIs(t, s.Err(), api.ErrNotFound)
}

func TestLoadHistoryErrorIsInline(t *testing.T) {
	b := &fakeBackend{histErr: api.ErrServer, listErr: errors.New("ignored")}
	s := NewSession(ModeChat, "cfg", "chat-1")

	snap := Load(context.Background(), b, s.Request(true), nil)
	require.NoError(t, snap.Err)
	assert.ErrorIs(t, snap.HistoryErr, api.ErrServer)
	s.Apply(snap)
	assert.NotNil(t, s.Assistant())
	assert.ErrorIs(t, s.Err(), api.ErrServer)
}

func TestLoadStartsSurvey(t *testing.T) {
	var navigated string
	b := &fakeBackend{start: &api.SurveyStart{Response: "Welcome to the survey", ChatID: "srv-1"}}
	s := NewSession(ModeSurvey, "svy", "", WithNavigate(func(mode Mode, configID, chatID string) {
		navigated = chatID
	}))

	snap := Load(context.Background(), b, s.Request(false), nil)
	require.NoError(t, snap.Err)
	require.True(t, s.Apply(snap))

	assert.Equal(t, "srv-1", s.ChatID())
	assert.Equal(t, "srv-1", navigated)
	assert.Equal(t, []entry{{Sender: model.SenderAssistant, Text: "Welcome to the survey"}}, shape(s.Transcript()))
}

func TestLoadSurveyMalformedStart(t *testing.T) {
	b := &fakeBackend{startErr: fmt.Errorf("survey init: %w", api.ErrMalformed)}
	s := NewSession(ModeSurvey, "svy", "")

	snap := Load(context.Background(), b, s.Request(false), nil)
	assert.ErrorIs(t, snap.Err, api.ErrMalformed)
	assert.Empty(t, snap.Messages, "no partial render")
	s.Apply(snap)
	assert.Zero(t, s.Transcript().Len())
}

func TestStaleLoadDropped(t *testing.T) {
	b := &fakeBackend{history: []api.HistoryEntry{{Type: "human", Data: api.HistoryData{Content: "old"}}}}
	s := NewSession(ModeChat, "cfg", "chat-1")

	req := s.Request(false)
	s.Bind("cfg", "chat-2")
	assert.False(t, s.Apply(Load(context.Background(), b, req, nil)))
	assert.Zero(t, s.Transcript().Len())
}

func TestLoadAfterMintKeepsTranscript(t *testing.T) {
	b := &fakeBackend{}
	s := NewSession(ModeChat, "cfg", "", fixedID("minted"))

	req := s.Request(false)
	_, ok := s.Submit("hello")
	require.True(t, ok)

	assert.True(t, s.Apply(Load(context.Background(), b, req, nil)))
	assert.NotNil(t, s.Assistant())
	assert.Equal(t, 2, s.Transcript().Len(), "in-flight messages survive")
}

func TestFromHistorySurvey(t *testing.T) {
	msgs := FromHistory(ModeSurvey, []api.HistoryEntry{
		{Type: "ai", Data: api.HistoryData{Content: `{"type":"scale","question":"Rate us","scale_min":1,"scale_max":3}`}},
		{Type: "human", Data: api.HistoryData{Content: "3"}},
		{Type: "ai", Data: api.HistoryData{Content: `{"type":"open_ended","question":"Why?"}`}},
	})
	require.Len(t, msgs, 3)
	assert.True(t, msgs[0].Answered)
	assert.False(t, msgs[2].Answered)
	assert.True(t, msgs[2].IsPendingQuestion())
}
