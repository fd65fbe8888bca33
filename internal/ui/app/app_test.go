// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/assistant"
	convo "github.com/jeranaias/ragdesk/internal/chat"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/session"
	uichat "github.com/jeranaias/ragdesk/internal/ui/chat"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// FAKES
// =============================================================================

type fakeBackend struct {
	mu sync.Mutex

	public   map[string]bool
	visErr   error
	visCalls int

	chats     []api.Assistant
	surveys   []api.Assistant
	videos    []api.Assistant
	surveyErr error
	chatErr   error

	generation *api.VideoGeneration
}

func (f *fakeBackend) visibility(id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.visCalls++
	if f.visErr != nil {
		return false, f.visErr
	}
	pub, ok := f.public[id]
	if !ok {
		return false, api.ErrNotFound
	}
	return pub, nil
}

func (f *fakeBackend) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.visCalls
}

func (f *fakeBackend) ConfigVisibility(ctx context.Context, id string) (bool, error) {
	return f.visibility(id)
}

func (f *fakeBackend) SurveyVisibility(ctx context.Context, id string) (bool, error) {
	return f.visibility(id)
}

func (f *fakeBackend) VideoVisibility(ctx context.Context, id string) (bool, error) {
	return f.visibility(id)
}

func (f *fakeBackend) GetConfig(ctx context.Context, id string) (*api.Assistant, error) {
	return &api.Assistant{ID: id, BotName: "Bot-" + id}, nil
}

func (f *fakeBackend) GetSurveyConfig(ctx context.Context, id string) (*api.Assistant, error) {
	return &api.Assistant{ID: id, BotName: "Survey-" + id, ConfigType: "survey"}, nil
}

func (f *fakeBackend) GetVideoConfig(ctx context.Context, id string) (*api.Assistant, error) {
	return &api.Assistant{ID: id, BotName: "Reel-" + id, ConfigType: "video_generation"}, nil
}

func (f *fakeBackend) History(ctx context.Context, chatID string) ([]api.HistoryEntry, error) {
	return nil, nil
}

func (f *fakeBackend) ListChatSessions(ctx context.Context, configID string) ([]api.Session, error) {
	return nil, nil
}

func (f *fakeBackend) ListSurveySessions(ctx context.Context, configID string) ([]api.Session, error) {
	return nil, nil
}

func (f *fakeBackend) SendChat(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error) {
	return &api.ChatReply{Response: "ok"}, nil
}

func (f *fakeBackend) InitSurvey(ctx context.Context, configID string) (*api.SurveyStart, error) {
	return &api.SurveyStart{Response: "Welcome", ChatID: "s1"}, nil
}

func (f *fakeBackend) SendSurvey(ctx context.Context, configID, chatID, input string) (*api.ChatReply, error) {
	return &api.ChatReply{Response: "ok"}, nil
}

func (f *fakeBackend) ListConfigs(ctx context.Context) ([]api.Assistant, error) {
	return f.chats, f.chatErr
}

func (f *fakeBackend) ListSurveyConfigs(ctx context.Context) ([]api.Assistant, error) {
	return f.surveys, f.surveyErr
}

func (f *fakeBackend) ListVideoConfigs(ctx context.Context) ([]api.Assistant, error) {
	return f.videos, nil
}

func (f *fakeBackend) GenerateVideo(ctx context.Context, configID, query string) (*api.VideoGeneration, error) {
	return f.generation, nil
}

func (f *fakeBackend) CheckTask(ctx context.Context, taskID string) (*api.VideoResult, error) {
	return &api.VideoResult{Status: api.VideoSuccess}, nil
}

type fakeAuth struct {
	mu       sync.Mutex
	loggedIn bool
	loginErr error
	logins   []api.Credentials
}

func (a *fakeAuth) LoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loggedIn
}

func (a *fakeAuth) setLoggedIn(v bool) {
	a.mu.Lock()
	a.loggedIn = v
	a.mu.Unlock()
}

func (a *fakeAuth) LoginCmd(ctx context.Context, creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		a.mu.Lock()
		defer a.mu.Unlock()
		a.logins = append(a.logins, creds)
		if a.loginErr != nil {
			return session.LoginMsg{Err: a.loginErr}
		}
		a.loggedIn = true
		return session.LoginMsg{}
	}
}

func (a *fakeAuth) LogoutCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		a.setLoggedIn(false)
		return session.LogoutMsg{}
	}
}

func (a *fakeAuth) WhoAmICmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		return session.UserMsg{User: &api.User{Username: "alice"}}
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func newApp(b *fakeBackend, a *fakeAuth, opts ...Option) *Model {
	m := New(styles.NewTheme("ascii"), b, a, opts...)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m
}

// collect runs cmd and any batched children, giving each a short window;
// blink timers and the like are abandoned.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(100 * time.Millisecond):
		return nil
	}

	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

// checks returns the gate results among msgs.
func checks(msgs []tea.Msg) []CheckedMsg {
	var out []CheckedMsg
	for _, msg := range msgs {
		if c, ok := msg.(CheckedMsg); ok {
			out = append(out, c)
		}
	}
	return out
}

func find[T tea.Msg](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// =============================================================================
// ROUTES
// =============================================================================

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path string
		want Route
	}{
		{"", Route{Screen: ScreenConfigs}},
		{"/", Route{Screen: ScreenConfigs}},
		{"/login", Route{Screen: ScreenLogin}},
		{"/config_list", Route{Screen: ScreenConfigs}},
		{"/chat/c1", Route{Screen: ScreenChat, ConfigID: "c1"}},
		{"/chat/c1/x9", Route{Screen: ScreenChat, ConfigID: "c1", ChatID: "x9"}},
		{"/survey-chat/s1/", Route{Screen: ScreenSurvey, ConfigID: "s1"}},
		{"video/v1", Route{Screen: ScreenVideo, ConfigID: "v1"}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := ParseRoute(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			again, err := ParseRoute(got.Path())
			require.NoError(t, err)
			assert.Equal(t, got, again)
		})
	}
}

func TestParseRouteRejects(t *testing.T) {
	for _, path := range []string{"/admin", "/chat", "/chat/a/b/c", "/video/v1/x", "/login/extra"} {
		_, err := ParseRoute(path)
		assert.ErrorIs(t, err, ErrUnknownRoute, path)
	}
}

// =============================================================================
// GATING
// =============================================================================

func TestPublicChatWithoutTokenIsAllowed(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"pub": true}}
	m := newApp(b, &fakeAuth{}, WithRoute(Route{Screen: ScreenChat, ConfigID: "pub"}))

	msgs := collect(m.Init())
	assert.True(t, m.Checking())
	assert.Contains(t, m.View(), "Checking access")

	results := checks(msgs)
	require.Len(t, results, 1)
	m.Update(results[0])

	assert.False(t, m.Checking())
	assert.Equal(t, ScreenChat, m.Route().Screen)
	require.NotNil(t, m.Chat().Session())
	assert.Equal(t, "pub", m.Chat().Session().ConfigID())
	assert.Equal(t, 1, b.calls())
}

func TestPrivateChatWithoutTokenRedirects(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"priv": false}}
	m := newApp(b, &fakeAuth{}, WithRoute(Route{Screen: ScreenChat, ConfigID: "priv", ChatID: "c7"}))

	results := checks(collect(m.Init()))
	require.Len(t, results, 1)
	m.Update(results[0])

	assert.Equal(t, ScreenLogin, m.Route().Screen)
	ret, ok := m.ReturnTo()
	require.True(t, ok)
	assert.Equal(t, Route{Screen: ScreenChat, ConfigID: "priv", ChatID: "c7"}, ret)
	assert.Nil(t, m.Chat().Session(), "nothing of the assistant is loaded")
	assert.Contains(t, m.View(), "/chat/priv/c7")
}

func TestVisibilityErrorRedirects(t *testing.T) {
	b := &fakeBackend{visErr: errors.New("connection refused")}
	m := newApp(b, &fakeAuth{}, WithRoute(Route{Screen: ScreenSurvey, ConfigID: "s1"}))

	for _, c := range checks(collect(m.Init())) {
		m.Update(c)
	}
	assert.Equal(t, ScreenLogin, m.Route().Screen)
}

func TestTokenSkipsVisibilityFetch(t *testing.T) {
	b := &fakeBackend{}
	m := newApp(b, &fakeAuth{loggedIn: true}, WithRoute(Route{Screen: ScreenChat, ConfigID: "mine"}))

	msgs := collect(m.Init())
	assert.False(t, m.Checking())
	assert.Empty(t, checks(msgs))
	assert.Equal(t, ScreenChat, m.Route().Screen)
	assert.Equal(t, 0, b.calls())

	user, ok := find[session.UserMsg](msgs)
	require.True(t, ok)
	m.Update(user)
	assert.Contains(t, m.View(), "alice")
}

func TestStaleCheckCannotAuthorizeNewID(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"a": true, "b": false}}
	m := newApp(b, &fakeAuth{})

	first := checks(collect(m.visit(Route{Screen: ScreenChat, ConfigID: "a"}, false)))
	second := checks(collect(m.visit(Route{Screen: ScreenChat, ConfigID: "b"}, false)))
	require.Len(t, first, 1)
	require.Len(t, second, 1)

	m.Update(first[0])
	assert.True(t, m.Checking(), "result for a superseded id is dropped")
	assert.Equal(t, "b", m.Route().ConfigID)

	m.Update(second[0])
	assert.Equal(t, ScreenLogin, m.Route().Screen)
}

func TestMintedChatIDSkipsRecheck(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"pub": true}}
	m := newApp(b, &fakeAuth{}, WithRoute(Route{Screen: ScreenChat, ConfigID: "pub"}))
	for _, c := range checks(collect(m.Init())) {
		m.Update(c)
	}
	require.Equal(t, 1, b.calls())

	_, cmd := m.Update(uichat.NavigateMsg{Mode: convo.ModeChat, ConfigID: "pub", ChatID: "fresh"})
	assert.Empty(t, checks(collect(cmd)))
	assert.False(t, m.Checking())
	assert.Equal(t, "fresh", m.Route().ChatID)
	assert.Equal(t, 1, b.calls())
}

func TestConfigListNeedsLogin(t *testing.T) {
	m := newApp(&fakeBackend{}, &fakeAuth{})
	collect(m.Init())

	assert.Equal(t, ScreenLogin, m.Route().Screen)
	ret, ok := m.ReturnTo()
	require.True(t, ok)
	assert.Equal(t, ScreenConfigs, ret.Screen)
}

// =============================================================================
// SESSION
// =============================================================================

func TestLoginContinuesToReturnRoute(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"priv": false}}
	a := &fakeAuth{}
	m := newApp(b, a, WithRoute(Route{Screen: ScreenChat, ConfigID: "priv"}))
	for _, c := range checks(collect(m.Init())) {
		m.Update(c)
	}
	require.Equal(t, ScreenLogin, m.Route().Screen)

	_, cmd := m.Update(LoginSubmitMsg{Credentials: api.Credentials{Username: "alice", Password: "pw"}})
	login, ok := find[session.LoginMsg](collect(cmd))
	require.True(t, ok)
	m.Update(login)

	assert.Equal(t, Route{Screen: ScreenChat, ConfigID: "priv"}, m.Route())
	assert.False(t, m.Checking(), "a held token allows without a fetch")
	assert.Equal(t, 1, b.calls())
	_, pending := m.ReturnTo()
	assert.False(t, pending)
}

func TestFailedLoginStaysOnForm(t *testing.T) {
	a := &fakeAuth{loginErr: api.ErrUnauthorized}
	m := newApp(&fakeBackend{}, a)
	collect(m.Init())

	_, cmd := m.Update(LoginSubmitMsg{Credentials: api.Credentials{Username: "alice", Password: "bad"}})
	for _, msg := range collect(cmd) {
		m.Update(msg)
	}
	assert.Equal(t, ScreenLogin, m.Route().Screen)
	assert.Contains(t, m.View(), "Invalid username or password.")
}

func TestTokenLossOnProtectedRouteRedirects(t *testing.T) {
	a := &fakeAuth{loggedIn: true}
	m := newApp(&fakeBackend{}, a)
	collect(m.Init())
	require.Equal(t, ScreenConfigs, m.Route().Screen)

	a.setLoggedIn(false)
	m.Update(session.ChangedMsg{LoggedIn: false})
	assert.Equal(t, ScreenLogin, m.Route().Screen)
}

func TestTokenLossOnChatRechecks(t *testing.T) {
	b := &fakeBackend{public: map[string]bool{"mine": false}}
	a := &fakeAuth{loggedIn: true}
	m := newApp(b, a, WithRoute(Route{Screen: ScreenChat, ConfigID: "mine"}))
	collect(m.Init())
	require.Equal(t, ScreenChat, m.Route().Screen)

	a.setLoggedIn(false)
	_, cmd := m.Update(session.ChangedMsg{LoggedIn: false})
	assert.True(t, m.Checking())
	for _, c := range checks(collect(cmd)) {
		m.Update(c)
	}
	assert.Equal(t, ScreenLogin, m.Route().Screen)
}

func TestLogoutKeyReturnsToLogin(t *testing.T) {
	a := &fakeAuth{loggedIn: true}
	m := newApp(&fakeBackend{}, a)
	collect(m.Init())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("L")})
	logout, ok := find[session.LogoutMsg](collect(cmd))
	require.True(t, ok)
	m.Update(logout)

	assert.Equal(t, ScreenLogin, m.Route().Screen)
	assert.Contains(t, m.View(), "Logged out.")
}

// =============================================================================
// LOGIN FORM
// =============================================================================

func TestLoginFormSubmits(t *testing.T) {
	f := NewLoginForm(styles.NewTheme("ascii"), DefaultKeyMap())
	f.Focus()

	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("alice")})
	f.Update(tea.KeyMsg{Type: tea.KeyTab})
	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s3cret")})
	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	msg, ok := cmd().(LoginSubmitMsg)
	require.True(t, ok)
	assert.Equal(t, api.Credentials{Username: "alice", Password: "s3cret"}, msg.Credentials)
	assert.True(t, f.Pending())
	assert.NotContains(t, f.View(), "s3cret", "password is masked")
}

func TestLoginFormRequiresBothFields(t *testing.T) {
	f := NewLoginForm(styles.NewTheme("ascii"), DefaultKeyMap())
	f.Focus()
	f.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("alice")})
	f.Update(tea.KeyMsg{Type: tea.KeyTab})

	_, cmd := f.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, f.Pending())
	assert.Contains(t, f.View(), "required")
}

// =============================================================================
// ASSISTANT LIST
// =============================================================================

func TestLoadAssistantsOrdersFamilies(t *testing.T) {
	b := &fakeBackend{
		chats:   []api.Assistant{{ID: "c1", BotName: "Helper"}},
		surveys: []api.Assistant{{ID: "s1", BotName: "Poll"}},
		videos:  []api.Assistant{{ID: "v1", BotName: "Reel"}},
	}
	got, err := LoadAssistants(context.Background(), b, nil)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []api.Kind{api.KindChat, api.KindSurvey, api.KindVideo},
		[]api.Kind{got[0].Kind(), got[1].Kind(), got[2].Kind()})
}

func TestLoadAssistantsToleratesForbiddenFamily(t *testing.T) {
	b := &fakeBackend{
		chats:     []api.Assistant{{ID: "c1"}},
		surveyErr: fmt.Errorf("survey list: %w", api.ErrForbidden),
	}
	got, err := LoadAssistants(context.Background(), b, nil)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	b.chatErr = api.ErrServer
	_, err = LoadAssistants(context.Background(), b, nil)
	assert.ErrorIs(t, err, api.ErrServer)
}

func TestConfigListDropsStaleLoads(t *testing.T) {
	c := NewConfigList(styles.NewTheme("ascii"), DefaultKeyMap(), "")
	b := &fakeBackend{chats: []api.Assistant{{ID: "c1"}}}

	stale := c.Load(context.Background(), b, nil)().(ConfigsMsg)
	fresh := c.Load(context.Background(), b, nil)().(ConfigsMsg)

	assert.False(t, c.Apply(stale))
	assert.True(t, c.Loading())
	assert.True(t, c.Apply(fresh))
	assert.Len(t, c.Items(), 1)
}

func TestConfigListOpensByKind(t *testing.T) {
	a := &fakeAuth{loggedIn: true}
	b := &fakeBackend{
		chats:  []api.Assistant{{ID: "c1", BotName: "Helper", IsPublic: true}},
		videos: []api.Assistant{{ID: "v1", BotName: "Reel"}},
	}
	m := newApp(b, a)
	for _, msg := range collect(m.Init()) {
		if c, ok := msg.(ConfigsMsg); ok {
			m.Update(c)
		}
	}
	require.Len(t, m.Configs().Items(), 2)
	view := m.View()
	assert.Contains(t, view, "Helper")
	assert.Contains(t, view, "public")
	assert.Contains(t, view, "private")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	nav, ok := find[NavigateMsg](collect(cmd))
	require.True(t, ok)
	assert.Equal(t, Route{Screen: ScreenVideo, ConfigID: "v1"}, nav.Route)
}

func TestShareCopiesPublicLink(t *testing.T) {
	var copied string
	a := &fakeAuth{loggedIn: true}
	b := &fakeBackend{chats: []api.Assistant{
		{ID: "c1", IsPublic: true},
		{ID: "c2", IsPublic: false},
	}}
	m := newApp(b, a,
		WithWebURL("https://ragdesk.example/"),
		WithClipboard(func(s string) error { copied = s; return nil }))
	for _, msg := range collect(m.Init()) {
		if c, ok := msg.(ConfigsMsg); ok {
			m.Update(c)
		}
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	share, ok := find[ShareMsg](collect(cmd))
	require.True(t, ok)
	require.NoError(t, share.Err)
	assert.Equal(t, "https://ragdesk.example/chat/c1", copied)
	m.Update(share)
	assert.Contains(t, m.View(), "Copied")

	m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
	share, ok = find[ShareMsg](collect(cmd))
	require.True(t, ok)
	assert.ErrorIs(t, share.Err, assistant.ErrNotPublic)
}

// =============================================================================
// VIDEO
// =============================================================================

func TestVideoScreenRendersResult(t *testing.T) {
	b := &fakeBackend{generation: &api.VideoGeneration{
		Query:  "a cat",
		Result: api.VideoResult{Status: api.VideoSuccess, VideoURL: "https://cdn.example/v.mp4"},
	}}
	v := NewVideoScreen(styles.NewTheme("ascii"), DefaultKeyMap(), b, nil, nil)
	v.SetSize(100, 30)

	for _, msg := range collect(v.Open(context.Background(), "v1")) {
		v.Update(msg)
	}
	assert.Contains(t, v.View(), "Reel-v1")

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("a cat")})
	cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, v.Session().InFlight())

	reply, ok := find[VideoReplyMsg](collect(cmd))
	require.True(t, ok)
	v.Update(reply)

	msgs := v.Session().Transcript().Messages()
	require.Len(t, msgs, 2)
	require.Len(t, msgs[1].Media, 1)
	assert.Equal(t, model.AttachmentVideo, msgs[1].Media[0].Kind)
	assert.Contains(t, v.View(), "https://cdn.example/v.mp4")
}

func TestVideoScreenDropsResultsAfterClose(t *testing.T) {
	b := &fakeBackend{generation: &api.VideoGeneration{Result: api.VideoResult{Status: api.VideoSuccess}}}
	v := NewVideoScreen(styles.NewTheme("ascii"), DefaultKeyMap(), b, nil, nil)
	v.SetSize(100, 30)
	collect(v.Open(context.Background(), "v1"))

	v.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("go")})
	reply, ok := find[VideoReplyMsg](collect(v.Update(tea.KeyMsg{Type: tea.KeyEnter})))
	require.True(t, ok)

	v.Close()
	v.Update(reply)
	assert.Equal(t, 0, v.Session().Transcript().Len())
}
