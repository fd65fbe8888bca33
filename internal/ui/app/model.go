// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/auth"
	convo "github.com/jeranaias/ragdesk/internal/chat"
	"github.com/jeranaias/ragdesk/internal/gate"
	"github.com/jeranaias/ragdesk/internal/session"
	uichat "github.com/jeranaias/ragdesk/internal/ui/chat"
	"github.com/jeranaias/ragdesk/internal/ui/components"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
	"github.com/jeranaias/ragdesk/internal/video"
)

// Backend is everything the TUI asks of the platform. *api.Client
// satisfies it.
type Backend interface {
	convo.Backend
	VideoBackend
	Lister
	ConfigVisibility(ctx context.Context, id string) (bool, error)
	SurveyVisibility(ctx context.Context, id string) (bool, error)
	VideoVisibility(ctx context.Context, id string) (bool, error)
}

var _ Backend = (*api.Client)(nil)

// Auth is the session the TUI logs in and out of.
type Auth interface {
	gate.TokenSource
	LoginCmd(ctx context.Context, creds api.Credentials) tea.Cmd
	LogoutCmd(ctx context.Context) tea.Cmd
	WhoAmICmd(ctx context.Context) tea.Cmd
}

var _ Auth = (*session.Manager)(nil)

// =============================================================================
// APPLICATION MODEL
// =============================================================================

// Model is the root Bubble Tea model.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	ctx         context.Context
	backend     Backend
	auth        Auth
	changes     <-chan auth.Change
	copy        func(string) error
	webURL      string
	poller      *video.Poller
	showSources bool
	logger      *zap.Logger

	start    Route
	route    Route
	returnTo *Route
	gates    map[Screen]*gate.Gate
	checking bool
	checker  components.Spinner

	login   *LoginForm
	configs *ConfigList
	chat    *uichat.Model
	video   *VideoScreen
	header  *components.Header
	status  *components.StatusBar

	notice    string
	noticeErr bool
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger passed down to every screen.
func WithLogger(l *zap.Logger) Option {
	return func(m *Model) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithContext sets the context requests run under.
func WithContext(ctx context.Context) Option {
	return func(m *Model) {
		if ctx != nil {
			m.ctx = ctx
		}
	}
}

// WithRoute sets the first route shown.
func WithRoute(r Route) Option {
	return func(m *Model) { m.start = r }
}

// WithChanges subscribes the model to session token changes.
func WithChanges(ch <-chan auth.Change) Option {
	return func(m *Model) { m.changes = ch }
}

// WithClipboard sets the function used for share links and answers.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copy = fn }
}

// WithWebURL sets the web app base used for share links.
func WithWebURL(u string) Option {
	return func(m *Model) { m.webURL = u }
}

// WithPoller sets the poller for renders that outlive the server's wait.
func WithPoller(p *video.Poller) Option {
	return func(m *Model) { m.poller = p }
}

// WithShowSources toggles source lists under chat answers.
func WithShowSources(show bool) Option {
	return func(m *Model) { m.showSources = show }
}

// New creates the root model.
func New(theme *styles.Theme, backend Backend, a Auth, opts ...Option) *Model {
	m := &Model{
		theme:       theme,
		keys:        DefaultKeyMap(),
		ctx:         context.Background(),
		backend:     backend,
		auth:        a,
		showSources: true,
		logger:      zap.NewNop(),
		start:       Route{Screen: ScreenConfigs},
		checker:     components.NewCheckingSpinner(),
		header:      components.NewHeader(theme),
		status:      components.NewStatusBar(theme),
	}
	for _, opt := range opts {
		opt(m)
	}

	m.gates = map[Screen]*gate.Gate{
		ScreenChat:   gate.New(a, backend.ConfigVisibility, gate.WithLogger(m.logger.Named("gate.chat"))),
		ScreenSurvey: gate.New(a, backend.SurveyVisibility, gate.WithLogger(m.logger.Named("gate.survey"))),
		ScreenVideo:  gate.New(a, backend.VideoVisibility, gate.WithLogger(m.logger.Named("gate.video"))),
	}
	m.login = NewLoginForm(theme, m.keys)
	m.configs = NewConfigList(theme, m.keys, m.webURL)
	m.chat = uichat.New(theme, backend,
		uichat.WithLogger(m.logger.Named("chat")),
		uichat.WithContext(m.ctx),
		uichat.WithLoggedIn(a.LoggedIn),
		uichat.WithClipboard(m.copy),
		uichat.WithShowSources(m.showSources))
	m.video = NewVideoScreen(theme, m.keys, backend, m.poller, m.logger.Named("video"))
	m.route = loginRoute()
	return m
}

// loginRoute is where every redirect lands.
func loginRoute() Route {
	r, err := ParseRoute(gate.LoginRoute)
	if err != nil {
		return Route{Screen: ScreenLogin}
	}
	return r
}

// =============================================================================
// GETTERS
// =============================================================================

// Route returns the current route.
func (m *Model) Route() Route {
	return m.route
}

// Checking reports whether a visibility check is outstanding.
func (m *Model) Checking() bool {
	return m.checking
}

// ReturnTo returns the route a login will continue to, if any.
func (m *Model) ReturnTo() (Route, bool) {
	if m.returnTo == nil {
		return Route{}, false
	}
	return *m.returnTo, true
}

// Chat returns the conversation screen.
func (m *Model) Chat() *uichat.Model {
	return m.chat
}

// Configs returns the assistant list.
func (m *Model) Configs() *ConfigList {
	return m.configs
}

// Video returns the video screen.
func (m *Model) Video() *VideoScreen {
	return m.video
}

// =============================================================================
// BUBBLE TEA INTERFACE
// =============================================================================

// Init starts at the initial route and begins watching the session.
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.visit(m.start, true), m.watch()}
	if m.auth.LoggedIn() {
		cmds = append(cmds, m.auth.WhoAmICmd(m.ctx))
	}
	return tea.Batch(cmds...)
}

// Update handles messages and updates the model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case CheckedMsg:
		return m, m.handleChecked(msg)

	case NavigateMsg:
		return m, m.visit(msg.Route, false)

	case uichat.NavigateMsg:
		return m, m.visit(RouteFor(msg.Mode, msg.ConfigID, msg.ChatID), false)

	case uichat.BackMsg:
		return m, m.visit(Route{Screen: ScreenConfigs}, false)

	case LoginSubmitMsg:
		return m, m.auth.LoginCmd(m.ctx, msg.Credentials)

	case session.LoginMsg:
		return m, m.handleLogin(msg)

	case session.LogoutMsg:
		return m, m.handleLogout(msg)

	case session.UserMsg:
		if msg.Err == nil && msg.User != nil {
			m.header.User = msg.User.Username
			m.chat.SetUser(msg.User.Username)
		}
		return m, nil

	case session.ChangedMsg:
		return m, tea.Batch(m.handleChanged(msg), m.watch())

	case ConfigsMsg:
		if m.configs.Apply(msg) && msg.Err != nil {
			m.logger.Warn("assistant list failed", zap.Error(msg.Err))
		}
		return m, nil

	case ShareMsg:
		if msg.Err != nil {
			m.setNotice("", msg.Err)
		} else {
			m.setNotice("Copied "+msg.URL, nil)
		}
		return m, nil

	case VideoConfigMsg, VideoReplyMsg:
		return m, m.video.Update(msg)

	case uichat.LoadedMsg, uichat.ReplyMsg, uichat.NoticeMsg, components.QuestionAnsweredMsg:
		_, cmd := m.chat.Update(msg)
		return m, cmd

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.checker, cmd = m.checker.Update(msg)
		cmds = append(cmds, cmd)
		_, cmd = m.chat.Update(msg)
		cmds = append(cmds, cmd)
		cmds = append(cmds, m.video.Update(msg))
		return m, tea.Batch(cmds...)
	}

	return m, m.forward(msg)
}

// forward passes housekeeping messages such as cursor blinks to the
// active screen.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	switch m.route.Screen {
	case ScreenLogin:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return cmd
	case ScreenChat, ScreenSurvey:
		_, cmd := m.chat.Update(msg)
		return cmd
	case ScreenVideo:
		return m.video.Update(msg)
	}
	return nil
}

func (m *Model) setSize(w, h int) {
	m.width, m.height = w, h
	m.theme.SetSize(w, h)
	m.header.SetWidth(w)
	m.status.SetWidth(w)
	m.login.SetWidth(w)
	m.configs.SetSize(w, max(h-2, 1))
	m.chat.SetSize(w, h)
	m.video.SetSize(w, h)
}

// =============================================================================
// ROUTING
// =============================================================================

// visit switches to r. Gated routes begin a visibility check unless the
// route only changes the chat id of an assistant already allowed, which
// is what happens when a new chat mints its id. recheck forces the check.
func (m *Model) visit(r Route, recheck bool) tea.Cmd {
	m.notice = ""
	if r.Protected() && gate.Protected(m.auth) == gate.Redirect {
		return m.redirect(r)
	}

	if !r.Gated() {
		m.leave(r.Screen)
		m.route = r
		m.stopChecking()
		return m.enter(r)
	}

	g := m.gates[r.Screen]
	if !recheck && !m.checking && r.Screen == m.route.Screen && r.ConfigID == m.route.ConfigID &&
		g.ID() == r.ConfigID && g.Decision() == gate.Allow {
		m.route = r
		return m.enter(r)
	}

	m.leave(r.Screen)
	m.route = r
	t := g.Begin(m.ctx, r.ConfigID)
	if t.Decision == gate.Allow {
		m.stopChecking()
		return m.enter(r)
	}

	// Nothing of the assistant may show until the check allows it.
	m.closeScreen(r.Screen)
	m.checking = true
	screen := r.Screen
	return tea.Batch(m.checker.Start(), func() tea.Msg {
		return CheckedMsg{Screen: screen, Result: g.Run(t)}
	})
}

func (m *Model) handleChecked(msg CheckedMsg) tea.Cmd {
	g, ok := m.gates[msg.Screen]
	if !ok {
		return nil
	}
	d, current := g.Apply(msg.Result)
	if !current || !m.checking || m.route.Screen != msg.Screen {
		return nil
	}
	m.stopChecking()
	if d == gate.Allow {
		return m.enter(m.route)
	}
	m.logger.Info("access denied, redirecting to login",
		zap.String("route", m.route.Path()))
	return m.redirect(m.route)
}

// redirect sends the viewer to the login form and remembers r.
func (m *Model) redirect(r Route) tea.Cmd {
	login := loginRoute()
	m.leave(login.Screen)
	ret := r
	m.returnTo = &ret
	m.route = login
	m.stopChecking()
	m.login.SetNotice("Log in to continue to " + r.Path())
	return m.enter(login)
}

// leave closes the current screen when moving to another one.
func (m *Model) leave(next Screen) {
	if m.route.Screen == next {
		return
	}
	if g, ok := m.gates[m.route.Screen]; ok {
		g.Stop()
	}
	m.closeScreen(m.route.Screen)
}

func (m *Model) closeScreen(s Screen) {
	switch s {
	case ScreenChat, ScreenSurvey:
		m.chat.Close()
	case ScreenVideo:
		m.video.Close()
	case ScreenConfigs:
		m.configs.Invalidate()
	}
}

func (m *Model) enter(r Route) tea.Cmd {
	switch r.Screen {
	case ScreenLogin:
		m.login.Reset()
		m.status.SetShortcuts(m.keys.LoginShortcuts()...)
		return m.login.Focus()
	case ScreenConfigs:
		m.status.SetShortcuts(m.keys.ListShortcuts()...)
		return m.configs.Load(m.ctx, m.backend, m.logger.Named("configs"))
	case ScreenChat, ScreenSurvey:
		return m.chat.Open(r.Mode(), r.ConfigID, r.ChatID)
	case ScreenVideo:
		return m.video.Open(m.ctx, r.ConfigID)
	}
	return nil
}

func (m *Model) stopChecking() {
	m.checking = false
	m.checker.Stop()
}

// =============================================================================
// SESSION
// =============================================================================

func (m *Model) watch() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	return session.WatchCmd(m.changes)
}

func (m *Model) handleLogin(msg session.LoginMsg) tea.Cmd {
	if msg.Err != nil {
		m.login.SetError(msg.Err)
		return nil
	}
	return tea.Batch(m.continueAfterLogin(), m.auth.WhoAmICmd(m.ctx))
}

func (m *Model) continueAfterLogin() tea.Cmd {
	target := Route{Screen: ScreenConfigs}
	if m.returnTo != nil {
		target = *m.returnTo
		m.returnTo = nil
	}
	m.login.Reset()
	m.login.SetNotice("")
	return m.visit(target, true)
}

func (m *Model) handleLogout(msg session.LogoutMsg) tea.Cmd {
	m.header.User = ""
	m.chat.SetUser("")
	m.configs.Clear()
	if msg.Err != nil {
		m.logger.Warn("logout did not clear the local session", zap.Error(msg.Err))
		m.setNotice("", msg.Err)
		return nil
	}
	m.returnTo = nil
	login := loginRoute()
	m.leave(login.Screen)
	m.route = login
	m.login.SetNotice("Logged out.")
	return m.enter(login)
}

// handleChanged re-runs the guards after the token appeared or went away,
// possibly by another process.
func (m *Model) handleChanged(msg session.ChangedMsg) tea.Cmd {
	if msg.LoggedIn {
		if m.route.Screen == ScreenLogin && !m.login.Pending() {
			return tea.Batch(m.continueAfterLogin(), m.auth.WhoAmICmd(m.ctx))
		}
		return nil
	}

	m.header.User = ""
	m.chat.SetUser("")
	m.configs.Clear()
	switch {
	case m.route.Protected():
		return m.redirect(m.route)
	case m.route.Gated():
		return m.visit(m.route, true)
	}
	return nil
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		return tea.Quit
	}
	if m.checking {
		if key.Matches(msg, m.keys.Back) {
			return m.visit(Route{Screen: ScreenConfigs}, false)
		}
		return nil
	}

	switch m.route.Screen {
	case ScreenLogin:
		var cmd tea.Cmd
		m.login, cmd = m.login.Update(msg)
		return cmd

	case ScreenConfigs:
		switch {
		case key.Matches(msg, m.keys.Share):
			return m.configs.Share(m.copy)
		case key.Matches(msg, m.keys.Refresh):
			return m.configs.Load(m.ctx, m.backend, m.logger.Named("configs"))
		case key.Matches(msg, m.keys.Logout):
			return m.auth.LogoutCmd(m.ctx)
		case msg.String() == "q":
			return tea.Quit
		}
		return m.configs.Update(msg)

	case ScreenChat, ScreenSurvey:
		_, cmd := m.chat.Update(msg)
		return cmd

	case ScreenVideo:
		return m.video.Update(msg)
	}
	return nil
}

func (m *Model) setNotice(text string, err error) {
	m.noticeErr = err != nil
	if err != nil {
		text = api.Describe(err)
	}
	m.notice = text
}

// =============================================================================
// VIEW
// =============================================================================

// View renders the current route.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.checking {
		return m.frame(lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.checker.View()))
	}

	switch m.route.Screen {
	case ScreenLogin:
		return m.frame(lipgloss.Place(m.width, m.bodyHeight(), lipgloss.Center, lipgloss.Center, m.login.View()))
	case ScreenConfigs:
		return m.frame(m.configs.View())
	case ScreenChat, ScreenSurvey:
		return m.chat.View()
	case ScreenVideo:
		return m.video.View()
	}
	return ""
}

func (m *Model) bodyHeight() int {
	return max(m.height-2, 1)
}

// frame wraps a body with the app header and status bar.
func (m *Model) frame(body string) string {
	switch {
	case m.notice != "" && m.noticeErr:
		m.status.SetStatus(components.StatusError, m.notice)
	case m.notice != "":
		m.status.SetStatus(components.StatusReady, m.notice)
	case m.checking:
		m.status.SetStatus(components.StatusChecking, "")
	case m.route.Screen == ScreenConfigs && m.configs.Loading():
		m.status.SetStatus(components.StatusLoading, "")
	default:
		m.status.SetStatus(components.StatusReady, "")
	}
	body = lipgloss.NewStyle().Height(m.bodyHeight()).MaxHeight(m.bodyHeight()).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, m.header.View(), body, m.status.View())
}
