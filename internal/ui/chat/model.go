// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	convo "github.com/jeranaias/ragdesk/internal/chat"
	"github.com/jeranaias/ragdesk/internal/ui/components"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the conversation screen.
type Model struct {
	theme *styles.Theme
	keys  KeyMap

	width  int
	height int

	ctx      context.Context
	backend  convo.Backend
	loggedIn func() bool
	copy     func(string) error
	logger   *zap.Logger

	sess   *convo.Session
	minted *NavigateMsg

	viewport  viewport.Model
	optimizer *ViewportOptimizer
	list      *components.MessageList
	input     *components.InputArea
	picker    *components.QuestionPicker
	typing    components.Spinner
	loader    components.Spinner
	header    *components.Header
	status    *components.StatusBar

	loading       bool
	notice        string
	noticeErr     bool
	showSessions  bool
	sessionCursor int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the screen's logger.
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

// WithLoggedIn reports whether the viewer holds a token; anonymous viewers
// get no session list.
func WithLoggedIn(fn func() bool) Option {
	return func(m *Model) { m.loggedIn = fn }
}

// WithClipboard sets the function used to copy answers.
func WithClipboard(fn func(string) error) Option {
	return func(m *Model) { m.copy = fn }
}

// WithShowSources toggles source lists under answers.
func WithShowSources(show bool) Option {
	return func(m *Model) { m.list.ShowSources = show }
}

// New creates the conversation screen.
func New(theme *styles.Theme, backend convo.Backend, opts ...Option) *Model {
	m := &Model{
		theme:     theme,
		keys:      DefaultKeyMap(),
		ctx:       context.Background(),
		backend:   backend,
		loggedIn:  func() bool { return false },
		logger:    zap.NewNop(),
		viewport:  viewport.New(80, 20),
		optimizer: NewViewportOptimizer(),
		list:      components.NewMessageList(theme),
		input:     components.NewInputArea(theme),
		typing:    components.NewTypingSpinner(),
		loader:    components.NewSpinner(),
		header:    components.NewHeader(theme),
		status:    components.NewStatusBar(theme),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.status.SetShortcuts(m.keys.Shortcuts()...)
	return m
}

// =============================================================================
// GETTERS
// =============================================================================

// Session returns the active conversation, or nil before Open.
func (m *Model) Session() *convo.Session {
	return m.sess
}

// Loading reports whether a load is outstanding.
func (m *Model) Loading() bool {
	return m.loading
}

// Picker returns the active question picker, if any.
func (m *Model) Picker() *components.QuestionPicker {
	return m.picker
}

// InputValue returns the composer text.
func (m *Model) InputValue() string {
	return m.input.Value()
}

// SetUser shows the signed-in user in the header.
func (m *Model) SetUser(name string) {
	m.header.User = name
}

// =============================================================================
// OPEN / LOAD
// =============================================================================

// Open shows a conversation. Reopening the conversation already shown is a
// no-op, which is what happens when a new chat's minted id comes back as a
// NavigateMsg.
func (m *Model) Open(mode convo.Mode, configID, chatID string) tea.Cmd {
	if m.sess != nil && m.sess.Mode() == mode &&
		m.sess.ConfigID() == configID && m.sess.ChatID() == chatID {
		return nil
	}

	prevConfig := ""
	if m.sess != nil {
		prevConfig = m.sess.ConfigID()
	}
	if m.sess == nil || m.sess.Mode() != mode {
		m.sess = convo.NewSession(mode, configID, chatID,
			convo.WithLogger(m.logger),
			convo.WithNavigate(m.onMint))
	} else {
		m.sess.Bind(configID, chatID)
	}

	if prevConfig != configID {
		m.header.ClearAssistant()
	}
	m.picker = nil
	m.showSessions = false
	m.notice = ""
	m.typing.Stop()
	m.input.Reset()
	m.input.SetDisabled(false)
	m.optimizer.ForceUpdate()

	return tea.Batch(m.load(), m.input.Focus())
}

// Close drops the conversation; results still in flight are ignored.
func (m *Model) Close() {
	if m.sess != nil {
		m.sess.Bind("", "")
	}
	m.sess = nil
	m.loading = false
	m.loader.Stop()
	m.typing.Stop()
	m.picker = nil
	m.header.ClearAssistant()
}

func (m *Model) onMint(mode convo.Mode, configID, chatID string) {
	m.minted = &NavigateMsg{Mode: mode, ConfigID: configID, ChatID: chatID}
}

// flushNav reports a chat id minted since the last call.
func (m *Model) flushNav() tea.Cmd {
	if m.minted == nil {
		return nil
	}
	nav := *m.minted
	m.minted = nil
	return func() tea.Msg { return nav }
}

func (m *Model) load() tea.Cmd {
	if m.sess == nil {
		return nil
	}
	m.loading = true
	req := m.sess.Request(m.loggedIn())
	ctx, b, logger := m.ctx, m.backend, m.logger
	return tea.Batch(m.loader.Start(), func() tea.Msg {
		return LoadedMsg{Snapshot: convo.Load(ctx, b, req, logger)}
	})
}

// =============================================================================
// SEND
// =============================================================================

func (m *Model) submit() tea.Cmd {
	if m.sess == nil || m.loading {
		return nil
	}
	p, ok := m.sess.Submit(m.input.Value())
	if !ok {
		m.refresh()
		return nil
	}
	m.input.Reset()
	return m.afterSubmit(p)
}

func (m *Model) answer(msg components.QuestionAnsweredMsg) tea.Cmd {
	if m.sess == nil {
		return nil
	}
	q := m.sess.PendingQuestion()
	if q == nil || q.ID != msg.MessageID {
		return nil
	}
	p, err := m.sess.Answer(q, msg.Answer)
	if err != nil {
		m.setNotice("", err)
		m.refresh()
		return nil
	}
	m.picker = nil
	return m.afterSubmit(p)
}

func (m *Model) afterSubmit(p convo.Pending) tea.Cmd {
	m.input.SetDisabled(true)
	m.notice = ""
	ctx, b := m.ctx, m.backend
	send := func() tea.Msg {
		return ReplyMsg{Outcome: convo.Send(ctx, b, p)}
	}
	m.refresh()
	return tea.Batch(send, m.typing.Start(), m.flushNav())
}

// =============================================================================
// QUESTIONS
// =============================================================================

// syncPicker shows a picker for the pending survey question, if any.
func (m *Model) syncPicker() tea.Cmd {
	if m.sess == nil || m.sess.InFlight() {
		m.picker = nil
		return nil
	}
	q := m.sess.PendingQuestion()
	if q == nil {
		m.picker = nil
		return m.input.Focus()
	}
	if m.picker != nil && m.picker.MessageID() == q.ID {
		return nil
	}
	m.picker = components.NewQuestionPicker(q, m.theme)
	m.picker.SetWidth(m.width)
	m.input.Blur()
	return m.picker.Focus()
}

// =============================================================================
// CLIPBOARD
// =============================================================================

var errNothingToCopy = errors.New("no answer to copy yet")

func (m *Model) copyLastAnswer() tea.Cmd {
	if m.sess == nil || m.copy == nil {
		return nil
	}
	last := m.sess.Transcript().LastAssistant()
	if last == nil || last.Typing || last.Text == "" {
		m.setNotice("", errNothingToCopy)
		return nil
	}
	text, copyFn := last.Text, m.copy
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return NoticeMsg{Err: err}
		}
		return NoticeMsg{Text: "Answer copied to clipboard"}
	}
}

func (m *Model) setNotice(text string, err error) {
	m.noticeErr = err != nil
	if err != nil {
		text = err.Error()
	}
	m.notice = text
}
