// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/ui/components"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
	"github.com/jeranaias/ragdesk/internal/video"
)

// VideoBackend is the part of the API client the video screen needs.
type VideoBackend interface {
	video.Generator
	GetVideoConfig(ctx context.Context, id string) (*api.Assistant, error)
}

var _ VideoBackend = (*api.Client)(nil)

// =============================================================================
// VIDEO SCREEN
// =============================================================================

// VideoScreen sends prompts to a video assistant and shows the renders.
type VideoScreen struct {
	theme   *styles.Theme
	keys    KeyMap
	backend VideoBackend
	poller  *video.Poller
	logger  *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	sess      *video.Session
	assistant *api.Assistant
	loadErr   error

	viewport viewport.Model
	list     *components.MessageList
	input    *components.InputArea
	typing   components.Spinner
	header   *components.Header
	status   *components.StatusBar

	width  int
	height int
}

// NewVideoScreen creates the video screen. A nil poller leaves renders
// that outlive the server's wait as "still rendering".
func NewVideoScreen(theme *styles.Theme, keys KeyMap, backend VideoBackend, poller *video.Poller, logger *zap.Logger) *VideoScreen {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &VideoScreen{
		theme:    theme,
		keys:     keys,
		backend:  backend,
		poller:   poller,
		logger:   logger,
		viewport: viewport.New(80, 20),
		list:     components.NewMessageList(theme),
		input:    components.NewInputArea(theme),
		typing:   components.NewTypingSpinner(),
		header:   components.NewHeader(theme),
		status:   components.NewStatusBar(theme),
	}
	v.typing.SetMessage("Rendering")
	v.list.EmptyText = "Describe the video you want."
	v.input.SetPlaceholder("Describe a scene...")
	v.status.SetShortcuts(
		components.Shortcut{Key: "enter", Desc: "generate"},
		components.Shortcut{Key: "esc", Desc: "back"},
	)
	return v
}

// Session returns the active session, or nil.
func (v *VideoScreen) Session() *video.Session {
	return v.sess
}

// Open binds the screen to a video assistant. Reopening the same one is a
// no-op.
func (v *VideoScreen) Open(parent context.Context, configID string) tea.Cmd {
	if v.sess != nil && v.sess.ConfigID() == configID && v.ctx != nil {
		return nil
	}
	if v.cancel != nil {
		v.cancel()
	}
	v.ctx, v.cancel = context.WithCancel(parent)

	if v.sess == nil {
		v.sess = video.NewSession(configID)
	} else {
		v.sess.Bind(configID)
	}
	v.assistant = nil
	v.loadErr = nil
	v.header.ClearAssistant()
	v.typing.Stop()
	v.input.Reset()
	v.input.SetDisabled(false)
	v.refresh()

	ctx, b := v.ctx, v.backend
	fetch := func() tea.Msg {
		a, err := b.GetVideoConfig(ctx, configID)
		return VideoConfigMsg{ConfigID: configID, Assistant: a, Err: err}
	}
	return tea.Batch(fetch, v.input.Focus())
}

// Close cancels outstanding renders and polls.
func (v *VideoScreen) Close() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.ctx = nil
	if v.sess != nil {
		v.sess.Bind("")
	}
	v.typing.Stop()
}

// SetSize resizes the screen.
func (v *VideoScreen) SetSize(w, h int) {
	v.width, v.height = w, h
	v.header.SetWidth(w)
	v.status.SetWidth(w)
	v.input.SetWidth(w)
	v.list.SetWidth(w)
	v.refresh()
}

// Update handles a message for the video screen.
func (v *VideoScreen) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case VideoConfigMsg:
		if v.sess == nil || msg.ConfigID != v.sess.ConfigID() {
			return nil
		}
		v.assistant, v.loadErr = msg.Assistant, msg.Err
		if msg.Err != nil {
			v.logger.Warn("video assistant load failed",
				zap.String("config_id", msg.ConfigID), zap.Error(msg.Err))
		} else if a := msg.Assistant; a != nil {
			v.header.SetAssistant(a.BotName, "video", a.Model(), a.IsPublic)
		}
		v.refresh()
		return nil

	case VideoReplyMsg:
		if v.sess == nil || !v.sess.Settle(msg.Outcome) {
			return nil
		}
		v.typing.Stop()
		v.input.SetDisabled(false)
		if draft := v.sess.TakeDraft(); draft != "" {
			v.input.SetValue(draft)
		}
		v.refresh()
		return nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		v.typing, cmd = v.typing.Update(msg)
		if v.typing.IsActive() {
			v.refresh()
		}
		return cmd

	case tea.KeyMsg:
		return v.handleKey(msg)
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *VideoScreen) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, v.keys.Back):
		return func() tea.Msg { return NavigateMsg{Route: Route{Screen: ScreenConfigs}} }
	case msg.Type == tea.KeyPgUp:
		v.viewport.HalfViewUp()
		return nil
	case msg.Type == tea.KeyPgDown:
		v.viewport.HalfViewDown()
		return nil
	case msg.Type == tea.KeyEnter:
		return v.submit()
	}
	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return cmd
}

func (v *VideoScreen) submit() tea.Cmd {
	if v.sess == nil || v.ctx == nil || v.loadErr != nil {
		return nil
	}
	req, ok := v.sess.Submit(v.input.Value())
	if !ok {
		return nil
	}
	v.input.Reset()
	v.input.SetDisabled(true)
	v.refresh()

	ctx, b, p := v.ctx, v.backend, v.poller
	run := func() tea.Msg {
		return VideoReplyMsg{Outcome: video.Generate(ctx, b, p, req)}
	}
	return tea.Batch(run, v.typing.Start())
}

func (v *VideoScreen) refresh() {
	switch {
	case v.loadErr != nil:
		v.status.SetStatus(components.StatusError, api.Describe(v.loadErr))
	case v.sess != nil && v.sess.Err() != nil:
		v.status.SetStatus(components.StatusError, api.Describe(v.sess.Err()))
	case v.sess != nil && v.sess.InFlight():
		v.status.SetStatus(components.StatusSending, "")
	default:
		v.status.SetStatus(components.StatusReady, "")
	}

	avail := v.height - lipgloss.Height(v.header.View()) -
		lipgloss.Height(v.input.View()) - lipgloss.Height(v.status.View())
	v.viewport.Width = max(v.width, 1)
	v.viewport.Height = max(avail, 1)

	if v.sess == nil {
		return
	}
	v.list.SetMessages(v.sess.Transcript().Messages())
	v.list.TypingFrame = v.typing.Frame()
	v.viewport.SetContent(v.list.View())
	v.viewport.GotoBottom()
}

// View renders the screen.
func (v *VideoScreen) View() string {
	body := v.viewport.View()
	if v.loadErr != nil {
		content := v.theme.ErrorTitle.Render("Could not open this assistant") + "\n\n" +
			api.Describe(v.loadErr) + "\n\n" +
			v.theme.ShortcutDesc.Render("esc to go back")
		box := v.theme.ErrorBox.Width(min(v.width-4, 60)).Render(content)
		body = lipgloss.Place(v.width, v.viewport.Height, lipgloss.Center, lipgloss.Center, box)
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.header.View(), body, v.input.View(), v.status.View())
}
