// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/ui/components"
)

// =============================================================================
// UPDATE
// =============================================================================

// Update handles a message for the conversation screen.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.SetSize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case LoadedMsg:
		return m, m.handleLoaded(msg)

	case ReplyMsg:
		return m, m.handleReply(msg)

	case components.QuestionAnsweredMsg:
		return m, m.answer(msg)

	case NoticeMsg:
		m.setNotice(msg.Text, msg.Err)
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmds []tea.Cmd
		var cmd tea.Cmd
		m.typing, cmd = m.typing.Update(msg)
		cmds = append(cmds, cmd)
		m.loader, cmd = m.loader.Update(msg)
		cmds = append(cmds, cmd)
		if m.typing.IsActive() {
			m.refresh()
		}
		return m, tea.Batch(cmds...)
	}

	// Cursor blink and other input housekeeping.
	if m.picker != nil {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// SetSize resizes the screen.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
	m.theme.SetSize(width, height)
	m.header.SetWidth(width)
	m.status.SetWidth(width)
	m.input.SetWidth(width)
	m.list.SetWidth(width)
	if m.picker != nil {
		m.picker.SetWidth(width)
	}
	m.optimizer.ForceUpdate()
	m.refresh()
}

// =============================================================================
// KEYS
// =============================================================================

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.showSessions {
		return m.handleSessionKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back):
		return func() tea.Msg { return BackMsg{} }

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return nil

	case key.Matches(msg, m.keys.Copy):
		return m.copyLastAnswer()

	case key.Matches(msg, m.keys.Reload):
		if m.sess == nil || m.sess.InFlight() {
			return nil
		}
		m.optimizer.ForceUpdate()
		return m.load()

	case key.Matches(msg, m.keys.NewChat):
		if m.sess == nil {
			return nil
		}
		nav := NavigateMsg{Mode: m.sess.Mode(), ConfigID: m.sess.ConfigID()}
		return func() tea.Msg { return nav }

	case key.Matches(msg, m.keys.Sessions):
		if m.sess == nil || len(m.sess.Sessions()) == 0 {
			m.setNotice("No past sessions", nil)
			m.refresh()
			return nil
		}
		m.showSessions = true
		m.sessionCursor = 0
		return nil
	}

	if m.picker != nil {
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return cmd
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

func (m *Model) handleSessionKey(msg tea.KeyMsg) tea.Cmd {
	sessions := m.sess.Sessions()
	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Sessions):
		m.showSessions = false
	case key.Matches(msg, m.keys.Up):
		if m.sessionCursor > 0 {
			m.sessionCursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.sessionCursor < len(sessions)-1 {
			m.sessionCursor++
		}
	case key.Matches(msg, m.keys.Submit):
		if m.sessionCursor >= len(sessions) {
			return nil
		}
		m.showSessions = false
		nav := NavigateMsg{Mode: m.sess.Mode(), ConfigID: m.sess.ConfigID(), ChatID: sessions[m.sessionCursor].ID}
		return func() tea.Msg { return nav }
	}
	return nil
}

// =============================================================================
// RESULTS
// =============================================================================

func (m *Model) handleLoaded(msg LoadedMsg) tea.Cmd {
	if m.sess == nil || !m.sess.Apply(msg.Snapshot) {
		return nil
	}
	m.loading = false
	m.loader.Stop()

	if a := m.sess.Assistant(); a != nil {
		m.header.SetAssistant(a.BotName, m.sess.Mode().String(), a.Model(), a.IsPublic)
	}
	if err := m.sess.Err(); err != nil {
		m.logger.Warn("conversation load failed",
			zap.String("config_id", m.sess.ConfigID()),
			zap.String("chat_id", m.sess.ChatID()),
			zap.Error(err))
	}
	m.refresh()
	return tea.Batch(m.syncPicker(), m.flushNav())
}

func (m *Model) handleReply(msg ReplyMsg) tea.Cmd {
	if m.sess == nil || !m.sess.Settle(msg.Outcome) {
		return nil
	}
	m.typing.Stop()
	m.input.SetDisabled(false)
	if draft := m.sess.TakeDraft(); draft != "" {
		m.input.SetValue(draft)
	}
	m.refresh()
	return m.syncPicker()
}
