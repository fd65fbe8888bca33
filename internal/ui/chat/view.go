// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/ui/components"
	"github.com/jeranaias/ragdesk/internal/util"
)

// =============================================================================
// MAIN RENDER
// =============================================================================

// View renders the screen: header, transcript, composer, status bar.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	header := m.header.View()
	bottom := m.renderBottom()
	status := m.status.View()

	var body string
	switch {
	case m.blockingErr() != nil:
		body = m.renderBlockingError()
	case m.showSessions:
		body = m.renderSessions()
	case m.loading && (m.sess == nil || m.sess.Transcript().Len() == 0):
		body = lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, m.loader.View())
	default:
		body = m.viewport.View()
	}

	avail := max(m.height-lipgloss.Height(header)-lipgloss.Height(bottom)-lipgloss.Height(status), 1)
	body = lipgloss.NewStyle().Height(avail).MaxHeight(avail).Render(body)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, bottom, status)
}

// refresh re-renders the transcript into the viewport and updates the
// status bar. The viewport follows the tail only when the content changed.
func (m *Model) refresh() {
	m.updateStatus()

	avail := m.height - lipgloss.Height(m.header.View()) -
		lipgloss.Height(m.renderBottom()) - lipgloss.Height(m.status.View())
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(avail, 1)

	if m.sess == nil {
		return
	}
	m.list.SetMessages(m.sess.Transcript().Messages())
	m.list.TypingFrame = m.typing.Frame()
	content := m.list.View()
	if m.optimizer.ShouldUpdate(content) {
		m.viewport.SetContent(content)
		m.viewport.GotoBottom()
	}
}

func (m *Model) updateStatus() {
	switch {
	case m.notice != "":
		if m.noticeErr {
			m.status.SetStatus(components.StatusError, m.notice)
		} else {
			m.status.SetStatus(components.StatusReady, m.notice)
		}
	case m.sess != nil && m.sess.Err() != nil:
		m.status.SetStatus(components.StatusError, api.Describe(m.sess.Err()))
	case m.loading:
		m.status.SetStatus(components.StatusLoading, "")
	case m.sess != nil && m.sess.InFlight():
		m.status.SetStatus(components.StatusSending, "")
	default:
		m.status.SetStatus(components.StatusReady, "")
	}
}

// =============================================================================
// PARTS
// =============================================================================

func (m *Model) renderBottom() string {
	if m.picker != nil {
		return m.picker.View()
	}
	return m.input.View()
}

// blockingErr returns a load error that left the screen with no assistant.
func (m *Model) blockingErr() error {
	if m.sess == nil || m.loading || m.sess.Assistant() != nil {
		return nil
	}
	return m.sess.Err()
}

func (m *Model) renderBlockingError() string {
	err := m.blockingErr()
	content := m.theme.ErrorTitle.Render("Could not open this assistant") + "\n\n" +
		api.Describe(err) + "\n\n" +
		m.theme.ShortcutDesc.Render("C-r to retry, esc to go back")
	box := m.theme.ErrorBox.Width(min(m.width-4, 60)).Render(content)
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, box)
}

func (m *Model) renderSessions() string {
	sessions := m.sess.Sessions()
	lines := []string{m.theme.HeaderTitle.Render("Past sessions"), ""}
	titleWidth := max(m.width-24, 10)
	for i, s := range sessions {
		title := s.Title
		if title == "" {
			title = s.ID
		}
		row := util.PadWidth(title, titleWidth)
		if !s.Timestamp.IsZero() {
			row += "  " + s.Timestamp.Local().Format("2006-01-02 15:04")
		}
		if s.ID == m.sess.ChatID() {
			row += " *"
		}
		if i == m.sessionCursor {
			lines = append(lines, m.theme.ListItemSelected.Render(row))
		} else {
			lines = append(lines, m.theme.ListItem.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}
