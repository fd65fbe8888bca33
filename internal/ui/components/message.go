// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
)

// =============================================================================
// MESSAGE BUBBLE COMPONENT
// =============================================================================

// MessageBubble renders one transcript entry.
type MessageBubble struct {
	Message       *model.Message
	Width         int
	ShowTimestamp bool
	ShowSources   bool

	// TypingFrame is the current spinner frame drawn in a typing placeholder.
	TypingFrame string

	theme    *styles.Theme
	markdown *Markdown
}

// NewMessageBubble creates a bubble for msg. md may be nil, in which case
// assistant text is word-wrapped but not rendered as markdown.
func NewMessageBubble(msg *model.Message, theme *styles.Theme, md *Markdown) *MessageBubble {
	return &MessageBubble{
		Message:       msg,
		Width:         80,
		ShowTimestamp: true,
		ShowSources:   true,
		theme:         theme,
		markdown:      md,
	}
}

// SetWidth sets the bubble width.
func (b *MessageBubble) SetWidth(width int) {
	b.Width = width
}

// View renders the bubble.
func (b *MessageBubble) View() string {
	if b.Message == nil {
		return ""
	}
	switch {
	case b.Message.IsUser():
		return b.renderUserBubble()
	case b.Message.Typing:
		return b.renderTypingBubble()
	case b.Message.Question != nil:
		return b.renderQuestionCard()
	default:
		return b.renderAssistantBubble()
	}
}

func (b *MessageBubble) contentWidth() int {
	w := b.Width - 12
	if w < 20 {
		w = 20
	}
	return w
}

func (b *MessageBubble) header() string {
	parts := []string{b.theme.SenderLabel.Render(b.Message.Sender.DisplayName())}
	if b.ShowTimestamp {
		if ts := b.Message.FormatTime(); ts != "" {
			parts = append(parts, b.theme.Timestamp.Render(ts))
		}
	}
	return strings.Join(parts, " ")
}

// ==========================================================================
// USER BUBBLE - right aligned
// ==========================================================================

func (b *MessageBubble) renderUserBubble() string {
	wrapped := wordWrap(b.Message.Text, b.contentWidth())
	bubble := b.theme.UserBubble.
		Width(min(maxLineWidth(wrapped)+2, b.Width-8)).
		Render(wrapped)

	block := lipgloss.JoinVertical(lipgloss.Right, b.header(), bubble)
	return lipgloss.PlaceHorizontal(b.Width, lipgloss.Right, block)
}

// ==========================================================================
// ASSISTANT BUBBLE - markdown body, then attachments and sources
// ==========================================================================

func (b *MessageBubble) renderAssistantBubble() string {
	width := b.contentWidth()

	var body string
	if b.markdown != nil {
		body = b.markdown.Render(b.Message.Text, width)
	} else {
		body = wordWrap(b.Message.Text, width)
	}

	var extra []string
	for _, a := range b.Message.Media {
		extra = append(extra, b.theme.Attachment.Render("["+string(a.Kind)+"] "+a.URL))
	}
	if b.ShowSources && len(b.Message.Sources) > 0 {
		extra = append(extra, b.renderSources())
	}
	if len(extra) > 0 {
		if body != "" {
			body += "\n\n"
		}
		body += strings.Join(extra, "\n")
	}
	if body == "" {
		body = "..."
	}

	bubble := b.theme.AssistantBubble.Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), bubble)
}

func (b *MessageBubble) renderSources() string {
	lines := make([]string, 0, len(b.Message.Sources)+1)
	lines = append(lines, b.theme.Source.Render("Sources:"))
	for i, s := range b.Message.Sources {
		label := s.Label
		if label == "" {
			label = "source " + fmtNumber(i+1)
		}
		line := "  " + fmtNumber(i+1) + ". " + label
		if s.Excerpt != "" {
			line += " - " + s.Excerpt
		}
		lines = append(lines, b.theme.Source.Render(wordWrap(line, b.contentWidth())))
	}
	return strings.Join(lines, "\n")
}

// ==========================================================================
// TYPING PLACEHOLDER
// ==========================================================================

func (b *MessageBubble) renderTypingBubble() string {
	frame := b.TypingFrame
	if frame == "" {
		frame = "..."
	}
	content := b.theme.Spinner.Render(frame) + " " + b.theme.ThinkingText.Render("typing")
	bubble := b.theme.AssistantBubble.Render(content)
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), bubble)
}

// ==========================================================================
// SURVEY QUESTION CARD
// ==========================================================================

func (b *MessageBubble) renderQuestionCard() string {
	q := b.Message.Question
	width := b.contentWidth()

	lines := []string{lipgloss.NewStyle().Bold(true).Render(wordWrap(q.Text, width))}
	if labels := q.Choices(); len(labels) > 0 {
		for i := range labels {
			lines = append(lines, "  - "+q.ChoiceLabel(i))
		}
	}

	status := "answer below"
	if q.Required {
		status = "required, " + status
	}
	if b.Message.Answered {
		status = "answered"
	}
	lines = append(lines, b.theme.Timestamp.Render("("+status+")"))

	card := b.theme.QuestionCard.Render(strings.Join(lines, "\n"))
	return lipgloss.JoinVertical(lipgloss.Left, b.header(), card)
}

// =============================================================================
// MESSAGE LIST COMPONENT
// =============================================================================

// MessageList renders a transcript.
type MessageList struct {
	Messages       []*model.Message
	Width          int
	ShowTimestamps bool
	ShowSources    bool
	TypingFrame    string
	EmptyText      string

	theme    *styles.Theme
	markdown *Markdown
}

// NewMessageList creates an empty list.
func NewMessageList(theme *styles.Theme) *MessageList {
	return &MessageList{
		Width:          80,
		ShowTimestamps: true,
		ShowSources:    true,
		EmptyText:      "No messages yet. Say hello!",
		theme:          theme,
		markdown:       NewMarkdown(theme.GlamourStyle()),
	}
}

// SetMessages sets the messages to display.
func (ml *MessageList) SetMessages(messages []*model.Message) {
	ml.Messages = messages
}

// SetWidth sets the list width.
func (ml *MessageList) SetWidth(width int) {
	ml.Width = width
}

// View renders all messages separated by a blank line.
func (ml *MessageList) View() string {
	if len(ml.Messages) == 0 {
		return lipgloss.NewStyle().
			Foreground(styles.TextMuted).
			Italic(true).
			Width(ml.Width).
			Align(lipgloss.Center).
			Padding(2, 0).
			Render(ml.EmptyText)
	}

	out := make([]string, 0, len(ml.Messages))
	for _, msg := range ml.Messages {
		if msg == nil || msg.IsEmpty() {
			continue
		}
		bubble := NewMessageBubble(msg, ml.theme, ml.markdown)
		bubble.SetWidth(ml.Width)
		bubble.ShowTimestamp = ml.ShowTimestamps
		bubble.ShowSources = ml.ShowSources
		bubble.TypingFrame = ml.TypingFrame
		out = append(out, bubble.View())
	}
	return strings.Join(out, "\n\n")
}
