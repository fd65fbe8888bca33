// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ragdesk/internal/survey"
)

// =============================================================================
// SENDER TYPE
// =============================================================================

// Sender identifies who wrote a message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// String returns the string representation of the sender.
func (s Sender) String() string {
	return string(s)
}

// DisplayName returns a human-readable name for the sender.
func (s Sender) DisplayName() string {
	switch s {
	case SenderUser:
		return "You"
	case SenderAssistant:
		return "Assistant"
	default:
		return string(s)
	}
}

// =============================================================================
// ATTACHMENTS
// =============================================================================

// AttachmentKind is the media type of an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentVideo AttachmentKind = "video"
)

// Attachment is a media item referenced by URL.
type Attachment struct {
	URL  string         `json:"url"`
	Kind AttachmentKind `json:"type"`
}

// Source is a retrieved document excerpt backing an assistant reply.
type Source struct {
	Label   string `json:"label"`
	Excerpt string `json:"excerpt,omitempty"`
}

// =============================================================================
// MESSAGE TYPE
// =============================================================================

// Message is a single transcript entry. Exactly one of the following holds
// for an assistant message: Typing is set, Question is set, or Text carries
// the reply.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`

	Text    string       `json:"text"`
	Media   []Attachment `json:"media,omitempty"`
	Sources []Source     `json:"sources,omitempty"`

	// Typing marks the placeholder shown while a reply is outstanding.
	Typing bool `json:"-"`

	// Question is set when a survey assistant asked an interactive question.
	Question *survey.Question `json:"question,omitempty"`

	// Answered is set once the user has replied to Question.
	Answered bool `json:"-"`
}

func newMessage(sender Sender, text string) *Message {
	return &Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewUserMessage creates a user message.
func NewUserMessage(text string) *Message {
	return newMessage(SenderUser, text)
}

// NewAssistantMessage creates an assistant reply with optional media.
func NewAssistantMessage(text string, media []Attachment) *Message {
	m := newMessage(SenderAssistant, text)
	m.Media = media
	return m
}

// NewTypingMessage creates the placeholder shown while waiting for a reply.
func NewTypingMessage() *Message {
	m := newMessage(SenderAssistant, "")
	m.Typing = true
	return m
}

// NewQuestionMessage creates an assistant message carrying a survey
// question. Text holds the question wording for plain renderers.
func NewQuestionMessage(q *survey.Question) *Message {
	m := newMessage(SenderAssistant, q.Text)
	m.Question = q
	return m
}

// =============================================================================
// MESSAGE METHODS
// =============================================================================

// IsUser reports whether the user wrote the message.
func (m *Message) IsUser() bool {
	return m.Sender == SenderUser
}

// IsPendingQuestion reports whether the message is a question still
// awaiting an answer.
func (m *Message) IsPendingQuestion() bool {
	return m.Question != nil && !m.Answered
}

// Preview returns a truncated preview of the message text.
// Uses rune-based truncation to handle Unicode correctly.
func (m *Message) Preview(maxLen int) string {
	content := strings.TrimSpace(m.Text)
	runes := []rune(content)
	if len(runes) <= maxLen {
		return content
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}

// IsEmpty returns true if the message has nothing to show.
func (m *Message) IsEmpty() bool {
	return m.Text == "" && len(m.Media) == 0 && m.Question == nil && !m.Typing
}

// FormatTime returns the message time as shown in the transcript.
func (m *Message) FormatTime() string {
	if m.Timestamp.IsZero() {
		return ""
	}
	return m.Timestamp.Format("15:04")
}
