// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package model

// =============================================================================
// TRANSCRIPT TYPE
// =============================================================================

// Transcript is the ordered message list of one chat. It is owned by a
// single goroutine (the UI loop or a REPL) and is not safe for concurrent
// use.
type Transcript struct {
	messages []*Message
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{messages: make([]*Message, 0)}
}

// Messages returns the messages in display order. The slice is a copy; the
// messages are shared.
func (t *Transcript) Messages() []*Message {
	out := make([]*Message, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages, including a typing placeholder.
func (t *Transcript) Len() int {
	return len(t.messages)
}

// Last returns the most recent message, or nil if empty.
func (t *Transcript) Last() *Message {
	if len(t.messages) == 0 {
		return nil
	}
	return t.messages[len(t.messages)-1]
}

// LastAssistant returns the most recent real assistant reply, skipping a
// typing placeholder.
func (t *Transcript) LastAssistant() *Message {
	for i := len(t.messages) - 1; i >= 0; i-- {
		m := t.messages[i]
		if m.Sender == SenderAssistant && !m.Typing {
			return m
		}
	}
	return nil
}

// HasTyping reports whether a reply is outstanding.
func (t *Transcript) HasTyping() bool {
	last := t.Last()
	return last != nil && last.Typing
}

// =============================================================================
// MUTATION
// =============================================================================

// Append adds a message. If a typing placeholder is outstanding the
// message is inserted before it so the placeholder stays last.
func (t *Transcript) Append(msg *Message) {
	if msg == nil {
		return
	}
	if t.HasTyping() && !msg.Typing {
		n := len(t.messages)
		t.messages = append(t.messages, t.messages[n-1])
		t.messages[n-1] = msg
	} else {
		t.messages = append(t.messages, msg)
	}
}

// AppendPending adds the user's message and a typing placeholder as one
// step. It returns false without changing anything if a reply is already
// outstanding.
func (t *Transcript) AppendPending(text string) (*Message, bool) {
	if t.HasTyping() {
		return nil, false
	}
	user := NewUserMessage(text)
	t.messages = append(t.messages, user, NewTypingMessage())
	return user, true
}

// ResolvePending replaces the typing placeholder with reply. Without a
// placeholder the reply is appended. It reports whether a placeholder was
// replaced.
func (t *Transcript) ResolvePending(reply *Message) bool {
	if reply == nil {
		return false
	}
	if t.HasTyping() {
		t.messages[len(t.messages)-1] = reply
		return true
	}
	t.messages = append(t.messages, reply)
	return false
}

// RollbackPending removes the typing placeholder and the user message that
// caused it, returning that message's text so it can be restored to the
// input. ok is false when nothing was outstanding.
func (t *Transcript) RollbackPending() (text string, ok bool) {
	if !t.HasTyping() {
		return "", false
	}
	n := len(t.messages) - 1
	if n > 0 && t.messages[n-1].IsUser() {
		text = t.messages[n-1].Text
		n--
	}
	for i := n; i < len(t.messages); i++ {
		t.messages[i] = nil
	}
	t.messages = t.messages[:n]
	return text, true
}

// Replace swaps the whole transcript, as after a history load.
func (t *Transcript) Replace(msgs []*Message) {
	t.messages = make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		if m != nil && !m.Typing {
			t.messages = append(t.messages, m)
		}
	}
}

// Clear removes all messages.
func (t *Transcript) Clear() {
	t.messages = make([]*Message, 0)
}
