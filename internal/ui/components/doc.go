// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components provides the reusable widgets the ragdesk screens are
assembled from.

# Display Components

Header (header.go) - Title bar with assistant name, kind and visibility badge.
StatusBar (statusbar.go) - Bottom line with key hints and the current error.
MessageBubble, MessageList (message.go) - Transcript rendering. Assistant
replies are rendered as markdown through glamour; attachments and sources
follow the bubble.

# Input Components

InputArea (input.go) - Single-line composer built on bubbles/textinput.
QuestionPicker (question.go) - Interactive survey question: choice list,
multi-select toggles, or free text, depending on the question kind.

# Feedback

Spinner, ThinkingIndicator (spinner.go) - bubbles/spinner wrappers used for
the typing placeholder and for access checks in progress.

# Usage

	theme := styles.NewTheme("auto")
	list := components.NewMessageList(theme)
	list.SetMessages(transcript.Messages())
	list.SetWidth(width)
	fmt.Println(list.View())

Components hold no network state. Screens in internal/ui own the chat
sessions and feed components plain values.
*/
package components
