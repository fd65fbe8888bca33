// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for chat transcripts.
//
// # Key Types
//
//   - Message: a tagged chat entry (user or assistant), optionally a typing
//     placeholder or an interactive survey question
//   - Attachment: an image or video carried by an assistant reply
//   - Transcript: the append-ordered list of messages shown on a chat screen
//
// # Usage
//
//	t := model.NewTranscript()
//	t.AppendPending("Hello!")          // user message + typing placeholder
//	t.ResolvePending(model.NewAssistantMessage("Hi", nil))
//
// A typing placeholder, when present, is always the last message and is
// replaced in place when the reply arrives.
package model
