// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs the conversation with one chat or survey assistant.
//
// A Session owns the transcript and the submission cycle:
//
//	p, ok := s.Submit(input)     // user message + typing placeholder
//	out := s.Send(ctx, backend, p) // network, off the UI loop
//	s.Settle(out)                // reply replaces placeholder, or rollback
//
// Every piece of asynchronous work is stamped with the session's
// generation. Binding the session to another chat advances the generation,
// so replies and loads for the previous chat are dropped on arrival.
//
// Load fetches the assistant, its history and the viewer's session list
// in parallel. Survey conversations without a chat id are started with
// InitSurvey instead of loading history.
package chat
