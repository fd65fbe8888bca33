// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes conversation transcripts to files.
//
// # Supported Formats
//
//   - Markdown: Human-readable, with answered survey questions and sources
//   - JSON: The transcript as the client holds it
//
// # Usage
//
//	conv := &export.Conversation{
//	    ChatID:    "9b2e",
//	    Assistant: "Helper",
//	    Mode:      "chat",
//	    Messages:  transcript.Messages(),
//	}
//	path, err := export.ExportToFile(conv, export.NewMarkdownExporter(nil), nil)
//
// Typing placeholders are never exported.
package export
