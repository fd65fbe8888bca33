// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package survey recognises and answers interactive survey questions.
//
// A survey assistant may reply with plain text or with a JSON document
// describing a question:
//
//	{"type": "multiple_choice", "question": "How often?", "options": ["Daily", "Weekly"], "required": true}
//
// Parse tells the two apart. Answer turns the user's selection into the
// string sent back to the assistant, enforcing "required".
package survey
