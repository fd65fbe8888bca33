// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across ragdesk.
//
// # Key Functions
//
// File Operations:
//   - AtomicWriteFile: Crash-safe file writing with fsync
//
// Text:
//   - TruncateWidth: display-width aware truncation for list rows
//   - NormalizeInput: NFC normalisation and trimming of user input
//
// Ordering:
//   - Generation: monotonic counter used to discard stale async results
//
// # Usage
//
//	gen := new(util.Generation)
//	ticket := gen.Next()
//	// ... later, when the async result arrives
//	if !gen.IsCurrent(ticket) {
//	    return // superseded
//	}
package util
