// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging builds the zap loggers ragdesk runs with.
//
// The interactive TUI owns the terminal, so its logger writes JSON lines to
// a file. Scripted subcommands log human-readable output to stderr at warn
// and above unless --verbose is set.
//
// Tokens are never logged; use Secret to record whether a credential was
// present.
package logging
