// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the ragdesk command line.
//
// With no arguments ragdesk opens the full-screen client at the assistant
// list, or at the login form when no session token is held. Everything the
// client does is also reachable as a scriptable subcommand.
//
// # Commands
//
// Session:
//   - login, logout, whoami: manage the stored session token
//   - register, verify-email: create and activate an account
//
// Assistants:
//   - configs list|show|create|update|delete: chat assistants
//   - surveys list|create, videos list|create: the other two families
//   - share: copy an assistant's public link to the clipboard
//
// Conversations:
//   - chat, survey: line-mode conversations with history and editing
//   - sessions, history: past conversations; history --export writes md or json
//   - video: render a video and optionally wait for it
//
// Local:
//   - tui: open the full-screen client at a deep link
//   - config show|get|set|path: the local configuration file
//
// # Output
//
// Every listing command honours --json, which writes a JSONResponse
// envelope to stdout. Human-readable output is styled only when stdout is
// a terminal and NO_COLOR is unset.
//
// # Logging
//
// Subcommands log to stderr at warn level, or debug with --verbose. The
// full-screen client owns the terminal, so it logs to the file named by
// log.file instead.
package cli
