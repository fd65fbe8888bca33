// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package app is the root Bubble Tea model of the ragdesk TUI.
//
// It owns routing between the login form, the assistant list, the
// conversation screen and the video screen. Resource-scoped routes are
// guarded by an access gate that fetches the assistant's visibility flag
// when no session token is held; the assistant list is guarded by
// identity alone. Session changes made by other processes arrive through
// the auth provider's subscription and re-run the guards.
package app
