// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth owns the session token.
//
// Provider is the single source of truth for whether the user is logged in.
// It is backed by the durable store under the keys "jwtToken" and
// "refreshToken", caches both in memory, and notifies subscribers whenever
// presence changes. Gates, the API client and the UI receive the Provider
// by injection and never read the store themselves.
//
// Watcher keeps a Provider in step with other ragdesk processes sharing the
// same store: a "ragdesk logout" in one terminal moves every open TUI back
// to the login screen.
//
// Only presence is ever inspected client-side. Tokens are opaque.
package auth
