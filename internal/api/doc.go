// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api is the HTTP client for the assistant platform.
//
// It is deliberately thin: one method per endpoint, typed request and
// response structs, and a shared transport that handles authentication,
// pacing, retries and error mapping.
//
// # Key Types
//
//   - Client: Platform client, configured with builder-style With* methods
//   - TokenStore: Where the client reads and refreshes the session token
//   - Assistant: A chat, survey or video assistant configuration
//   - Error: A non-2xx response, unwrapping to one of the sentinel errors
//
// # Authentication
//
// Calls attach "Authorization: Bearer <token>" whenever the TokenStore has
// a token. A 401 on such a call triggers one refresh through /auth/refresh
// and a single replay; if the refresh fails the store is cleared and the
// caller gets ErrUnauthorized. Visibility reads are always anonymous and
// never refresh.
//
// # Retries
//
// GET requests are retried with exponential backoff on network errors,
// 429 and 5xx. Writes are never retried: a chat message sent twice would
// be answered twice.
//
// # Usage
//
//	client := api.NewClient(cfg.API.BaseURL).
//	    WithTimeout(cfg.Timeout()).
//	    WithTokens(provider).
//	    WithLogger(logging.L())
//
//	public, err := client.ConfigVisibility(ctx, configID)
//	reply, err := client.SendChat(ctx, configID, chatID, "hello")
package api
