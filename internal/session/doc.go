// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session manages the viewer's login session.
//
// Manager ties the API's auth endpoints to the token provider: a login
// stores both tokens, a logout always clears them even when the server
// cannot be reached, and the account behind the token is fetched once and
// remembered until the token changes.
//
// # Key Types
//
//   - Manager: login, logout and whoami over an auth.Provider
//   - ChangedMsg: Bubble Tea message sent when the token appears or goes away
//
// # Usage
//
//	mgr := session.NewManager(client, provider)
//	if err := mgr.Login(ctx, api.Credentials{Username: u, Password: p}); err != nil {
//	    // show api.Describe(err)
//	}
//
// Screens subscribe with WatchCmd and re-run their gates on ChangedMsg.
package session
