// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/auth"
)

// =============================================================================
// BUBBLE TEA INTEGRATION
// =============================================================================

// ChangedMsg is sent when the session token appears or goes away, whether
// by this process or another one sharing the store.
type ChangedMsg struct {
	LoggedIn bool
}

// LoginMsg carries the outcome of LoginCmd.
type LoginMsg struct {
	Err error
}

// LogoutMsg carries the outcome of LogoutCmd.
type LogoutMsg struct {
	Err error
}

// UserMsg carries the outcome of WhoAmICmd.
type UserMsg struct {
	User *api.User
	Err  error
}

// WatchCmd waits for the next presence change on ch. Re-issue it after
// every ChangedMsg to keep listening. A closed channel ends the watch.
func WatchCmd(ch <-chan auth.Change) tea.Cmd {
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return ChangedMsg{LoggedIn: c.LoggedIn}
	}
}

// LoginCmd logs in off the UI loop.
func (m *Manager) LoginCmd(ctx context.Context, creds api.Credentials) tea.Cmd {
	return func() tea.Msg {
		return LoginMsg{Err: m.Login(ctx, creds)}
	}
}

// LogoutCmd logs out off the UI loop.
func (m *Manager) LogoutCmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		return LogoutMsg{Err: m.Logout(ctx)}
	}
}

// WhoAmICmd fetches the current account off the UI loop.
func (m *Manager) WhoAmICmd(ctx context.Context) tea.Cmd {
	return func() tea.Msg {
		u, err := m.WhoAmI(ctx)
		return UserMsg{User: u, Err: err}
	}
}
