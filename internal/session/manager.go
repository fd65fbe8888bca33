// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/auth"
)

// ErrNotLoggedIn is returned by calls that need a session token.
var ErrNotLoggedIn = errors.New("not logged in")

// Authenticator is the part of the API client a session needs.
type Authenticator interface {
	Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error)
	Logout(ctx context.Context) error
	Me(ctx context.Context) (*api.User, error)
}

var _ Authenticator = (*api.Client)(nil)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the login session.
type Manager struct {
	mu sync.Mutex

	auth     Authenticator
	provider *auth.Provider
	logger   *zap.Logger

	user      *api.User
	userToken string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a session manager.
func NewManager(a Authenticator, p *auth.Provider, opts ...Option) *Manager {
	m := &Manager{auth: a, provider: p, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Provider returns the token provider.
func (m *Manager) Provider() *auth.Provider {
	return m.provider
}

// LoggedIn reports whether a session token is held.
func (m *Manager) LoggedIn() bool {
	return m.provider.LoggedIn()
}

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

// Login authenticates and stores the returned tokens.
func (m *Manager) Login(ctx context.Context, creds api.Credentials) error {
	res, err := m.auth.Login(ctx, creds)
	if err != nil {
		m.logger.Info("login failed", zap.String("username", creds.Username), zap.Error(err))
		return err
	}
	if err := m.provider.SetTokens(ctx, res.AccessToken, res.RefreshToken); err != nil {
		return err
	}

	m.mu.Lock()
	m.user = nil
	m.userToken = ""
	m.mu.Unlock()

	m.logger.Info("logged in", zap.String("username", creds.Username))
	return nil
}

// Logout ends the session. The server call is best effort; local tokens
// are cleared regardless and only a local storage failure is returned.
func (m *Manager) Logout(ctx context.Context) error {
	if m.provider.LoggedIn() {
		if err := m.auth.Logout(ctx); err != nil {
			m.logger.Warn("server logout failed, clearing local session anyway", zap.Error(err))
		}
	}
	err := m.provider.Clear(ctx)

	m.mu.Lock()
	m.user = nil
	m.userToken = ""
	m.mu.Unlock()
	return err
}

// WhoAmI returns the account behind the current token. The result is
// cached per token.
func (m *Manager) WhoAmI(ctx context.Context) (*api.User, error) {
	token := m.provider.Token()
	if token == "" {
		return nil, ErrNotLoggedIn
	}

	m.mu.Lock()
	if m.user != nil && m.userToken == token {
		u := *m.user
		m.mu.Unlock()
		return &u, nil
	}
	m.mu.Unlock()

	u, err := m.auth.Me(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) && !m.provider.LoggedIn() {
			return nil, ErrNotLoggedIn
		}
		return nil, err
	}

	m.mu.Lock()
	m.user = u
	m.userToken = m.provider.Token()
	m.mu.Unlock()

	out := *u
	return &out, nil
}
