// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/storage"
)

// Store keys. They match the keys the web client uses in localStorage.
const (
	TokenKey   = "jwtToken"
	RefreshKey = "refreshToken"
)

// KV is the slice of the durable store the provider needs.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	SetMany(ctx context.Context, pairs map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}

// Change is delivered to subscribers when token presence flips.
type Change struct {
	LoggedIn bool
}

// Provider caches the session token and publishes presence changes.
// It is safe for concurrent use.
type Provider struct {
	mu      sync.RWMutex
	kv      KV
	token   string
	refresh string
	logger  *zap.Logger

	subsMu sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the provider's logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProvider creates a provider over kv and loads the current tokens.
func NewProvider(ctx context.Context, kv KV, opts ...Option) (*Provider, error) {
	if kv == nil {
		return nil, errors.New("auth: nil store")
	}
	p := &Provider{
		kv:     kv,
		logger: zap.NewNop(),
		subs:   make(map[int]chan Change),
	}
	for _, opt := range opts {
		opt(p)
	}

	token, refresh, err := p.read(ctx)
	if err != nil {
		return nil, err
	}
	p.token, p.refresh = token, refresh
	return p, nil
}

func (p *Provider) read(ctx context.Context) (token, refresh string, err error) {
	token, err = p.kv.Get(ctx, TokenKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", "", fmt.Errorf("failed to read session token: %w", err)
	}
	refresh, err = p.kv.Get(ctx, RefreshKey)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return "", "", fmt.Errorf("failed to read refresh token: %w", err)
	}
	return token, refresh, nil
}

// =============================================================================
// READERS
// =============================================================================

// Token returns the session token, or "" when logged out.
func (p *Provider) Token() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.token
}

// RefreshToken returns the refresh token, or "".
func (p *Provider) RefreshToken() string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.refresh
}

// LoggedIn reports whether a session token is present.
func (p *Provider) LoggedIn() bool {
	return p.Token() != ""
}

// =============================================================================
// WRITERS
// =============================================================================

// SetTokens stores a fresh login. An empty refresh token removes any stored
// one.
func (p *Provider) SetTokens(ctx context.Context, token, refresh string) error {
	if token == "" {
		return errors.New("auth: empty session token")
	}
	if refresh != "" {
		if err := p.kv.SetMany(ctx, map[string]string{TokenKey: token, RefreshKey: refresh}); err != nil {
			return fmt.Errorf("failed to store tokens: %w", err)
		}
	} else {
		if err := p.kv.SetMany(ctx, map[string]string{TokenKey: token}); err != nil {
			return fmt.Errorf("failed to store session token: %w", err)
		}
		if err := p.kv.Delete(ctx, RefreshKey); err != nil {
			return fmt.Errorf("failed to clear refresh token: %w", err)
		}
	}
	p.update(token, refresh)
	p.logger.Info("session stored", zap.Bool("refreshable", refresh != ""))
	return nil
}

// SetAccessToken replaces only the session token, keeping the refresh token.
func (p *Provider) SetAccessToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("auth: empty session token")
	}
	if err := p.kv.SetMany(ctx, map[string]string{TokenKey: token}); err != nil {
		return fmt.Errorf("failed to store session token: %w", err)
	}
	p.update(token, p.RefreshToken())
	p.logger.Debug("session token refreshed")
	return nil
}

// Clear deletes both tokens. The in-memory state is cleared even when the
// store write fails, so the caller is logged out either way.
func (p *Provider) Clear(ctx context.Context) error {
	err := p.kv.Delete(ctx, TokenKey, RefreshKey)
	p.update("", "")
	p.logger.Info("session cleared")
	if err != nil {
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	return nil
}

// Reload re-reads the store, picking up writes by other processes.
func (p *Provider) Reload(ctx context.Context) error {
	token, refresh, err := p.read(ctx)
	if err != nil {
		return err
	}
	p.update(token, refresh)
	return nil
}

func (p *Provider) update(token, refresh string) {
	p.mu.Lock()
	was := p.token != ""
	p.token, p.refresh = token, refresh
	now := p.token != ""
	p.mu.Unlock()

	if was != now {
		p.publish(Change{LoggedIn: now})
	}
}

// =============================================================================
// SUBSCRIPTIONS
// =============================================================================

// Subscribe returns a channel of presence changes and a function that
// cancels the subscription. Slow subscribers only ever see the latest
// change.
func (p *Provider) Subscribe() (<-chan Change, func()) {
	ch := make(chan Change, 1)

	p.subsMu.Lock()
	id := p.nextID
	p.nextID++
	p.subs[id] = ch
	p.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			p.subsMu.Lock()
			delete(p.subs, id)
			p.subsMu.Unlock()
			close(ch)
		})
	}
}

func (p *Provider) publish(c Change) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- c
	}
}
