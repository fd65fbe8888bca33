// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package gate

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/util"
)

// LoginRoute is where Redirect sends the viewer.
const LoginRoute = "/login"

// =============================================================================
// DECISION
// =============================================================================

// Decision is the outcome of an access check.
type Decision int

const (
	// Pending means the visibility fetch has not settled; show a loader.
	Pending Decision = iota
	// Allow means the screen may render.
	Allow
	// Redirect means the viewer must log in first.
	Redirect
)

// String returns the decision name.
func (d Decision) String() string {
	switch d {
	case Pending:
		return "pending"
	case Allow:
		return "allow"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// TokenSource reports whether a session token is held.
type TokenSource interface {
	LoggedIn() bool
}

// VisibilityFunc fetches a resource's public flag without credentials.
type VisibilityFunc func(ctx context.Context, id string) (bool, error)

// Protected decides access for screens that only need identity.
func Protected(tokens TokenSource) Decision {
	if tokens != nil && tokens.LoggedIn() {
		return Allow
	}
	return Redirect
}

// =============================================================================
// GATE
// =============================================================================

// Ticket describes one check started by Begin.
type Ticket struct {
	ID       string
	Stamp    uint64
	Decision Decision

	ctx context.Context
}

// Result is the settled visibility fetch for a ticket.
type Result struct {
	ID     string
	Stamp  uint64
	Public bool
	Err    error
}

// Gate guards one resource-scoped screen. Begin and Apply are meant to be
// called from a single goroutine; Run may run anywhere.
type Gate struct {
	tokens TokenSource
	fetch  VisibilityFunc
	logger *zap.Logger

	gen util.Generation

	mu       sync.Mutex
	id       string
	decision Decision
	cancel   context.CancelFunc
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the gate's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) {
		if l != nil {
			g.logger = l
		}
	}
}

// New creates a gate over a token source and a visibility fetch.
func New(tokens TokenSource, fetch VisibilityFunc, opts ...Option) *Gate {
	g := &Gate{
		tokens:   tokens,
		fetch:    fetch,
		logger:   zap.NewNop(),
		decision: Pending,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Begin starts a check for id, superseding any earlier one. A held token
// or an empty id allows at once and needs no fetch.
func (g *Gate) Begin(ctx context.Context, id string) Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	stamp := g.gen.Next()
	g.id = id

	if id == "" || (g.tokens != nil && g.tokens.LoggedIn()) {
		g.decision = Allow
		return Ticket{ID: id, Stamp: stamp, Decision: Allow}
	}

	runCtx, cancel := context.WithCancel(ctx)
	g.cancel = cancel
	g.decision = Pending
	return Ticket{ID: id, Stamp: stamp, Decision: Pending, ctx: runCtx}
}

// Run performs the visibility fetch for a pending ticket. It blocks.
func (g *Gate) Run(t Ticket) Result {
	res := Result{ID: t.ID, Stamp: t.Stamp}
	if t.Decision != Pending {
		res.Public = true
		return res
	}
	ctx := t.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	if g.fetch == nil {
		res.Err = context.Canceled
		return res
	}
	res.Public, res.Err = g.fetch(ctx, t.ID)
	return res
}

// Apply records a settled fetch. Results from a superseded check are
// dropped and ok is false; the current decision is returned either way.
func (g *Gate) Apply(r Result) (d Decision, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.gen.IsCurrent(r.Stamp) || r.ID != g.id {
		g.logger.Debug("dropping stale gate result",
			zap.String("id", r.ID),
			zap.Uint64("stamp", r.Stamp),
			zap.Uint64("current", g.gen.Current()))
		return g.decision, false
	}
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}

	switch {
	case r.Err != nil:
		g.logger.Info("visibility check failed, denying",
			zap.String("id", r.ID), zap.Error(r.Err))
		g.decision = Redirect
	case r.Public:
		g.decision = Allow
	default:
		g.decision = Redirect
	}
	return g.decision, true
}

// Check runs a complete check and blocks until it settles.
func (g *Gate) Check(ctx context.Context, id string) Decision {
	t := g.Begin(ctx, id)
	if t.Decision != Pending {
		return t.Decision
	}
	d, _ := g.Apply(g.Run(t))
	return d
}

// Decision returns the latest decision.
func (g *Gate) Decision() Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.decision
}

// ID returns the resource the latest check was for.
func (g *Gate) ID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.id
}

// Stop cancels an outstanding fetch and invalidates its result.
func (g *Gate) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.gen.Next()
}
