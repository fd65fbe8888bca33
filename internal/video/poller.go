// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package video

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/ragdesk/internal/api"
)

const (
	// DefaultInterval is the pause between task checks.
	DefaultInterval = 5 * time.Second
	// DefaultTimeout bounds the whole wait.
	DefaultTimeout = 10 * time.Minute
)

// ErrDeadline is returned when a task is still running at the deadline.
var ErrDeadline = errors.New("video generation did not finish in time")

// Checker checks a generation task once. *api.Client satisfies it.
type Checker interface {
	CheckTask(ctx context.Context, taskID string) (*api.VideoResult, error)
}

// Poller waits for generation tasks.
type Poller struct {
	checker  Checker
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger
	onUpdate func(attempt int, res *api.VideoResult)
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithLogger sets the poller's logger.
func WithLogger(l *zap.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithProgress registers a callback run after every check.
func WithProgress(fn func(attempt int, res *api.VideoResult)) PollerOption {
	return func(p *Poller) { p.onUpdate = fn }
}

// NewPoller creates a poller. Zero durations select the defaults.
func NewPoller(c Checker, interval, timeout time.Duration, opts ...PollerOption) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	p := &Poller{checker: c, interval: interval, timeout: timeout, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Wait checks taskID until it reaches a terminal status. Transient check
// failures are retried on the next tick; other errors end the wait.
func (p *Poller) Wait(ctx context.Context, taskID string) (*api.VideoResult, error) {
	if taskID == "" {
		return nil, fmt.Errorf("no task id to poll: %w", api.ErrMalformed)
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	var last *api.VideoResult

	for attempt := 1; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return last, p.waitErr(ctx, err)
		}

		res, err := p.checker.CheckTask(ctx, taskID)
		if err != nil {
			if ctx.Err() != nil {
				return last, p.waitErr(ctx, err)
			}
			if !api.IsTransient(err) {
				return last, fmt.Errorf("failed to check task %s: %w", taskID, err)
			}
			p.logger.Debug("task check failed, will retry",
				zap.String("task_id", taskID), zap.Int("attempt", attempt), zap.Error(err))
			continue
		}

		last = res
		if p.onUpdate != nil {
			p.onUpdate(attempt, res)
		}
		if res.Status.Terminal() {
			p.logger.Info("video task settled",
				zap.String("task_id", taskID), zap.String("status", string(res.Status)), zap.Int("checks", attempt))
			return res, nil
		}
	}
}

// waitErr maps a context failure to ErrDeadline when the poller's own
// timeout fired rather than the caller cancelling.
func (p *Poller) waitErr(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrDeadline
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	// rate.Limiter.Wait refuses up front when the deadline is too close.
	return ErrDeadline
}
