// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce coalesces the burst of events a single sqlite commit
// produces (main file, -wal, -shm).
const DefaultDebounce = 150 * time.Millisecond

// Watcher reloads a Provider whenever the backing store file changes.
type Watcher struct {
	provider *Provider
	path     string
	debounce time.Duration
	logger   *zap.Logger

	watcher *fsnotify.Watcher
	cancel  context.CancelFunc
	done    chan struct{}
	once    sync.Once
}

// NewWatcher creates a watcher for the store at storePath. Call Start to
// begin watching.
func NewWatcher(p *Provider, storePath string, debounce time.Duration) (*Watcher, error) {
	if p == nil {
		return nil, errors.New("auth: nil provider")
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	abs, err := filepath.Abs(storePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve store path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &Watcher{
		provider: p,
		path:     abs,
		debounce: debounce,
		logger:   p.logger,
		watcher:  fw,
		done:     make(chan struct{}),
	}, nil
}

// Start watches the store's directory until ctx is cancelled or Close is
// called. The directory is watched rather than the file because sqlite
// writes through sibling journal files.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	ctx, w.cancel = context.WithCancel(ctx)
	go w.loop(ctx)
	return nil
}

// relevant reports whether name is the store or one of its journals.
func (w *Watcher) relevant(name string) bool {
	base := filepath.Base(w.path)
	n := filepath.Base(name)
	return n == base || strings.HasPrefix(n, base+"-")
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.provider.Reload(ctx); err != nil && ctx.Err() == nil {
				w.logger.Warn("token reload failed", zap.Error(err))
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("store watcher error", zap.Error(err))
		}
	}
}

// Close stops watching and waits for the event loop to exit.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		if w.cancel != nil {
			w.cancel()
		}
		err = w.watcher.Close()
		if w.cancel != nil {
			<-w.done
		}
	})
	return err
}
