// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// env.go - Per-invocation state shared by every command.

package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/auth"
	"github.com/jeranaias/ragdesk/internal/config"
	"github.com/jeranaias/ragdesk/internal/logging"
	"github.com/jeranaias/ragdesk/internal/session"
	"github.com/jeranaias/ragdesk/internal/storage"
)

// globalFlags are the persistent flags on the root command.
type globalFlags struct {
	verbose bool
	json    bool
	apiURL  string
	store   string
}

// env carries configuration, I/O and lazily opened services. Nothing that
// touches disk or network is created until a command asks for it.
type env struct {
	flags globalFlags

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	lines  *bufio.Reader

	cfg     *config.Config
	logger  *zap.Logger
	restore func()

	loadConfig   func() (*config.Config, error)
	clipboard    func(string) error
	readPassword func(prompt string) (string, error)
	newReader    func(historyFile string) lineReader

	store    *storage.Store
	provider *auth.Provider
	client   *api.Client
	manager  *session.Manager
}

func newEnv() *env {
	e := &env{
		stdin:      os.Stdin,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
		loadConfig: config.Load,
		clipboard:  clipboard.WriteAll,
		newReader:  newLinerReader,
	}
	e.readPassword = e.terminalPassword
	return e
}

// =============================================================================
// SETUP
// =============================================================================

// setup loads configuration and builds the logger. The full-screen client
// logs to a file; everything else logs to stderr.
func (e *env) setup(tui bool) error {
	cfg, err := e.loadConfig()
	if cfg == nil {
		return err
	}
	if e.flags.apiURL != "" {
		cfg.API.BaseURL = strings.TrimRight(e.flags.apiURL, "/")
	}
	if e.flags.store != "" {
		cfg.Storage.Path = e.flags.store
	}
	e.cfg = cfg
	config.SetGlobal(cfg)

	if e.logger == nil {
		opts := logging.Options{Level: "warn", Verbose: e.flags.verbose}
		if tui {
			path, perr := cfg.LogPath()
			if perr != nil {
				return perr
			}
			opts = logging.Options{Level: cfg.Log.Level, Verbose: e.flags.verbose, Sink: logging.SinkFile, File: path}
		}
		logger, lerr := logging.New(opts)
		if lerr != nil {
			return lerr
		}
		e.logger = logger
	}
	e.restore = logging.Set(e.logger)

	if err != nil {
		e.logger.Warn("using default configuration", zap.Error(err))
	}
	return nil
}

// =============================================================================
// SERVICES
// =============================================================================

// open creates the token store, provider, API client and session manager.
func (e *env) open(ctx context.Context) error {
	if e.manager != nil {
		return nil
	}
	path, err := e.cfg.StorePath()
	if err != nil {
		return err
	}
	store, err := storage.Open(ctx, path)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	provider, err := auth.NewProvider(ctx, store, auth.WithLogger(e.logger.Named("auth")))
	if err != nil {
		store.Close()
		return err
	}

	e.store = store
	e.provider = provider
	e.client = api.NewClient(e.cfg.API.BaseURL).
		WithTimeout(e.cfg.Timeout()).
		WithMaxRetries(e.cfg.API.MaxRetries).
		WithRateLimit(e.cfg.API.RequestsPerSec).
		WithTokens(provider).
		WithLogger(e.logger)
	e.manager = session.NewManager(e.client, provider, session.WithLogger(e.logger.Named("session")))
	e.logger.Debug("services ready",
		zap.String("base_url", e.cfg.API.BaseURL),
		zap.String("store", path),
		logging.Secret("token", provider.Token()))
	return nil
}

// requireLogin fails unless a session token is held.
func (e *env) requireLogin() error {
	if !e.provider.LoggedIn() {
		return fmt.Errorf("%w; run 'ragdesk login' first", session.ErrNotLoggedIn)
	}
	return nil
}

// Close releases everything open and flushes the logger.
func (e *env) Close() {
	if e.store != nil {
		if err := e.store.Close(); err != nil && e.logger != nil {
			e.logger.Warn("failed to close session store", zap.Error(err))
		}
	}
	e.store, e.provider, e.client, e.manager = nil, nil, nil, nil
	if e.logger != nil {
		_ = e.logger.Sync()
	}
	if e.restore != nil {
		e.restore()
		e.restore = nil
	}
}

// =============================================================================
// INPUT
// =============================================================================

// terminalPassword reads a password without echo. Piped stdin is read as
// a plain line so scripts can supply it.
func (e *env) terminalPassword(prompt string) (string, error) {
	if f, ok := e.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(e.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(e.stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}
	return e.readLine("")
}

// readLine reads one line from stdin after printing prompt to stderr.
func (e *env) readLine(prompt string) (string, error) {
	if prompt != "" {
		fmt.Fprint(e.stderr, prompt)
	}
	if e.lines == nil {
		e.lines = bufio.NewReader(e.stdin)
	}
	line, err := e.lines.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
