// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink selects where log output goes.
type Sink int

const (
	// SinkStderr writes console-encoded lines to stderr.
	SinkStderr Sink = iota
	// SinkFile writes JSON lines to Options.File.
	SinkFile
)

// Options configures New.
type Options struct {
	// Level is "debug", "info", "warn" or "error". Empty means info.
	Level   string
	Verbose bool
	Sink    Sink
	File    string
}

// ParseLevel maps a config level name onto a zap level.
func ParseLevel(name string) (zapcore.Level, error) {
	if name == "" {
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q: %w", name, err)
	}
	return lvl, nil
}

// New builds a logger for opts. Verbose forces debug level.
func New(opts Options) (*zap.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		lvl = zapcore.DebugLevel
	}

	var cfg zap.Config
	switch opts.Sink {
	case SinkFile:
		if opts.File == "" {
			return nil, fmt.Errorf("file sink requires a path")
		}
		if err := os.MkdirAll(filepath.Dir(opts.File), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg = zap.NewProductionConfig()
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		cfg = zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stderr"}
		cfg.ErrorOutputPaths = []string{"stderr"}
		cfg.DisableStacktrace = true
		cfg.EncoderConfig.TimeKey = ""
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("ragdesk"), nil
}

// =============================================================================
// PROCESS LOGGER
// =============================================================================

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// L returns the process logger. It is a no-op logger until Set is called.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// Set installs logger as the process logger and returns a function that
// restores the previous one.
func Set(logger *zap.Logger) (restore func()) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	prev := global
	global = logger
	mu.Unlock()
	return func() {
		mu.Lock()
		global = prev
		mu.Unlock()
	}
}

// =============================================================================
// FIELDS
// =============================================================================

// Secret records only whether a credential is set, never its value.
func Secret(key, value string) zap.Field {
	return zap.Bool(key+"_present", value != "")
}
