// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// tui.go - Full-screen client.
//
// Examples:
//   ragdesk                               Assistant list (or login)
//   ragdesk tui chat 65f0c1               New conversation
//   ragdesk tui survey 65f0c1 9b2e...     Resume a survey
//   ragdesk tui /chat/65f0c1/9b2e...      Web-style path

package cli

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/auth"
	"github.com/jeranaias/ragdesk/internal/ui/app"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
	"github.com/jeranaias/ragdesk/internal/video"
)

func newTUICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:         "tui [chat|survey|video] [configId] [chatId]",
		Short:       "Open the full-screen client, optionally at a deep link",
		Args:        cobra.MaximumNArgs(3),
		Annotations: map[string]string{annotationTUI: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			route, err := parseDeepLink(args)
			if err != nil {
				return err
			}
			return e.runTUI(cmd.Context(), route)
		},
	}
}

// parseDeepLink accepts either a web-style path as one argument or the
// path's segments as separate arguments. No arguments means the default
// start screen.
func parseDeepLink(args []string) (*app.Route, error) {
	if len(args) == 0 {
		return nil, nil
	}
	path := strings.Join(args, "/")
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	r, err := app.ParseRoute(path)
	if err != nil {
		return nil, &ValidationError{Field: "route", Value: path, Reason: err.Error(), Example: "ragdesk tui chat <configId> [chatId]"}
	}
	return &r, nil
}

// runTUI hands the terminal to the root model until it quits.
func (e *env) runTUI(ctx context.Context, start *app.Route) error {
	if err := RequiresTTY("open the full-screen client"); err != nil {
		return err
	}
	if err := e.open(ctx); err != nil {
		return err
	}

	changes, unsubscribe := e.provider.Subscribe()
	defer unsubscribe()

	// Another ragdesk process logging in or out rewrites the store; the
	// watcher reloads the provider so this one follows.
	if path, err := e.cfg.StorePath(); err == nil {
		if w, err := auth.NewWatcher(e.provider, path, auth.DefaultDebounce); err != nil {
			e.logger.Warn("session watcher unavailable", zap.Error(err))
		} else if err := w.Start(ctx); err != nil {
			e.logger.Warn("session watcher unavailable", zap.Error(err))
			w.Close()
		} else {
			defer w.Close()
		}
	}

	poller := video.NewPoller(e.client, e.cfg.PollInterval(), e.cfg.PollTimeout(),
		video.WithLogger(e.logger.Named("video")))

	opts := []app.Option{
		app.WithLogger(e.logger.Named("ui")),
		app.WithContext(ctx),
		app.WithChanges(changes),
		app.WithClipboard(e.clipboard),
		app.WithWebURL(e.cfg.API.WebURL),
		app.WithPoller(poller),
		app.WithShowSources(e.cfg.UI.ShowSources),
	}
	if start != nil {
		opts = append(opts, app.WithRoute(*start))
	}
	m := app.New(styles.NewTheme(e.cfg.UI.Theme), e.client, e.manager, opts...)

	e.logger.Info("starting tui", zap.Bool("logged_in", e.provider.LoggedIn()))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
