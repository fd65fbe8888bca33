// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// video_cmd.go - One-shot video generation.
//
// Examples:
//   ragdesk video 66a1 "a lighthouse at dusk"
//   ragdesk video 66a1 "a lighthouse at dusk" --wait --json

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/gate"
	"github.com/jeranaias/ragdesk/internal/video"
)

func newVideoCmd(e *env) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "video <configId> <query...>",
		Short: "Render a video from a prompt",
		Long: `Render a video from a prompt. The server waits a while on its own;
with --wait a render that is still running is polled until it settles or
video.poll_timeout_secs passes.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			configID := args[0]
			query := strings.Join(args[1:], " ")

			g := gate.New(e.provider, e.client.VideoVisibility, gate.WithLogger(e.logger.Named("gate")))
			if g.Check(ctx, configID) != gate.Allow {
				return ErrLoginRequired
			}

			var poller *video.Poller
			if wait {
				poller = video.NewPoller(e.client, e.cfg.PollInterval(), e.cfg.PollTimeout(),
					video.WithLogger(e.logger.Named("video")),
					video.WithProgress(func(attempt int, res *api.VideoResult) {
						if !e.flags.json {
							fmt.Fprintf(e.stderr, "%s check %d: %s\n", DimStyle.Render("..."), attempt, res.Status)
						}
					}))
			}

			sess := video.NewSession(configID)
			req, ok := sess.Submit(query)
			if !ok {
				return &ValidationError{Field: "query", Reason: "must not be empty"}
			}
			if !e.flags.json {
				fmt.Fprintln(e.stderr, DimStyle.Render("Rendering..."))
			}
			out := video.Generate(ctx, e.client, poller, req)
			sess.Settle(out)
			if out.Generation == nil {
				return out.Err
			}
			if out.Err != nil {
				e.logger.Warn("video wait ended early", zap.Error(out.Err))
			}

			err := e.emit("video", out.Generation, func() {
				fmt.Fprintln(e.stdout, video.Describe(out.Generation))
				if u := out.Generation.Result.VideoURL; u != "" {
					fmt.Fprintln(e.stdout, RenderField("URL", u))
				}
			})
			if err != nil {
				return err
			}
			return out.Err
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "poll until a slow render finishes")
	return cmd
}
