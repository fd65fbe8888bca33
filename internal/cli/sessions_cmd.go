// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// sessions_cmd.go - Past conversations.
//
// Examples:
//   ragdesk sessions 65f0c1
//   ragdesk history 9b2e --export md --output ./transcripts

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	convo "github.com/jeranaias/ragdesk/internal/chat"
	"github.com/jeranaias/ragdesk/internal/export"
	"github.com/jeranaias/ragdesk/internal/util"
)

func newSessionsCmd(e *env) *cobra.Command {
	var surveyMode bool
	cmd := &cobra.Command{
		Use:   "sessions <configId>",
		Short: "List your past conversations with an assistant, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}
			var list []api.Session
			var err error
			if surveyMode {
				list, err = e.client.ListSurveySessions(ctx, args[0])
			} else {
				list, err = e.client.ListChatSessions(ctx, args[0])
			}
			if err != nil {
				return err
			}
			return e.emit("sessions", list, func() {
				if len(list) == 0 {
					fmt.Fprintln(e.stdout, DimStyle.Render("No past conversations."))
					return
				}
				for _, s := range list {
					title := s.Title
					if title == "" {
						title = "(untitled)"
					}
					fmt.Fprintf(e.stdout, "%s  %s  %s\n",
						util.PadWidth(s.ID, 36),
						util.PadWidth(util.TruncateWidth(title, 40), 40),
						DimStyle.Render(formatTime(s.Timestamp)))
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&surveyMode, "survey", "s", false, "list survey sessions")
	return cmd
}

func newHistoryCmd(e *env) *cobra.Command {
	var surveyMode bool
	var format, outDir string
	cmd := &cobra.Command{
		Use:   "history <chatId>",
		Short: "Print a conversation's messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			entries, err := e.client.History(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			mode := convo.ModeChat
			if surveyMode {
				mode = convo.ModeSurvey
			}
			msgs := convo.FromHistory(mode, entries)
			if format != "" {
				conv := &export.Conversation{ChatID: args[0], Mode: mode.String(), Messages: msgs}
				return e.exportConversation(conv, format, outDir)
			}
			return e.emit("history", msgs, func() {
				if len(msgs) == 0 {
					fmt.Fprintln(e.stdout, DimStyle.Render("No messages."))
					return
				}
				r := &repl{e: e}
				for _, m := range msgs {
					r.print(m)
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&surveyMode, "survey", "s", false, "render survey questions")
	cmd.Flags().StringVar(&format, "export", "", "write the transcript to a file: md or json")
	cmd.Flags().StringVarP(&outDir, "output", "o", ".", "directory for --export")
	return cmd
}

// exportConversation writes conv to outDir and reports the path.
func (e *env) exportConversation(conv *export.Conversation, format, outDir string) error {
	opts := export.DefaultOptions()
	opts.OutputDir = outDir
	exporter, err := export.ForFormat(format, opts)
	if err != nil {
		return &ValidationError{Field: "export", Value: format, Reason: "must be md or json"}
	}
	path, err := export.ExportToFile(conv, exporter, opts)
	if err != nil {
		return err
	}
	e.logger.Debug("transcript exported", zap.String("path", path))
	return e.emit("history export", map[string]string{"path": path}, func() {
		fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), path)
	})
}
