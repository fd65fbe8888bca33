// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// cli.go - Root command and entry point.

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/spf13/cobra"
)

// Version information, overridden at build time.
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// annotationTUI marks commands that hand the terminal to the full-screen
// client.
const annotationTUI = "tui"

// Execute runs the command line and returns the process exit code.
func Execute(args []string) int {
	e := newEnv()
	root := newRootCmd(e)
	root.SetArgs(args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, err := root.ExecuteContextC(ctx)
	e.Close()
	if err != nil {
		name := root.Name()
		if cmd != nil {
			name = cmd.CommandPath()
		}
		out := e.stderr
		if e.flags.json {
			out = e.stdout
		}
		DisplayError(out, name, err, e.flags.json)
		return GetExitCode(err)
	}
	return ExitSuccess
}

// newRootCmd builds the command tree over e.
func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "ragdesk",
		Short: "Terminal client for RAG chat, survey and video assistants",
		Long: `ragdesk talks to a RAG assistant platform from the terminal.

Run without arguments to open the full-screen client, or use a subcommand
to script logins, assistants and conversations.`,
		Version:       fmt.Sprintf("%s (%s, built %s, %s)", Version, GitCommit, BuildDate, runtime.Version()),
		SilenceErrors: true,
		SilenceUsage:  true,
		Annotations:   map[string]string{annotationTUI: "true"},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			e.stdout = cmd.OutOrStdout()
			e.stderr = cmd.ErrOrStderr()
			e.stdin = cmd.InOrStdin()
			e.lines = nil
			return e.setup(cmd.Annotations[annotationTUI] == "true")
		},
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.runTUI(cmd.Context(), nil)
		},
	}

	pf := root.PersistentFlags()
	pf.BoolVarP(&e.flags.verbose, "verbose", "v", false, "log at debug level")
	pf.BoolVar(&e.flags.json, "json", false, "write machine-readable JSON to stdout")
	pf.StringVar(&e.flags.apiURL, "api-url", "", "API base URL (overrides api.base_url)")
	pf.StringVar(&e.flags.store, "store", "", "session store path (overrides storage.path)")

	root.AddGroup(
		&cobra.Group{ID: "session", Title: "Session:"},
		&cobra.Group{ID: "assistants", Title: "Assistants:"},
		&cobra.Group{ID: "conversations", Title: "Conversations:"},
		&cobra.Group{ID: "local", Title: "Local:"},
	)

	add := func(group string, cmds ...*cobra.Command) {
		for _, c := range cmds {
			c.GroupID = group
			root.AddCommand(c)
		}
	}
	add("session", newLoginCmd(e), newLogoutCmd(e), newWhoAmICmd(e), newRegisterCmd(e), newVerifyEmailCmd(e))
	add("assistants", newConfigsCmd(e), newSurveysCmd(e), newVideosCmd(e), newShareCmd(e))
	add("conversations", newChatCmd(e), newSurveyCmd(e), newSessionsCmd(e), newHistoryCmd(e), newVideoCmd(e))
	add("local", newTUICmd(e), newConfigCmd(e))
	return root
}
