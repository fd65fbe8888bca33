// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Line-mode conversations.
//
// The REPL runs the same access check and submission cycle as the
// full-screen client: a private assistant needs a token, a new chat mints
// its id on the first send, and a failed send puts the text back on the
// prompt for editing.
//
// Commands inside the REPL:
//   /help       Show commands
//   /new        Start a new conversation with the same assistant
//   /copy       Copy the last answer to the clipboard
//   /export     Save the transcript as md or json in the working directory
//   /quit       Leave (also Ctrl-D)

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	convo "github.com/jeranaias/ragdesk/internal/chat"
	"github.com/jeranaias/ragdesk/internal/config"
	"github.com/jeranaias/ragdesk/internal/export"
	"github.com/jeranaias/ragdesk/internal/gate"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/session"
	"github.com/jeranaias/ragdesk/internal/survey"
)

// ErrLoginRequired is returned when a private assistant is opened without
// a session token.
var ErrLoginRequired = fmt.Errorf("this assistant is private; run 'ragdesk login' first: %w", session.ErrNotLoggedIn)

// =============================================================================
// LINE EDITING
// =============================================================================

// lineReader reads prompted lines. The REPL uses liner; tests script it.
type lineReader interface {
	Prompt(prompt string) (string, error)
	PromptWithSuggestion(prompt, text string, pos int) (string, error)
	Close() error
}

// linerReader adds persistent input history to a liner.State.
type linerReader struct {
	*liner.State
	historyFile string
}

func newLinerReader(historyFile string) lineReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	r := &linerReader{State: line, historyFile: historyFile}
	if f, err := os.Open(historyFile); err == nil {
		_, _ = line.ReadHistory(f)
		f.Close()
	}
	return r
}

// Prompt reads a line and records it in history.
func (r *linerReader) Prompt(prompt string) (string, error) {
	return r.PromptWithSuggestion(prompt, "", -1)
}

// PromptWithSuggestion reads a line pre-filled with text.
func (r *linerReader) PromptWithSuggestion(prompt, text string, pos int) (string, error) {
	input, err := r.State.PromptWithSuggestion(prompt, text, pos)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the
// terminal.
func (r *linerReader) Close() error {
	if err := config.EnsureConfigDir(); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			_, _ = r.WriteHistory(f)
			f.Close()
		}
	}
	return r.State.Close()
}

func historyPath() string {
	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "chat_history")
}

// =============================================================================
// COMMANDS
// =============================================================================

func newChatCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <configId> [chatId]",
		Short: "Talk to a chat assistant in line mode",
		Long: `Talk to a chat assistant in line mode. Without a chat id a new
conversation starts; its id is printed after the first message.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.converse(cmd.Context(), convo.ModeChat, args)
		},
	}
}

func newSurveyCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "survey <configId> [chatId]",
		Short: "Take a survey in line mode",
		Long: `Take a survey in line mode. Without a chat id the survey starts
over. Questions with options accept a number, the option text, or a
comma-separated list where several may be picked.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.converse(cmd.Context(), convo.ModeSurvey, args)
		},
	}
}

// =============================================================================
// REPL
// =============================================================================

// repl is one line-mode conversation.
type repl struct {
	e      *env
	ctx    context.Context
	sess   *convo.Session
	in     lineReader
	logger *zap.Logger
}

func (e *env) converse(ctx context.Context, mode convo.Mode, args []string) error {
	configID, chatID := args[0], ""
	if len(args) > 1 {
		chatID = args[1]
	}
	if err := e.open(ctx); err != nil {
		return err
	}
	if e.flags.json {
		return &ValidationError{Field: "--json", Reason: "not supported for interactive conversations"}
	}

	visible := e.client.ConfigVisibility
	if mode == convo.ModeSurvey {
		visible = e.client.SurveyVisibility
	}
	g := gate.New(e.provider, visible, gate.WithLogger(e.logger.Named("gate")))
	if g.Check(ctx, configID) != gate.Allow {
		return ErrLoginRequired
	}

	r := &repl{e: e, ctx: ctx, logger: e.logger.Named("repl")}
	r.sess = convo.NewSession(mode, configID, chatID,
		convo.WithLogger(r.logger),
		convo.WithNavigate(r.announce))
	if err := r.load(); err != nil {
		return err
	}

	r.in = e.newReader(historyPath())
	defer r.in.Close()
	return r.loop()
}

// announce prints a chat id the server or the first send assigned.
func (r *repl) announce(mode convo.Mode, configID, chatID string) {
	fmt.Fprintln(r.e.stderr, DimStyle.Render(fmt.Sprintf("conversation %s (resume with: ragdesk %s %s %s)", chatID, mode, configID, chatID)))
}

// load fetches the assistant and history and prints the transcript.
func (r *repl) load() error {
	snap := convo.Load(r.ctx, r.e.client, r.sess.Request(r.e.provider.LoggedIn()), r.logger)
	r.sess.Apply(snap)
	a := r.sess.Assistant()
	if a == nil {
		if err := r.sess.Err(); err != nil {
			return err
		}
		return fmt.Errorf("assistant %s: %w", r.sess.ConfigID(), api.ErrNotFound)
	}

	fmt.Fprintf(r.e.stdout, "%s  %s\n", TitleStyle.Render(a.BotName), DimStyle.Render(r.sess.Mode().String()+" / "+a.Model()))
	fmt.Fprintln(r.e.stdout, DimStyle.Render("Type /help for commands, Ctrl-D to leave."))
	fmt.Fprintln(r.e.stdout, RenderSeparator())
	if err := r.sess.Err(); err != nil {
		fmt.Fprintf(r.e.stdout, "%s %s\n", WarningStyle.Render("history unavailable:"), api.Describe(err))
	}
	for _, m := range r.sess.Transcript().Messages() {
		r.print(m)
	}
	return nil
}

func (r *repl) loop() error {
	draft := ""
	for {
		if err := r.ctx.Err(); err != nil {
			return nil
		}
		q := r.sess.PendingQuestion()
		prompt := "> "
		if q != nil {
			prompt = "answer> "
		}

		input, err := r.in.PromptWithSuggestion(prompt, draft, -1)
		draft = ""
		if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if strings.HasPrefix(strings.TrimSpace(input), "/") {
			quit, err := r.command(strings.TrimSpace(input))
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
			continue
		}

		var p convo.Pending
		if q != nil {
			p, err = r.answer(q, input)
			if err != nil {
				fmt.Fprintf(r.e.stdout, "%s %v\n", WarningStyle.Render("!"), err)
				continue
			}
		} else {
			var ok bool
			if p, ok = r.sess.Submit(input); !ok {
				if err := r.sess.Err(); err != nil {
					fmt.Fprintf(r.e.stdout, "%s %s\n", ErrorStyle.Render("!"), api.Describe(err))
				}
				continue
			}
		}

		out := convo.Send(r.ctx, r.e.client, p)
		r.sess.Settle(out)
		if out.Err != nil {
			fmt.Fprintf(r.e.stdout, "%s %s\n", ErrorStyle.Render("!"), api.Describe(out.Err))
			draft = r.sess.TakeDraft()
			continue
		}
		if last := r.sess.Transcript().Last(); last != nil {
			r.print(last)
		}
	}
}

// answer resolves typed input against the pending question.
func (r *repl) answer(q *model.Message, input string) (convo.Pending, error) {
	a, err := q.Question.Resolve(input)
	if err != nil {
		return convo.Pending{}, err
	}
	return r.sess.Answer(q, a)
}

// command runs a slash command and reports whether to leave.
func (r *repl) command(input string) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/quit", "/exit", "/q":
		return true, nil
	case "/help", "/h", "/?":
		for _, line := range [][2]string{
			{"/new", "Start a new conversation"},
			{"/copy", "Copy the last answer"},
			{"/export [md|json]", "Save the transcript here"},
			{"/quit", "Leave"},
		} {
			fmt.Fprintln(r.e.stdout, RenderField(line[0], line[1]))
		}
	case "/new":
		r.sess.Bind(r.sess.ConfigID(), "")
		return false, r.load()
	case "/copy":
		last := r.sess.Transcript().LastAssistant()
		if last == nil || last.Text == "" {
			fmt.Fprintln(r.e.stdout, DimStyle.Render("No answer to copy yet."))
			return false, nil
		}
		if err := r.e.clipboard(last.Text); err != nil {
			fmt.Fprintf(r.e.stdout, "%s %v\n", WarningStyle.Render("!"), err)
			return false, nil
		}
		fmt.Fprintln(r.e.stdout, DimStyle.Render("Answer copied to clipboard."))
	case "/export":
		format := "md"
		if len(fields) > 1 {
			format = fields[1]
		}
		if err := r.e.exportConversation(r.conversation(), format, "."); err != nil {
			fmt.Fprintf(r.e.stdout, "%s %v\n", WarningStyle.Render("!"), err)
		}
	default:
		fmt.Fprintf(r.e.stdout, "Unknown command %s. Type /help.\n", fields[0])
	}
	return false, nil
}

// conversation snapshots the transcript for export.
func (r *repl) conversation() *export.Conversation {
	conv := &export.Conversation{
		ChatID:   r.sess.ChatID(),
		ConfigID: r.sess.ConfigID(),
		Mode:     r.sess.Mode().String(),
		Messages: r.sess.Transcript().Messages(),
	}
	if a := r.sess.Assistant(); a != nil {
		conv.Assistant = a.BotName
		conv.Model = a.Model()
	}
	return conv
}

// =============================================================================
// OUTPUT
// =============================================================================

// print writes one transcript entry.
func (r *repl) print(m *model.Message) {
	if m.IsUser() {
		fmt.Fprintf(r.e.stdout, "%s %s\n", UserStyle.Render("you:"), m.Text)
		return
	}
	if m.Question != nil {
		r.printQuestion(m.Question, m.Answered)
		return
	}
	fmt.Fprintf(r.e.stdout, "%s %s\n", BotStyle.Render("bot:"), WrapText(m.Text, 0))
	for _, att := range m.Media {
		fmt.Fprintf(r.e.stdout, "  %s %s\n", DimStyle.Render(string(att.Kind)+":"), att.URL)
	}
	if r.e.cfg.UI.ShowSources {
		for i, src := range m.Sources {
			fmt.Fprintln(r.e.stdout, DimStyle.Render(fmt.Sprintf("  [%d] %s", i+1, src.Label)))
		}
	}
}

func (r *repl) printQuestion(q *survey.Question, answered bool) {
	fmt.Fprintf(r.e.stdout, "%s %s\n", BotStyle.Render("bot:"), q.Text)
	if answered {
		return
	}
	for i := range q.Choices() {
		fmt.Fprintf(r.e.stdout, "  %d) %s\n", i+1, q.ChoiceLabel(i))
	}
	switch {
	case q.MultiSelect():
		fmt.Fprintln(r.e.stdout, DimStyle.Render("  Pick one or more, separated by commas."))
	case q.FreeText() && q.PlaceholderText() != "":
		fmt.Fprintln(r.e.stdout, DimStyle.Render("  "+q.PlaceholderText()))
	}
	if !q.Required && !q.FreeText() {
		fmt.Fprintln(r.e.stdout, DimStyle.Render("  Press enter to skip."))
	}
}
