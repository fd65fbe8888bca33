// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// configs_cmd.go - Assistant management commands.
//
// Drafts are TOML (or JSON) files; print a starting point with --template.
//
// Examples:
//   ragdesk configs list --all
//   ragdesk configs create --template > bot.toml
//   ragdesk configs create bot.toml --file handbook.pdf
//   ragdesk configs update 65f0c1 --public --file faq.md
//   ragdesk configs delete 65f0c1 --yes
//   ragdesk share 65f0c1

package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/assistant"
	"github.com/jeranaias/ragdesk/internal/ui/app"
)

// =============================================================================
// KIND FLAG
// =============================================================================

// parseKind maps a --kind value onto an assistant family.
func parseKind(s string) (api.Kind, error) {
	switch s {
	case "", "chat":
		return api.KindChat, nil
	case "survey":
		return api.KindSurvey, nil
	case "video", string(api.KindVideo):
		return api.KindVideo, nil
	}
	return "", &ValidationError{Field: "kind", Value: s, Reason: "must be chat, survey or video"}
}

// getAssistant reads one assistant of the given family.
func (e *env) getAssistant(ctx context.Context, kind api.Kind, id string) (*api.Assistant, error) {
	switch kind {
	case api.KindSurvey:
		return e.client.GetSurveyConfig(ctx, id)
	case api.KindVideo:
		return e.client.GetVideoConfig(ctx, id)
	default:
		return e.client.GetConfig(ctx, id)
	}
}

// listAssistants lists one family.
func (e *env) listAssistants(ctx context.Context, kind api.Kind) ([]api.Assistant, error) {
	switch kind {
	case api.KindSurvey:
		return e.client.ListSurveyConfigs(ctx)
	case api.KindVideo:
		return e.client.ListVideoConfigs(ctx)
	default:
		return e.client.ListConfigs(ctx)
	}
}

// =============================================================================
// CONFIGS
// =============================================================================

func newConfigsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "configs",
		Aliases: []string{"assistants"},
		Short:   "Manage chat assistants",
	}
	cmd.AddCommand(
		newListCmd(e, api.KindChat, true),
		newShowCmd(e),
		newCreateCmd(e, api.KindChat),
		newUpdateCmd(e),
		newDeleteCmd(e),
	)
	return cmd
}

func newSurveysCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "surveys",
		Short: "Manage survey assistants",
	}
	cmd.AddCommand(newListCmd(e, api.KindSurvey, false), newCreateCmd(e, api.KindSurvey))
	return cmd
}

func newVideosCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "videos",
		Short: "Manage video assistants",
	}
	cmd.AddCommand(newListCmd(e, api.KindVideo, false), newCreateCmd(e, api.KindVideo))
	return cmd
}

func newListCmd(e *env, kind api.Kind, withAll bool) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List your %s assistants", kindLabel(kind)),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}
			var items []api.Assistant
			var err error
			if all {
				items, err = app.LoadAssistants(ctx, e.client, e.logger)
			} else {
				items, err = e.listAssistants(ctx, kind)
			}
			if err != nil {
				return err
			}
			return e.emit(cmd.CommandPath(), items, func() { e.printAssistants(items) })
		},
	}
	if withAll {
		cmd.Flags().BoolVarP(&all, "all", "a", false, "include survey and video assistants")
	}
	return cmd
}

func newShowCmd(e *env) *cobra.Command {
	var kindFlag string
	cmd := &cobra.Command{
		Use:   "show <configId>",
		Short: "Show an assistant's settings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			a, err := e.getAssistant(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}
			return e.emit("configs show", a, func() { e.printAssistant(a) })
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "chat", "assistant family: chat, survey or video")
	return cmd
}

// =============================================================================
// CREATE / UPDATE / DELETE
// =============================================================================

func newCreateCmd(e *env, kind api.Kind) *cobra.Command {
	var template bool
	var files []string
	cmd := &cobra.Command{
		Use:   "create [draft.toml]",
		Short: fmt.Sprintf("Create a %s assistant from a draft file", kindLabel(kind)),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if template {
				out, err := assistant.Template(kind)
				if err != nil {
					return err
				}
				fmt.Fprint(e.stdout, out)
				return nil
			}
			if len(args) == 0 {
				return &ValidationError{Field: "draft", Reason: "a draft file is required", Example: "ragdesk configs create --template > bot.toml"}
			}

			d, err := assistant.Load(args[0], kind)
			if err != nil {
				return err
			}
			assistant.AddFiles(d, files...)
			if err := d.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}
			res, err := e.createAssistant(ctx, d)
			if err != nil {
				return err
			}
			e.logger.Info("assistant created", zap.String("kind", string(kind)), zap.String("config_id", res.Data.ID))
			return e.emit(cmd.CommandPath(), res, func() {
				fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), res.Message)
				if res.Data.ID != "" {
					fmt.Fprintln(e.stdout, RenderField("ID", res.Data.ID))
				}
			})
		},
	}
	cmd.Flags().BoolVar(&template, "template", false, "print an empty draft and exit")
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "knowledge-base file to upload (repeatable)")
	return cmd
}

func (e *env) createAssistant(ctx context.Context, d assistant.Draft) (*api.SaveResult, error) {
	uploads := assistant.Uploads(d)
	switch d.Kind() {
	case api.KindSurvey:
		return e.client.CreateSurveyConfig(ctx, d.Document(), uploads)
	case api.KindVideo:
		return e.client.CreateVideoConfig(ctx, d.Document(), uploads)
	default:
		return e.client.CreateConfig(ctx, d.Document(), uploads)
	}
}

type updateFlags struct {
	draft       string
	name        string
	model       string
	temperature float64
	public      bool
	private     bool
	files       []string
}

func newUpdateCmd(e *env) *cobra.Command {
	var f updateFlags
	cmd := &cobra.Command{
		Use:   "update <configId>",
		Short: "Edit a chat assistant and append knowledge-base files",
		Long: `Edit a chat assistant. Settings start from the stored assistant, or
from --from when a draft is given; flags override either.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if f.public && f.private {
				return &ValidationError{Field: "visibility", Reason: "--public and --private are exclusive"}
			}
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}

			d, err := e.updateDraft(ctx, args[0], f, cmd)
			if err != nil {
				return err
			}
			if err := d.Validate(); err != nil {
				return err
			}
			msg, err := e.client.UpdateConfig(ctx, args[0], d.Update(), assistant.Uploads(d))
			if err != nil {
				return err
			}
			return e.emit("configs update", map[string]string{"config_id": args[0], "message": msg}, func() {
				fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), msg)
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.draft, "from", "", "draft file with the new settings")
	fl.StringVar(&f.name, "name", "", "new display name")
	fl.StringVar(&f.model, "model", "", "new model")
	fl.Float64Var(&f.temperature, "temperature", 0, "new sampling temperature")
	fl.BoolVar(&f.public, "public", false, "make the assistant public")
	fl.BoolVar(&f.private, "private", false, "make the assistant private")
	fl.StringArrayVarP(&f.files, "file", "f", nil, "knowledge-base file to append (repeatable)")
	return cmd
}

func (e *env) updateDraft(ctx context.Context, id string, f updateFlags, cmd *cobra.Command) (*assistant.ChatDraft, error) {
	var d *assistant.ChatDraft
	if f.draft != "" {
		loaded, err := assistant.Load(f.draft, api.KindChat)
		if err != nil {
			return nil, err
		}
		d = loaded.(*assistant.ChatDraft)
	} else {
		a, err := e.client.GetConfig(ctx, id)
		if err != nil {
			return nil, err
		}
		d = assistant.ChatDraftFrom(a)
	}

	if f.name != "" {
		d.BotName = f.name
	}
	if f.model != "" {
		d.ModelName = f.model
	}
	if cmd.Flags().Changed("temperature") {
		d.Temperature = f.temperature
	}
	if f.public {
		d.IsPublic = true
	}
	if f.private {
		d.IsPublic = false
	}
	assistant.AddFiles(d, f.files...)
	return d, nil
}

func newDeleteCmd(e *env) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <configId>",
		Short: "Delete a chat assistant with its sessions and documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}
			if err := e.RequireConfirmation(yes, "delete assistant "+args[0]); err != nil {
				return err
			}
			msg, err := e.client.DeleteConfig(ctx, args[0])
			if err != nil {
				return err
			}
			return e.emit("configs delete", map[string]string{"config_id": args[0], "message": msg}, func() {
				fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), msg)
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

// =============================================================================
// SHARE
// =============================================================================

func newShareCmd(e *env) *cobra.Command {
	var kindFlag string
	var noCopy bool
	cmd := &cobra.Command{
		Use:   "share <configId>",
		Short: "Copy a public assistant's link to the clipboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(kindFlag)
			if err != nil {
				return err
			}
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			a, err := e.getAssistant(cmd.Context(), kind, args[0])
			if err != nil {
				return err
			}
			if a.ID == "" {
				a.ID = args[0]
			}
			if a.ConfigType == "" && kind != api.KindChat {
				a.ConfigType = string(kind)
			}
			url, err := assistant.ShareURL(e.cfg.API.WebURL, a)
			if err != nil {
				return err
			}

			copied := false
			if !noCopy {
				if err := e.clipboard(url); err != nil {
					e.logger.Warn("clipboard unavailable", zap.Error(err))
				} else {
					copied = true
				}
			}
			return e.emit("share", map[string]interface{}{"url": url, "copied": copied}, func() {
				fmt.Fprintln(e.stdout, url)
				if copied {
					fmt.Fprintln(e.stderr, DimStyle.Render("Copied URL to clipboard."))
				}
			})
		},
	}
	cmd.Flags().StringVarP(&kindFlag, "kind", "k", "chat", "assistant family: chat or survey")
	cmd.Flags().BoolVar(&noCopy, "no-copy", false, "print the link without touching the clipboard")
	return cmd
}
