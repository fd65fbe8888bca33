// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// config.go - Local configuration commands.
//
// Examples:
//   ragdesk config show                    Effective settings as TOML
//   ragdesk config get api.base_url
//   ragdesk config set ui.theme light
//   ragdesk config path

package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ragdesk/internal/config"
)

func newConfigCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the local configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration, overrides applied",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.emit("config show", e.cfg, func() {
					fmt.Fprint(e.stdout, e.cfg.String())
				})
			},
		},
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one setting",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.GetAllKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := e.cfg.Get(args[0])
				if err != nil {
					return &ValidationError{Field: "key", Value: args[0], Reason: err.Error()}
				}
				return e.emit("config get", map[string]interface{}{"key": args[0], "value": v}, func() {
					fmt.Fprintln(e.stdout, v)
				})
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Change one setting in the config file",
			Long: `Change one setting in the config file. Keys use dot notation:
` + strings.Join(config.GetAllKeys(), ", "),
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.GetAllKeys(),
			RunE: func(cmd *cobra.Command, args []string) error {
				return e.configSet(args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.ConfigPathTOML()
				if err != nil {
					return err
				}
				_, statErr := os.Stat(path)
				exists := statErr == nil
				return e.emit("config path", map[string]interface{}{"path": path, "exists": exists}, func() {
					fmt.Fprintln(e.stdout, path)
				})
			},
		},
	)
	return cmd
}

// configSet edits the file as written, so environment overrides in effect
// for this run are not persisted.
func (e *env) configSet(key, value string) error {
	path, err := config.ConfigPathTOML()
	if err != nil {
		return err
	}
	cfg := config.Default()
	if _, statErr := os.Stat(path); statErr == nil {
		if err := config.LoadTOML(cfg, path); err != nil {
			return err
		}
	} else if !errors.Is(statErr, os.ErrNotExist) {
		return statErr
	}

	key = strings.ToLower(strings.TrimSpace(key))
	if err := cfg.Set(key, value); err != nil {
		return &ValidationError{Field: "key", Value: key, Reason: err.Error()}
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := config.EnsureConfigDir(); err != nil {
		return err
	}
	if err := config.SaveTOML(cfg, path); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	v, _ := cfg.Get(key)
	return e.emit("config set", map[string]interface{}{"key": key, "value": v}, func() {
		fmt.Fprintf(e.stdout, "%s %s = %v\n", SuccessStyle.Render("ok"), key, v)
	})
}
