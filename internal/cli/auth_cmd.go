// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth_cmd.go - Session and account commands.
//
// Examples:
//   ragdesk login                      Prompt for username and password
//   ragdesk login -u alice             Prompt for the password only
//   ragdesk whoami --json              Current account as JSON
//   ragdesk register -u bob -e b@x.io  Create an account
//   ragdesk verify-email <token>       Activate an account

package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/ragdesk/internal/api"
)

var errPasswordMismatch = errors.New("passwords do not match")

// =============================================================================
// LOGIN / LOGOUT
// =============================================================================

func newLoginCmd(e *env) *cobra.Command {
	var username string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := e.open(ctx); err != nil {
				return err
			}
			creds, err := e.credentials(username)
			if err != nil {
				return err
			}
			if err := e.manager.Login(ctx, creds); err != nil {
				return err
			}

			user := &api.User{Username: creds.Username}
			if u, err := e.manager.WhoAmI(ctx); err == nil {
				user = u
			} else {
				e.logger.Debug("whoami after login failed", zap.Error(err))
			}
			return e.emit("login", user, func() {
				fmt.Fprintf(e.stdout, "%s Logged in as %s\n", SuccessStyle.Render("ok"), user.Username)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	return cmd
}

// credentials prompts for whatever was not given on the command line.
func (e *env) credentials(username string) (api.Credentials, error) {
	var err error
	if username == "" {
		if username, err = e.promptInput("Username", ""); err != nil {
			return api.Credentials{}, err
		}
	}
	password, err := e.readPassword("Password: ")
	if err != nil {
		return api.Credentials{}, err
	}
	if strings.TrimSpace(username) == "" || password == "" {
		return api.Credentials{}, &ValidationError{Field: "credentials", Reason: "username and password are required"}
	}
	return api.Credentials{Username: strings.TrimSpace(username), Password: password}, nil
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			if err := e.manager.Logout(cmd.Context()); err != nil {
				return err
			}
			return e.emit("logout", nil, func() {
				fmt.Fprintln(e.stdout, "Logged out.")
			})
		},
	}
}

func newWhoAmICmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			if err := e.requireLogin(); err != nil {
				return err
			}
			u, err := e.manager.WhoAmI(cmd.Context())
			if err != nil {
				return err
			}
			return e.emit("whoami", u, func() {
				fmt.Fprintln(e.stdout, RenderField("Username", u.Username))
				if u.Email != "" {
					fmt.Fprintln(e.stdout, RenderField("Email", u.Email))
				}
				fmt.Fprintln(e.stdout, RenderField("Server", e.cfg.API.BaseURL))
			})
		},
	}
}

// =============================================================================
// ACCOUNT
// =============================================================================

func newRegisterCmd(e *env) *cobra.Command {
	var username, email string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a verification mail follows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			reg, err := e.registration(username, email)
			if err != nil {
				return err
			}
			msg, err := e.client.Register(cmd.Context(), reg)
			if err != nil {
				return err
			}
			return e.emit("register", map[string]string{"message": msg}, func() {
				fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), msg)
			})
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "account username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "email address for verification")
	return cmd
}

func (e *env) registration(username, email string) (api.Registration, error) {
	var err error
	if username == "" {
		if username, err = e.promptInput("Username", ""); err != nil {
			return api.Registration{}, err
		}
	}
	if email == "" {
		if email, err = e.promptInput("Email", ""); err != nil {
			return api.Registration{}, err
		}
	}
	password, err := e.readPassword("Password: ")
	if err != nil {
		return api.Registration{}, err
	}
	again, err := e.readPassword("Confirm password: ")
	if err != nil {
		return api.Registration{}, err
	}
	if password != again {
		return api.Registration{}, errPasswordMismatch
	}

	reg := api.Registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
	}
	switch {
	case reg.Username == "":
		return reg, &ValidationError{Field: "username", Reason: "required"}
	case !strings.Contains(reg.Email, "@"):
		return reg, &ValidationError{Field: "email", Value: reg.Email, Reason: "not an email address"}
	case reg.Password == "":
		return reg, &ValidationError{Field: "password", Reason: "required"}
	}
	return reg, nil
}

func newVerifyEmailCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "verify-email <token>",
		Short: "Activate an account with the token from the verification mail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.open(cmd.Context()); err != nil {
				return err
			}
			msg, err := e.client.VerifyEmail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return e.emit("verify-email", map[string]string{"message": msg}, func() {
				fmt.Fprintf(e.stdout, "%s %s\n", SuccessStyle.Render("ok"), msg)
			})
		},
	}
}
