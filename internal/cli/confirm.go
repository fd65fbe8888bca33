// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// confirm.go - Confirmation prompts for destructive actions.

package cli

import (
	"errors"
	"fmt"
	"strings"
)

// RequireConfirmation asks before a destructive action. --yes skips the
// prompt; JSON mode never prompts and needs --yes.
func (e *env) RequireConfirmation(yes bool, action string) error {
	if yes {
		return nil
	}
	if e.flags.json {
		return errors.New("confirmation required: pass --yes in JSON mode")
	}
	ok, err := e.PromptYesNo(fmt.Sprintf("Are you sure you want to %s?", action))
	if err != nil {
		return err
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

// PromptYesNo asks a y/N question. Anything but y or yes is no.
func (e *env) PromptYesNo(question string) (bool, error) {
	answer, err := e.readLine(question + " [y/N]: ")
	if err != nil {
		return false, err
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}

// promptInput asks for one line, returning def when the answer is empty.
func (e *env) promptInput(prompt, def string) (string, error) {
	if def != "" {
		prompt = fmt.Sprintf("%s [%s]", prompt, def)
	}
	answer, err := e.readLine(prompt + ": ")
	if err != nil {
		return "", err
	}
	if answer = strings.TrimSpace(answer); answer == "" {
		return def, nil
	}
	return answer, nil
}
