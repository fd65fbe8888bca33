// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// errors.go - Error display and exit codes.
//
// Commands always return errors; Execute displays them once and maps
// them onto an exit code.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/config"
	"github.com/jeranaias/ragdesk/internal/session"
	"github.com/jeranaias/ragdesk/internal/video"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	ExitSuccess       = 0
	ExitGeneralError  = 1
	ExitUsageError    = 2
	ExitConfigError   = 3
	ExitAuthError     = 4
	ExitNetworkError  = 5
	ExitNotFoundError = 7
	ExitTimeoutError  = 8
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ValidationError is a bad argument or flag value.
type ValidationError struct {
	Field   string
	Value   string
	Reason  string
	Example string
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	if e.Value != "" {
		msg += fmt.Sprintf(" (got: %s)", e.Value)
	}
	if e.Example != "" {
		msg += fmt.Sprintf("\nExample: %s", e.Example)
	}
	return msg
}

// ErrCancelled is returned when the user declines a confirmation.
var ErrCancelled = errors.New("cancelled")

// =============================================================================
// DISPLAY
// =============================================================================

// DisplayError writes err to w, as a JSON envelope in JSON mode.
func DisplayError(w io.Writer, command string, err error, jsonMode bool) {
	if err == nil {
		return
	}
	if jsonMode {
		_ = NewJSONErrorResponse(command, err).Write(w)
		return
	}
	fmt.Fprintf(w, "%s %s\n", ErrorStyle.Render("error:"), describeErr(err))
}

// describeErr prefers the API's user-facing wording for server errors.
func describeErr(err error) string {
	var apiErr *api.Error
	if errors.As(err, &apiErr) || errors.Is(err, api.ErrUnauthorized) {
		return api.Describe(err)
	}
	return err.Error()
}

// GetExitCode maps an error onto an exit code.
func GetExitCode(err error) int {
	var validationErr *ValidationError
	var configErrs config.ValidateErrors
	var ttyErr *TTYRequiredError

	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &validationErr), errors.As(err, &ttyErr):
		return ExitUsageError
	case errors.As(err, &configErrs):
		return ExitConfigError
	case errors.Is(err, api.ErrUnauthorized),
		errors.Is(err, api.ErrForbidden),
		errors.Is(err, session.ErrNotLoggedIn):
		return ExitAuthError
	case errors.Is(err, api.ErrNotFound):
		return ExitNotFoundError
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, video.ErrDeadline):
		return ExitTimeoutError
	case api.IsTransient(err):
		return ExitNetworkError
	default:
		return ExitGeneralError
	}
}
