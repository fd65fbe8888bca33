// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
)

// Sentinel errors. Every *Error unwraps to one of these (or to none for
// statuses without a dedicated sentinel), so callers branch with errors.Is.
var (
	// ErrUnauthorized means the request needs a (valid) session token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the token is valid but not allowed here.
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound means the resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict means the resource already exists (duplicate username,
	// email already verified).
	ErrConflict = errors.New("conflict")

	// ErrBadRequest means the server rejected the request body.
	ErrBadRequest = errors.New("bad request")

	// ErrRateLimited means the server asked us to slow down.
	ErrRateLimited = errors.New("rate limited")

	// ErrServer covers 5xx responses.
	ErrServer = errors.New("server error")

	// ErrMalformed means a 2xx response body did not have the expected
	// shape. It is never retried.
	ErrMalformed = errors.New("malformed response")
)

// Error is a non-2xx response from the platform.
type Error struct {
	Status  int
	Message string
	kind    error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform error (HTTP %d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("platform error (HTTP %d)", e.Status)
}

// Unwrap returns the sentinel for the status class.
func (e *Error) Unwrap() error {
	return e.kind
}

// errorBody covers both shapes the backend uses: {"message": ...} and
// {"error": ...}. Some responses carry both; message is the more specific.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// handleErrorResponse converts a non-2xx response into an *Error.
func handleErrorResponse(status int, body []byte) error {
	e := &Error{Status: status, kind: statusKind(status)}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		e.Message = eb.Message
		if e.Message == "" {
			e.Message = eb.Error
		}
	} else if len(body) > 0 && len(body) < 512 {
		e.Message = strings.TrimSpace(string(body))
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

func statusKind(status int) error {
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusForbidden:
		return ErrForbidden
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusConflict:
		return ErrConflict
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status >= 500:
		return ErrServer
	case status >= 400:
		return ErrBadRequest
	default:
		return nil
	}
}

// malformed wraps a decode failure.
func malformed(what string, err error) error {
	if err == nil {
		return fmt.Errorf("%w: %s", ErrMalformed, what)
	}
	return fmt.Errorf("%w: %s: %v", ErrMalformed, what, err)
}

// IsTransient reports whether err is worth retrying from the UI: network
// failures, timeouts, rate limiting and 5xx. Cancellation is not transient.
func IsTransient(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrServer) || errors.Is(err, ErrRateLimited) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// Describe returns a short human message for err, suitable for an inline
// error line.
func Describe(err error) string {
	var apiErr *Error
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnauthorized):
		return "Authentication required. Please log in."
	case errors.Is(err, ErrForbidden):
		return "You do not have access to this assistant."
	case errors.Is(err, ErrNotFound):
		return "Not found."
	case errors.Is(err, ErrMalformed):
		return "The server sent an unexpected response."
	case errors.As(err, &apiErr):
		return apiErr.Message
	case IsTransient(err):
		return "Network error. Check your connection and try again."
	default:
		return err.Error()
	}
}
