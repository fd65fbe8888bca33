// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/jeranaias/ragdesk/internal/api"
)

// ErrNotPublic is returned when sharing a private assistant.
var ErrNotPublic = errors.New("assistant is private; make it public before sharing")

// ErrNotShareable is returned for kinds that have no public chat page.
var ErrNotShareable = errors.New("video assistants cannot be shared")

// SharePath returns the web route of an assistant's public chat page.
func SharePath(kind api.Kind, configID string) (string, error) {
	id := url.PathEscape(configID)
	switch kind {
	case api.KindChat:
		return "/chat/" + id, nil
	case api.KindSurvey:
		return "/survey-chat/" + id, nil
	default:
		return "", ErrNotShareable
	}
}

// ShareURL builds the link anonymous visitors use to reach a public
// assistant.
func ShareURL(webURL string, a *api.Assistant) (string, error) {
	if a == nil || a.ID == "" {
		return "", errors.New("assistant has no id")
	}
	if !a.IsPublic {
		return "", ErrNotPublic
	}
	path, err := SharePath(a.Kind(), a.ID)
	if err != nil {
		return "", err
	}
	base, err := url.Parse(strings.TrimRight(webURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid web url %q", webURL)
	}
	return base.String() + path, nil
}
