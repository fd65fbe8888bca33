// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"errors"
	"fmt"
	"strings"

	convo "github.com/jeranaias/ragdesk/internal/chat"
)

// ErrUnknownRoute is returned by ParseRoute for paths no screen serves.
var ErrUnknownRoute = errors.New("unknown route")

// Screen identifies a top-level screen.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenConfigs
	ScreenChat
	ScreenSurvey
	ScreenVideo
)

// String returns the screen name.
func (s Screen) String() string {
	switch s {
	case ScreenLogin:
		return "login"
	case ScreenConfigs:
		return "configs"
	case ScreenChat:
		return "chat"
	case ScreenSurvey:
		return "survey"
	case ScreenVideo:
		return "video"
	default:
		return "unknown"
	}
}

// Route is a screen plus the ids it is bound to.
type Route struct {
	Screen   Screen
	ConfigID string
	ChatID   string
}

// Gated reports whether the route is keyed by an assistant and goes
// through a visibility gate.
func (r Route) Gated() bool {
	return r.Screen == ScreenChat || r.Screen == ScreenSurvey || r.Screen == ScreenVideo
}

// Protected reports whether the route needs a session token regardless of
// any resource.
func (r Route) Protected() bool {
	return r.Screen == ScreenConfigs
}

// Mode returns the conversation mode of a chat or survey route.
func (r Route) Mode() convo.Mode {
	if r.Screen == ScreenSurvey {
		return convo.ModeSurvey
	}
	return convo.ModeChat
}

// Path renders the route the way the web app spells it.
func (r Route) Path() string {
	switch r.Screen {
	case ScreenLogin:
		return "/login"
	case ScreenConfigs:
		return "/config_list"
	case ScreenChat:
		return joinPath("/chat", r.ConfigID, r.ChatID)
	case ScreenSurvey:
		return joinPath("/survey-chat", r.ConfigID, r.ChatID)
	case ScreenVideo:
		return joinPath("/video", r.ConfigID, "")
	default:
		return "/"
	}
}

func joinPath(base, configID, chatID string) string {
	p := base + "/" + configID
	if chatID != "" {
		p += "/" + chatID
	}
	return p
}

// RouteFor returns the conversation route for mode.
func RouteFor(mode convo.Mode, configID, chatID string) Route {
	s := ScreenChat
	if mode == convo.ModeSurvey {
		s = ScreenSurvey
	}
	return Route{Screen: s, ConfigID: configID, ChatID: chatID}
}

// ParseRoute parses a web-style path such as "/chat/<configId>/<chatId>".
// "/" and "" map to the assistant list.
func ParseRoute(path string) (Route, error) {
	parts := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(parts) == 0 {
		return Route{Screen: ScreenConfigs}, nil
	}

	var r Route
	switch parts[0] {
	case "login":
		r.Screen = ScreenLogin
	case "config_list", "configs":
		r.Screen = ScreenConfigs
	case "chat":
		r.Screen = ScreenChat
	case "survey-chat", "survey":
		r.Screen = ScreenSurvey
	case "video":
		r.Screen = ScreenVideo
	default:
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	}

	rest := parts[1:]
	switch {
	case !r.Gated():
		if len(rest) > 0 {
			return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
		}
	case len(rest) == 0:
		return Route{}, fmt.Errorf("%w: %s needs an assistant id", ErrUnknownRoute, path)
	case len(rest) > 2, r.Screen == ScreenVideo && len(rest) > 1:
		return Route{}, fmt.Errorf("%w: %s", ErrUnknownRoute, path)
	default:
		r.ConfigID = rest[0]
		if len(rest) == 2 {
			r.ChatID = rest[1]
		}
	}
	return r, nil
}
