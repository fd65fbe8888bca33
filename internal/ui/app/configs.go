// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/assistant"
	"github.com/jeranaias/ragdesk/internal/ui/components"
	"github.com/jeranaias/ragdesk/internal/ui/styles"
	"github.com/jeranaias/ragdesk/internal/util"
)

// Lister is the part of the API client the assistant list needs.
type Lister interface {
	ListConfigs(ctx context.Context) ([]api.Assistant, error)
	ListSurveyConfigs(ctx context.Context) ([]api.Assistant, error)
	ListVideoConfigs(ctx context.Context) ([]api.Assistant, error)
}

var _ Lister = (*api.Client)(nil)

// LoadAssistants fetches the three assistant families concurrently and
// returns them chat first, then survey, then video. A family the account
// may not list (403/404) is treated as empty; any other failure fails
// the whole load.
func LoadAssistants(ctx context.Context, l Lister, logger *zap.Logger) ([]api.Assistant, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	type family struct {
		kind api.Kind
		list func(context.Context) ([]api.Assistant, error)
		out  []api.Assistant
	}
	families := []*family{
		{kind: api.KindChat, list: l.ListConfigs},
		{kind: api.KindSurvey, list: l.ListSurveyConfigs},
		{kind: api.KindVideo, list: l.ListVideoConfigs},
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, f := range families {
		f := f
		g.Go(func() error {
			items, err := f.list(gctx)
			if err != nil {
				if f.kind != api.KindChat &&
					(errors.Is(err, api.ErrForbidden) || errors.Is(err, api.ErrNotFound)) {
					logger.Debug("assistant family not listable",
						zap.String("kind", string(f.kind)), zap.Error(err))
					return nil
				}
				return fmt.Errorf("failed to list %s assistants: %w", f.kind, err)
			}
			for i := range items {
				if items[i].ConfigType == "" && f.kind != api.KindChat {
					items[i].ConfigType = string(f.kind)
				}
			}
			f.out = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []api.Assistant
	for _, f := range families {
		all = append(all, f.out...)
	}
	return all, nil
}

// =============================================================================
// ASSISTANT LIST
// =============================================================================

// ConfigList is the signed-in user's assistant list.
type ConfigList struct {
	theme  *styles.Theme
	keys   KeyMap
	webURL string

	items   []api.Assistant
	cursor  int
	loading bool
	err     error
	gen     util.Generation

	width  int
	height int
}

// NewConfigList creates an empty list.
func NewConfigList(theme *styles.Theme, keys KeyMap, webURL string) *ConfigList {
	return &ConfigList{theme: theme, keys: keys, webURL: webURL}
}

// SetSize sets the list area.
func (c *ConfigList) SetSize(w, h int) {
	c.width, c.height = w, h
}

// Items returns the loaded assistants.
func (c *ConfigList) Items() []api.Assistant {
	return c.items
}

// Loading reports whether a load is outstanding.
func (c *ConfigList) Loading() bool {
	return c.loading
}

// Err returns the last load error.
func (c *ConfigList) Err() error {
	return c.err
}

// Selected returns the assistant under the cursor.
func (c *ConfigList) Selected() *api.Assistant {
	if c.cursor < 0 || c.cursor >= len(c.items) {
		return nil
	}
	a := c.items[c.cursor]
	return &a
}

// Load starts a fetch; results of earlier fetches are dropped.
func (c *ConfigList) Load(ctx context.Context, l Lister, logger *zap.Logger) tea.Cmd {
	stamp := c.gen.Next()
	c.loading = true
	return func() tea.Msg {
		items, err := LoadAssistants(ctx, l, logger)
		return ConfigsMsg{Stamp: stamp, Items: items, Err: err}
	}
}

// Apply records a finished fetch and reports whether it was current.
func (c *ConfigList) Apply(msg ConfigsMsg) bool {
	if !c.gen.IsCurrent(msg.Stamp) {
		return false
	}
	c.loading = false
	c.err = msg.Err
	if msg.Err == nil {
		c.items = msg.Items
	}
	if c.cursor >= len(c.items) {
		c.cursor = max(len(c.items)-1, 0)
	}
	return true
}

// Invalidate drops any outstanding fetch.
func (c *ConfigList) Invalidate() {
	c.gen.Next()
	c.loading = false
}

// Clear forgets the list, as after logout.
func (c *ConfigList) Clear() {
	c.Invalidate()
	c.items = nil
	c.cursor = 0
	c.err = nil
}

// RouteFor returns the screen an assistant opens in.
func (c *ConfigList) RouteFor(a *api.Assistant) Route {
	switch a.Kind() {
	case api.KindSurvey:
		return Route{Screen: ScreenSurvey, ConfigID: a.ID}
	case api.KindVideo:
		return Route{Screen: ScreenVideo, ConfigID: a.ID}
	default:
		return Route{Screen: ScreenChat, ConfigID: a.ID}
	}
}

// Share copies the selected assistant's public link with copyFn.
func (c *ConfigList) Share(copyFn func(string) error) tea.Cmd {
	a := c.Selected()
	if a == nil {
		return nil
	}
	link, err := assistant.ShareURL(c.webURL, a)
	if err != nil {
		return func() tea.Msg { return ShareMsg{Err: err} }
	}
	return func() tea.Msg {
		if copyFn == nil {
			return ShareMsg{URL: link}
		}
		if err := copyFn(link); err != nil {
			return ShareMsg{URL: link, Err: fmt.Errorf("failed to copy link: %w", err)}
		}
		return ShareMsg{URL: link}
	}
}

// Update moves the cursor and opens assistants. Share, refresh and logout
// are handled by the root model.
func (c *ConfigList) Update(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, c.keys.Up):
		if c.cursor > 0 {
			c.cursor--
		}
	case key.Matches(msg, c.keys.Down):
		if c.cursor < len(c.items)-1 {
			c.cursor++
		}
	case key.Matches(msg, c.keys.Open):
		if a := c.Selected(); a != nil {
			r := c.RouteFor(a)
			return func() tea.Msg { return NavigateMsg{Route: r} }
		}
	}
	return nil
}

// View renders the list.
func (c *ConfigList) View() string {
	lines := []string{c.theme.HeaderTitle.Render("Your assistants"), ""}
	switch {
	case c.err != nil && len(c.items) == 0:
		lines = append(lines, c.theme.ErrorTitle.Render("Could not load assistants"),
			api.Describe(c.err), "", c.theme.ShortcutDesc.Render("r to retry"))
		return strings.Join(lines, "\n")
	case c.loading && len(c.items) == 0:
		return strings.Join(append(lines, c.theme.ThinkingText.Render("Loading assistants...")), "\n")
	case len(c.items) == 0:
		lines = append(lines, c.theme.ThinkingText.Render("No assistants yet."),
			c.theme.ShortcutDesc.Render("Create one with `ragdesk configs create`."))
		return strings.Join(lines, "\n")
	}

	nameWidth := max(c.width-36, 12)
	for i, a := range c.items {
		name := a.BotName
		if name == "" {
			name = a.ID
		}
		row := util.PadWidth(util.TruncateWidth(name, nameWidth), nameWidth) + "  " +
			util.PadWidth(kindLabel(a.Kind()), 8) + "  " +
			util.PadWidth(util.TruncateWidth(a.Model(), 14), 14) + "  " +
			components.Badge(c.theme, a.IsPublic)
		if i == c.cursor {
			lines = append(lines, c.theme.ListItemSelected.Render(row))
		} else {
			lines = append(lines, c.theme.ListItem.Render(row))
		}
	}
	return strings.Join(lines, "\n")
}

func kindLabel(k api.Kind) string {
	switch k {
	case api.KindSurvey:
		return "survey"
	case api.KindVideo:
		return "video"
	default:
		return "chat"
	}
}
