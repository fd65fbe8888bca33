// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/util"
)

// emit writes data as a JSON envelope in JSON mode, otherwise calls human.
func (e *env) emit(command string, data interface{}, human func()) error {
	if e.flags.json {
		return NewJSONResponse(command, data).Write(e.stdout)
	}
	human()
	return nil
}

// formatTime renders a timestamp in local time, or "-" when unknown.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// kindLabel is the short family name shown in listings.
func kindLabel(k api.Kind) string {
	if k == api.KindVideo {
		return "video"
	}
	return string(k)
}

// visibility renders an assistant's public flag.
func visibility(public bool) string {
	if public {
		return "public"
	}
	return "private"
}

// printAssistants writes one row per assistant.
func (e *env) printAssistants(items []api.Assistant) {
	if len(items) == 0 {
		fmt.Fprintln(e.stdout, DimStyle.Render("No assistants yet."))
		return
	}
	for _, a := range items {
		fmt.Fprintf(e.stdout, "%s  %s  %s  %s  %s\n",
			util.PadWidth(a.ID, 24),
			util.PadWidth(util.TruncateWidth(a.BotName, 28), 28),
			util.PadWidth(kindLabel(a.Kind()), 6),
			util.PadWidth(visibility(a.IsPublic), 7),
			DimStyle.Render(a.Model()))
	}
}

// printAssistant writes one assistant's settings.
func (e *env) printAssistant(a *api.Assistant) {
	fmt.Fprintln(e.stdout, TitleStyle.Render(a.BotName))
	fmt.Fprintln(e.stdout, RenderField("ID", a.ID))
	fmt.Fprintln(e.stdout, RenderField("Kind", kindLabel(a.Kind())))
	fmt.Fprintln(e.stdout, RenderField("Visibility", visibility(a.IsPublic)))
	if m := a.Model(); m != "" {
		fmt.Fprintln(e.stdout, RenderField("Model", m))
	}
	if a.CollectionName != "" {
		fmt.Fprintln(e.stdout, RenderField("Collection", a.CollectionName))
	}
	switch a.Kind() {
	case api.KindChat:
		fmt.Fprintln(e.stdout, RenderField("Temperature", fmt.Sprintf("%g", a.Temperature)))
	case api.KindSurvey:
		fmt.Fprintln(e.stdout, RenderField("Purpose", a.SurveyPurpose))
		fmt.Fprintln(e.stdout, RenderField("Audience", a.TargetAudience))
	case api.KindVideo:
		fmt.Fprintln(e.stdout, RenderField("Mode", a.Mode))
		fmt.Fprintln(e.stdout, RenderField("Duration", fmt.Sprintf("%ds", a.Duration)))
	}
	for _, d := range a.Documents {
		fmt.Fprintln(e.stdout, RenderField("Document", d))
	}
	if a.Instructions != "" {
		fmt.Fprintln(e.stdout)
		fmt.Fprintln(e.stdout, WrapText(a.Instructions, 0))
	}
}
