// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/survey"
)

// attachments converts API media into transcript attachments, dropping
// entries without a URL.
func attachments(media []api.Media) []model.Attachment {
	if len(media) == 0 {
		return nil
	}
	out := make([]model.Attachment, 0, len(media))
	for _, m := range media {
		if m.URL == "" {
			continue
		}
		kind := model.AttachmentImage
		if m.Type == api.MediaVideo {
			kind = model.AttachmentVideo
		}
		out = append(out, model.Attachment{URL: m.URL, Kind: kind})
	}
	return out
}

func sources(src []api.Source) []model.Source {
	if len(src) == 0 {
		return nil
	}
	out := make([]model.Source, 0, len(src))
	for _, s := range src {
		out = append(out, model.Source{Label: s.Label(), Excerpt: s.Content})
	}
	return out
}

// replyMessage turns a reply into a transcript message. In survey mode a
// reply that parses as a question becomes a question message.
func replyMessage(mode Mode, text string, src []api.Source, media []api.Media) *model.Message {
	if mode == ModeSurvey {
		if q, ok := survey.Parse(text); ok {
			return model.NewQuestionMessage(q)
		}
	}
	m := model.NewAssistantMessage(text, attachments(media))
	m.Sources = sources(src)
	return m
}

// FromHistory maps stored history onto transcript messages. In survey
// mode, questions followed by a user message are marked answered.
func FromHistory(mode Mode, entries []api.HistoryEntry) []*model.Message {
	out := make([]*model.Message, 0, len(entries))
	for _, e := range entries {
		text := string(e.Data.Content)
		if e.IsHuman() {
			if n := len(out); n > 0 && out[n-1].Question != nil {
				out[n-1].Answered = true
			}
			out = append(out, model.NewUserMessage(text))
			continue
		}
		out = append(out, replyMessage(mode, text, e.AllSources(), e.Data.AdditionalKwargs.Media))
	}
	return out
}
