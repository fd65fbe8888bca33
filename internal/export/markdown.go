// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jeranaias/ragdesk/internal/model"
)

// =============================================================================
// MARKDOWN EXPORTER
// =============================================================================

// MarkdownExporter exports conversations to Markdown.
type MarkdownExporter struct {
	options *Options
}

// NewMarkdownExporter creates a new Markdown exporter.
func NewMarkdownExporter(opts *Options) *MarkdownExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &MarkdownExporter{options: opts}
}

// Export converts a conversation to Markdown.
func (e *MarkdownExporter) Export(conv *Conversation) ([]byte, error) {
	if conv == nil {
		return nil, errors.New("conversation is nil")
	}
	msgs := conv.settled()
	if len(msgs) == 0 {
		return nil, ErrEmpty
	}

	var sb strings.Builder
	now := e.options.now()

	if e.options.IncludeMetadata {
		sb.WriteString("---\n")
		fmt.Fprintf(&sb, "title: %s\n", escapeYAML(conv.Title()))
		fmt.Fprintf(&sb, "mode: %s\n", conv.Mode)
		if conv.ChatID != "" {
			fmt.Fprintf(&sb, "chat_id: %s\n", escapeYAML(conv.ChatID))
		}
		if conv.ConfigID != "" {
			fmt.Fprintf(&sb, "config_id: %s\n", escapeYAML(conv.ConfigID))
		}
		if conv.Model != "" {
			fmt.Fprintf(&sb, "model: %s\n", escapeYAML(conv.Model))
		}
		fmt.Fprintf(&sb, "messages: %d\n", len(msgs))
		fmt.Fprintf(&sb, "exported: %s\n", now.Format(time.RFC3339))
		sb.WriteString("generator: ragdesk\n")
		sb.WriteString("---\n\n")
	}

	fmt.Fprintf(&sb, "# %s\n\n", escapeMarkdown(conv.Title()))

	if e.options.IncludeMetadata {
		sb.WriteString("## Session Information\n\n")
		fmt.Fprintf(&sb, "- **Mode**: %s\n", conv.Mode)
		if conv.Model != "" {
			fmt.Fprintf(&sb, "- **Model**: %s\n", conv.Model)
		}
		if first := msgs[0].Timestamp; !first.IsZero() {
			fmt.Fprintf(&sb, "- **Started**: %s\n", formatTimestamp(first))
		}
		fmt.Fprintf(&sb, "- **Messages**: %d\n", len(msgs))
		sb.WriteString("\n---\n\n")
	}

	sb.WriteString("## Conversation\n\n")
	for i, msg := range msgs {
		label := roleLabel(msg)
		if e.options.IncludeTimestamps && !msg.Timestamp.IsZero() {
			fmt.Fprintf(&sb, "### %s <sub>%s</sub>\n\n", label, formatShortTimestamp(msg.Timestamp))
		} else {
			fmt.Fprintf(&sb, "### %s\n\n", label)
		}

		sb.WriteString(messageBody(msg))
		sb.WriteString("\n\n")

		if i < len(msgs)-1 {
			sb.WriteString("---\n\n")
		}
	}

	sb.WriteString("\n---\n\n")
	fmt.Fprintf(&sb, "*Exported from ragdesk on %s*\n", now.Format("January 2, 2006 at 3:04 PM"))

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for Markdown.
func (e *MarkdownExporter) FileExtension() string {
	return ".md"
}

// =============================================================================
// FORMATTING HELPERS
// =============================================================================

func roleLabel(m *model.Message) string {
	switch {
	case m.IsUser():
		return "[You]"
	case m.Question != nil:
		return "[Question]"
	default:
		return "[Assistant]"
	}
}

// messageBody renders the text plus question options, media and sources.
func messageBody(m *model.Message) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(m.Text))

	if q := m.Question; q != nil {
		choices := q.Choices()
		if len(choices) > 0 {
			sb.WriteString("\n")
		}
		for i := range choices {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, q.ChoiceLabel(i))
		}
		if !m.Answered {
			sb.WriteString("\n\n*Unanswered*")
		}
	}

	if len(m.Media) > 0 {
		sb.WriteString("\n")
		for _, att := range m.Media {
			if att.Kind == model.AttachmentImage {
				fmt.Fprintf(&sb, "\n![image](%s)", att.URL)
			} else {
				fmt.Fprintf(&sb, "\n[%s](%s)", att.Kind, att.URL)
			}
		}
	}

	if len(m.Sources) > 0 {
		sb.WriteString("\n\n**Sources**\n")
		for i, src := range m.Sources {
			fmt.Fprintf(&sb, "\n%d. %s", i+1, escapeMarkdown(src.Label))
		}
	}
	return sb.String()
}

// =============================================================================
// ESCAPING HELPERS
// =============================================================================

// escapeMarkdown escapes characters that would break a heading.
func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "#", "\\#")
	s = strings.ReplaceAll(s, "*", "\\*")
	s = strings.ReplaceAll(s, "_", "\\_")
	s = strings.ReplaceAll(s, "[", "\\[")
	s = strings.ReplaceAll(s, "]", "\\]")
	return s
}

// escapeYAML quotes values carrying YAML syntax.
func escapeYAML(s string) string {
	if strings.ContainsAny(s, ":#|>@`\"'[]{}!%&*\n\r\\") || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		s = strings.ReplaceAll(s, "\\", "\\\\")
		s = strings.ReplaceAll(s, "\"", "\\\"")
		s = strings.ReplaceAll(s, "\n", "\\n")
		s = strings.ReplaceAll(s, "\r", "\\r")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
