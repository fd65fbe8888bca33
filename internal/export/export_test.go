// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragdesk/internal/model"
	"github.com/jeranaias/ragdesk/internal/survey"
)

var fixedNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func sampleConversation() *Conversation {
	q := &survey.Question{Type: survey.MultipleChoice, Text: "Favourite colour?", Options: []string{"Red", "Blue"}}
	asked := model.NewQuestionMessage(q)
	asked.Answered = true

	reply := model.NewAssistantMessage("Blue it is.", []model.Attachment{{URL: "https://cdn.example/a.png", Kind: model.AttachmentImage}})
	reply.Sources = []model.Source{{Label: "handbook.pdf"}}

	return &Conversation{
		ChatID:    "9b2e",
		ConfigID:  "65f0",
		Assistant: "Helper",
		Mode:      "survey",
		Messages: []*model.Message{
			asked,
			model.NewUserMessage("Blue"),
			reply,
			model.NewTypingMessage(),
		},
	}
}

func testOptions(dir string) *Options {
	opts := DefaultOptions()
	opts.OutputDir = dir
	opts.Now = func() time.Time { return fixedNow }
	return opts
}

func TestMarkdownExport(t *testing.T) {
	out, err := NewMarkdownExporter(testOptions("")).Export(sampleConversation())
	require.NoError(t, err)
	md := string(out)

	assert.True(t, strings.HasPrefix(md, "---\ntitle: Helper\nmode: survey\n"))
	assert.Contains(t, md, "messages: 3\n", "typing placeholder is skipped")
	assert.Contains(t, md, "### [Question]")
	assert.Contains(t, md, "1. Red\n2. Blue")
	assert.NotContains(t, md, "*Unanswered*")
	assert.Contains(t, md, "![image](https://cdn.example/a.png)")
	assert.Contains(t, md, "1. handbook.pdf")
	assert.Contains(t, md, "*Exported from ragdesk on March 14, 2025 at 9:26 AM*")
}

func TestMarkdownExportWithoutMetadata(t *testing.T) {
	opts := testOptions("")
	opts.IncludeMetadata = false
	opts.IncludeTimestamps = false

	out, err := NewMarkdownExporter(opts).Export(sampleConversation())
	require.NoError(t, err)
	md := string(out)
	assert.True(t, strings.HasPrefix(md, "# Helper\n"))
	assert.NotContains(t, md, "Session Information")
	assert.Contains(t, md, "### [You]\n\nBlue")
}

func TestYAMLValuesAreQuoted(t *testing.T) {
	conv := sampleConversation()
	conv.Assistant = "Test\nInjection: malicious"

	out, err := NewMarkdownExporter(testOptions("")).Export(conv)
	require.NoError(t, err)
	assert.Contains(t, string(out), `title: "Test\nInjection: malicious"`)
}

func TestJSONExportSkipsTyping(t *testing.T) {
	out, err := NewJSONExporter().Export(sampleConversation())
	require.NoError(t, err)

	var got Conversation
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "9b2e", got.ChatID)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "Favourite colour?", got.Messages[0].Question.Text)
}

func TestEmptyConversation(t *testing.T) {
	conv := &Conversation{ChatID: "x", Messages: []*model.Message{model.NewTypingMessage()}}

	_, err := NewMarkdownExporter(nil).Export(conv)
	assert.ErrorIs(t, err, ErrEmpty)
	_, err = NewJSONExporter().Export(conv)
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestExportToFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	opts := testOptions(dir)

	path, err := ExportToFile(sampleConversation(), NewMarkdownExporter(opts), opts)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Helper_9b2e_20250314_092653.md"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Helper")
}

func TestForFormat(t *testing.T) {
	e, err := ForFormat("md", nil)
	require.NoError(t, err)
	assert.Equal(t, ".md", e.FileExtension())

	e, err = ForFormat("JSON", nil)
	require.NoError(t, err)
	assert.Equal(t, ".json", e.FileExtension())

	_, err = ForFormat("html", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"":          "conversation",
		"a/b:c":     "a-b-c",
		"two words": "two_words",
		"tab\there": "tab_here",
		"bell\x07":  "bell-",
	}
	for in, want := range tests {
		assert.Equal(t, want, sanitizeFilename(in), "%q", in)
	}
	assert.Equal(t, strings.Repeat("x", 50), sanitizeFilename(strings.Repeat("x", 60)))
}
