// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"strings"
	"time"
)

// =============================================================================
// ASSISTANT CONFIGURATIONS
// =============================================================================

// Kind distinguishes the three assistant families.
type Kind string

const (
	KindChat   Kind = "chat"
	KindSurvey Kind = "survey"
	KindVideo  Kind = "video_generation"
)

// Assistant is a remote assistant configuration as returned by the
// config, survey_config and video_config endpoints. Fields that only apply
// to one family are zero for the others.
type Assistant struct {
	ID             string   `json:"config_id,omitempty"`
	UserID         string   `json:"user_id,omitempty"`
	ConfigType     string   `json:"config_type,omitempty"`
	BotName        string   `json:"bot_name"`
	ModelName      string   `json:"model_name,omitempty"`
	LLMType        string   `json:"llm_type,omitempty"`
	CollectionName string   `json:"collection_name"`
	Instructions   string   `json:"instructions,omitempty"`
	PromptTemplate string   `json:"prompt_template,omitempty"`
	Temperature    float64  `json:"temperature,omitempty"`
	IsPublic       bool     `json:"is_public"`
	Documents      []string `json:"documents,omitempty"`

	// Survey
	UseAdvancedTemplate bool   `json:"use_advanced_template,omitempty"`
	SurveyPurpose       string `json:"survey_purpose,omitempty"`
	TargetAudience      string `json:"target_audience,omitempty"`
	CreativityRate      int    `json:"creativity_rate,omitempty"`

	// Video
	Mode           string  `json:"mode,omitempty"`
	Duration       int     `json:"duration,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale,omitempty"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
}

// UnmarshalJSON accepts the id under either "config_id" (list endpoints)
// or "_id" (single-resource endpoints).
func (a *Assistant) UnmarshalJSON(data []byte) error {
	type plain Assistant
	aux := struct {
		*plain
		MongoID json.RawMessage `json:"_id"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if a.ID == "" && len(aux.MongoID) > 0 {
		var s string
		if err := json.Unmarshal(aux.MongoID, &s); err == nil {
			a.ID = s
		} else {
			var oid struct {
				OID string `json:"$oid"`
			}
			if err := json.Unmarshal(aux.MongoID, &oid); err == nil {
				a.ID = oid.OID
			}
		}
	}
	return nil
}

// Kind reports which family the assistant belongs to.
func (a Assistant) Kind() Kind {
	switch a.ConfigType {
	case string(KindSurvey):
		return KindSurvey
	case string(KindVideo):
		return KindVideo
	default:
		return KindChat
	}
}

// Model returns whichever model field the family populates.
func (a Assistant) Model() string {
	if a.ModelName != "" {
		return a.ModelName
	}
	return a.LLMType
}

type assistantEnvelope struct {
	Config *Assistant `json:"config"`
}

type assistantList struct {
	Configs []Assistant `json:"configs"`
}

// SaveResult is returned by the create endpoints.
type SaveResult struct {
	Message string    `json:"message"`
	Data    Assistant `json:"data"`
}

// =============================================================================
// CHAT
// =============================================================================

// MediaType is the kind of an attachment on an assistant reply.
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Media is an attachment on an assistant reply.
type Media struct {
	URL  string    `json:"url"`
	Type MediaType `json:"type"`
}

// Source is a retrieval source cited by an assistant reply.
type Source struct {
	Source  string `json:"source,omitempty"`
	Title   string `json:"title,omitempty"`
	Page    int    `json:"page,omitempty"`
	Content string `json:"page_content,omitempty"`
}

// Label returns the most descriptive name available for the source.
func (s Source) Label() string {
	switch {
	case s.Title != "":
		return s.Title
	case s.Source != "":
		return s.Source
	default:
		return "source"
	}
}

// ChatReply is the response to a chat or survey message.
type ChatReply struct {
	Response string   `json:"response"`
	Sources  []Source `json:"sources,omitempty"`
	Media    []Media  `json:"media,omitempty"`
}

// SurveyStart is the response to a survey init.
type SurveyStart struct {
	Response string `json:"response"`
	ChatID   string `json:"chat_id"`
}

// Session summarises one past conversation.
type Session struct {
	ID        string    `json:"session_id"`
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON tolerates the backend's ISO timestamps with or without a
// zone suffix.
func (s *Session) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID        string `json:"session_id"`
		Title     string `json:"title"`
		Timestamp string `json:"timestamp"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.ID, s.Title = raw.ID, raw.Title
	s.Timestamp = parseTimestamp(raw.Timestamp)
	return nil
}

func parseTimestamp(v string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

type sessionList struct {
	Sessions []Session `json:"sessions"`
}

// =============================================================================
// HISTORY
// =============================================================================

// HistoryEntry is one stored message as serialised by the backend's
// message store: {"type": "human"|"ai", "data": {...}}.
type HistoryEntry struct {
	Type string      `json:"type"`
	Data HistoryData `json:"data"`
}

// HistoryData carries the message payload.
type HistoryData struct {
	Content          Content          `json:"content"`
	Sources          []Source         `json:"sources,omitempty"`
	AdditionalKwargs AdditionalKwargs `json:"additional_kwargs"`
}

// AdditionalKwargs holds optional extras stored alongside a message.
type AdditionalKwargs struct {
	Sources []Source `json:"sources,omitempty"`
	Media   []Media  `json:"media,omitempty"`
}

// IsHuman reports whether the entry was written by the user.
func (h HistoryEntry) IsHuman() bool {
	return h.Type == "human"
}

// AllSources merges sources from both places the backend may store them.
func (h HistoryEntry) AllSources() []Source {
	if len(h.Data.Sources) > 0 {
		return h.Data.Sources
	}
	return h.Data.AdditionalKwargs.Sources
}

// Content is message text. The store writes either a plain string or a list
// of typed parts; only text parts are kept.
type Content string

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Content(s)
		return nil
	}
	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	texts := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Type == "" || p.Type == "text" {
			texts = append(texts, p.Text)
		}
	}
	*c = Content(strings.Join(texts, "\n"))
	return nil
}

type historyEnvelope struct {
	History []HistoryEntry `json:"history"`
}

// =============================================================================
// AUTH
// =============================================================================

// Credentials are the login form fields.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Registration are the sign-up form fields.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult holds the issued tokens.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// User is the current account.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type messageBody struct {
	Message string `json:"message"`
}

// =============================================================================
// VIDEO
// =============================================================================

// VideoStatus is the state of a generation task.
type VideoStatus string

const (
	VideoSuccess VideoStatus = "success"
	VideoFailed  VideoStatus = "failed"
	VideoTimeout VideoStatus = "timeout"
	VideoError   VideoStatus = "error"
)

// Terminal reports whether no further polling can change the status.
func (s VideoStatus) Terminal() bool {
	return s == VideoSuccess || s == VideoFailed || s == VideoError
}

// VideoResult is the task state returned by generate_video and check_task.
type VideoResult struct {
	Status    VideoStatus `json:"status"`
	VideoURL  string      `json:"video_url,omitempty"`
	VideoType string      `json:"video_type,omitempty"`
	Reason    string      `json:"reason,omitempty"`
	Message   string      `json:"message,omitempty"`
	TaskID    string      `json:"task_id,omitempty"`
}

// VideoParams echoes the generation parameters the server used.
type VideoParams struct {
	Mode           string  `json:"mode"`
	Duration       int     `json:"duration"`
	GuidanceScale  float64 `json:"guidance_scale"`
	NegativePrompt string  `json:"negative_prompt"`
}

// VideoGeneration is the full generate_video response.
type VideoGeneration struct {
	Query            string      `json:"query"`
	FinalPrompt      string      `json:"final_prompt"`
	ContextDocsFound int         `json:"context_docs_found"`
	ContextLength    int         `json:"context_length"`
	VideoParams      VideoParams `json:"video_params"`
	Result           VideoResult `json:"result"`
}
