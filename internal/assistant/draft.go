// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package assistant

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/config"
)

// MaxFileSize is the largest knowledge-base file accepted for upload.
const MaxFileSize int64 = 5 * 1024 * 1024 * 1024

// AllowedExtensions are the knowledge-base file types the server indexes.
var AllowedExtensions = []string{".txt", ".pdf", ".md", ".docx"}

// Models offered for chat and survey assistants.
var Models = []string{"deepseek-chat", "gpt-3.5-turbo", "gpt-4", "qwen-turbo"}

// NegativePromptOptions are the presets for video assistants.
var NegativePromptOptions = []string{
	"Blurry", "Cartoonish", "Unrealistic", "Grainy", "Noisy", "Low contrast",
	"Distorted", "Pixelated", "Overexposed", "Underexposed", "Motion blur", "Artifacts",
}

// Draft is any editable configuration.
type Draft interface {
	Kind() api.Kind
	Validate() error
	Document() interface{}
	FilePaths() []string
}

// =============================================================================
// CHAT
// =============================================================================

// ChatDraft is a RAG chat assistant. Exactly one of Instructions and
// PromptTemplate is sent; a template wins.
type ChatDraft struct {
	BotName        string   `toml:"bot_name" json:"bot_name"`
	ModelName      string   `toml:"model_name" json:"model_name"`
	Instructions   string   `toml:"instructions" json:"instructions,omitempty"`
	PromptTemplate string   `toml:"prompt_template" json:"prompt_template,omitempty"`
	Temperature    float64  `toml:"temperature" json:"temperature"`
	CollectionName string   `toml:"collection_name" json:"collection_name"`
	IsPublic       bool     `toml:"is_public" json:"is_public"`
	Files          []string `toml:"files" json:"files,omitempty"`
}

// NewChatDraft returns a chat draft with the form defaults.
func NewChatDraft() *ChatDraft {
	return &ChatDraft{ModelName: "gpt-3.5-turbo", Temperature: 0.7}
}

// Kind implements Draft.
func (d *ChatDraft) Kind() api.Kind { return api.KindChat }

// FilePaths implements Draft.
func (d *ChatDraft) FilePaths() []string { return d.Files }

// Validate implements Draft.
func (d *ChatDraft) Validate() error {
	var errs config.ValidateErrors
	errs = required(errs, "bot_name", d.BotName)
	errs = required(errs, "model_name", d.ModelName)
	errs = required(errs, "collection_name", d.CollectionName)
	if strings.TrimSpace(d.Instructions) == "" && strings.TrimSpace(d.PromptTemplate) == "" {
		errs = append(errs, config.ValidationError{Field: "instructions", Message: "provide instructions or a prompt_template"})
	}
	if d.Temperature < 0 || d.Temperature > 2 {
		errs = append(errs, config.ValidationError{Field: "temperature", Message: "must be between 0.0 and 2.0"})
	}
	errs = checkFiles(errs, d.Files)
	return result(errs)
}

// Document implements Draft.
func (d *ChatDraft) Document() interface{} {
	doc := *d
	doc.Files = nil
	if strings.TrimSpace(doc.PromptTemplate) != "" {
		doc.Instructions = ""
	} else {
		doc.PromptTemplate = ""
	}
	return doc
}

// Update returns the edit form for an existing chat assistant.
func (d *ChatDraft) Update() api.ConfigUpdate {
	return api.ConfigUpdate{
		BotName:        d.BotName,
		ModelName:      d.ModelName,
		Temperature:    d.Temperature,
		IsPublic:       d.IsPublic,
		Instructions:   d.Instructions,
		PromptTemplate: d.PromptTemplate,
		CollectionName: d.CollectionName,
	}
}

// ChatDraftFrom seeds a draft from a stored assistant, for editing.
func ChatDraftFrom(a *api.Assistant) *ChatDraft {
	return &ChatDraft{
		BotName:        a.BotName,
		ModelName:      a.Model(),
		Instructions:   a.Instructions,
		PromptTemplate: a.PromptTemplate,
		Temperature:    a.Temperature,
		CollectionName: a.CollectionName,
		IsPublic:       a.IsPublic,
	}
}

// =============================================================================
// SURVEY
// =============================================================================

// SurveyDraft is a guided survey assistant. With Advanced set, the server
// builds the prompt from purpose, audience and creativity.
type SurveyDraft struct {
	BotName        string   `toml:"bot_name" json:"bot_name"`
	LLMType        string   `toml:"llm_type" json:"llm_type"`
	CollectionName string   `toml:"collection_name" json:"collection_name"`
	IsPublic       bool     `toml:"is_public" json:"is_public"`
	Instructions   string   `toml:"instructions" json:"instructions,omitempty"`
	Advanced       bool     `toml:"use_advanced_template" json:"use_advanced_template,omitempty"`
	SurveyPurpose  string   `toml:"survey_purpose" json:"survey_purpose,omitempty"`
	TargetAudience string   `toml:"target_audience" json:"target_audience,omitempty"`
	CreativityRate int      `toml:"creativity_rate" json:"creativity_rate,omitempty"`
	Files          []string `toml:"files" json:"files,omitempty"`
}

// NewSurveyDraft returns a survey draft with the form defaults.
func NewSurveyDraft() *SurveyDraft {
	return &SurveyDraft{LLMType: "gpt-3.5-turbo", CreativityRate: 3}
}

// Kind implements Draft.
func (d *SurveyDraft) Kind() api.Kind { return api.KindSurvey }

// FilePaths implements Draft.
func (d *SurveyDraft) FilePaths() []string { return d.Files }

// Validate implements Draft.
func (d *SurveyDraft) Validate() error {
	var errs config.ValidateErrors
	errs = required(errs, "bot_name", d.BotName)
	errs = required(errs, "llm_type", d.LLMType)
	errs = required(errs, "collection_name", d.CollectionName)
	if d.Advanced {
		if d.CreativityRate < 1 || d.CreativityRate > 5 {
			errs = append(errs, config.ValidationError{Field: "creativity_rate", Message: "must be between 1 and 5"})
		}
	} else if strings.TrimSpace(d.Instructions) == "" {
		errs = append(errs, config.ValidationError{Field: "instructions", Message: "required when not using the advanced template"})
	}
	errs = checkFiles(errs, d.Files)
	return result(errs)
}

type surveyDocument struct {
	SurveyDraft
	ConfigType string `json:"config_type"`
}

// Document implements Draft.
func (d *SurveyDraft) Document() interface{} {
	doc := surveyDocument{SurveyDraft: *d, ConfigType: "survey"}
	doc.Files = nil
	if d.Advanced {
		doc.Instructions = ""
	} else {
		doc.SurveyPurpose, doc.TargetAudience, doc.CreativityRate = "", "", 0
	}
	return doc
}

// =============================================================================
// VIDEO
// =============================================================================

// VideoDraft is a video generation assistant.
type VideoDraft struct {
	BotName        string   `toml:"bot_name" json:"bot_name"`
	CollectionName string   `toml:"collection_name" json:"collection_name"`
	IsPublic       bool     `toml:"is_public" json:"is_public"`
	Instructions   string   `toml:"instructions" json:"instructions"`
	Advanced       bool     `toml:"use_advanced_template" json:"use_advanced_template"`
	Mode           string   `toml:"mode" json:"mode"`
	Duration       int      `toml:"duration" json:"duration"`
	GuidanceScale  float64  `toml:"guidance_scale" json:"guidance_scale"`
	NegativePrompt []string `toml:"negative_prompt" json:"negative_prompt"`
	Files          []string `toml:"files" json:"files,omitempty"`
}

// NewVideoDraft returns a video draft with the form defaults.
func NewVideoDraft() *VideoDraft {
	return &VideoDraft{Mode: "Standard", Duration: 5, GuidanceScale: 0.5, NegativePrompt: []string{}}
}

// Kind implements Draft.
func (d *VideoDraft) Kind() api.Kind { return api.KindVideo }

// FilePaths implements Draft.
func (d *VideoDraft) FilePaths() []string { return d.Files }

// Validate implements Draft.
func (d *VideoDraft) Validate() error {
	var errs config.ValidateErrors
	errs = required(errs, "bot_name", d.BotName)
	errs = required(errs, "collection_name", d.CollectionName)
	if !d.Advanced && strings.TrimSpace(d.Instructions) == "" {
		errs = append(errs, config.ValidationError{Field: "instructions", Message: "required when not using the advanced template"})
	}
	if d.Duration != 5 && d.Duration != 10 {
		errs = append(errs, config.ValidationError{Field: "duration", Message: "must be 5 or 10 seconds"})
	}
	if d.GuidanceScale < 0 || d.GuidanceScale > 1 {
		errs = append(errs, config.ValidationError{Field: "guidance_scale", Message: "must be between 0.0 and 1.0"})
	}
	errs = checkFiles(errs, d.Files)
	return result(errs)
}

// Document implements Draft.
func (d *VideoDraft) Document() interface{} {
	doc := *d
	doc.Files = nil
	if doc.NegativePrompt == nil {
		doc.NegativePrompt = []string{}
	}
	return doc
}

// =============================================================================
// HELPERS
// =============================================================================

func required(errs config.ValidateErrors, field, value string) config.ValidateErrors {
	if strings.TrimSpace(value) == "" {
		errs = append(errs, config.ValidationError{Field: field, Message: "is required"})
	}
	return errs
}

func result(errs config.ValidateErrors) error {
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkFiles(errs config.ValidateErrors, paths []string) config.ValidateErrors {
	for _, p := range paths {
		if err := CheckFile(p); err != nil {
			errs = append(errs, config.ValidationError{Field: "files", Message: err.Error()})
		}
	}
	return errs
}

// CheckFile verifies a knowledge-base file exists, has an indexable
// extension and is within MaxFileSize.
func CheckFile(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	allowed := false
	for _, a := range AllowedExtensions {
		if ext == a {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("%s: unsupported file type (want %s)", filepath.Base(path), strings.Join(AllowedExtensions, ", "))
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s: is a directory", filepath.Base(path))
	}
	if info.Size() > MaxFileSize {
		return fmt.Errorf("%s: file is too large, maximum size is 5GB", filepath.Base(path))
	}
	return nil
}

// Uploads converts a draft's file paths into API uploads.
func Uploads(d Draft) []api.Upload {
	paths := d.FilePaths()
	out := make([]api.Upload, 0, len(paths))
	for _, p := range paths {
		out = append(out, api.Upload{Path: p})
	}
	return out
}

// =============================================================================
// FILES
// =============================================================================

// New returns an empty draft of the given kind.
func New(kind api.Kind) (Draft, error) {
	switch kind {
	case api.KindChat:
		return NewChatDraft(), nil
	case api.KindSurvey:
		return NewSurveyDraft(), nil
	case api.KindVideo:
		return NewVideoDraft(), nil
	}
	return nil, fmt.Errorf("unknown assistant kind %q", kind)
}

// Load reads a draft file into a default draft of the given kind. Files
// ending in .json are JSON; everything else is TOML. Relative file paths
// inside the draft resolve against the draft's directory.
func Load(path string, kind api.Kind) (Draft, error) {
	d, err := New(kind)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read draft: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, d)
	} else {
		_, err = toml.Decode(string(data), d)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse draft %s: %w", path, err)
	}
	resolveFiles(d, filepath.Dir(path))
	return d, nil
}

func resolveFiles(d Draft, dir string) {
	var files *[]string
	switch v := d.(type) {
	case *ChatDraft:
		files = &v.Files
	case *SurveyDraft:
		files = &v.Files
	case *VideoDraft:
		files = &v.Files
	default:
		return
	}
	for i, p := range *files {
		if !filepath.IsAbs(p) {
			(*files)[i] = filepath.Join(dir, p)
		}
	}
}

// AddFiles appends extra knowledge-base files to a draft.
func AddFiles(d Draft, paths ...string) {
	switch v := d.(type) {
	case *ChatDraft:
		v.Files = append(v.Files, paths...)
	case *SurveyDraft:
		v.Files = append(v.Files, paths...)
	case *VideoDraft:
		v.Files = append(v.Files, paths...)
	}
}

// Template renders a default draft as TOML, as a starting point for
// "configs create".
func Template(kind api.Kind) (string, error) {
	d, err := New(kind)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# ragdesk %s assistant draft\n", kind)
	if err := toml.NewEncoder(&buf).Encode(d); err != nil {
		return "", fmt.Errorf("failed to encode template: %w", err)
	}
	return buf.String(), nil
}
