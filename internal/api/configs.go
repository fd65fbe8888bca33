// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
)

// resource paths per family.
const (
	chatConfigPath   = "/config"
	surveyConfigPath = "/survey_config"
	videoConfigPath  = "/video_config"
)

func resourcePath(base, id string) string {
	return base + "/" + url.PathEscape(id)
}

// =============================================================================
// VISIBILITY (ANONYMOUS)
// =============================================================================

// ConfigVisibility reads a chat configuration's is_public flag without
// credentials. Exactly one request is made: no retry, no token, no refresh.
func (c *Client) ConfigVisibility(ctx context.Context, id string) (bool, error) {
	return c.visibility(ctx, resourcePath(chatConfigPath, id))
}

// SurveyVisibility reads a survey configuration's is_public flag.
func (c *Client) SurveyVisibility(ctx context.Context, id string) (bool, error) {
	return c.visibility(ctx, resourcePath(surveyConfigPath, id))
}

// VideoVisibility reads a video configuration's is_public flag.
func (c *Client) VideoVisibility(ctx context.Context, id string) (bool, error) {
	return c.visibility(ctx, resourcePath(videoConfigPath, id))
}

func (c *Client) visibility(ctx context.Context, path string) (bool, error) {
	_, body, err := c.send(ctx, call{method: http.MethodGet, path: path, anonymous: true, once: true})
	if err != nil {
		return false, err
	}
	var env struct {
		Config *struct {
			IsPublic *bool `json:"is_public"`
		} `json:"config"`
	}
	if err := decode(body, &env); err != nil {
		return false, err
	}
	if env.Config == nil || env.Config.IsPublic == nil {
		return false, malformed("missing config.is_public", nil)
	}
	return *env.Config.IsPublic, nil
}

// =============================================================================
// READS
// =============================================================================

// GetConfig fetches a chat configuration.
func (c *Client) GetConfig(ctx context.Context, id string) (*Assistant, error) {
	return c.getAssistant(ctx, resourcePath(chatConfigPath, id), id)
}

// GetSurveyConfig fetches a survey configuration.
func (c *Client) GetSurveyConfig(ctx context.Context, id string) (*Assistant, error) {
	return c.getAssistant(ctx, resourcePath(surveyConfigPath, id), id)
}

// GetVideoConfig fetches a video configuration.
func (c *Client) GetVideoConfig(ctx context.Context, id string) (*Assistant, error) {
	return c.getAssistant(ctx, resourcePath(videoConfigPath, id), id)
}

func (c *Client) getAssistant(ctx context.Context, path, id string) (*Assistant, error) {
	var env assistantEnvelope
	err := c.getJSON(ctx, path, &env)
	if errors.Is(err, ErrForbidden) && c.token() != "" {
		// Someone else's public assistant: read it as an anonymous viewer.
		var body []byte
		if _, body, err = c.send(ctx, call{method: http.MethodGet, path: path, anonymous: true}); err == nil {
			err = decode(body, &env)
		}
	}
	if err != nil {
		return nil, err
	}
	if env.Config == nil {
		return nil, malformed("missing config", nil)
	}
	if env.Config.ID == "" {
		env.Config.ID = id
	}
	return env.Config, nil
}

// ListConfigs lists the caller's chat configurations.
func (c *Client) ListConfigs(ctx context.Context) ([]Assistant, error) {
	return c.listAssistants(ctx, "/config_list")
}

// ListSurveyConfigs lists the caller's survey configurations.
func (c *Client) ListSurveyConfigs(ctx context.Context) ([]Assistant, error) {
	return c.listAssistants(ctx, "/survey_config_list")
}

// ListVideoConfigs lists the caller's video configurations.
func (c *Client) ListVideoConfigs(ctx context.Context) ([]Assistant, error) {
	return c.listAssistants(ctx, "/video_config_list")
}

func (c *Client) listAssistants(ctx context.Context, path string) ([]Assistant, error) {
	var list assistantList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	return list.Configs, nil
}

// =============================================================================
// WRITES
// =============================================================================

// CreateConfig creates a chat configuration. doc is marshalled into the
// "config" form part.
func (c *Client) CreateConfig(ctx context.Context, doc interface{}, files []Upload) (*SaveResult, error) {
	return c.createAssistant(ctx, chatConfigPath, doc, files)
}

// CreateSurveyConfig creates a survey configuration.
func (c *Client) CreateSurveyConfig(ctx context.Context, doc interface{}, files []Upload) (*SaveResult, error) {
	return c.createAssistant(ctx, surveyConfigPath, doc, files)
}

// CreateVideoConfig creates a video configuration.
func (c *Client) CreateVideoConfig(ctx context.Context, doc interface{}, files []Upload) (*SaveResult, error) {
	return c.createAssistant(ctx, videoConfigPath, doc, files)
}

func (c *Client) createAssistant(ctx context.Context, path string, doc interface{}, files []Upload) (*SaveResult, error) {
	body, err := configForm(doc, files)
	if err != nil {
		return nil, err
	}
	_, data, err := c.send(ctx, call{method: http.MethodPost, path: path, body: body})
	if err != nil {
		return nil, err
	}
	var res SaveResult
	if err := decode(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ConfigUpdate is the edit form for a chat configuration. Unlike creation,
// the update endpoint takes plain form fields.
type ConfigUpdate struct {
	BotName        string
	ModelName      string
	Temperature    float64
	IsPublic       bool
	Instructions   string
	PromptTemplate string
	CollectionName string
}

func (u ConfigUpdate) fields() []field {
	return []field{
		{"bot_name", u.BotName},
		{"model_name", u.ModelName},
		{"temperature", strconv.FormatFloat(u.Temperature, 'f', -1, 64)},
		{"is_public", strconv.FormatBool(u.IsPublic)},
		{"instructions", u.Instructions},
		{"prompt_template", u.PromptTemplate},
		{"collection_name", u.CollectionName},
	}
}

// UpdateConfig replaces a chat configuration's settings and appends any
// new knowledge-base files.
func (c *Client) UpdateConfig(ctx context.Context, id string, u ConfigUpdate, files []Upload) (string, error) {
	var res messageBody
	_, data, err := c.send(ctx, call{
		method: http.MethodPut,
		path:   resourcePath(chatConfigPath, id),
		body:   multipartBody(u.fields(), files),
	})
	if err != nil {
		return "", err
	}
	if err := decode(data, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// DeleteConfig deletes a chat configuration with its sessions and vectors.
func (c *Client) DeleteConfig(ctx context.Context, id string) (string, error) {
	var res messageBody
	if err := c.sendJSON(ctx, http.MethodDelete, resourcePath(chatConfigPath, id), nil, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}
