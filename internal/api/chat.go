// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
	"sort"
)

type inputBody struct {
	Input string `json:"input"`
}

// History returns the stored messages of a conversation, oldest first.
func (c *Client) History(ctx context.Context, chatID string) ([]HistoryEntry, error) {
	var env historyEnvelope
	if err := c.getJSON(ctx, "/history/"+url.PathEscape(chatID), &env); err != nil {
		return nil, err
	}
	return env.History, nil
}

// SendChat posts one user message to a RAG chat and returns the reply.
// The chat id is minted by the client; the server creates the
// conversation on first use.
func (c *Client) SendChat(ctx context.Context, configID, chatID, input string) (*ChatReply, error) {
	var reply ChatReply
	path := "/chat/" + url.PathEscape(configID) + "/" + url.PathEscape(chatID)
	if err := c.sendJSON(ctx, http.MethodPost, path, inputBody{Input: input}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// InitSurvey starts a survey conversation. Both the welcome text and the
// server-assigned chat id must be present.
func (c *Client) InitSurvey(ctx context.Context, configID string) (*SurveyStart, error) {
	var start SurveyStart
	path := "/survey-chat/" + url.PathEscape(configID) + "/init"
	if err := c.sendJSON(ctx, http.MethodPost, path, struct{}{}, &start); err != nil {
		return nil, err
	}
	if start.Response == "" || start.ChatID == "" {
		return nil, malformed("survey init missing response or chat_id", nil)
	}
	return &start, nil
}

// SendSurvey posts one answer to a survey conversation.
func (c *Client) SendSurvey(ctx context.Context, configID, chatID, input string) (*ChatReply, error) {
	var reply ChatReply
	path := "/survey-chat/" + url.PathEscape(configID) + "/" + url.PathEscape(chatID)
	if err := c.sendJSON(ctx, http.MethodPost, path, inputBody{Input: input}, &reply); err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListChatSessions lists the caller's conversations with a chat assistant,
// newest first.
func (c *Client) ListChatSessions(ctx context.Context, configID string) ([]Session, error) {
	return c.listSessions(ctx, "/chat/list/"+url.PathEscape(configID))
}

// ListSurveySessions lists the caller's survey conversations, newest first.
func (c *Client) ListSurveySessions(ctx context.Context, configID string) ([]Session, error) {
	return c.listSessions(ctx, "/survey-chat/list/"+url.PathEscape(configID))
}

func (c *Client) listSessions(ctx context.Context, path string) ([]Session, error) {
	var list sessionList
	if err := c.getJSON(ctx, path, &list); err != nil {
		return nil, err
	}
	sort.SliceStable(list.Sessions, func(i, j int) bool {
		return list.Sessions[i].Timestamp.After(list.Sessions[j].Timestamp)
	})
	return list.Sessions, nil
}
