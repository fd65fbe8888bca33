// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
	"net/url"
)

// GenerateVideo asks a video assistant to render query. The server answers
// 200 on success, 202 when its own wait timed out (poll CheckTask with
// Result.TaskID), and 500 with a body when generation failed. All three
// return a *VideoGeneration; only a 500 without a result is an error.
func (c *Client) GenerateVideo(ctx context.Context, configID, query string) (*VideoGeneration, error) {
	status, body, err := c.send(ctx, call{
		method: http.MethodPost,
		path:   "/generate_video/" + url.PathEscape(configID),
		body:   jsonBody(map[string]string{"query": query}),
		accept: []int{http.StatusInternalServerError},
	})
	if err != nil {
		return nil, err
	}

	var gen VideoGeneration
	if err := decode(body, &gen); err != nil || gen.Result.Status == "" {
		if status >= 300 {
			return nil, handleErrorResponse(status, body)
		}
		if err != nil {
			return nil, err
		}
		return nil, malformed("video response missing result.status", nil)
	}
	return &gen, nil
}

// CheckTask polls a generation task once. The server waits a few seconds
// internally before answering.
func (c *Client) CheckTask(ctx context.Context, taskID string) (*VideoResult, error) {
	var res VideoResult
	if err := c.getJSON(ctx, "/check_task/"+url.PathEscape(taskID), &res); err != nil {
		return nil, err
	}
	if res.Status == "" {
		return nil, malformed("task response missing status", nil)
	}
	if res.TaskID == "" {
		res.TaskID = taskID
	}
	return &res, nil
}
