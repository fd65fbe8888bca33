// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"net/http"
)

// Login exchanges credentials for tokens. It does not store them; that is
// the session layer's job.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	var res LoginResult
	_, body, err := c.send(ctx, call{method: http.MethodPost, path: "/auth/login", body: jsonBody(creds), anonymous: true})
	if err != nil {
		return nil, err
	}
	if err := decode(body, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, malformed("login response missing access_token", nil)
	}
	return &res, nil
}

// Register creates an account. The server emails a verification link.
func (c *Client) Register(ctx context.Context, reg Registration) (string, error) {
	var res messageBody
	_, body, err := c.send(ctx, call{method: http.MethodPost, path: "/auth/register", body: jsonBody(reg), anonymous: true})
	if err != nil {
		return "", err
	}
	if err := decode(body, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// VerifyEmail confirms an account with the token from the verification link.
func (c *Client) VerifyEmail(ctx context.Context, token string) (string, error) {
	var res messageBody
	_, body, err := c.send(ctx, call{
		method:    http.MethodPost,
		path:      "/auth/verify-email",
		body:      jsonBody(map[string]string{"token": token}),
		anonymous: true,
	})
	if err != nil {
		return "", err
	}
	if err := decode(body, &res); err != nil {
		return "", err
	}
	return res.Message, nil
}

// Logout tells the server the session is over. Callers clear local tokens
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	_, _, err := c.send(ctx, call{method: http.MethodPost, path: "/auth/logout", once: true})
	return err
}

// Me returns the account behind the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.getJSON(ctx, "/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Refresh trades the refresh token held by the TokenStore for a new access
// token and stores it.
func (c *Client) Refresh(ctx context.Context) error {
	if c.tokens == nil || c.tokens.RefreshToken() == "" {
		return &Error{Status: http.StatusUnauthorized, Message: "no refresh token", kind: ErrUnauthorized}
	}
	access, err := c.refresh(ctx, c.tokens.RefreshToken())
	if err != nil {
		return err
	}
	return c.tokens.SetAccessToken(ctx, access)
}

// refresh performs the raw exchange. The refresh token goes in the bearer
// header; the call itself must never trigger another refresh.
func (c *Client) refresh(ctx context.Context, refreshToken string) (string, error) {
	status, body, err := c.doOnce(ctx, call{method: http.MethodPost, path: "/auth/refresh"}, refreshToken)
	if err != nil {
		return "", err
	}
	if status < 200 || status >= 300 {
		return "", handleErrorResponse(status, body)
	}
	var res struct {
		AccessToken string `json:"access_token"`
	}
	if err := decode(body, &res); err != nil {
		return "", err
	}
	if res.AccessToken == "" {
		return "", malformed("refresh response missing access_token", nil)
	}
	return res.AccessToken, nil
}
