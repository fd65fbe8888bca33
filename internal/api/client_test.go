// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memTokens is an in-memory TokenStore.
type memTokens struct {
	mu      sync.Mutex
	token   string
	refresh string
	cleared bool
}

func (m *memTokens) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *memTokens) RefreshToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refresh
}

func (m *memTokens) SetAccessToken(_ context.Context, t string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = t
	return nil
}

func (m *memTokens) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token, m.refresh, m.cleared = "", "", true
	return nil
}

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL + "/api").WithTimeout(5 * time.Second)
	t.Cleanup(c.httpClient.CloseIdleConnections)
	return c
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// =============================================================================
// VISIBILITY
// =============================================================================

func TestConfigVisibility(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    bool
		wantErr error
	}{
		{"public", 200, `{"config":{"is_public":true}}`, true, nil},
		{"private", 200, `{"config":{"is_public":false}}`, false, nil},
		{"missing flag", 200, `{"config":{}}`, false, ErrMalformed},
		{"not json", 200, `<html>`, false, ErrMalformed},
		{"not found", 404, `{"message":"Configuration not found"}`, false, ErrNotFound},
		{"auth required", 401, `{"message":"Authentication required for this private chat"}`, false, ErrUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits int32
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&hits, 1)
				assert.Equal(t, "/api/config/abc", r.URL.Path)
				assert.Empty(t, r.Header.Get("Authorization"), "visibility reads are anonymous")
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})).WithTokens(&memTokens{token: "tok", refresh: "ref"})

			got, err := c.ConfigVisibility(context.Background(), "abc")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "exactly one request")
		})
	}
}

func TestVisibility_ServerErrorNotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := c.SurveyVisibility(context.Background(), "s1")
	assert.ErrorIs(t, err, ErrServer)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

// =============================================================================
// RETRIES AND ERRORS
// =============================================================================

func TestGet_RetriesServerErrors(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		writeJSON(w, 200, map[string]interface{}{"history": []interface{}{}})
	}))

	entries, err := c.History(context.Background(), "chat-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestPost_NotRetried(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 500, map[string]string{"message": "An internal server error occurred."})
	}))

	_, err := c.SendChat(context.Background(), "cfg", "chat", "hi")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)
	assert.Equal(t, "An internal server error occurred.", apiErr.Message)
	assert.True(t, IsTransient(err))
}

func TestHandleErrorResponse_BodyShapes(t *testing.T) {
	err := handleErrorResponse(409, []byte(`{"error":"That username already exists."}`))
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), "That username already exists.")

	err = handleErrorResponse(500, []byte(`{"error":"Internal server error","message":"An unexpected error occurred while generating video."}`))
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "An unexpected error occurred while generating video.", apiErr.Message)

	err = handleErrorResponse(403, nil)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "Forbidden")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "", Describe(nil))
	assert.Contains(t, Describe(handleErrorResponse(401, nil)), "log in")
	assert.Equal(t, "Bad input", Describe(handleErrorResponse(400, []byte(`{"message":"Bad input"}`))))
	assert.Contains(t, Describe(malformed("x", nil)), "unexpected")
}

func TestCalculateBackoff(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, calculateBackoff(1))
	assert.Equal(t, time.Second, calculateBackoff(2))
	assert.Equal(t, retryMaxDelay, calculateBackoff(10))
}

// =============================================================================
// AUTH AND REFRESH
// =============================================================================

func TestAuthorizedCall_RefreshesOnceOn401(t *testing.T) {
	var refreshes int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/refresh":
			atomic.AddInt32(&refreshes, 1)
			assert.Equal(t, "Bearer ref", r.Header.Get("Authorization"))
			writeJSON(w, 200, map[string]string{"access_token": "fresh"})
		case "/api/auth/me":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, 401, map[string]string{"msg": "Token has expired"})
				return
			}
			writeJSON(w, 200, map[string]string{"username": "ada", "email": "ada@example.com"})
		}
	}))
	tokens := &memTokens{token: "stale", refresh: "ref"}
	c.WithTokens(tokens)

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)
	assert.Equal(t, "fresh", tokens.Token())
	assert.Equal(t, int32(1), atomic.LoadInt32(&refreshes))
}

func TestAuthorizedCall_RefreshFailureClearsTokens(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]string{"error": "expired"})
	}))
	tokens := &memTokens{token: "stale", refresh: "ref"}
	c.WithTokens(tokens)

	_, err := c.ListConfigs(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.True(t, tokens.cleared)
	assert.Empty(t, tokens.Token())
}

func TestAuthorizedCall_NoTokenNoRefresh(t *testing.T) {
	var hits int32
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		writeJSON(w, 401, map[string]string{"error": "User not authenticated"})
	}))
	c.WithTokens(&memTokens{})

	_, err := c.ListConfigs(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "pw" {
			writeJSON(w, 401, map[string]string{"error": "Invalid username or password"})
			return
		}
		writeJSON(w, 200, LoginResult{AccessToken: "a", RefreshToken: "r"})
	}))

	res, err := c.Login(context.Background(), Credentials{Username: "ada", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "a", res.AccessToken)
	assert.Equal(t, "r", res.RefreshToken)

	_, err = c.Login(context.Background(), Credentials{Username: "ada", Password: "nope"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.Contains(t, Describe(err), "log in")
}

// =============================================================================
// CHAT AND SURVEY
// =============================================================================

func TestSendChat_AttachesTokenAndInput(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/chat/cfg/chat-1", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		var in inputBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		writeJSON(w, 200, map[string]interface{}{
			"response": "echo: " + in.Input,
			"media":    []map[string]string{{"url": "https://cdn/x.png", "type": "image"}},
		})
	})).WithTokens(&memTokens{token: "tok"})

	reply, err := c.SendChat(context.Background(), "cfg", "chat-1", "hello")
	require.NoError(t, err)
	assert.Equal(t, "echo: hello", reply.Response)
	require.Len(t, reply.Media, 1)
	assert.Equal(t, MediaImage, reply.Media[0].Type)
}

func TestInitSurvey_RequiresBothFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/survey-chat/good/init":
			io.WriteString(w, `{"response":"Welcome!","chat_id":"c-9"}`)
		default:
			io.WriteString(w, `{"initial_message":"Welcome!","session_id":"c-9"}`)
		}
	}))

	start, err := c.InitSurvey(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "c-9", start.ChatID)

	_, err = c.InitSurvey(context.Background(), "legacy")
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestHistory_ContentShapes(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"history":[
			{"type":"human","data":{"content":"hi"}},
			{"type":"ai","data":{"content":[{"type":"text","text":"hello"},{"type":"image_url","image_url":"x"}],
				"additional_kwargs":{"media":[{"url":"u","type":"video"}],"sources":[{"source":"a.pdf","page":3}]}}}
		]}`)
	}))

	entries, err := c.History(context.Background(), "c")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.True(t, entries[0].IsHuman())
	assert.Equal(t, Content("hi"), entries[0].Data.Content)
	assert.False(t, entries[1].IsHuman())
	assert.Equal(t, Content("hello"), entries[1].Data.Content)
	assert.Equal(t, MediaVideo, entries[1].Data.AdditionalKwargs.Media[0].Type)
	assert.Equal(t, "a.pdf", entries[1].AllSources()[0].Label())
}

func TestListSessions_NewestFirst(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/survey-chat/list/cfg", r.URL.Path)
		io.WriteString(w, `{"sessions":[
			{"session_id":"old","title":"Old","timestamp":"2024-01-01T10:00:00+00:00"},
			{"session_id":"new","title":"New","timestamp":"2024-03-01T10:00:00"}
		]}`)
	}))

	sessions, err := c.ListSurveySessions(context.Background(), "cfg")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "new", sessions[0].ID)
	assert.False(t, sessions[1].Timestamp.IsZero())
}

// =============================================================================
// CONFIGS
// =============================================================================

func TestGetConfig_IDFallbacks(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"config":{"_id":"66aa","bot_name":"Helper","model_name":"gpt-4o","is_public":true,"config_type":"survey"}}`)
	}))

	a, err := c.GetConfig(context.Background(), "ignored")
	require.NoError(t, err)
	assert.Equal(t, "66aa", a.ID)
	assert.Equal(t, KindSurvey, a.Kind())
	assert.Equal(t, "gpt-4o", a.Model())
}

func TestCreateConfig_MultipartLayout(t *testing.T) {
	dir := t.TempDir()
	doc1 := filepath.Join(dir, "handbook.pdf")
	require.NoError(t, os.WriteFile(doc1, []byte("%PDF-1.4 fake"), 0600))

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		var doc map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("config")), &doc))
		assert.Equal(t, "Helper", doc["bot_name"])

		files := r.MultipartForm.File["files"]
		require.Len(t, files, 1)
		assert.Equal(t, "handbook.pdf", files[0].Filename)

		writeJSON(w, 201, map[string]interface{}{
			"message": "Configuration saved successfully!",
			"data":    map[string]interface{}{"_id": "new-id", "bot_name": "Helper"},
		})
	}))

	res, err := c.CreateConfig(context.Background(), map[string]interface{}{"bot_name": "Helper"}, []Upload{{Path: doc1}})
	require.NoError(t, err)
	assert.Equal(t, "new-id", res.Data.ID)
}

func TestCreateConfig_MissingFileFails(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		writeJSON(w, 201, map[string]string{"message": "ok"})
	}))

	_, err := c.CreateConfig(context.Background(), map[string]string{}, []Upload{{Path: "/does/not/exist.pdf"}})
	assert.Error(t, err)
}

func TestUpdateConfig_FormFields(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Helper", r.FormValue("bot_name"))
		assert.Equal(t, "0.7", r.FormValue("temperature"))
		assert.Equal(t, "true", r.FormValue("is_public"))
		writeJSON(w, 200, map[string]string{"message": "Configuration updated successfully"})
	}))

	msg, err := c.UpdateConfig(context.Background(), "id1", ConfigUpdate{BotName: "Helper", Temperature: 0.7, IsPublic: true}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Configuration updated successfully", msg)
}

// =============================================================================
// VIDEO
// =============================================================================

func TestGenerateVideo_Statuses(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   VideoStatus
		err    error
	}{
		{"success", 200, `{"query":"q","result":{"status":"success","video_url":"https://v/1.mp4","task_id":"t"}}`, VideoSuccess, nil},
		{"timeout", 202, `{"query":"q","result":{"status":"timeout","task_id":"t"}}`, VideoTimeout, nil},
		{"failed", 500, `{"query":"q","result":{"status":"failed","reason":"nsfw","task_id":"t"}}`, VideoFailed, nil},
		{"crash", 500, `{"error":"Internal server error","message":"boom"}`, "", ErrServer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			}))
			gen, err := c.GenerateVideo(context.Background(), "v1", "a cat")
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, gen.Result.Status)
		})
	}
}

func TestCheckTask_FillsTaskID(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"timeout"}`)
	}))
	res, err := c.CheckTask(context.Background(), "t-1")
	require.NoError(t, err)
	assert.Equal(t, "t-1", res.TaskID)
	assert.False(t, res.Status.Terminal())
}

func TestRateLimit_Paces(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status":"success"}`)
	})).WithRateLimit(20)

	start := time.Now()
	for i := 0; i < 5; i++ {
		_, err := c.CheckTask(context.Background(), "t")
		require.NoError(t, err)
	}
	// Burst of 20 lets these through without waiting; the limiter must not
	// add latency under the burst.
	assert.Less(t, time.Since(start), 2*time.Second)
}
