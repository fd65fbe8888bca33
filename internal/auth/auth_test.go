// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package auth

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jeranaias/ragdesk/internal/storage"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newStore(t *testing.T, path string) *storage.Store {
	t.Helper()
	s, err := storage.Open(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProvider_StartsLoggedOut(t *testing.T) {
	p, err := NewProvider(context.Background(), newStore(t, ":memory:"))
	require.NoError(t, err)

	assert.False(t, p.LoggedIn())
	assert.Equal(t, "", p.Token())
	assert.Equal(t, "", p.RefreshToken())
}

func TestProvider_LoadsExistingToken(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")
	require.NoError(t, s.Set(ctx, TokenKey, "tok"))

	p, err := NewProvider(ctx, s)
	require.NoError(t, err)
	assert.True(t, p.LoggedIn())
	assert.Equal(t, "tok", p.Token())
}

func TestProvider_SetTokensPersists(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")
	p, err := NewProvider(ctx, s)
	require.NoError(t, err)

	require.NoError(t, p.SetTokens(ctx, "access", "refresh"))
	v, err := s.Get(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "access", v)
	v, err = s.Get(ctx, RefreshKey)
	require.NoError(t, err)
	assert.Equal(t, "refresh", v)

	require.NoError(t, p.SetAccessToken(ctx, "access2"))
	assert.Equal(t, "access2", p.Token())
	assert.Equal(t, "refresh", p.RefreshToken())

	assert.Error(t, p.SetTokens(ctx, "", "x"))
}

func TestProvider_ClearRemovesBoth(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")
	p, err := NewProvider(ctx, s)
	require.NoError(t, err)
	require.NoError(t, p.SetTokens(ctx, "a", "r"))

	require.NoError(t, p.Clear(ctx))
	assert.False(t, p.LoggedIn())
	_, err = s.Get(ctx, TokenKey)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
	_, err = s.Get(ctx, RefreshKey)
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

type failingKV struct{ KV }

func (failingKV) Delete(context.Context, ...string) error { return errors.New("disk gone") }

func TestProvider_ClearLogsOutEvenWhenStoreFails(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, ":memory:")
	require.NoError(t, s.Set(ctx, TokenKey, "tok"))

	p, err := NewProvider(ctx, failingKV{s})
	require.NoError(t, err)
	require.True(t, p.LoggedIn())

	assert.Error(t, p.Clear(ctx))
	assert.False(t, p.LoggedIn())
}

func TestProvider_SubscribeOnlyOnPresenceChange(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, newStore(t, ":memory:"))
	require.NoError(t, err)

	ch, cancel := p.Subscribe()
	defer cancel()

	require.NoError(t, p.SetTokens(ctx, "a", ""))
	assert.Equal(t, Change{LoggedIn: true}, <-ch)

	// Token rotation keeps presence; no notification.
	require.NoError(t, p.SetAccessToken(ctx, "b"))
	select {
	case c := <-ch:
		t.Fatalf("unexpected change %+v", c)
	default:
	}

	require.NoError(t, p.Clear(ctx))
	assert.Equal(t, Change{LoggedIn: false}, <-ch)
}

func TestProvider_SlowSubscriberSeesLatest(t *testing.T) {
	ctx := context.Background()
	p, err := NewProvider(ctx, newStore(t, ":memory:"))
	require.NoError(t, err)

	ch, cancel := p.Subscribe()
	require.NoError(t, p.SetTokens(ctx, "a", ""))
	require.NoError(t, p.Clear(ctx))

	assert.Equal(t, Change{LoggedIn: false}, <-ch)
	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)
}

func TestWatcher_PicksUpOtherProcessLogout(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	writerStore := newStore(t, path)
	writer, err := NewProvider(ctx, writerStore)
	require.NoError(t, err)
	require.NoError(t, writer.SetTokens(ctx, "tok", "ref"))

	reader, err := NewProvider(ctx, newStore(t, path))
	require.NoError(t, err)
	require.True(t, reader.LoggedIn())

	w, err := NewWatcher(reader, path, 20*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Close()

	ch, cancel := reader.Subscribe()
	defer cancel()

	require.NoError(t, writer.Clear(ctx))

	select {
	case c := <-ch:
		assert.False(t, c.LoggedIn)
	case <-time.After(5 * time.Second):
		t.Fatal("reader never observed logout")
	}
	assert.False(t, reader.LoggedIn())
}

func TestWatcher_CloseIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")
	p, err := NewProvider(ctx, newStore(t, path))
	require.NoError(t, err)

	w, err := NewWatcher(p, path, 0)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
