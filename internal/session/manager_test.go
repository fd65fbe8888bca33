// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ragdesk/internal/api"
	"github.com/jeranaias/ragdesk/internal/auth"
	"github.com/jeranaias/ragdesk/internal/storage"
)

type fakeAuth struct {
	loginErr  error
	logoutErr error
	meCalls   int
	logouts   int
}

func (f *fakeAuth) Login(ctx context.Context, creds api.Credentials) (*api.LoginResult, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &api.LoginResult{AccessToken: "access-" + creds.Username, RefreshToken: "refresh"}, nil
}

func (f *fakeAuth) Logout(ctx context.Context) error {
	f.logouts++
	return f.logoutErr
}

func (f *fakeAuth) Me(ctx context.Context) (*api.User, error) {
	f.meCalls++
	return &api.User{Username: "ada", Email: "ada@example.com"}, nil
}

func newManager(t *testing.T, a Authenticator) (*Manager, *storage.Store) {
	t.Helper()
	ctx := context.Background()
	store, err := storage.Open(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := auth.NewProvider(ctx, store)
	require.NoError(t, err)
	return NewManager(a, p), store
}

func TestLoginStoresTokens(t *testing.T) {
	m, store := newManager(t, &fakeAuth{})
	ctx := context.Background()

	require.NoError(t, m.Login(ctx, api.Credentials{Username: "ada", Password: "pw"}))
	assert.True(t, m.LoggedIn())

	tok, err := store.Get(ctx, auth.TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "access-ada", tok)
	ref, err := store.Get(ctx, auth.RefreshKey)
	require.NoError(t, err)
	assert.Equal(t, "refresh", ref)
}

func TestLoginFailureStoresNothing(t *testing.T) {
	m, _ := newManager(t, &fakeAuth{loginErr: api.ErrUnauthorized})

	err := m.Login(context.Background(), api.Credentials{Username: "ada", Password: "bad"})
	assert.ErrorIs(t, err, api.ErrUnauthorized)
	assert.False(t, m.LoggedIn())
}

func TestLogoutClearsEvenWhenServerFails(t *testing.T) {
	fa := &fakeAuth{logoutErr: errors.New("offline")}
	m, store := newManager(t, fa)
	ctx := context.Background()
	require.NoError(t, m.Login(ctx, api.Credentials{Username: "ada"}))

	require.NoError(t, m.Logout(ctx))
	assert.False(t, m.LoggedIn())
	assert.Equal(t, 1, fa.logouts)

	_, err := store.Get(ctx, auth.TokenKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLogoutWithoutSessionSkipsServer(t *testing.T) {
	fa := &fakeAuth{}
	m, _ := newManager(t, fa)
	require.NoError(t, m.Logout(context.Background()))
	assert.Zero(t, fa.logouts)
}

func TestWhoAmICachedPerToken(t *testing.T) {
	fa := &fakeAuth{}
	m, _ := newManager(t, fa)
	ctx := context.Background()

	_, err := m.WhoAmI(ctx)
	assert.ErrorIs(t, err, ErrNotLoggedIn)

	require.NoError(t, m.Login(ctx, api.Credentials{Username: "ada"}))
	u, err := m.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, "ada", u.Username)

	_, err = m.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, fa.meCalls)

	require.NoError(t, m.Login(ctx, api.Credentials{Username: "bob"}))
	_, err = m.WhoAmI(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, fa.meCalls, "new token refetches the account")
}

func TestCmds(t *testing.T) {
	m, _ := newManager(t, &fakeAuth{})
	ctx := context.Background()

	ch, cancel := m.Provider().Subscribe()
	defer cancel()

	msg := m.LoginCmd(ctx, api.Credentials{Username: "ada"})()
	assert.Equal(t, LoginMsg{}, msg)

	changed := WatchCmd(ch)()
	assert.Equal(t, ChangedMsg{LoggedIn: true}, changed)

	um, ok := m.WhoAmICmd(ctx)().(UserMsg)
	require.True(t, ok)
	assert.NoError(t, um.Err)

	assert.Equal(t, LogoutMsg{}, m.LogoutCmd(ctx)())
	assert.Equal(t, ChangedMsg{LoggedIn: false}, WatchCmd(ch)())

	cancel()
	assert.Nil(t, WatchCmd(ch)())
}
