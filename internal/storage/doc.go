// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides ragdesk's durable key/value store.
//
// The store is a single sqlite database (pure Go driver, no cgo) holding
// small string values that must survive restarts, chiefly the session and
// refresh tokens. Several ragdesk processes may share one store; a write in
// one becomes visible to the others on their next read.
//
// # Usage
//
//	kv, err := storage.Open(ctx, path)
//	if err != nil {
//	    return err
//	}
//	defer kv.Close()
//
//	err = kv.Set(ctx, "jwtToken", token)
//	tok, err := kv.Get(ctx, "jwtToken")
//	if errors.Is(err, storage.ErrNotFound) {
//	    // not logged in
//	}
//
// # Storage Location
//
// The database lives at ~/.ragdesk/store.db unless [storage] path says
// otherwise.
package storage
