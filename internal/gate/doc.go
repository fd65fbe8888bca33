// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package gate decides whether a screen bound to a resource may render.
//
// Protected screens only need a session token. Resource screens (a chat,
// survey or video assistant addressed by id) also render for anonymous
// viewers when the resource is public; the visibility flag is fetched
// without credentials and any failure counts as private.
//
// The event loop drives a Gate in three steps:
//
//	t := g.Begin(ctx, id)       // Allow, or Pending with a fetch to run
//	if t.Decision == gate.Pending {
//	    res := g.Run(t)         // in a tea.Cmd goroutine
//	    d, ok := g.Apply(res)   // back on the loop; ok is false if stale
//	}
//
// Check wraps the three steps for blocking callers such as the CLI.
package gate
