// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import "sync/atomic"

// Generation is a monotonic counter that stamps asynchronous work. Every
// time the key a screen is bound to changes (a config id, a chat id) the
// owner calls Next; a result carrying an older stamp is stale and must be
// dropped. The zero value is ready to use.
type Generation struct {
	n atomic.Uint64
}

// Next advances the generation and returns the new stamp.
func (g *Generation) Next() uint64 {
	return g.n.Add(1)
}

// Current returns the latest stamp handed out.
func (g *Generation) Current() uint64 {
	return g.n.Load()
}

// IsCurrent reports whether stamp is still the latest generation.
func (g *Generation) IsCurrent(stamp uint64) bool {
	return stamp != 0 && g.n.Load() == stamp
}
