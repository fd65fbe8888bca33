// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"crypto/sha256"
	"encoding/hex"
)

// =============================================================================
// VIEWPORT OPTIMIZER
// =============================================================================

// ViewportOptimizer skips viewport updates whose content did not change,
// so a re-render with identical output does not yank the scroll position
// back to the bottom. It is owned by the Update goroutine.
type ViewportOptimizer struct {
	lastContentHash string
	updateCount     uint64
	skipCount       uint64
}

// NewViewportOptimizer creates a new viewport optimizer.
func NewViewportOptimizer() *ViewportOptimizer {
	return &ViewportOptimizer{}
}

// ShouldUpdate reports whether newContent differs from the last content
// passed in, and records it.
func (vo *ViewportOptimizer) ShouldUpdate(newContent string) bool {
	vo.updateCount++

	newHash := hashContent(newContent)
	if vo.updateCount > 1 && newHash == vo.lastContentHash {
		vo.skipCount++
		return false
	}
	vo.lastContentHash = newHash
	return true
}

// ForceUpdate makes the next ShouldUpdate return true, e.g. after a resize.
func (vo *ViewportOptimizer) ForceUpdate() {
	vo.lastContentHash = "\x00"
}

// GetStats returns (totalUpdates, skippedUpdates).
func (vo *ViewportOptimizer) GetStats() (total, skipped uint64) {
	return vo.updateCount, vo.skipCount
}

// hashContent computes a SHA-256 hash of the content for change detection.
func hashContent(content string) string {
	if content == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
