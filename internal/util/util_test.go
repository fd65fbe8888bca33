// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("hello"), 0600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "store.db")

	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0600))

	_, err := os.Stat(path)
	require.NoError(t, err)
}

func TestAtomicWriteFile_OverwritesAndLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "f.txt")

	require.NoError(t, AtomicWriteFile(path, []byte("first"), 0600))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0600))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(content))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must be renamed away")
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestTruncateWidth(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"ascii cut", "hello world", 6, "hello…"},
		{"newlines folded", "line one\nline two", 40, "line one line two"},
		{"zero width", "anything", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateWidth(tt.in, tt.width))
		})
	}
}

func TestTruncateWidth_WideRunes(t *testing.T) {
	got := TruncateWidth("日本語のタイトル", 7)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 7)
}

func TestPadWidth(t *testing.T) {
	assert.Equal(t, "ab   ", PadWidth("ab", 5))
	assert.Equal(t, 4, runewidth.StringWidth(PadWidth("abcdefgh", 4)))
}

func TestNormalizeInput(t *testing.T) {
	assert.Equal(t, "", NormalizeInput("   \n\t "))
	assert.Equal(t, "hello", NormalizeInput("  hello \n"))
	// "e" + combining acute composes to a single rune.
	assert.Equal(t, "caf\u00e9", NormalizeInput("cafe\u0301"))
}

// =============================================================================
// GENERATION TESTS
// =============================================================================

func TestGeneration_StaleStamps(t *testing.T) {
	var g Generation
	assert.False(t, g.IsCurrent(0), "zero stamp is never current")

	first := g.Next()
	assert.True(t, g.IsCurrent(first))

	second := g.Next()
	assert.False(t, g.IsCurrent(first))
	assert.True(t, g.IsCurrent(second))
	assert.Equal(t, second, g.Current())
}

func TestGeneration_Concurrent(t *testing.T) {
	var g Generation
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.Next()
		}()
	}
	wg.Wait()
	assert.Equal(t, uint64(50), g.Current())
}
