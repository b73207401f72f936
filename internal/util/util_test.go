// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// ATOMIC WRITE TESTS
// =============================================================================

func TestAtomicWriteFile_Basic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte(`{"version":1}`), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(got))
}

func TestAtomicWriteFile_CreatesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte("x"), 0600))

	_, err := os.Stat(filepath.Dir(path))
	require.NoError(t, err)
}

func TestAtomicWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	require.NoError(t, AtomicWriteFile(path, []byte("first version, longer"), 0600))
	require.NoError(t, AtomicWriteFile(path, []byte("second"), 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestAtomicWriteFile_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")

	for i := 0; i < 5; i++ {
		require.NoError(t, AtomicWriteFile(path, []byte(strings.Repeat("z", i)), 0600))
	}

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "state.json", entries[0].Name())
}

func TestAtomicWriteFile_Permissions(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions only")
	}
	path := filepath.Join(t.TempDir(), "secret.toml")

	require.NoError(t, AtomicWriteFile(path, []byte("k = 1"), 0600))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestAtomicWriteFile_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0600))

	err := AtomicWriteFile(filepath.Join(blocker, "state.json"), []byte("x"), 0600)
	assert.Error(t, err)
}

// =============================================================================
// TEXT TESTS
// =============================================================================

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"cut", "hello world", 8, "hello..."},
		{"tiny width", "hello", 2, "he"},
		{"zero width", "hello", 0, ""},
		{"empty", "", 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.width))
		})
	}
}

func TestTruncate_WideRunes(t *testing.T) {
	got := Truncate("日本語のテキスト", 9)
	assert.LessOrEqual(t, runewidth.StringWidth(got), 9)
	assert.True(t, strings.HasSuffix(got, Ellipsis))
}

func TestPadRight(t *testing.T) {
	assert.Equal(t, "ab   ", PadRight("ab", 5))
	assert.Equal(t, "ab...", PadRight("abcdefgh", 5))
	assert.Equal(t, 6, runewidth.StringWidth(PadRight("日本", 6)))
}

func TestSingleLine(t *testing.T) {
	assert.Equal(t, "one two three", SingleLine("  one\ntwo\t\tthree \n"))
	assert.Equal(t, "", SingleLine(" \n\t "))
}
