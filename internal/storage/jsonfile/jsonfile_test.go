package jsonfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")

	data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	onDisk, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(onDisk))
}

func TestLoad_EmptyFileInitialized(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))

	data, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestLoad_ExistingContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"title":"Dune"}]`), 0o644))

	data, err := Load(path)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"title":"Dune"}]`, string(data))
}

func TestWriteAtomic_ReplacesTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cds.json")
	require.NoError(t, WriteAtomic(path, []byte("[1]")))
	require.NoError(t, WriteAtomic(path, []byte("[2]")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[2]", string(data))

	// временные файлы не должны оставаться
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteAtomic_CreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "users.json")
	require.NoError(t, WriteAtomic(path, []byte("[]")))

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
