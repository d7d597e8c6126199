package helper

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateUUID(t *testing.T) {
	id, err := GenerateUUID()
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func writeString(s string) FileWriter {
	return func(f *os.File) error {
		_, err := f.WriteString(s)
		return err
	}
}

func TestWriteFilesAtomically(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("old"), 0o644))

	err := WriteFilesAtomically(map[string]FileWriter{
		a: writeString("new a"),
		b: writeString("new b"),
	})
	require.NoError(t, err)

	got, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "new a", string(got))
	got, err = os.ReadFile(b)
	require.NoError(t, err)
	assert.Equal(t, "new b", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestWriteFilesAtomically_WorldReadable(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("old"), 0o600))

	require.NoError(t, WriteFilesAtomically(map[string]FileWriter{
		a: writeString("new a"),
		b: writeString("new b"),
	}))

	for _, path := range []string{a, b} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, OutputFileMode, info.Mode().Perm(), path)
	}
}

func TestWriteFilesAtomically_FailureLeavesTargetsUntouched(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("old"), 0o644))

	err := WriteFilesAtomically(map[string]FileWriter{
		a: writeString("new a"),
		b: func(*os.File) error { return errors.New("disk full") },
	})
	require.ErrorContains(t, err, "disk full")

	got, err := os.ReadFile(a)
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))
	assert.NoFileExists(t, b)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCreateFolder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x", "y")
	require.NoError(t, CreateFolder(path))
	assert.DirExists(t, path)
}
