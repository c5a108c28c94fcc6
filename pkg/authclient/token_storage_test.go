package authclient

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	ts := NewFileTokenStorage(path)

	token, err := ts.Load()
	require.NoError(t, err)
	assert.Empty(t, token, "missing file is an empty token")

	require.NoError(t, ts.Save("tok-1"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	token, err = ts.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)

	require.NoError(t, ts.Clear())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, ts.Clear(), "clearing twice is fine")
}

func TestFileTokenStorage_TightensExistingMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("old"), 0o644))

	require.NoError(t, NewFileTokenStorage(path).Save("new"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestMemoryTokenStorage(t *testing.T) {
	ts := NewMemoryTokenStorage()

	require.NoError(t, ts.Save("tok"))
	token, _ := ts.Load()
	assert.Equal(t, "tok", token)

	require.NoError(t, ts.Clear())
	token, _ = ts.Load()
	assert.Empty(t, token)
}
