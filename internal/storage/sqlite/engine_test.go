package sqlitestore

import (
	"path/filepath"
	"testing"

	"github.com/rzbill/folio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteEngine(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	e, err := Open(storage.Options{Location: loc, Fsync: storage.FsyncModeAlways})
	require.NoError(t, err)
	defer e.Close()
	assert.FileExists(t, filepath.Join(loc, FileName))

	require.NoError(t, e.Put("k", []byte("v1")))
	require.NoError(t, e.Put("k", []byte("v2")))
	require.NoError(t, e.Put("empty", nil))

	v, err := e.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(v))

	keys, err := e.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"empty", "k"}, keys)

	ok, err := e.Has("empty")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.Delete("k"))
	_, err = e.Get("k")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, e.Destroy())
	keys, err = e.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestSyncPragma(t *testing.T) {
	assert.Equal(t, "FULL", syncPragma(storage.FsyncModeAlways))
	assert.Equal(t, "OFF", syncPragma(storage.FsyncModeNever))
	assert.Equal(t, "NORMAL", syncPragma(storage.FsyncModeUnspecified))
}
