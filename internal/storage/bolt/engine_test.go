package boltstore

import (
	"path/filepath"
	"testing"

	"github.com/rzbill/folio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoltEngine(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	e, err := Open(storage.Options{Location: loc})
	require.NoError(t, err)
	defer e.Close()

	assert.FileExists(t, filepath.Join(loc, FileName))

	require.NoError(t, e.Put("b", []byte("2")))
	require.NoError(t, e.Put("a", []byte("1")))
	v, err := e.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "1", string(v))

	keys, err := e.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)

	_, err = e.Get("zzz")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, e.Delete("a"))
	ok, err := e.Has("a")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, e.Destroy())
	keys, err = e.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	require.NoError(t, e.Put("c", []byte("3")))
	assert.Equal(t, filepath.Join(loc, "c.pt"), e.KeyPath("c"))
}

func TestBoltClosed(t *testing.T) {
	e, err := Open(storage.Options{Location: t.TempDir()})
	require.NoError(t, err)
	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
	_, err = e.Get("k")
	assert.ErrorIs(t, err, storage.ErrClosed)
}
