package diskvstore

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/rzbill/folio/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openAt(t *testing.T, loc string, compress bool) *Engine {
	t.Helper()
	e, err := Open(storage.Options{Location: loc, Compress: compress, CacheSizeMax: 1 << 20})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOneFilePerKey(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	e := openAt(t, loc, false)

	require.NoError(t, e.Put("person", []byte(`{"name":"ann"}`)))
	assert.Equal(t, filepath.Join(loc, "person.pt"), e.KeyPath("person"))
	b, err := os.ReadFile(e.KeyPath("person"))
	require.NoError(t, err)
	assert.Equal(t, `{"name":"ann"}`, string(b))

	got, err := e.Get("person")
	require.NoError(t, err)
	assert.Equal(t, b, got)

	_, err = e.Get("missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	require.NoError(t, e.Delete("missing"))
}

func TestKeysIgnoresForeignFiles(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	e := openAt(t, loc, false)
	require.NoError(t, e.Put("b", []byte("2")))
	require.NoError(t, e.Put("a", []byte("1")))
	require.NoError(t, os.WriteFile(filepath.Join(loc, "notes.txt"), []byte("x"), 0o644))

	keys, err := e.Keys()
	require.NoError(t, err)
	sort.Strings(keys)
	assert.Equal(t, []string{"a", "b"}, keys)

	ok, err := e.Has("a")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, e.Delete("a"))
	ok, _ = e.Has("a")
	assert.False(t, ok)
}

func TestDestroyKeepsEngineUsable(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	e := openAt(t, loc, true)
	require.NoError(t, e.Put("k", []byte("compressed value")))
	got, err := e.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "compressed value", string(got))

	require.NoError(t, e.Destroy())
	keys, err := e.Keys()
	require.NoError(t, err)
	assert.Empty(t, keys)
	assert.DirExists(t, loc)

	require.NoError(t, e.Put("k2", []byte("v")))
	ok, _ := e.Has("k2")
	assert.True(t, ok)
}

func TestLockedLocation(t *testing.T) {
	loc := filepath.Join(t.TempDir(), "folio")
	first := openAt(t, loc, false)

	_, err := Open(storage.Options{Location: loc})
	assert.ErrorIs(t, err, storage.ErrLocked)

	require.NoError(t, first.Close())
	second, err := Open(storage.Options{Location: loc})
	require.NoError(t, err)
	require.NoError(t, second.Close())

	assert.ErrorIs(t, first.Put("k", nil), storage.ErrClosed)
}
