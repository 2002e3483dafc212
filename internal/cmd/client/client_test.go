package client

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := NewRoot(func() string { return "http://127.0.0.1:0" })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append(args, "--data-dir", dir))
	err := root.Execute()
	return out.String(), err
}

func TestBookCommands(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "put", "theme", `{"dark":true}`)
	require.NoError(t, err)
	_, err = run(t, dir, "put", "k2", `2`)
	require.NoError(t, err)

	out, err := run(t, dir, "get", "theme")
	require.NoError(t, err)
	assert.JSONEq(t, `{"dark":true}`, out)

	out, err = run(t, dir, "keys")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"theme", "k2"}, strings.Fields(out))

	out, err = run(t, dir, "exists", "theme")
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = run(t, dir, "path", "theme")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "theme.pt"), out)

	_, err = run(t, dir, "rm", "theme", "never-written")
	require.NoError(t, err)
	out, err = run(t, dir, "exists", "theme")
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	_, err = run(t, dir, "get", "theme")
	assert.Error(t, err)
	out, err = run(t, dir, "get", "theme", "--default", "{}")
	require.NoError(t, err)
	assert.Equal(t, "{}\n", out)
}

func TestBookFlagAndDestroy(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "put", "a", `1`, "--book", "orders")
	require.NoError(t, err)

	out, err := run(t, dir, "keys")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	out, err = run(t, dir, "books")
	require.NoError(t, err)
	assert.Contains(t, out, "orders\tdiskv\t")

	_, err = run(t, dir, "destroy", "--book", "orders")
	assert.Error(t, err)
	_, err = run(t, dir, "destroy", "--book", "orders", "--confirm")
	require.NoError(t, err)
	out, err = run(t, dir, "keys", "--book", "orders")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))
}

func TestPutRejectsNonJSON(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, dir, "put", "k", "plain words")
	assert.Error(t, err)
	_, err = run(t, dir, "put", "k", "plain words", "--raw")
	require.NoError(t, err)
	out, err := run(t, dir, "get", "k")
	require.NoError(t, err)
	assert.Equal(t, "\"plain words\"\n", out)
}

func TestWatchPrintsEvents(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/watch", r.URL.Path)
		assert.Equal(t, "theme", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": subscribed x\n\n")
		fmt.Fprint(w, "data: {\"key\":\"theme\",\"value\":1}\n\n")
		fmt.Fprint(w, "data: {\"key\":\"theme\",\"value\":2}\n\n")
		fmt.Fprint(w, "event: error\ndata: {\"error\":\"bus: subscriber overflow\"}\n\n")
	}))
	defer srv.Close()

	root := NewRoot(func() string { return srv.URL })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"watch", "theme", "--limit", "2"})
	require.NoError(t, root.Execute())
	assert.Equal(t, "{\"key\":\"theme\",\"value\":1}\n{\"key\":\"theme\",\"value\":2}\n", out.String())

	root = NewRoot(func() string { return srv.URL })
	out.Reset()
	root.SetOut(&out)
	root.SetArgs([]string{"watch", "theme"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overflow")
}
