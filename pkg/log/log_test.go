package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level, f Formatter) (Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewLogger(WithLevel(level), WithFormatter(f), WithOutput(NewWriterOutput(&buf)))
	return l, &buf
}

func TestTextFormatterLine(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	l.With(Component("folio")).Info("book opened", Int("n", 1), Str("name", "my book"))
	assert.Equal(t, "INFO  book opened component=folio n=1 name=\"my book\"\n", buf.String())
}

func TestLevelGating(t *testing.T) {
	l, buf := newBufferLogger(WarnLevel, &TextFormatter{DisableTimestamp: true})
	l.Debug("nope")
	l.Info("nope")
	assert.Empty(t, buf.String())
	l.Warn("yes")
	assert.Contains(t, buf.String(), "WARN  yes")

	l.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, l.GetLevel())
	l.Debug("now")
	assert.Contains(t, buf.String(), "DEBUG now")
}

func TestJSONFormatter(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &JSONFormatter{})
	l.WithError(errors.New("boom")).Error("write failed", Str("key", "k1"))

	var m map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "ERROR", m["level"])
	assert.Equal(t, "write failed", m["msg"])
	assert.Equal(t, "k1", m["key"])
	assert.Equal(t, "boom", m["error"])
}

func TestChildLoggerDoesNotLeakFields(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	child := l.WithField("book", "a")
	child.Info("child")
	l.Info("parent")
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "book=a")
	assert.NotContains(t, lines[1], "book=a")
}

func TestKeyValueArgs(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	l.Infof("pairs", "a", 1, "b", "two")
	assert.Contains(t, buf.String(), "a=1 b=two")
}

func TestRedaction(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WithFormatter(&TextFormatter{DisableTimestamp: true}), WithOutput(NewWriterOutput(&buf))).(*BaseLogger)
	l.handler = l.handler.withRedactions([]string{"secret"})
	l.slogLogger = slog.New(l.handler)
	l.Info("login", Str("secret", "hunter2"), Str("user", "u"))
	assert.Contains(t, buf.String(), "secret=[REDACTED]")
	assert.NotContains(t, buf.String(), "hunter2")
}

func TestSampling(t *testing.T) {
	s := newSampler(2, 3)
	var allowed int
	for i := 0; i < 8; i++ {
		if s.allow(slog.LevelInfo, "m") {
			allowed++
		}
	}
	// first 2, then every 3rd of the remaining 6
	assert.Equal(t, 4, allowed)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"debug": DebugLevel, "INFO": InfoLevel, "warning": WarnLevel, "error": ErrorLevel, "": InfoLevel} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestApplyConfig(t *testing.T) {
	l, err := ApplyConfig(&Config{Level: "error", Format: "json", Outputs: []string{"null"}})
	require.NoError(t, err)
	assert.Equal(t, ErrorLevel, l.GetLevel())

	_, err = ApplyConfig(&Config{Format: "xml"})
	assert.Error(t, err)
}

func TestFileOutput(t *testing.T) {
	path := t.TempDir() + "/logs/folio.log"
	l, err := ApplyConfig(&Config{Format: "text", Outputs: []string{path}})
	require.NoError(t, err)
	l.Info("to file")
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "to file")
}

func TestToStdLogger(t *testing.T) {
	l, buf := newBufferLogger(InfoLevel, &TextFormatter{DisableTimestamp: true})
	std := ToStdLogger(l, WarnLevel)
	std.Println("from stdlib")
	assert.Contains(t, buf.String(), "WARN  from stdlib")
}
