package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rzbill/folio/internal/storage"
	"github.com/rzbill/folio/pkg/folio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "diskv", cfg.Engine)
	assert.Equal(t, "folio", cfg.DefaultBook)
	assert.Equal(t, 64, cfg.IOWorkers)
}

func TestLoadJSON(t *testing.T) {
	file := filepath.Join(t.TempDir(), "folio.json")
	data := []byte(`{"engine":"pebble","fsync":"always","dataDir":"/srv/folio","log":{"level":"debug"}}`)
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "pebble", cfg.Engine)
	assert.Equal(t, "/srv/folio", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset fields keep defaults")
	mode, err := cfg.FsyncMode()
	require.NoError(t, err)
	assert.Equal(t, storage.FsyncModeAlways, mode)
}

func TestLoadYAML(t *testing.T) {
	file := filepath.Join(t.TempDir(), "folio.yaml")
	data := []byte("engine: bolt\noverflow: drop_oldest\nsubscriberBuffer: 16\ndiskvCompress: true\nlog:\n  format: json\n  outputs: [console]\n")
	require.NoError(t, os.WriteFile(file, data, 0o644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Engine)
	assert.Equal(t, 16, cfg.SubscriberBuffer)
	assert.True(t, cfg.DiskvCompress)
	assert.Equal(t, []string{"console"}, cfg.Log.Outputs)
	o, err := cfg.OverflowPolicy()
	require.NoError(t, err)
	assert.Equal(t, folio.OverflowDropOldest, o)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "bad.yml")
	require.NoError(t, os.WriteFile(file, []byte("engine: [unterminated"), 0o644))
	_, err = Load(file)
	assert.Error(t, err)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	for name, mutate := range map[string]func(*Config){
		"engine":   func(c *Config) { c.Engine = "leveldb" },
		"fsync":    func(c *Config) { c.Fsync = "sometimes" },
		"overflow": func(c *Config) { c.Overflow = "explode" },
		"level":    func(c *Config) { c.Log.Level = "loud" },
	} {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate(), name)
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("FOLIO_DATA_DIR", "/tmp/books")
	t.Setenv("FOLIO_ENGINE", "sqlite")
	t.Setenv("FOLIO_IO_WORKERS", "8")
	t.Setenv("FOLIO_DISKV_COMPRESS", "true")
	t.Setenv("FOLIO_FSYNC_INTERVAL_MS", "not-a-number")
	t.Setenv("FOLIO_LOG_OUTPUTS", "console, ,/var/log/folio.log")
	FromEnv(&cfg)

	assert.Equal(t, "/tmp/books", cfg.DataDir)
	assert.Equal(t, "sqlite", cfg.Engine)
	assert.Equal(t, 8, cfg.IOWorkers)
	assert.True(t, cfg.DiskvCompress)
	assert.Equal(t, 5, cfg.FsyncIntervalMs, "invalid numbers are ignored")
	assert.Equal(t, []string{"console", "/var/log/folio.log"}, cfg.Log.Outputs)
}

func TestPlatform(t *testing.T) {
	cfg := Default()
	cfg.DataDir = "/data"
	cfg.FsyncIntervalMs = 10
	logger, err := cfg.Logger()
	require.NoError(t, err)
	p, err := cfg.Platform(logger)
	require.NoError(t, err)
	assert.Equal(t, "/data", p.FilesDir)
	assert.Equal(t, storage.FsyncModeInterval, p.Fsync)
	assert.Equal(t, 10*time.Millisecond, p.FsyncInterval)
	assert.Equal(t, uint64(8<<20), p.CacheSizeMax)
	assert.NotNil(t, p.Logger)
}
