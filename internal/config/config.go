package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rzbill/folio/internal/storage"
	"github.com/rzbill/folio/pkg/folio"
	logpkg "github.com/rzbill/folio/pkg/log"
	"github.com/rzbill/folio/pkg/paper"
	"github.com/rzbill/folio/pkg/sched"
	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// DataDir is the root under which books are created. Empty means DefaultDataDir().
	DataDir string `json:"dataDir" yaml:"dataDir"`
	// Engine is one of diskv, pebble, bolt, sqlite, memory.
	Engine          string `json:"engine" yaml:"engine"`
	Fsync           string `json:"fsync" yaml:"fsync"`
	FsyncIntervalMs int    `json:"fsyncIntervalMs" yaml:"fsyncIntervalMs"`
	DiskvCacheBytes uint64 `json:"diskvCacheBytes" yaml:"diskvCacheBytes"`
	DiskvCompress   bool   `json:"diskvCompress" yaml:"diskvCompress"`
	// IOWorkers bounds the shared IO pool.
	IOWorkers int `json:"ioWorkers" yaml:"ioWorkers"`
	// SubscriberBuffer and Overflow are defaults for observers.
	SubscriberBuffer int    `json:"subscriberBuffer" yaml:"subscriberBuffer"`
	Overflow         string `json:"overflow" yaml:"overflow"`
	DefaultBook      string `json:"defaultBook" yaml:"defaultBook"`
	HTTPAddr         string `json:"httpAddr" yaml:"httpAddr"`
	Log              Log    `json:"log" yaml:"log"`
}

// Log configures pkg/log.
type Log struct {
	Level   string   `json:"level" yaml:"level"`
	Format  string   `json:"format" yaml:"format"`
	Outputs []string `json:"outputs" yaml:"outputs"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Engine:           paper.EngineDiskv,
		Fsync:            "interval",
		FsyncIntervalMs:  5,
		DiskvCacheBytes:  8 << 20,
		IOWorkers:        sched.DefaultIOWorkers,
		SubscriberBuffer: 128,
		Overflow:         "buffer",
		DefaultBook:      paper.DefaultBookName,
		HTTPAddr:         ":7080",
		Log:              Log{Level: "info", Format: "text"},
	}
}

// Load reads configuration from a JSON or YAML file (by extension). If path is empty, returns defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	known := false
	for _, e := range paper.Engines() {
		if c.Engine == e {
			known = true
		}
	}
	if !known {
		return fmt.Errorf("config: unknown engine %q", c.Engine)
	}
	if _, err := c.FsyncMode(); err != nil {
		return err
	}
	if _, err := c.OverflowPolicy(); err != nil {
		return err
	}
	if _, err := logpkg.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) FsyncMode() (storage.FsyncMode, error) { return storage.ParseFsyncMode(c.Fsync) }

func (c Config) OverflowPolicy() (folio.Overflow, error) { return folio.ParseOverflow(c.Overflow) }

// ResolvedDataDir is DataDir or DefaultDataDir().
func (c Config) ResolvedDataDir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	return DefaultDataDir()
}

// Logger builds the logger described by Log.
func (c Config) Logger() (logpkg.Logger, error) {
	return logpkg.ApplyConfig(&logpkg.Config{Level: c.Log.Level, Format: c.Log.Format, Outputs: c.Log.Outputs})
}

// Platform turns the config into paper.Init input.
func (c Config) Platform(logger logpkg.Logger) (paper.Platform, error) {
	mode, err := c.FsyncMode()
	if err != nil {
		return paper.Platform{}, err
	}
	return paper.Platform{
		FilesDir:      c.ResolvedDataDir(),
		Engine:        c.Engine,
		Fsync:         mode,
		FsyncInterval: time.Duration(c.FsyncIntervalMs) * time.Millisecond,
		CacheSizeMax:  c.DiskvCacheBytes,
		Compress:      c.DiskvCompress,
		Logger:        logger,
	}, nil
}
