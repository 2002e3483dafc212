package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv overlays FOLIO_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	if v := os.Getenv("FOLIO_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("FOLIO_ENGINE"); v != "" {
		cfg.Engine = v
	}
	if v := os.Getenv("FOLIO_FSYNC"); v != "" {
		cfg.Fsync = v
	}
	if v := os.Getenv("FOLIO_FSYNC_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.FsyncIntervalMs = n
		}
	}
	if v := os.Getenv("FOLIO_DISKV_CACHE_BYTES"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.DiskvCacheBytes = n
		}
	}
	if v := os.Getenv("FOLIO_DISKV_COMPRESS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DiskvCompress = b
		}
	}
	if v := os.Getenv("FOLIO_IO_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.IOWorkers = n
		}
	}
	if v := os.Getenv("FOLIO_SUBSCRIBER_BUFFER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.SubscriberBuffer = n
		}
	}
	if v := os.Getenv("FOLIO_OVERFLOW"); v != "" {
		cfg.Overflow = v
	}
	if v := os.Getenv("FOLIO_DEFAULT_BOOK"); v != "" {
		cfg.DefaultBook = v
	}
	if v := os.Getenv("FOLIO_HTTP_ADDR"); v != "" {
		cfg.HTTPAddr = v
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("FOLIO_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("FOLIO_LOG_OUTPUTS"); v != "" {
		cfg.Log.Outputs = nil
		for _, p := range strings.Split(v, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.Log.Outputs = append(cfg.Log.Outputs, p)
			}
		}
	}
}
