package storage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	logpkg "github.com/rzbill/folio/pkg/log"
)

var (
	// ErrNotFound is returned by Get when the key has no value.
	ErrNotFound = errors.New("storage: key not found")
	// ErrInvalidKey is returned for empty keys or keys that cannot be used
	// as a file name.
	ErrInvalidKey = errors.New("storage: invalid key")
	// ErrLocked is returned by Open when another process holds the location.
	ErrLocked = errors.New("storage: location locked by another process")
	// ErrClosed is returned by operations on a closed engine.
	ErrClosed = errors.New("storage: engine closed")
)

// FileExt is appended to a key to form its backing file name.
const FileExt = ".pt"

// Engine is the byte-level key/value contract every backend implements.
// Keys reaching an Engine are already normalized by NormalizeKey.
type Engine interface {
	Put(key string, value []byte) error
	// Get returns ErrNotFound when the key is absent.
	Get(key string) ([]byte, error)
	Has(key string) (bool, error)
	// Delete is a no-op for absent keys.
	Delete(key string) error
	// Keys lists every stored key in engine order.
	Keys() ([]string, error)
	// Destroy removes every entry. The engine stays usable afterwards.
	Destroy() error
	// Path is the engine's location on disk.
	Path() string
	// KeyPath is the backing file for key. It need not exist.
	KeyPath(key string) string
	Close() error
}

// FsyncMode defines durability behavior for write operations.
type FsyncMode int

const (
	FsyncModeUnspecified FsyncMode = iota
	// FsyncModeAlways requests a sync on each committed write.
	FsyncModeAlways
	// FsyncModeInterval allows the engine to coalesce syncs for writes within
	// the configured interval (group commit).
	FsyncModeInterval
	// FsyncModeNever avoids forcing syncs from the application. The engine may
	// still sync based on its own policies.
	FsyncModeNever
)

// String returns the config spelling of the mode.
func (m FsyncMode) String() string {
	switch m {
	case FsyncModeAlways:
		return "always"
	case FsyncModeInterval:
		return "interval"
	case FsyncModeNever:
		return "never"
	default:
		return "unspecified"
	}
}

// ParseFsyncMode parses always|interval|never. Empty means unspecified.
func ParseFsyncMode(s string) (FsyncMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return FsyncModeUnspecified, nil
	case "always":
		return FsyncModeAlways, nil
	case "interval":
		return FsyncModeInterval, nil
	case "never":
		return FsyncModeNever, nil
	default:
		return FsyncModeUnspecified, fmt.Errorf("storage: invalid fsync mode %q; use always|interval|never", s)
	}
}

// Options are the engine-agnostic open parameters. Backends ignore fields
// that do not apply to them.
type Options struct {
	// Location is the directory that holds the book's data.
	Location string
	Fsync    FsyncMode
	// FsyncInterval controls group-commit when Fsync=FsyncModeInterval.
	FsyncInterval time.Duration
	// CacheSizeMax bounds the diskv read cache in bytes.
	CacheSizeMax uint64
	// Compress enables gzip compression of diskv files.
	Compress bool
	Logger   logpkg.Logger
}
