// Package diskvstore keeps one file per key using diskv, guarded against
// other processes by an advisory flock next to the book directory.
package diskvstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"github.com/peterbourgon/diskv/v3"
	"github.com/rzbill/folio/internal/storage"
)

// Engine is the default storage backend.
type Engine struct {
	mu       sync.RWMutex
	dv       *diskv.Diskv
	lock     *flock.Flock
	location string
	closed   bool
}

var _ storage.Engine = (*Engine)(nil)

func transform(key string) *diskv.PathKey {
	return &diskv.PathKey{FileName: storage.FileName(key)}
}

func inverse(pk *diskv.PathKey) string {
	if len(pk.Path) > 0 {
		return ""
	}
	k, ok := storage.KeyFromFileName(pk.FileName)
	if !ok {
		return ""
	}
	return k
}

// LockPath is the flock file guarding location.
func LockPath(location string) string {
	return filepath.Clean(location) + ".lock"
}

// Open creates the book directory and takes its process lock.
func Open(opts storage.Options) (*Engine, error) {
	if opts.Location == "" {
		return nil, errors.New("diskv: Options.Location is required")
	}
	if err := os.MkdirAll(opts.Location, 0o755); err != nil {
		return nil, fmt.Errorf("diskv: create location: %w", err)
	}

	lock := flock.New(LockPath(opts.Location))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("diskv: lock %s: %w", lock.Path(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", storage.ErrLocked, opts.Location)
	}

	dopts := diskv.Options{
		BasePath:          opts.Location,
		AdvancedTransform: transform,
		InverseTransform:  inverse,
		CacheSizeMax:      opts.CacheSizeMax,
	}
	if opts.Compress {
		dopts.Compression = diskv.NewGzipCompression()
	}
	return &Engine{dv: diskv.New(dopts), lock: lock, location: opts.Location}, nil
}

func (e *Engine) check() error {
	if e.closed {
		return storage.ErrClosed
	}
	return nil
}

func (e *Engine) Put(key string, value []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.check(); err != nil {
		return err
	}
	return e.dv.Write(key, value)
}

func (e *Engine) Get(key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	b, err := e.dv.Read(key)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, storage.ErrNotFound
	}
	return b, err
}

func (e *Engine) Has(key string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.check(); err != nil {
		return false, err
	}
	return e.dv.Has(key), nil
}

func (e *Engine) Delete(key string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.check(); err != nil {
		return err
	}
	if err := e.dv.Erase(key); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// Keys lists key files directly under the location.
func (e *Engine) Keys() ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if err := e.check(); err != nil {
		return nil, err
	}
	var keys []string
	for k := range e.dv.Keys(nil) {
		if k != "" {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Destroy removes the book directory and everything in it, then recreates
// it empty. The lock file lives outside the directory and stays held.
func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.check(); err != nil {
		return err
	}
	if err := e.dv.EraseAll(); err != nil {
		return err
	}
	return os.MkdirAll(e.location, 0o755)
}

func (e *Engine) Path() string { return e.location }

func (e *Engine) KeyPath(key string) string {
	return filepath.Join(e.location, storage.FileName(key))
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.lock.Unlock()
}
