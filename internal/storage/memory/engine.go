// Package memstore is a process-local Engine used in tests and for
// throwaway books.
package memstore

import (
	"path/filepath"
	"sort"
	"sync"

	"github.com/rzbill/folio/internal/storage"
)

// Engine keeps items in a map.
type Engine struct {
	mu       sync.RWMutex
	items    map[string][]byte
	location string
	closed   bool
}

var _ storage.Engine = (*Engine)(nil)

// New returns an empty engine reporting location as its path.
func New(location string) *Engine {
	return &Engine{items: make(map[string][]byte), location: location}
}

func (e *Engine) Put(key string, value []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return storage.ErrClosed
	}
	e.items[key] = append([]byte{}, value...)
	return nil
}

func (e *Engine) Get(key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, storage.ErrClosed
	}
	v, ok := e.items[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return append([]byte{}, v...), nil
}

func (e *Engine) Has(key string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return false, storage.ErrClosed
	}
	_, ok := e.items[key]
	return ok, nil
}

func (e *Engine) Delete(key string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return storage.ErrClosed
	}
	delete(e.items, key)
	return nil
}

// Keys are returned sorted so callers get a stable order.
func (e *Engine) Keys() ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, storage.ErrClosed
	}
	keys := make([]string, 0, len(e.items))
	for k := range e.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (e *Engine) Destroy() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return storage.ErrClosed
	}
	e.items = make(map[string][]byte)
	return nil
}

func (e *Engine) Path() string { return e.location }

func (e *Engine) KeyPath(key string) string {
	return filepath.Join(e.location, storage.FileName(key))
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}
