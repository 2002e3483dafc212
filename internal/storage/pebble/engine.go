package pebblestore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/rzbill/folio/internal/storage"
)

// itemPrefix namespaces book entries inside the pebble keyspace.
var itemPrefix = []byte("item/")

// Options configures the pebble engine.
type Options struct {
	storage.Options
	// PebbleOptions allows advanced tuning of Pebble. If nil, sensible defaults are used.
	PebbleOptions *pebble.Options
	// Metrics allows observing read/write/commit latencies and sizes. Optional.
	Metrics MetricsHook
}

// MetricsHook is a minimal hook surface for storage observations.
type MetricsHook interface {
	ObserveWrite(elapsed time.Duration, bytes int)
	ObserveRead(elapsed time.Duration, bytes int)
	ObserveBatchCommit(elapsed time.Duration, numOps int, bytes int)
}

// NoopMetrics is used when no metrics hook is provided.
type NoopMetrics struct{}

func (NoopMetrics) ObserveWrite(time.Duration, int)            {}
func (NoopMetrics) ObserveRead(time.Duration, int)             {}
func (NoopMetrics) ObserveBatchCommit(time.Duration, int, int) {}

// Engine stores a book in a pebble database rooted at the book location.
type Engine struct {
	mu        sync.RWMutex
	inner     *pebble.DB
	location  string
	writeSync bool
	metrics   MetricsHook
}

var _ storage.Engine = (*Engine)(nil)

// Open creates or opens the pebble database for a book.
func Open(opts Options) (*Engine, error) {
	if opts.Location == "" {
		return nil, errors.New("pebble: Options.Location is required")
	}
	if err := os.MkdirAll(opts.Location, 0o755); err != nil {
		return nil, fmt.Errorf("pebble: create location: %w", err)
	}

	po := opts.PebbleOptions
	if po == nil {
		po = &pebble.Options{}
	}

	switch opts.Fsync {
	case storage.FsyncModeAlways:
		// Sync on every commit; see writeSync.
	case storage.FsyncModeInterval:
		if opts.FsyncInterval <= 0 {
			opts.FsyncInterval = 5 * time.Millisecond
		}
		interval := opts.FsyncInterval
		po.WALMinSyncInterval = func() time.Duration { return interval }
	case storage.FsyncModeNever:
	default:
		po.WALMinSyncInterval = func() time.Duration { return 5 * time.Millisecond }
	}

	inner, err := pebble.Open(opts.Location, po)
	if err != nil {
		return nil, fmt.Errorf("pebble: open %s: %w", opts.Location, err)
	}

	metrics := opts.Metrics
	if metrics == nil {
		metrics = NoopMetrics{}
	}
	return &Engine{
		inner:     inner,
		location:  opts.Location,
		writeSync: opts.Fsync == storage.FsyncModeAlways,
		metrics:   metrics,
	}, nil
}

func itemKey(key string) []byte {
	k := make([]byte, 0, len(itemPrefix)+len(key))
	k = append(k, itemPrefix...)
	return append(k, key...)
}

// prefixEnd returns the smallest key greater than every key with prefix p.
func prefixEnd(p []byte) []byte {
	end := append([]byte(nil), p...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (e *Engine) db() (*pebble.DB, error) {
	if e.inner == nil {
		return nil, storage.ErrClosed
	}
	return e.inner, nil
}

func (e *Engine) commit(b *pebble.Batch, ops int) error {
	start := time.Now()
	size := b.Len()
	mode := pebble.NoSync
	if e.writeSync {
		mode = pebble.Sync
	}
	err := b.Commit(mode)
	e.metrics.ObserveBatchCommit(time.Since(start), ops, size)
	return err
}

// Put stores value under key respecting the fsync policy.
func (e *Engine) Put(key string, value []byte) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	db, err := e.db()
	if err != nil {
		return err
	}
	start := time.Now()
	b := db.NewBatch()
	defer b.Close()
	if err := b.Set(itemKey(key), value, nil); err != nil {
		return err
	}
	if err := e.commit(b, 1); err != nil {
		return err
	}
	e.metrics.ObserveWrite(time.Since(start), len(value))
	return nil
}

// Get copies the value for key.
func (e *Engine) Get(key string) ([]byte, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	db, err := e.db()
	if err != nil {
		return nil, err
	}
	start := time.Now()
	val, closer, err := db.Get(itemKey(key))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	defer closer.Close()
	buf := append([]byte(nil), val...)
	e.metrics.ObserveRead(time.Since(start), len(buf))
	return buf, nil
}

func (e *Engine) Has(key string) (bool, error) {
	_, err := e.Get(key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}

func (e *Engine) Delete(key string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	db, err := e.db()
	if err != nil {
		return err
	}
	b := db.NewBatch()
	defer b.Close()
	if err := b.Delete(itemKey(key), nil); err != nil {
		return err
	}
	return e.commit(b, 1)
}

// Keys walks the item prefix in byte order.
func (e *Engine) Keys() ([]string, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	db, err := e.db()
	if err != nil {
		return nil, err
	}
	it, err := db.NewIter(&pebble.IterOptions{LowerBound: itemPrefix, UpperBound: prefixEnd(itemPrefix)})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var keys []string
	for ok := it.First(); ok; ok = it.Next() {
		keys = append(keys, string(bytes.TrimPrefix(it.Key(), itemPrefix)))
	}
	return keys, it.Error()
}

// Destroy drops every item with a range tombstone and compacts the range.
func (e *Engine) Destroy() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	db, err := e.db()
	if err != nil {
		return err
	}
	b := db.NewBatch()
	defer b.Close()
	end := prefixEnd(itemPrefix)
	if err := b.DeleteRange(itemPrefix, end, nil); err != nil {
		return err
	}
	if err := e.commit(b, 1); err != nil {
		return err
	}
	return db.Compact(itemPrefix, end, true)
}

func (e *Engine) Path() string { return e.location }

// KeyPath is logical for pebble: values live inside sstables.
func (e *Engine) KeyPath(key string) string { return storage.LogicalKeyPath(e.location, key) }

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.inner == nil {
		return nil
	}
	err := e.inner.Close()
	e.inner = nil
	return err
}
