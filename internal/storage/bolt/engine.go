// Package boltstore keeps a whole book in one bbolt file.
package boltstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rzbill/folio/internal/storage"
	"go.etcd.io/bbolt"
)

// FileName is the database file inside the book location.
const FileName = "book.db"

var bucket = []byte("items")

// Engine wraps a bbolt database with a single items bucket.
type Engine struct {
	db       *bbolt.DB
	location string
}

var _ storage.Engine = (*Engine)(nil)

// Open opens or creates <location>/book.db. bbolt holds an exclusive file
// lock; a second opener times out with storage.ErrLocked.
func Open(opts storage.Options) (*Engine, error) {
	if opts.Location == "" {
		return nil, errors.New("bolt: Options.Location is required")
	}
	if err := os.MkdirAll(opts.Location, 0o755); err != nil {
		return nil, fmt.Errorf("bolt: create location: %w", err)
	}
	bopts := &bbolt.Options{
		Timeout: 200 * time.Millisecond,
		NoSync:  opts.Fsync == storage.FsyncModeNever,
	}
	db, err := bbolt.Open(filepath.Join(opts.Location, FileName), 0o600, bopts)
	if err != nil {
		if errors.Is(err, bbolt.ErrTimeout) {
			return nil, fmt.Errorf("%w: %s", storage.ErrLocked, opts.Location)
		}
		return nil, fmt.Errorf("bolt: open: %w", err)
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Engine{db: db, location: opts.Location}, nil
}

func (e *Engine) Put(key string, value []byte) error {
	if e.db == nil {
		return storage.ErrClosed
	}
	return e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), value)
	})
}

func (e *Engine) Get(key string) ([]byte, error) {
	if e.db == nil {
		return nil, storage.ErrClosed
	}
	var out []byte
	err := e.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return storage.ErrNotFound
		}
		// values are only valid inside the transaction
		out = append([]byte{}, v...)
		return nil
	})
	return out, err
}

func (e *Engine) Has(key string) (bool, error) {
	if e.db == nil {
		return false, storage.ErrClosed
	}
	var ok bool
	err := e.db.View(func(tx *bbolt.Tx) error {
		ok = tx.Bucket(bucket).Get([]byte(key)) != nil
		return nil
	})
	return ok, err
}

func (e *Engine) Delete(key string) error {
	if e.db == nil {
		return storage.ErrClosed
	}
	return e.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

func (e *Engine) Keys() ([]string, error) {
	if e.db == nil {
		return nil, storage.ErrClosed
	}
	var keys []string
	err := e.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).ForEach(func(k, _ []byte) error {
			keys = append(keys, string(k))
			return nil
		})
	})
	return keys, err
}

// Destroy drops and recreates the items bucket in one transaction.
func (e *Engine) Destroy() error {
	if e.db == nil {
		return storage.ErrClosed
	}
	return e.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	})
}

func (e *Engine) Path() string { return e.location }

func (e *Engine) KeyPath(key string) string { return storage.LogicalKeyPath(e.location, key) }

func (e *Engine) Close() error {
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}
