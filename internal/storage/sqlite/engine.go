// Package sqlitestore keeps a book in a single SQLite database.
package sqlitestore

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rzbill/folio/internal/storage"
)

// FileName is the database file inside the book location.
const FileName = "book.sqlite"

const schema = `CREATE TABLE IF NOT EXISTS items (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
)`

// Engine stores items in one table.
type Engine struct {
	db       *sql.DB
	location string
}

var _ storage.Engine = (*Engine)(nil)

func syncPragma(m storage.FsyncMode) string {
	switch m {
	case storage.FsyncModeAlways:
		return "FULL"
	case storage.FsyncModeNever:
		return "OFF"
	default:
		return "NORMAL"
	}
}

// Open opens or creates <location>/book.sqlite in WAL mode.
func Open(opts storage.Options) (*Engine, error) {
	if opts.Location == "" {
		return nil, errors.New("sqlite: Options.Location is required")
	}
	if err := os.MkdirAll(opts.Location, 0o755); err != nil {
		return nil, fmt.Errorf("sqlite: create location: %w", err)
	}
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=%s",
		filepath.Join(opts.Location, FileName), syncPragma(opts.Fsync))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// one writer; serializes access through the pool
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: schema: %w", err)
	}
	return &Engine{db: db, location: opts.Location}, nil
}

func (e *Engine) Put(key string, value []byte) error {
	if e.db == nil {
		return storage.ErrClosed
	}
	if value == nil {
		value = []byte{}
	}
	_, err := e.db.Exec(`INSERT INTO items(key, value) VALUES(?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

func (e *Engine) Get(key string) ([]byte, error) {
	if e.db == nil {
		return nil, storage.ErrClosed
	}
	var v []byte
	err := e.db.QueryRow(`SELECT value FROM items WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return v, err
}

func (e *Engine) Has(key string) (bool, error) {
	if e.db == nil {
		return false, storage.ErrClosed
	}
	var n int
	err := e.db.QueryRow(`SELECT COUNT(1) FROM items WHERE key = ?`, key).Scan(&n)
	return n > 0, err
}

func (e *Engine) Delete(key string) error {
	if e.db == nil {
		return storage.ErrClosed
	}
	_, err := e.db.Exec(`DELETE FROM items WHERE key = ?`, key)
	return err
}

func (e *Engine) Keys() ([]string, error) {
	if e.db == nil {
		return nil, storage.ErrClosed
	}
	rows, err := e.db.Query(`SELECT key FROM items ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func (e *Engine) Destroy() error {
	if e.db == nil {
		return storage.ErrClosed
	}
	_, err := e.db.Exec(`DELETE FROM items`)
	return err
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
