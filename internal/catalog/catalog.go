package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/gofrs/flock"
)

const (
	fileName = "catalog.json"
	lockName = "catalog.lock"
)

// ErrReserved is returned for book names that collide with catalog files.
var ErrReserved = errors.New("catalog: reserved book name")

// Meta describes a book as first opened under a data directory.
type Meta struct {
	Name        string `json:"name"`
	Engine      string `json:"engine"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

// Reserved reports whether name cannot be used as a book under a root.
func Reserved(name string) bool { return name == fileName || name == lockName }

// Ensure records name in the catalog under root if absent and returns the
// effective meta. Idempotent: returns the existing entry if present.
func Ensure(root, name, engine string) (Meta, error) {
	if Reserved(name) {
		return Meta{}, fmt.Errorf("%w: %q", ErrReserved, name)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return Meta{}, err
	}
	lk := flock.New(filepath.Join(root, lockName))
	if err := lk.Lock(); err != nil {
		return Meta{}, err
	}
	defer func() { _ = lk.Unlock() }()

	books, err := read(root)
	if err != nil {
		return Meta{}, err
	}
	if m, ok := books[name]; ok {
		return m, nil
	}
	m := Meta{Name: name, Engine: engine, CreatedAtMs: time.Now().UnixMilli()}
	books[name] = m
	return m, write(root, books)
}

// List returns the recorded books sorted by name.
func List(root string) ([]Meta, error) {
	books, err := read(root)
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(books))
	for _, m := range books {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func read(root string) (map[string]Meta, error) {
	books := map[string]Meta{}
	b, err := os.ReadFile(filepath.Join(root, fileName))
	if errors.Is(err, os.ErrNotExist) {
		return books, nil
	}
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return books, nil
	}
	var list []Meta
	if err := json.Unmarshal(b, &list); err != nil {
		// rewritten on the next Ensure
		return books, nil
	}
	for _, m := range list {
		books[m.Name] = m
	}
	return books, nil
}

// write replaces the catalog file atomically. Callers hold the lock.
func write(root string, books map[string]Meta) error {
	list := make([]Meta, 0, len(books))
	for _, m := range books {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	b, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(root, fileName+".*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), filepath.Join(root, fileName))
}
