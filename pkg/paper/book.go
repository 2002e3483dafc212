package paper

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/rzbill/folio/internal/codec"
	"github.com/rzbill/folio/internal/storage"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// Reader is the read side used by Get and GetOr.
type Reader interface {
	ReadInto(key string, dst any) error
}

// Store is the synchronous book contract the async layer is built on.
type Store interface {
	Reader
	Write(key string, value any) error
	Read(key string) (any, error)
	Delete(key string) error
	Contains(key string) (bool, error)
	Keys() ([]string, error)
	Destroy() error
	Path() string
	KeyPath(key string) (string, error)
}

// Book is a named collection of typed values on one engine.
type Book struct {
	name   string
	engine storage.Engine
	logger logpkg.Logger
}

var _ Store = (*Book)(nil)

// NewBook wraps an engine directly, bypassing Init and the engine cache.
func NewBook(name string, e storage.Engine) *Book {
	return &Book{name: name, engine: e, logger: logpkg.NewNopLogger()}
}

func (b *Book) Name() string { return b.name }

// Write stores value under key, replacing any previous value.
func (b *Book) Write(key string, value any) error {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return err
	}
	rec, err := codec.Encode(value)
	if errors.Is(err, codec.ErrNil) {
		return fmt.Errorf("%w: key %q", ErrNilValue, key)
	}
	if err != nil {
		return err
	}
	if err := b.engine.Put(k, rec); err != nil {
		return fmt.Errorf("paper: write %q: %w", key, err)
	}
	b.logger.Debug("write", logpkg.Str("key", k), logpkg.Int("bytes", len(rec)))
	return nil
}

func (b *Book) record(key string) (codec.Record, error) {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return codec.Record{}, err
	}
	raw, err := b.engine.Get(k)
	if errors.Is(err, storage.ErrNotFound) {
		return codec.Record{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	if err != nil {
		return codec.Record{}, fmt.Errorf("paper: read %q: %w", key, err)
	}
	rec, err := codec.Decode(raw)
	if err != nil {
		return codec.Record{}, fmt.Errorf("paper: read %q: %w", key, err)
	}
	return rec, nil
}

func decode(rec codec.Record) (any, error) {
	t, err := lookup(rec.Type)
	if err != nil {
		return nil, err
	}
	ptr := reflect.New(t)
	if err := rec.Into(ptr.Interface()); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// Read returns the stored value as its registered type.
func (b *Book) Read(key string) (any, error) {
	rec, err := b.record(key)
	if err != nil {
		return nil, err
	}
	return decode(rec)
}

// ReadInto decodes the value under key into dst, a non-nil pointer. The
// stored type must match dst's element type; interface element types
// accept any registered type assignable to them.
func (b *Book) ReadInto(key string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("paper: ReadInto needs a non-nil pointer, got %T", dst)
	}
	rec, err := b.record(key)
	if err != nil {
		return err
	}
	want := rv.Type().Elem()
	if want.Kind() == reflect.Interface {
		v, err := decode(rec)
		if err != nil {
			return err
		}
		vv := reflect.ValueOf(v)
		if !vv.Type().AssignableTo(want) {
			return fmt.Errorf("%w: %q holds %s, want %s", ErrTypeMismatch, key, rec.Type, want)
		}
		rv.Elem().Set(vv)
		return nil
	}
	if name := codec.TypeName(want); name != rec.Type {
		return fmt.Errorf("%w: %q holds %s, want %s", ErrTypeMismatch, key, rec.Type, name)
	}
	return rec.Into(dst)
}

// Delete removes key. Absent keys are not an error.
func (b *Book) Delete(key string) error {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return err
	}
	if err := b.engine.Delete(k); err != nil {
		return fmt.Errorf("paper: delete %q: %w", key, err)
	}
	b.logger.Debug("delete", logpkg.Str("key", k))
	return nil
}

// Contains reports whether key holds a value.
func (b *Book) Contains(key string) (bool, error) {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return false, err
	}
	return b.engine.Has(k)
}

// Exist reports whether key holds a value.
//
// Deprecated: use Contains.
func (b *Book) Exist(key string) (bool, error) { return b.Contains(key) }

// Keys lists all keys in engine order.
func (b *Book) Keys() ([]string, error) {
	keys, err := b.engine.Keys()
	if err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []string{}
	}
	return keys, nil
}

// Destroy removes every value in the book.
func (b *Book) Destroy() error {
	if err := b.engine.Destroy(); err != nil {
		return fmt.Errorf("paper: destroy %s: %w", b.name, err)
	}
	b.logger.Debug("destroyed")
	return nil
}

// Path is the book's directory.
func (b *Book) Path() string { return b.engine.Path() }

// KeyPath is the backing file for key. The key need not exist.
func (b *Book) KeyPath(key string) (string, error) {
	k, err := storage.NormalizeKey(key)
	if err != nil {
		return "", err
	}
	return b.engine.KeyPath(k), nil
}

// Get reads key as a T.
func Get[T any](r Reader, key string) (T, error) {
	var v T
	if err := r.ReadInto(key, &v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// GetOr is Get returning def when key is absent.
func GetOr[T any](r Reader, key string, def T) (T, error) {
	v, err := Get[T](r, key)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	return v, err
}
