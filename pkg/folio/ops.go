package folio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzbill/folio/internal/bus"
	"github.com/rzbill/folio/internal/codec"
	"github.com/rzbill/folio/internal/storage"
	"github.com/rzbill/folio/pkg/async"
	logpkg "github.com/rzbill/folio/pkg/log"
	"github.com/rzbill/folio/pkg/paper"
)

// Write stores value under key and then broadcasts the change. A storage
// failure is returned and nothing is broadcast.
func (b *Book) Write(key string, value any) async.Completion {
	return async.NewCompletion(b.sched, func(ctx context.Context) error {
		if err := b.store.Write(key, value); err != nil {
			return err
		}
		k, _ := storage.NormalizeKey(key)
		c := bus.Change{ID: b.ids.Next(), Key: k, Type: codec.TypeOf(value), Value: value}
		b.logger.Debug("write", logpkg.Str("key", k), logpkg.Str("id", c.ID.String()))
		if err := b.bus.Publish(c); err != nil {
			if errors.Is(err, bus.ErrClosed) {
				return nil
			}
			b.logger.Warn("broadcast fault", logpkg.Str("key", k), logpkg.Err(err))
			return fmt.Errorf("%w: %w", ErrBroadcast, err)
		}
		return nil
	})
}

// Read reads key as a T. Absent keys fail with ErrNotFound, values of
// another type with ErrTypeMismatch.
func Read[T any](b *Book, key string) async.Single[T] {
	return async.NewSingle(b.sched, func(ctx context.Context) (T, error) {
		return paper.Get[T](b.store, key)
	})
}

// ReadOr is Read yielding def when key is absent.
func ReadOr[T any](b *Book, key string, def T) async.Single[T] {
	return async.NewSingle(b.sched, func(ctx context.Context) (T, error) {
		return paper.GetOr(b.store, key, def)
	})
}

// ReadAny reads key as whatever registered type it was stored with.
func (b *Book) ReadAny(key string) async.Single[any] {
	return async.NewSingle(b.sched, func(ctx context.Context) (any, error) {
		return b.store.Read(key)
	})
}

// Delete removes key. Deletes are not broadcast.
func (b *Book) Delete(key string) async.Completion {
	return async.NewCompletion(b.sched, func(ctx context.Context) error {
		return b.store.Delete(key)
	})
}

// Exists reports whether key holds a value.
//
// Deprecated: use Contains.
func (b *Book) Exists(key string) async.Single[bool] { return b.Contains(key) }

// Contains reports whether key holds a value.
func (b *Book) Contains(key string) async.Single[bool] {
	return async.NewSingle(b.sched, func(ctx context.Context) (bool, error) {
		return b.store.Contains(key)
	})
}

// Keys lists every key. Order depends on the engine.
func (b *Book) Keys() async.Single[[]string] {
	return async.NewSingle(b.sched, func(ctx context.Context) ([]string, error) {
		return b.store.Keys()
	})
}

// Path is the directory holding the book's files.
func (b *Book) Path() async.Single[string] {
	return async.NewSingle(b.sched, func(ctx context.Context) (string, error) {
		return b.store.Path(), nil
	})
}

// KeyPath is the backing file of key; the key need not exist.
func (b *Book) KeyPath(key string) async.Single[string] {
	return async.NewSingle(b.sched, func(ctx context.Context) (string, error) {
		return b.store.KeyPath(key)
	})
}

// Destroy removes every value. Observers are not notified.
func (b *Book) Destroy() async.Completion {
	return async.NewCompletion(b.sched, func(ctx context.Context) error {
		return b.store.Destroy()
	})
}
