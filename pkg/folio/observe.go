package folio

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/rzbill/folio/internal/bus"
	"github.com/rzbill/folio/internal/filter"
	"github.com/rzbill/folio/internal/storage"
	"github.com/rzbill/folio/pkg/id"
)

// Overflow picks what a subscription does when its consumer falls behind.
type Overflow int

const (
	// OverflowBuffer queues every change.
	OverflowBuffer Overflow = iota
	// OverflowDropLatest discards the incoming change when the queue is full.
	OverflowDropLatest
	// OverflowDropOldest evicts the oldest queued change when the queue is full.
	OverflowDropOldest
	// OverflowError ends the subscription and fails the write that overflowed it.
	OverflowError
)

func (o Overflow) policy() bus.Policy {
	switch o {
	case OverflowDropLatest:
		return bus.PolicyDropLatest
	case OverflowDropOldest:
		return bus.PolicyDropOldest
	case OverflowError:
		return bus.PolicyError
	default:
		return bus.PolicyBuffer
	}
}

func (o Overflow) String() string { return o.policy().String() }

// ParseOverflow accepts buffer, drop_latest, drop_oldest and error.
func ParseOverflow(s string) (Overflow, error) {
	p, err := bus.ParsePolicy(s)
	if err != nil {
		return OverflowBuffer, err
	}
	switch p {
	case bus.PolicyDropLatest:
		return OverflowDropLatest, nil
	case bus.PolicyDropOldest:
		return OverflowDropOldest, nil
	case bus.PolicyError:
		return OverflowError, nil
	}
	return OverflowBuffer, nil
}

type observeOptions struct {
	overflow Overflow
	buffer   int
	filter   string
}

// ObserveOption configures one subscription.
type ObserveOption func(*observeOptions)

// WithOverflow picks the policy for this subscription, overriding the
// book default.
func WithOverflow(o Overflow) ObserveOption {
	return func(opts *observeOptions) { opts.overflow = o }
}

// WithBuffer bounds the subscription queue for the drop and error policies.
func WithBuffer(n int) ObserveOption { return func(opts *observeOptions) { opts.buffer = n } }

// WithFilter adds a CEL predicate over key, type_name, value, ts_ms and now_ms.
func WithFilter(expr string) ObserveOption {
	return func(opts *observeOptions) { opts.filter = expr }
}

// Subscription delivers observed values on C until closed.
type Subscription[T any] struct {
	sub       *bus.Subscriber
	out       chan T
	done      chan struct{}
	closeOnce sync.Once
}

// C is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T { return s.out }

// ID is unique per subscription.
func (s *Subscription[T]) ID() string { return s.sub.ID().String() }

// Err is bus.ErrOverflow or bus.ErrClosed when the subscription ended on
// its own, nil otherwise.
func (s *Subscription[T]) Err() error { return s.sub.Err() }

// Dropped counts changes discarded by a drop policy.
func (s *Subscription[T]) Dropped() uint64 { return s.sub.Dropped() }

// Close stops deliveries to this subscription only.
func (s *Subscription[T]) Close() {
	s.closeOnce.Do(func() { close(s.done) })
	s.sub.Close()
}

// Unchecked carries a value whose type is verified only at Get.
type Unchecked[T any] struct {
	Key   string
	ID    id.ID
	value any
}

// Get returns the value as a T or ErrTypeCast.
func (u Unchecked[T]) Get() (T, error) {
	if v, ok := as[T](u.value); ok {
		return v, nil
	}
	var zero T
	return zero, fmt.Errorf("%w: %q holds %T, want %s", ErrTypeCast, u.Key, u.value, reflect.TypeOf((*T)(nil)).Elem())
}

// MustGet is Get that panics on a type mismatch.
func (u Unchecked[T]) MustGet() T {
	v, err := u.Get()
	if err != nil {
		panic(err)
	}
	return v
}

// Raw is the value as written.
func (u Unchecked[T]) Raw() any { return u.value }

// as converts v to T, looking through one pointer so *T written values are
// seen by T observers.
func as[T any](v any) (T, bool) {
	if t, ok := v.(T); ok {
		return t, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		if t, ok := rv.Elem().Interface().(T); ok {
			return t, true
		}
	}
	var zero T
	return zero, false
}

func subscribe[T any](b *Book, key string, match func(bus.Change) bool, convert func(bus.Change) T, opts []ObserveOption) (*Subscription[T], error) {
	o := observeOptions{overflow: b.overflow, buffer: b.buffer}
	for _, opt := range opts {
		opt(&o)
	}
	if key != "" {
		k, err := storage.NormalizeKey(key)
		if err != nil {
			return nil, err
		}
		key = k
	}
	f, err := filter.Compile(o.filter)
	if err != nil {
		return nil, err
	}
	sub, err := b.bus.Subscribe(bus.Options{
		Policy: o.overflow.policy(),
		Buffer: o.buffer,
		Filter: func(c bus.Change) (bool, error) {
			if key != "" && c.Key != key {
				return false, nil
			}
			if match != nil && !match(c) {
				return false, nil
			}
			return f.Match(c)
		},
	})
	if err != nil {
		return nil, err
	}
	s := &Subscription[T]{sub: sub, out: make(chan T), done: make(chan struct{})}
	go func() {
		defer close(s.out)
		for c := range sub.C() {
			select {
			case s.out <- convert(c):
			case <-s.done:
				return
			}
		}
	}()
	return s, nil
}

func isT[T any](c bus.Change) bool {
	_, ok := as[T](c.Value)
	return ok
}

func toT[T any](c bus.Change) T {
	v, _ := as[T](c.Value)
	return v
}

func toUnchecked[T any](c bus.Change) Unchecked[T] {
	return Unchecked[T]{Key: c.Key, ID: c.ID, value: c.Value}
}

// Observe delivers values written to key that are of type T, in write
// order. Writes of other types to key are skipped.
func Observe[T any](b *Book, key string, opts ...ObserveOption) (*Subscription[T], error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	return subscribe(b, key, isT[T], toT[T], opts)
}

// ObserveUnsafe delivers every value written to key; the type is checked
// only when Unchecked.Get is called.
func ObserveUnsafe[T any](b *Book, key string, opts ...ObserveOption) (*Subscription[Unchecked[T]], error) {
	if key == "" {
		return nil, fmt.Errorf("%w: empty", storage.ErrInvalidKey)
	}
	return subscribe(b, key, nil, toUnchecked[T], opts)
}

// ObserveAll delivers values of type T written to any key.
func ObserveAll[T any](b *Book, opts ...ObserveOption) (*Subscription[T], error) {
	return subscribe(b, "", isT[T], toT[T], opts)
}

// ObserveAllUnsafe delivers every write to any key.
func ObserveAllUnsafe[T any](b *Book, opts ...ObserveOption) (*Subscription[Unchecked[T]], error) {
	return subscribe(b, "", nil, toUnchecked[T], opts)
}

// Changes is the raw change stream of the handle.
func (b *Book) Changes(opts ...ObserveOption) (*Subscription[Change], error) {
	return subscribe(b, "", nil, func(c bus.Change) Change { return c }, opts)
}
