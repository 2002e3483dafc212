// Package async provides lazy, single-result operations.
//
// A Single describes work; nothing runs until Start, Await or Subscribe.
// Each start runs the work again on the Single's scheduler. Panics inside
// work surface as errors wrapping ErrPanic.
//
//	s := async.NewSingle(sched.IO(), func(ctx context.Context) (int, error) {
//	    return 42, nil
//	})
//	v, err := s.Await(ctx)
package async

import (
	"context"
	"errors"
	"fmt"

	"github.com/rzbill/folio/pkg/sched"
)

// ErrPanic wraps a panic recovered from work.
var ErrPanic = errors.New("async: panic in work")

// Work produces one value.
type Work[T any] func(ctx context.Context) (T, error)

// Single is a cold single-result operation.
type Single[T any] struct {
	sched sched.Scheduler
	work  Work[T]
}

// NewSingle binds work to s. A nil scheduler runs work on the starting
// goroutine.
func NewSingle[T any](s sched.Scheduler, work Work[T]) Single[T] {
	if s == nil {
		s = sched.Immediate()
	}
	return Single[T]{sched: s, work: work}
}

// Just is a Single that yields v without scheduling.
func Just[T any](v T) Single[T] {
	return NewSingle(nil, func(context.Context) (T, error) { return v, nil })
}

// Fail is a Single that yields err without scheduling.
func Fail[T any](err error) Single[T] {
	return NewSingle(nil, func(context.Context) (T, error) {
		var zero T
		return zero, err
	})
}

// Future is a started Single.
type Future[T any] struct {
	done chan struct{}
	val  T
	err  error
}

// Done is closed once the result is available.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Result blocks for the outcome.
func (f *Future[T]) Result() (T, error) {
	<-f.done
	return f.val, f.err
}

// Await waits for the outcome or ctx.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func (f *Future[T]) complete(v T, err error) {
	f.val, f.err = v, err
	close(f.done)
}

func run[T any](ctx context.Context, work Work[T]) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return work(ctx)
}

// Start schedules the work and returns without waiting for it. Work whose
// ctx ends before it starts does not run; the future completes with
// ctx.Err().
func (s Single[T]) Start(ctx context.Context) *Future[T] {
	f := &Future[T]{done: make(chan struct{})}
	var zero T
	unit := func() {
		if err := ctx.Err(); err != nil {
			f.complete(zero, err)
			return
		}
		f.complete(run(ctx, s.work))
	}
	var err error
	if cs, ok := s.sched.(sched.ContextScheduler); ok {
		err = cs.ScheduleContext(ctx, unit, func(err error) { f.complete(zero, err) })
	} else {
		err = s.sched.Schedule(unit)
	}
	if err != nil {
		f.complete(zero, err)
	}
	return f
}

// Await starts the work and waits for its result.
func (s Single[T]) Await(ctx context.Context) (T, error) {
	return s.Start(ctx).Await(ctx)
}

// Subscribe starts the work and calls exactly one of onOK or onErr from the
// worker, unless the returned cancel runs first.
func (s Single[T]) Subscribe(ctx context.Context, onOK func(T), onErr func(error)) (cancel func()) {
	ctx, cancel = context.WithCancel(ctx)
	f := s.Start(ctx)
	go func() {
		defer cancel()
		v, err := f.Result()
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			if onErr != nil {
				onErr(err)
			}
			return
		}
		if onOK != nil {
			onOK(v)
		}
	}()
	return cancel
}

// Map transforms the value inside the same unit of work.
func Map[T, U any](s Single[T], fn func(T) (U, error)) Single[U] {
	return Single[U]{sched: s.sched, work: func(ctx context.Context) (U, error) {
		v, err := s.work(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	}}
}

// AndThen runs next after s succeeds, inside the same unit of work.
func AndThen[T, U any](s Single[T], next func(context.Context, T) (U, error)) Single[U] {
	return Single[U]{sched: s.sched, work: func(ctx context.Context) (U, error) {
		v, err := s.work(ctx)
		if err != nil {
			var zero U
			return zero, err
		}
		return next(ctx, v)
	}}
}

// Completion is a Single with no value.
type Completion struct {
	s Single[struct{}]
}

// NewCompletion binds work to s.
func NewCompletion(s sched.Scheduler, work func(ctx context.Context) error) Completion {
	return Completion{s: NewSingle(s, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, work(ctx)
	})}
}

func (c Completion) Start(ctx context.Context) *Future[struct{}] { return c.s.Start(ctx) }

func (c Completion) Await(ctx context.Context) error {
	_, err := c.s.Await(ctx)
	return err
}

func (c Completion) Subscribe(ctx context.Context, onDone func(), onErr func(error)) (cancel func()) {
	return c.s.Subscribe(ctx, func(struct{}) {
		if onDone != nil {
			onDone()
		}
	}, onErr)
}

// Then runs next after c completes, inside the same unit of work.
func Then[T any](c Completion, next func(context.Context) (T, error)) Single[T] {
	return AndThen(c.s, func(ctx context.Context, _ struct{}) (T, error) { return next(ctx) })
}
