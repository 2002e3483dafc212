// Package sched runs units of work off the caller's goroutine.
//
// A Scheduler only promises to run fn at most once, eventually. IO returns
// the shared bounded pool used for disk work; Immediate runs on the
// calling goroutine and is meant for tests and callers that already own a
// goroutine.
package sched

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/semaphore"
)

// ErrClosed is returned by Schedule after Close.
var ErrClosed = errors.New("sched: scheduler closed")

// DefaultIOWorkers bounds the shared IO pool unless ConfigureIO says otherwise.
const DefaultIOWorkers = 64

// Scheduler accepts work.
type Scheduler interface {
	Schedule(fn func()) error
}

// Func adapts a function to Scheduler.
type Func func(fn func()) error

func (f Func) Schedule(fn func()) error { return f(fn) }

// Immediate runs work synchronously.
func Immediate() Scheduler {
	return Func(func(fn func()) error {
		fn()
		return nil
	})
}

// ContextScheduler is a Scheduler that can give up on a unit whose ctx ends
// before the unit starts. abandoned is called instead of fn in that case.
type ContextScheduler interface {
	Scheduler
	ScheduleContext(ctx context.Context, fn func(), abandoned func(error)) error
}

// Pool runs each unit on its own goroutine, with at most n in flight.
// Schedule never blocks: a unit waits for a free slot on its own goroutine.
type Pool struct {
	sem *semaphore.Weighted

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ ContextScheduler = (*Pool)(nil)

// NewPool returns a pool of n concurrent workers; n <= 0 means DefaultIOWorkers.
func NewPool(n int) *Pool {
	if n <= 0 {
		n = DefaultIOWorkers
	}
	return &Pool{sem: semaphore.NewWeighted(int64(n))}
}

func (p *Pool) Schedule(fn func()) error {
	return p.ScheduleContext(context.Background(), fn, nil)
}

// ScheduleContext queues fn. If ctx ends while fn is still waiting for a
// slot, fn never runs and abandoned receives ctx.Err().
func (p *Pool) ScheduleContext(ctx context.Context, fn func(), abandoned func(error)) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		if err := p.sem.Acquire(ctx, 1); err != nil {
			if abandoned != nil {
				abandoned(err)
			}
			return
		}
		defer p.sem.Release(1)
		fn()
	}()
	return nil
}

// Wait blocks until every unit scheduled so far has returned. The pool
// keeps accepting work.
func (p *Pool) Wait() { p.wg.Wait() }

// Close rejects new work and waits for queued and running units.
func (p *Pool) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.wg.Wait()
}

var (
	ioOnce    sync.Once
	ioPool    *Pool
	ioWorkers = DefaultIOWorkers
	ioMu      sync.Mutex
)

// ConfigureIO sets the IO pool size. It has no effect once IO was called.
func ConfigureIO(n int) {
	ioMu.Lock()
	defer ioMu.Unlock()
	if n > 0 {
		ioWorkers = n
	}
}

// IO returns the process-wide pool for storage work.
func IO() Scheduler {
	ioOnce.Do(func() {
		ioMu.Lock()
		n := ioWorkers
		ioMu.Unlock()
		ioPool = NewPool(n)
	})
	return ioPool
}

// Loop runs units one at a time, in submission order, on one goroutine.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	closed bool
	done   chan struct{}
}

func NewLoop() *Loop {
	l := &Loop{wake: make(chan struct{}, 1), done: make(chan struct{})}
	go l.run()
	return l
}

func (l *Loop) Schedule(fn func()) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return ErrClosed
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return nil
}

// Close runs what is already queued, then stops.
func (l *Loop) Close() {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		<-l.done
		return
	}
	l.closed = true
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	for {
		l.mu.Lock()
		batch := l.queue
		l.queue = nil
		closed := l.closed
		l.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
		if len(batch) > 0 {
			continue
		}
		if closed {
			return
		}
		<-l.wake
	}
}
