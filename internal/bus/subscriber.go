package bus

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Subscriber receives changes on C until it is closed or terminated.
type Subscriber struct {
	id   uuid.UUID
	bus  *Bus
	opts Options

	mu       sync.Mutex
	queue    []Change
	notifyCh chan struct{}
	// finished means no more offers are accepted; the queue still drains.
	finished bool
	err      error
	dropped  uint64

	out       chan Change
	done      chan struct{}
	closeOnce sync.Once
}

func (s *Subscriber) ID() uuid.UUID { return s.id }

// C is closed after the last change has been delivered.
func (s *Subscriber) C() <-chan Change { return s.out }

// Err reports why the subscription ended on its own: ErrOverflow or
// ErrClosed. It is nil while running and after Close.
func (s *Subscriber) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Dropped counts changes discarded by a drop policy.
func (s *Subscriber) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close unsubscribes and stops delivery. Queued changes are discarded.
func (s *Subscriber) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
	s.bus.remove(s.id)
}

func (s *Subscriber) match(c Change) (ok bool, err error) {
	if s.opts.Filter == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, fmt.Errorf("filter panic: %v", r)
		}
	}()
	return s.opts.Filter(c)
}

func (s *Subscriber) wake() {
	close(s.notifyCh)
	s.notifyCh = make(chan struct{})
}

// offer is called with the bus lock held and never blocks. It returns
// ErrOverflow when c terminated a PolicyError subscriber.
func (s *Subscriber) offer(c Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil
	}
	full := s.opts.Policy != PolicyBuffer && len(s.queue) >= s.opts.Buffer
	if full {
		switch s.opts.Policy {
		case PolicyDropLatest:
			s.dropped++
			return nil
		case PolicyDropOldest:
			s.queue[0] = Change{}
			s.queue = s.queue[1:]
			s.dropped++
		case PolicyError:
			s.err = ErrOverflow
			s.finished = true
			// the bus lock is held by Publish; drop the entry directly
			delete(s.bus.subs, s.id)
			s.wake()
			return ErrOverflow
		}
	}
	s.queue = append(s.queue, c)
	s.wake()
	return nil
}

// finish stops accepting changes and records err. Caller holds the bus lock.
func (s *Subscriber) finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true
	s.err = err
	s.wake()
}

func (s *Subscriber) run() {
	defer close(s.out)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			if s.finished {
				s.mu.Unlock()
				return
			}
			ch := s.notifyCh
			s.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-s.done:
				return
			}
		}
		c := s.queue[0]
		s.queue[0] = Change{}
		s.queue = s.queue[1:]
		s.mu.Unlock()

		select {
		case s.out <- c:
		case <-s.done:
			return
		}
	}
}
