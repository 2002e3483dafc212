// Package bus fans committed changes out to subscribers. Publish never
// blocks: each subscriber owns a queue drained by its own goroutine, and
// the subscriber's overflow policy decides what happens when a slow
// consumer falls behind.
package bus

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rzbill/folio/pkg/id"
)

var (
	// ErrOverflow terminates a PolicyError subscriber whose queue is full.
	ErrOverflow = errors.New("bus: subscriber queue overflow")
	// ErrClosed is returned by Subscribe on a closed bus and reported by
	// subscribers that were still open when the bus closed.
	ErrClosed = errors.New("bus: closed")
)

// DefaultBuffer bounds queues of non-buffering policies when no size is set.
const DefaultBuffer = 128

// Change is one successful write.
type Change struct {
	ID    id.ID
	Key   string
	Type  string
	Value any
}

// Policy selects overflow behavior for a subscriber.
type Policy int

const (
	// PolicyBuffer queues without bound.
	PolicyBuffer Policy = iota
	// PolicyDropLatest discards the incoming change when full.
	PolicyDropLatest
	// PolicyDropOldest evicts the oldest queued change when full.
	PolicyDropOldest
	// PolicyError ends the subscription with ErrOverflow when full.
	PolicyError
)

func (p Policy) String() string {
	switch p {
	case PolicyBuffer:
		return "buffer"
	case PolicyDropLatest:
		return "drop_latest"
	case PolicyDropOldest:
		return "drop_oldest"
	case PolicyError:
		return "error"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy accepts the String spellings. Empty means PolicyBuffer.
func ParsePolicy(s string) (Policy, error) {
	switch s {
	case "", "buffer":
		return PolicyBuffer, nil
	case "drop_latest", "latest":
		return PolicyDropLatest, nil
	case "drop_oldest", "oldest":
		return PolicyDropOldest, nil
	case "error":
		return PolicyError, nil
	}
	return PolicyBuffer, fmt.Errorf("bus: unknown overflow policy %q", s)
}

// Options configure one subscriber.
type Options struct {
	Policy Policy
	// Buffer is the queue bound for bounded policies and the initial
	// capacity for PolicyBuffer.
	Buffer int
	// Filter, when set, is consulted for every change. A filter error
	// skips the change for this subscriber and is reported by Publish.
	Filter func(Change) (bool, error)
}

// Bus is safe for concurrent use.
type Bus struct {
	mu     sync.Mutex
	subs   map[uuid.UUID]*Subscriber
	closed bool
}

func New() *Bus {
	return &Bus{subs: make(map[uuid.UUID]*Subscriber)}
}

// Subscribe registers a subscriber. It only sees changes published after
// Subscribe returns.
func (b *Bus) Subscribe(opts Options) (*Subscriber, error) {
	if opts.Buffer <= 0 && opts.Policy != PolicyBuffer {
		opts.Buffer = DefaultBuffer
	}
	s := &Subscriber{
		id:       uuid.Must(uuid.NewV7()),
		bus:      b,
		opts:     opts,
		notifyCh: make(chan struct{}),
		out:      make(chan Change),
		done:     make(chan struct{}),
	}
	if opts.Policy == PolicyBuffer && opts.Buffer > 0 {
		s.queue = make([]Change, 0, opts.Buffer)
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	b.subs[s.id] = s
	b.mu.Unlock()

	go s.run()
	return s, nil
}

// Publish offers c to every matching subscriber. Concurrent publishers are
// serialized, so every subscriber observes changes in the same order.
func (b *Bus) Publish(c Change) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrClosed
	}
	var errs []error
	for _, s := range b.subs {
		ok, err := s.match(c)
		if err != nil {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", s.id, err))
			continue
		}
		if !ok {
			continue
		}
		if err := s.offer(c); err != nil {
			errs = append(errs, fmt.Errorf("subscriber %s: %w", s.id, err))
		}
	}
	return errors.Join(errs...)
}

// Len is the number of live subscribers.
func (b *Bus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// Close ends every subscription. Changes already queued are still delivered.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, s := range b.subs {
		s.finish(ErrClosed)
	}
	b.subs = map[uuid.UUID]*Subscriber{}
}

func (b *Bus) remove(id uuid.UUID) {
	b.mu.Lock()
	delete(b.subs, id)
	b.mu.Unlock()
}
