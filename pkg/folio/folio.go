package folio

import (
	"errors"
	"fmt"

	"github.com/rzbill/folio/internal/bus"
	"github.com/rzbill/folio/pkg/id"
	logpkg "github.com/rzbill/folio/pkg/log"
	"github.com/rzbill/folio/pkg/paper"
	"github.com/rzbill/folio/pkg/sched"
)

var (
	// ErrNotInitialized is returned by Open and friends before Init.
	ErrNotInitialized = fmt.Errorf("folio: %w", paper.ErrNotInitialized)
	// ErrBroadcast wraps delivery faults reported by a write whose value
	// was stored.
	ErrBroadcast = errors.New("folio: change broadcast failed")
	// ErrTypeCast is returned by Unchecked.Get when the value is not a T.
	ErrTypeCast = errors.New("folio: value has a different type")
)

// Re-exported so callers need not import paper for the common errors.
var (
	ErrNotFound     = paper.ErrNotFound
	ErrTypeMismatch = paper.ErrTypeMismatch
)

// Change is one successful write as seen by observers.
type Change = bus.Change

// Init sets up the underlying paper store. Only the first call has effect.
func Init(p paper.Platform) { paper.Init(p) }

type options struct {
	name     string
	path     string
	sched    sched.Scheduler
	logger   logpkg.Logger
	buffer   int
	overflow Overflow
}

// Option configures a Book.
type Option func(*options)

// WithName selects the book name. Defaults to paper.DefaultBookName.
func WithName(name string) Option { return func(o *options) { o.name = name } }

// WithPath opens the book under path instead of the Init root.
func WithPath(path string) Option { return func(o *options) { o.path = path } }

// WithScheduler sets where operations run. Defaults to sched.IO().
func WithScheduler(s sched.Scheduler) Option { return func(o *options) { o.sched = s } }

// WithLogger sets the logger for write and broadcast failures.
func WithLogger(l logpkg.Logger) Option { return func(o *options) { o.logger = l } }

// WithDefaultOverflow sets the overflow policy of observers that do not
// pick one.
func WithDefaultOverflow(p Overflow) Option { return func(o *options) { o.overflow = p } }

// WithDefaultBuffer sets the queue size of observers that do not pick one.
func WithDefaultBuffer(n int) Option { return func(o *options) { o.buffer = n } }

// Book is the asynchronous handle over one paper book. Every operation
// returns a lazy async value that runs on the handle's scheduler.
type Book struct {
	store    paper.Store
	sched    sched.Scheduler
	bus      *bus.Bus
	ids      *id.Generator
	logger   logpkg.Logger
	buffer   int
	overflow Overflow
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sched == nil {
		o.sched = sched.IO()
	}
	if o.logger == nil {
		o.logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.WarnLevel))
	}
	return o
}

// Open opens a book. Before Init it fails with ErrNotInitialized.
func Open(opts ...Option) (*Book, error) {
	if !paper.Initialized() {
		return nil, ErrNotInitialized
	}
	o := buildOptions(opts)
	var (
		pb  *paper.Book
		err error
	)
	if o.path != "" {
		pb, err = paper.BookOnNamed(o.path, o.name)
	} else {
		pb, err = paper.OpenBook(o.name)
	}
	if errors.Is(err, paper.ErrNotInitialized) {
		return nil, ErrNotInitialized
	}
	if err != nil {
		return nil, err
	}
	return newBook(pb, pb.Name(), o), nil
}

// OpenBook opens the named book under the Init root.
func OpenBook(name string, opts ...Option) (*Book, error) {
	return Open(append(opts, WithName(name))...)
}

// OpenPath opens the default book, or the one named by WithName, under path.
func OpenPath(path string, opts ...Option) (*Book, error) {
	return Open(append(opts, WithPath(path))...)
}

// NewBook wraps any Store. It does not require Init.
func NewBook(store paper.Store, opts ...Option) *Book {
	o := buildOptions(opts)
	name := o.name
	if name == "" {
		name = paper.DefaultBookName
	}
	return newBook(store, name, o)
}

func newBook(store paper.Store, name string, o options) *Book {
	return &Book{
		store:    store,
		sched:    o.sched,
		bus:      bus.New(),
		ids:      id.NewGenerator(),
		logger:   o.logger.With(logpkg.Component("folio"), logpkg.Book(name)),
		buffer:   o.buffer,
		overflow: o.overflow,
	}
}

// Close ends every subscription of this handle. Pending writes still store
// their values but no longer broadcast.
func (b *Book) Close() { b.bus.Close() }

// Observers is the number of live subscriptions.
func (b *Book) Observers() int { return b.bus.Len() }
