package runtime

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/rzbill/folio/internal/catalog"
	cfgpkg "github.com/rzbill/folio/internal/config"
	"github.com/rzbill/folio/internal/storage"
	"github.com/rzbill/folio/pkg/folio"
	logpkg "github.com/rzbill/folio/pkg/log"
	"github.com/rzbill/folio/pkg/paper"
	"github.com/rzbill/folio/pkg/sched"
)

// ErrStoreConflict is returned by Open when paper was already initialized
// with another data directory or engine.
var ErrStoreConflict = errors.New("paper already initialized with different settings")

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	// Logger overrides the logger described by Config.Log.
	Logger logpkg.Logger
}

// Runtime wires config, logging and the paper store for one process and
// hands out folio books.
type Runtime struct {
	config cfgpkg.Config
	logger logpkg.Logger

	mu     sync.Mutex
	books  map[string]*folio.Book
	closed bool
}

// Open validates the config and initializes paper.
func Open(opts Options) (*Runtime, error) {
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = cfg.Logger(); err != nil {
			return nil, err
		}
	}
	platform, err := cfg.Platform(logger)
	if err != nil {
		return nil, err
	}
	sched.ConfigureIO(cfg.IOWorkers)
	paper.Init(platform)
	if active, _ := paper.Active(); filepath.Clean(active.FilesDir) != filepath.Clean(platform.FilesDir) ||
		(platform.Engine != "" && active.Engine != platform.Engine) {
		return nil, fmt.Errorf("%w: store open on %s (%s), config wants %s (%s)",
			ErrStoreConflict, active.FilesDir, active.Engine, platform.FilesDir, platform.Engine)
	}
	logger.Info("runtime opened", logpkg.Str("data_dir", platform.FilesDir), logpkg.Str("engine", cfg.Engine))
	return &Runtime{config: cfg, logger: logger, books: map[string]*folio.Book{}}, nil
}

// Book returns the handle for name, opening it on first use. Handles are
// shared so every caller observes the same change stream.
func (r *Runtime) Book(name string) (*folio.Book, error) {
	if name == "" {
		name = r.config.DefaultBook
	}
	name, err := storage.NormalizeKey(name)
	if err != nil {
		return nil, fmt.Errorf("book name: %w", err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, errors.New("runtime closed")
	}
	if catalog.Reserved(name) {
		return nil, fmt.Errorf("%w: %q", catalog.ErrReserved, name)
	}
	if b, ok := r.books[name]; ok {
		return b, nil
	}
	overflow, err := r.config.OverflowPolicy()
	if err != nil {
		return nil, err
	}
	b, err := folio.OpenBook(name,
		folio.WithLogger(r.logger),
		folio.WithDefaultOverflow(overflow),
		folio.WithDefaultBuffer(r.config.SubscriberBuffer),
	)
	if err != nil {
		return nil, err
	}
	if _, err := catalog.Ensure(r.config.ResolvedDataDir(), name, r.config.Engine); err != nil {
		b.Close()
		return nil, err
	}
	r.books[name] = b
	return b, nil
}

// Books lists every book ever opened under the data directory.
func (r *Runtime) Books() ([]catalog.Meta, error) {
	return catalog.List(r.config.ResolvedDataDir())
}

// DefaultBook is Book(Config.DefaultBook).
func (r *Runtime) DefaultBook() (*folio.Book, error) { return r.Book("") }

// Close ends all subscriptions and releases every engine.
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	for _, b := range r.books {
		b.Close()
	}
	r.books = nil
	return paper.Shutdown()
}

// CheckHealth performs a read against the default book.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	b, err := r.DefaultBook()
	if err != nil {
		return err
	}
	_, err = b.Keys().Await(ctx)
	return err
}

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

func (r *Runtime) Logger() logpkg.Logger { return r.logger }
