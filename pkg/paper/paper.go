package paper

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rzbill/folio/internal/storage"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// DefaultBookName is used when no book name is given.
const DefaultBookName = "folio"

var (
	// ErrNotInitialized is returned by book factories before Init.
	ErrNotInitialized = errors.New("paper: not initialized; call paper.Init first")
	// ErrNotFound is returned when a key holds no value.
	ErrNotFound = storage.ErrNotFound
	// ErrTypeMismatch is returned when a stored value has another type than
	// the one requested.
	ErrTypeMismatch = errors.New("paper: stored value has a different type")
	// ErrUnknownType is returned by Read when the stored type was never
	// registered.
	ErrUnknownType = errors.New("paper: stored type not registered")
	// ErrNilValue is returned when writing nil.
	ErrNilValue = errors.New("paper: nil value")
)

// Platform carries the process-wide settings handed to Init.
type Platform struct {
	// FilesDir is the root under which books are created. Defaults to "./data".
	FilesDir string
	// Engine selects the storage backend; see Engines.
	Engine        string
	Fsync         storage.FsyncMode
	FsyncInterval time.Duration
	// CacheSizeMax and Compress tune the diskv engine.
	CacheSizeMax uint64
	Compress     bool
	Logger       logpkg.Logger
}

var (
	initialized atomic.Bool

	mu       sync.Mutex
	platform Platform
	engines  = map[string]storage.Engine{}
)

// Init performs one-time setup. The first call wins; later calls are no-ops
// until Shutdown.
func Init(p Platform) {
	mu.Lock()
	defer mu.Unlock()
	if !initialized.CompareAndSwap(false, true) {
		return
	}
	if p.FilesDir == "" {
		p.FilesDir = "data"
	}
	if p.Engine == "" {
		p.Engine = EngineDiskv
	}
	if p.Logger == nil {
		p.Logger = logpkg.NewLogger(logpkg.WithLevel(logpkg.WarnLevel))
	}
	p.Logger = p.Logger.With(logpkg.Component("paper"))
	platform = p
	p.Logger.Debug("initialized", logpkg.Str("files_dir", p.FilesDir), logpkg.Str("engine", p.Engine))
}

// Initialized reports whether Init has run.
func Initialized() bool { return initialized.Load() }

// Active returns the settings of the current Init, and false before Init.
func Active() (Platform, bool) {
	mu.Lock()
	defer mu.Unlock()
	return platform, initialized.Load()
}

// Shutdown closes every engine opened since Init and clears the init gate.
func Shutdown() error {
	mu.Lock()
	defer mu.Unlock()
	var errs []error
	for loc, e := range engines {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", loc, err))
		}
	}
	engines = map[string]storage.Engine{}
	platform = Platform{}
	initialized.Store(false)
	return errors.Join(errs...)
}

// DefaultBook opens the default book under the root directory.
func DefaultBook() (*Book, error) { return OpenBook(DefaultBookName) }

// OpenBook opens <root>/<name>.
func OpenBook(name string) (*Book, error) { return open("", name) }

// BookOn opens the default book under path instead of the root directory.
func BookOn(path string) (*Book, error) { return BookOnNamed(path, DefaultBookName) }

// BookOnNamed opens <path>/<name>.
func BookOnNamed(path, name string) (*Book, error) {
	if path == "" {
		return nil, fmt.Errorf("paper: empty book path")
	}
	return open(path, name)
}

func open(path, name string) (*Book, error) {
	if !initialized.Load() {
		return nil, ErrNotInitialized
	}
	if name == "" {
		name = DefaultBookName
	}
	if _, err := storage.NormalizeKey(name); err != nil {
		return nil, fmt.Errorf("paper: book name: %w", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if !initialized.Load() {
		return nil, ErrNotInitialized
	}
	root := path
	if root == "" {
		root = platform.FilesDir
	}
	loc := filepath.Clean(filepath.Join(root, name))
	logger := platform.Logger.With(logpkg.Book(name))

	e, ok := engines[loc]
	if !ok {
		var err error
		e, err = openEngine(platform.Engine, storage.Options{
			Location:      loc,
			Fsync:         platform.Fsync,
			FsyncInterval: platform.FsyncInterval,
			CacheSizeMax:  platform.CacheSizeMax,
			Compress:      platform.Compress,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}
		engines[loc] = e
		logger.Debug("book opened", logpkg.Str("location", loc), logpkg.Str("engine", platform.Engine))
	}
	return &Book{name: name, engine: e, logger: logger}, nil
}
