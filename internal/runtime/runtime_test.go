package runtime

import (
	"context"
	"errors"
	"testing"

	cfgpkg "github.com/rzbill/folio/internal/config"
	logpkg "github.com/rzbill/folio/pkg/log"
)

func testConfig(t *testing.T) cfgpkg.Config {
	cfg := cfgpkg.Default()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestOpenCloseHealth(t *testing.T) {
	rt, err := Open(Options{Config: testConfig(t), Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer rt.Close()
	if err := rt.CheckHealth(context.Background()); err != nil {
		t.Fatalf("health: %v", err)
	}
}

func TestBooksAreShared(t *testing.T) {
	rt, err := Open(Options{Config: testConfig(t), Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rt.Close()

	a, err := rt.Book("orders")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	b, err := rt.Book("orders")
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	if a != b {
		t.Fatalf("expected the same handle")
	}
	def, err := rt.DefaultBook()
	if err != nil {
		t.Fatalf("default: %v", err)
	}
	if def == a {
		t.Fatalf("default book should differ from orders")
	}

	books, err := rt.Books()
	if err != nil {
		t.Fatalf("books: %v", err)
	}
	if len(books) != 2 || books[0].Name != "folio" || books[1].Name != "orders" {
		t.Fatalf("catalog: %+v", books)
	}
	if _, err := rt.Book("catalog.json"); err == nil {
		t.Fatalf("expected reserved name error")
	}

	if err := rt.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := rt.Book("orders"); err == nil {
		t.Fatalf("expected error after close")
	}
}

func TestInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Engine = "nope"
	if _, err := Open(Options{Config: cfg}); err == nil {
		t.Fatalf("expected validation error")
	}
}

func TestOpenRejectsForeignStore(t *testing.T) {
	first, err := Open(Options{Config: testConfig(t), Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("open runtime: %v", err)
	}
	defer first.Close()

	_, err = Open(Options{Config: testConfig(t), Logger: logpkg.NewNopLogger()})
	if !errors.Is(err, ErrStoreConflict) {
		t.Fatalf("second open on another dir: got %v, want ErrStoreConflict", err)
	}

	again, err := Open(Options{Config: first.Config(), Logger: logpkg.NewNopLogger()})
	if err != nil {
		t.Fatalf("reopen on same dir: %v", err)
	}
	if again.Config().ResolvedDataDir() != first.Config().ResolvedDataDir() {
		t.Fatalf("data dir changed")
	}
}
