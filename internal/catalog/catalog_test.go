package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureIdempotent(t *testing.T) {
	dir := t.TempDir()
	m1, err := Ensure(dir, "default", "diskv")
	if err != nil {
		t.Fatalf("ensure1: %v", err)
	}
	m2, err := Ensure(dir, "default", "pebble")
	if err != nil {
		t.Fatalf("ensure2: %v", err)
	}
	if m1 != m2 {
		t.Fatalf("not idempotent: %+v vs %+v", m1, m2)
	}
	if m2.Engine != "diskv" {
		t.Fatalf("engine of first open should stick: %s", m2.Engine)
	}
}

func TestListSorted(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{"orders", "folio", "cache"} {
		if _, err := Ensure(dir, n, "bolt"); err != nil {
			t.Fatalf("ensure %s: %v", n, err)
		}
	}
	got, err := List(dir)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].Name != "cache" || got[2].Name != "orders" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

func TestListMissingAndCorrupt(t *testing.T) {
	dir := t.TempDir()
	got, err := List(filepath.Join(dir, "nowhere"))
	if err != nil || len(got) != 0 {
		t.Fatalf("missing catalog: %v %v", got, err)
	}
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("{oops"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Ensure(dir, "a", "diskv"); err != nil {
		t.Fatalf("ensure over corrupt file: %v", err)
	}
	got, err = List(dir)
	if err != nil || len(got) != 1 {
		t.Fatalf("after rewrite: %v %v", got, err)
	}
}

func TestReservedNames(t *testing.T) {
	if _, err := Ensure(t.TempDir(), "catalog.json", "diskv"); !errors.Is(err, ErrReserved) {
		t.Fatalf("want ErrReserved, got %v", err)
	}
}
