// Package catalog records which books exist under a data directory.
//
// The runtime calls Ensure the first time it opens a book, so `folio books`
// and GET /v1/books can list books without probing engine files. The
// catalog is a small JSON file guarded by a cross-process file lock.
package catalog
