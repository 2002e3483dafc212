package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rzbill/folio/internal/runtime"
	"github.com/rzbill/folio/pkg/folio"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// BooksController exposes item CRUD over a book. The book is chosen with
// the "book" query parameter and defaults to the configured default book.
type BooksController struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

func NewBooksController(rt *runtime.Runtime, logger logpkg.Logger) *BooksController {
	return &BooksController{rt: rt, logger: logger}
}

// RegisterRoutes registers:
//
//	GET    /v1/keys
//	GET    /v1/items/{key}
//	PUT    /v1/items/{key}
//	DELETE /v1/items/{key}
//	GET    /v1/items/{key}/exists
//	GET    /v1/path[?key=]
//	POST   /v1/destroy
func (c *BooksController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/keys", c.handleKeys)
	mux.HandleFunc("GET /v1/items/{key}", c.handleGet)
	mux.HandleFunc("PUT /v1/items/{key}", c.handlePut)
	mux.HandleFunc("DELETE /v1/items/{key}", c.handleDelete)
	mux.HandleFunc("GET /v1/items/{key}/exists", c.handleExists)
	mux.HandleFunc("GET /v1/path", c.handlePath)
	mux.HandleFunc("POST /v1/destroy", c.handleDestroy)
}

func (c *BooksController) book(w http.ResponseWriter, r *http.Request) (*folio.Book, bool) {
	b, err := c.rt.Book(r.URL.Query().Get("book"))
	if err != nil {
		writeStoreError(w, err)
		return nil, false
	}
	return b, true
}

func (c *BooksController) handleKeys(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	keys, err := b.Keys().Await(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, map[string]any{"keys": keys})
}

func (c *BooksController) handleGet(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	key := r.PathValue("key")
	v, err := b.ReadAny(key).Await(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, map[string]any{"key": key, "value": v})
}

// handlePut stores the JSON request body as the value. Objects are stored
// as map[string]any, numbers as float64.
func (c *BooksController) handlePut(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	var value any
	if err := json.NewDecoder(r.Body).Decode(&value); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	key := r.PathValue("key")
	err := b.Write(key, value).Await(r.Context())
	if errors.Is(err, folio.ErrBroadcast) {
		c.logger.Warn("stored with broadcast fault", logpkg.Str("key", key), logpkg.Err(err))
		writeJSON(w, map[string]any{"key": key, "broadcast_error": err.Error()})
		return
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}

func (c *BooksController) handleDelete(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	if err := b.Delete(r.PathValue("key")).Await(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}

func (c *BooksController) handleExists(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	exists, err := b.Contains(r.PathValue("key")).Await(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, map[string]bool{"exists": exists})
}

// handlePath returns the book directory, or the backing file of ?key=.
func (c *BooksController) handlePath(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	var (
		p   string
		err error
	)
	if key := r.URL.Query().Get("key"); key != "" {
		p, err = b.KeyPath(key).Await(r.Context())
	} else {
		p, err = b.Path().Await(r.Context())
	}
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, map[string]string{"path": p})
}

func (c *BooksController) handleDestroy(w http.ResponseWriter, r *http.Request) {
	b, ok := c.book(w, r)
	if !ok {
		return
	}
	if err := b.Destroy().Await(r.Context()); err != nil {
		writeStoreError(w, err)
		return
	}
	writeNoContent(w)
}
