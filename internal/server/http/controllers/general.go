package controllers

import (
	"net/http"

	"github.com/rzbill/folio/internal/runtime"
)

// GeneralController serves endpoints that are not tied to a book.
type GeneralController struct {
	rt *runtime.Runtime
}

func NewGeneralController(rt *runtime.Runtime) *GeneralController {
	return &GeneralController{rt: rt}
}

func (c *GeneralController) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/healthz", c.handleHealth)
	mux.HandleFunc("GET /v1/books", c.handleBooks)
}

// handleBooks lists the books recorded in the data directory catalog.
func (c *GeneralController) handleBooks(w http.ResponseWriter, r *http.Request) {
	books, err := c.rt.Books()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"books": books})
}

// handleHealth returns 200 {"status":"ok"} when the default book is
// readable, 503 otherwise.
func (c *GeneralController) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := c.rt.CheckHealth(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "not_serving")
		return
	}
	writeJSON(w, map[string]string{"status": "ok"})
}
