package controllers

import (
	"net/http"

	"github.com/rzbill/folio/internal/runtime"
	logpkg "github.com/rzbill/folio/pkg/log"
)

// ControllerRegistry manages all HTTP controllers.
type ControllerRegistry struct {
	general *GeneralController
	books   *BooksController
	watch   *WatchController
}

// NewControllerRegistry initializes all controllers with the provided runtime.
func NewControllerRegistry(rt *runtime.Runtime, logger logpkg.Logger) *ControllerRegistry {
	return &ControllerRegistry{
		general: NewGeneralController(rt),
		books:   NewBooksController(rt, logger),
		watch:   NewWatchController(rt, logger),
	}
}

// RegisterAllRoutes registers all controller routes with the given mux.
func (r *ControllerRegistry) RegisterAllRoutes(mux *http.ServeMux) {
	r.general.RegisterRoutes(mux)
	r.books.RegisterRoutes(mux)
	r.watch.RegisterRoutes(mux)
}
