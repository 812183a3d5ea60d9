package photo

import (
	"github.com/go-chi/chi/v5"
)

// Routes returns photo router, mounted at /api/photos
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)

	return r
}

// ShareRoutes returns the QR share-link router, mounted at /share
func (h *Handler) ShareRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/{token}", h.Share)
	return r
}
