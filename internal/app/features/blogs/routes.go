// internal/app/features/blogs/routes.go
package blogs

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/blogs.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/count", h.Count)
	r.Get("/slug/{slug}", h.GetBySlug)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
	})
	return r
}
