// internal/app/features/agents/routes.go
package agents

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/agents.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/count", h.Count)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.Update)
		r.Delete("/", h.Delete)
		r.Post("/testimonials", h.AddTestimonial)
	})
	return r
}
