// internal/app/features/contacts/routes.go
package contacts

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/contacts.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/count", h.Count)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Put("/", h.UpdateStatus)
		r.Delete("/", h.Delete)
	})
	return r
}
