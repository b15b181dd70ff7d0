// internal/app/features/analytics/routes.go
package analytics

import "github.com/go-chi/chi/v5"

// Routes returns a subrouter mounted under /api/analytics.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/events", h.Record)
	r.Get("/events", h.List)
	r.Get("/sessions/{session}", h.Session)
	r.Get("/dashboard", h.ServeDashboard)
	r.Get("/top", h.Top)
	r.Get("/distinct", h.Distinct)
	r.Get("/timeseries", h.TimeSeries)
	r.Get("/metrics", h.Metrics)
	return r
}
