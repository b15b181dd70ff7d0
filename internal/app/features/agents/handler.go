// internal/app/features/agents/handler.go
package agents

import (
	"context"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	agentstore "github.com/dalemusser/listinghub/internal/app/store/agents"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "agent"

// Handler serves the agent directory API.
type Handler struct {
	Agents *agentstore.Store
	Log    *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Agents: agentstore.New(db), Log: logger}
}

// List handles GET /api/agents. Testimonials are omitted from list rows.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "agents.list")
	defer cancel()

	page, err := h.Agents.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Count handles GET /api/agents/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "agents.count")
	defer cancel()

	n, err := h.Agents.Count(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.CountBody{Count: n})
}

// Get handles GET /api/agents/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Agents.GetByID(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, a)
}

// Create handles POST /api/agents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Agent
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Agents.Create(ctx, in)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	h.Log.Info("agent created", zap.String("id", a.ID.Hex()), zap.String("email", a.Email))
	apierror.WriteJSON(w, http.StatusCreated, a)
}

// Update handles PUT /api/agents/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var patch agentstore.Patch
	if err := shared.DecodeJSON(w, r, &patch); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Agents.Update(ctx, id, patch)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, a)
}

// AddTestimonial handles POST /api/agents/{id}/testimonials.
func (h *Handler) AddTestimonial(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var t models.Testimonial
	if err := shared.DecodeJSON(w, r, &t); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	a, err := h.Agents.AddTestimonial(ctx, id, t)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusCreated, a)
}

// Delete handles DELETE /api/agents/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Agents.Delete(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if n == 0 {
		apierror.Write(w, r, h.Log, apierror.NotFound(what), what)
		return
	}
	h.Log.Info("agent deleted", zap.String("id", id.Hex()))
	apierror.WriteJSON(w, http.StatusOK, shared.Deleted{Deleted: n})
}
