// internal/app/features/properties/handler.go
package properties

import (
	"context"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	agentstore "github.com/dalemusser/listinghub/internal/app/store/agents"
	propertystore "github.com/dalemusser/listinghub/internal/app/store/properties"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "property"

// Handler serves the property listing API.
type Handler struct {
	Properties *propertystore.Store
	Agents     *agentstore.Store
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Properties: propertystore.New(db),
		Agents:     agentstore.New(db),
		Log:        logger,
	}
}

// List handles GET /api/properties.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "properties.list")
	defer cancel()

	page, err := h.Properties.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Count handles GET /api/properties/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "properties.count")
	defer cancel()

	n, err := h.Properties.Count(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.CountBody{Count: n})
}

// Get handles GET /api/properties/{id}. Each read bumps the view counter.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Properties.GetByID(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, p)
}

// Create handles POST /api/properties.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Property
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.agentExists(ctx, in.Agent); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	p, err := h.Properties.Create(ctx, in)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	h.Log.Info("property created", zap.String("id", p.ID.Hex()), zap.String("title", p.Title))
	apierror.WriteJSON(w, http.StatusCreated, p)
}

// Update handles PUT /api/properties/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var patch propertystore.Patch
	if err := shared.DecodeJSON(w, r, &patch); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.agentExists(ctx, patch.Agent); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	p, err := h.Properties.Update(ctx, id, patch)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/properties/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Properties.Delete(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if n == 0 {
		apierror.Write(w, r, h.Log, apierror.NotFound(what), what)
		return
	}
	h.Log.Info("property deleted", zap.String("id", id.Hex()))
	apierror.WriteJSON(w, http.StatusOK, shared.Deleted{Deleted: n})
}

func (h *Handler) agentExists(ctx context.Context, id *primitive.ObjectID) error {
	if id == nil {
		return nil
	}
	ok, err := h.Agents.Exists(ctx, *id)
	if err != nil {
		return err
	}
	if !ok {
		return filters.Invalid("agent", id.Hex(), "no such agent")
	}
	return nil
}

// CountByStatus handles GET /api/properties/stats/status.
func (h *Handler) CountByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "properties.by_status")
	defer cancel()

	counts, err := h.Properties.CountByStatus(ctx)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, counts)
}
