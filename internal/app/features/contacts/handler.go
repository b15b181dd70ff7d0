// internal/app/features/contacts/handler.go
package contacts

import (
	"context"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	agentstore "github.com/dalemusser/listinghub/internal/app/store/agents"
	analyticsstore "github.com/dalemusser/listinghub/internal/app/store/analytics"
	contactstore "github.com/dalemusser/listinghub/internal/app/store/contacts"
	propertystore "github.com/dalemusser/listinghub/internal/app/store/properties"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "contact"

// Handler serves contact enquiries.
type Handler struct {
	Contacts   *contactstore.Store
	Properties *propertystore.Store
	Agents     *agentstore.Store
	Events     *analyticsstore.Store
	Log        *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Contacts:   contactstore.New(db),
		Properties: propertystore.New(db),
		Agents:     agentstore.New(db),
		Events:     analyticsstore.New(db),
		Log:        logger,
	}
}

// List handles GET /api/contacts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contacts.list")
	defer cancel()

	page, err := h.Contacts.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Count handles GET /api/contacts/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "contacts.count")
	defer cancel()

	n, err := h.Contacts.Count(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.CountBody{Count: n})
}

// Get handles GET /api/contacts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.GetByID(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, c)
}

// Create handles POST /api/contacts. A successful submission also records a
// contact_submit analytics event; failing to record it does not fail the
// request.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Contact
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.refsExist(ctx, in.Property, in.Agent); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	c, err := h.Contacts.Create(ctx, in)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	h.Log.Info("contact received",
		zap.String("id", c.ID.Hex()),
		zap.String("inquiry_type", c.InquiryType))

	ev := models.AnalyticsEvent{
		EventType: models.EventContactSubmit,
		EntityID:  c.Property,
		SessionID: r.Header.Get(shared.SessionHeader),
		Page:      r.Header.Get("Referer"),
		IP:        shared.ClientIP(r),
		UserAgent: r.UserAgent(),
	}
	if _, err := h.Events.Record(ctx, ev); err != nil {
		h.Log.Warn("contact_submit event not recorded", zap.String("contact", c.ID.Hex()), zap.Error(err))
	}

	apierror.WriteJSON(w, http.StatusCreated, c)
}

type statusInput struct {
	Status string `json:"status"`
}

// UpdateStatus handles PUT /api/contacts/{id}. Only the workflow status of an
// enquiry can change.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var in statusInput
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	c, err := h.Contacts.UpdateStatus(ctx, id, in.Status)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, c)
}

// Delete handles DELETE /api/contacts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Contacts.Delete(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if n == 0 {
		apierror.Write(w, r, h.Log, apierror.NotFound(what), what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.Deleted{Deleted: n})
}

func (h *Handler) refsExist(ctx context.Context, property, agent *primitive.ObjectID) error {
	if property != nil {
		ok, err := h.Properties.Exists(ctx, *property)
		if err != nil {
			return err
		}
		if !ok {
			return filters.Invalid("property", property.Hex(), "no such property")
		}
	}
	if agent != nil {
		ok, err := h.Agents.Exists(ctx, *agent)
		if err != nil {
			return err
		}
		if !ok {
			return filters.Invalid("agent", agent.Hex(), "no such agent")
		}
	}
	return nil
}
