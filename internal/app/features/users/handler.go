// internal/app/features/users/handler.go
package users

import (
	"context"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	userstore "github.com/dalemusser/listinghub/internal/app/store/users"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "user"

// Handler serves user accounts.
type Handler struct {
	Users *userstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Users: userstore.New(db), Log: logger}
}

type createInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	IsActive *bool  `json:"is_active"`
	Password string `json:"password"`
}

// The system role belongs to the configured actor only.
func roleAssignable(role *string) error {
	if role != nil && *role == models.RoleSystem {
		return filters.Invalid("role", *role, "is reserved")
	}
	return nil
}

// List handles GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.list")
	defer cancel()

	page, err := h.Users.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Count handles GET /api/users/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "users.count")
	defer cancel()

	n, err := h.Users.Count(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.CountBody{Count: n})
}

// Get handles GET /api/users/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, u)
}

// Create handles POST /api/users.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if err := roleAssignable(&in.Role); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	u := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Role:     in.Role,
		IsActive: in.IsActive == nil || *in.IsActive,
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	out, err := h.Users.Create(ctx, u, in.Password)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	h.Log.Info("user created", zap.String("id", out.ID.Hex()), zap.String("role", out.Role))
	apierror.WriteJSON(w, http.StatusCreated, out)
}

// Update handles PUT /api/users/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var patch userstore.Patch
	if err := shared.DecodeJSON(w, r, &patch); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if err := roleAssignable(patch.Role); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Users.Update(ctx, id, patch)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, u)
}

// Delete handles DELETE /api/users/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Users.Delete(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if n == 0 {
		apierror.Write(w, r, h.Log, apierror.NotFound(what), what)
		return
	}
	h.Log.Info("user deleted", zap.String("id", id.Hex()))
	apierror.WriteJSON(w, http.StatusOK, shared.Deleted{Deleted: n})
}
