// internal/app/features/blogs/handler.go
package blogs

import (
	"context"
	"net/http"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	blogstore "github.com/dalemusser/listinghub/internal/app/store/blogs"
	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "blog"

// Handler serves the blog API.
type Handler struct {
	Blogs *blogstore.Store
	Log   *zap.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{Blogs: blogstore.New(db), Log: logger}
}

// List handles GET /api/blogs. Post bodies are left out of list rows.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "blogs.list")
	defer cancel()

	page, err := h.Blogs.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Count handles GET /api/blogs/count.
func (h *Handler) Count(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "blogs.count")
	defer cancel()

	n, err := h.Blogs.Count(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, shared.CountBody{Count: n})
}

// Get handles GET /api/blogs/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Blogs.GetByID(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, b)
}

// GetBySlug handles GET /api/blogs/slug/{slug}.
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Blogs.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, b)
}

// Create handles POST /api/blogs. Without an explicit author the post is
// attributed to the request's actor.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.Blog
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if in.Author.IsZero() {
		if a, ok := actor.From(r.Context()); ok {
			in.Author = a.ID
		}
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Blogs.Create(ctx, in)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	h.Log.Info("blog created", zap.String("id", b.ID.Hex()), zap.String("slug", b.Slug))
	apierror.WriteJSON(w, http.StatusCreated, b)
}

// Update handles PUT /api/blogs/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	var patch blogstore.Patch
	if err := shared.DecodeJSON(w, r, &patch); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	b, err := h.Blogs.Update(ctx, id, patch)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, b)
}

// Delete handles DELETE /api/blogs/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := shared.ObjectID(r, "id")
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	n, err := h.Blogs.Delete(ctx, id)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if n == 0 {
		apierror.Write(w, r, h.Log, apierror.NotFound(what), what)
		return
	}
	h.Log.Info("blog deleted", zap.String("id", id.Hex()))
	apierror.WriteJSON(w, http.StatusOK, shared.Deleted{Deleted: n})
}
