// internal/app/features/analytics/handler.go
package analytics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/listinghub/internal/app/features/shared"
	analyticsstore "github.com/dalemusser/listinghub/internal/app/store/analytics"
	"github.com/dalemusser/listinghub/internal/app/store/pipeline"
	"github.com/dalemusser/listinghub/internal/app/store/queries/analyticsqueries"
	"github.com/dalemusser/listinghub/internal/app/store/queries/dashboard"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const what = "analytics event"

// Handler serves event ingestion and the reporting endpoints.
type Handler struct {
	DB        *mongo.Database
	Events    *analyticsstore.Store
	Dashboard *dashboard.Assembler
	Log       *zap.Logger

	// Now defaults to time.Now; reporting windows end at Now().
	Now func() time.Time
}

func NewHandler(db *mongo.Database, logger *zap.Logger, concurrency int) *Handler {
	return &Handler{
		DB:        db,
		Events:    analyticsstore.New(db),
		Dashboard: dashboard.New(db, logger, concurrency),
		Log:       logger,
		Now:       time.Now,
	}
}

type eventInput struct {
	EventType string              `json:"event_type"`
	EntityID  *primitive.ObjectID `json:"entity_id"`
	UserID    *primitive.ObjectID `json:"user_id"`
	SessionID string              `json:"session_id"`
	Page      string              `json:"page"`
	Referrer  string              `json:"referrer"`
	Query     string              `json:"query"`
}

// Record handles POST /api/analytics/events. The session id may come from
// the body or the session header; anonymous callers get a generated one,
// returned in the response so they can reuse it.
func (h *Handler) Record(w http.ResponseWriter, r *http.Request) {
	var in eventInput
	if err := shared.DecodeJSON(w, r, &in); err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if in.SessionID == "" {
		in.SessionID = r.Header.Get(shared.SessionHeader)
	}
	if in.Referrer == "" {
		in.Referrer = r.Header.Get("Referer")
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	e, err := h.Events.Record(ctx, models.AnalyticsEvent{
		EventType: in.EventType,
		EntityID:  in.EntityID,
		UserID:    in.UserID,
		SessionID: in.SessionID,
		Page:      in.Page,
		Referrer:  in.Referrer,
		Query:     in.Query,
		IP:        shared.ClientIP(r),
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusCreated, e)
}

// List handles GET /api/analytics/events.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "analytics.events")
	defer cancel()

	page, err := h.Events.List(ctx, filters.FromValues(r.URL.Query()))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, page)
}

// Session handles GET /api/analytics/sessions/{session}: one visitor's
// events in order.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "analytics.session")
	defer cancel()

	events, err := h.Events.GetBySession(ctx, chi.URLParam(r, "session"))
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if events == nil {
		events = []models.AnalyticsEvent{}
	}
	apierror.WriteJSON(w, http.StatusOK, map[string]any{"items": events})
}

// ServeDashboard handles GET /api/analytics/dashboard?period=. It always
// answers 200; metrics that could not be computed are null and listed in
// failed.
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	period, _ := filters.FromValues(r.URL.Query()).Get("period")
	res := h.Dashboard.Run(r.Context(), period)
	apierror.WriteJSON(w, http.StatusOK, res)
}

type rankedResponse struct {
	Metric string                       `json:"metric"`
	Window analyticsqueries.Window      `json:"window"`
	Items  []analyticsqueries.RankedRow `json:"items"`
}

// Top handles GET /api/analytics/top?metric=&period=&n=.
func (h *Handler) Top(w http.ResponseWriter, r *http.Request) {
	params := filters.FromValues(r.URL.Query())
	kind, win := h.metricAndWindow(params)
	n, err := topN(params)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Aggregate(), h.Log, "analytics.top")
	defer cancel()

	rows, err := analyticsqueries.TopN(ctx, h.DB, kind, win, n)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if rows == nil {
		rows = []analyticsqueries.RankedRow{}
	}
	apierror.WriteJSON(w, http.StatusOK, rankedResponse{Metric: string(kind), Window: win, Items: rows})
}

type distinctResponse struct {
	Metric string                  `json:"metric"`
	Window analyticsqueries.Window `json:"window"`
	analyticsqueries.DistinctRow
}

// Distinct handles GET /api/analytics/distinct?metric=&period=&key=.
// Without a metric it counts unique visitors across all events.
func (h *Handler) Distinct(w http.ResponseWriter, r *http.Request) {
	params := filters.FromValues(r.URL.Query())
	kind, win := h.metricAndWindow(params)
	key, _ := params.Get("key")

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Aggregate(), h.Log, "analytics.distinct")
	defer cancel()

	var (
		row analyticsqueries.DistinctRow
		err error
	)
	if kind == "" {
		row, err = analyticsqueries.UniqueVisitors(ctx, h.DB, win)
	} else {
		row, err = analyticsqueries.DistinctCount(ctx, h.DB, kind, win, key)
	}
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	apierror.WriteJSON(w, http.StatusOK, distinctResponse{Metric: string(kind), Window: win, DistinctRow: row})
}

type seriesResponse struct {
	Metric      string                        `json:"metric"`
	Granularity pipeline.Granularity          `json:"granularity"`
	Window      analyticsqueries.Window       `json:"window"`
	Buckets     []analyticsqueries.DateBucket `json:"buckets"`
}

// TimeSeries handles GET /api/analytics/timeseries?metric=&period=&granularity=.
func (h *Handler) TimeSeries(w http.ResponseWriter, r *http.Request) {
	params := filters.FromValues(r.URL.Query())
	kind, win := h.metricAndWindow(params)
	raw, _ := params.Get("granularity")
	g := pipeline.ParseGranularity(raw)

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Aggregate(), h.Log, "analytics.timeseries")
	defer cancel()

	buckets, err := analyticsqueries.TimeSeries(ctx, h.DB, kind, win, g)
	if err != nil {
		apierror.Write(w, r, h.Log, err, what)
		return
	}
	if buckets == nil {
		buckets = []analyticsqueries.DateBucket{}
	}
	apierror.WriteJSON(w, http.StatusOK, seriesResponse{Metric: string(kind), Granularity: g, Window: win, Buckets: buckets})
}

// Metrics handles GET /api/analytics/metrics: the metric names the
// reporting endpoints accept.
func (h *Handler) Metrics(w http.ResponseWriter, r *http.Request) {
	apierror.WriteJSON(w, http.StatusOK, map[string]any{
		"metrics":   analyticsqueries.Kinds(),
		"dashboard": dashboard.Names(),
	})
}

func (h *Handler) metricAndWindow(params filters.Params) (analyticsqueries.Kind, analyticsqueries.Window) {
	metric, _ := params.Get("metric")
	period, _ := params.Get("period")
	now := time.Now
	if h.Now != nil {
		now = h.Now
	}
	return analyticsqueries.Kind(metric), analyticsqueries.ResolvePeriod(period, now())
}

func topN(params filters.Params) (int, error) {
	raw, ok := params.Get("n")
	if !ok {
		return analyticsqueries.DefaultTopN, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, filters.Invalid("n", raw, "must be a positive integer")
	}
	return n, nil
}
