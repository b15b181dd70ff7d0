// internal/app/store/queries/dashboard/dashboard.go
//
// Package dashboard assembles the analytics dashboard. Each metric is an
// independent task; tasks run concurrently under their own deadline and a
// failing task yields a null metric instead of failing the dashboard.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	metricsstore "github.com/dalemusser/listinghub/internal/app/store/metrics"
	"github.com/dalemusser/listinghub/internal/app/store/pipeline"
	"github.com/dalemusser/listinghub/internal/app/store/queries/analyticsqueries"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many metric tasks run at once.
const DefaultConcurrency = 4

// TopLimit is the row count of every ranking on the dashboard.
const TopLimit = 10

// Metric names.
const (
	Overview             = "overview"
	ViewsOverTime        = "viewsOverTime"
	ContactsOverTime     = "contactsOverTime"
	EventsByType         = "eventsByType"
	TopProperties        = "topProperties"
	MostViewedProperties = "mostViewedProperties"
	TopPages             = "topPages"
	TopSearches          = "topSearches"
	PropertiesByType     = "propertiesByType"
	UniqueVisitors       = "uniqueVisitors"
)

// Task computes one dashboard metric.
type Task struct {
	Name string
	Run  func(ctx context.Context) (any, error)
}

// Result is an assembled dashboard. A metric whose task failed is present
// with a nil value and its name is listed in Failed.
type Result struct {
	Period  string         `json:"period"`
	Start   time.Time      `json:"start"`
	End     time.Time      `json:"end"`
	Metrics map[string]any `json:"metrics"`
	Failed  []string       `json:"failed"`
}

// Assembler runs dashboard tasks.
type Assembler struct {
	DB          *mongo.Database
	Log         *zap.Logger
	Concurrency int

	// Now and Tasks default to time.Now and DefaultTasks.
	Now   func() time.Time
	Tasks func(w analyticsqueries.Window) []Task
}

func New(db *mongo.Database, log *zap.Logger, concurrency int) *Assembler {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Assembler{DB: db, Log: log, Concurrency: concurrency}
}

// Run resolves period and computes every metric for it.
func (a *Assembler) Run(ctx context.Context, period string) Result {
	start := time.Now()
	defer func() { metrics.DashboardDuration.Observe(time.Since(start).Seconds()) }()

	log := a.Log
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	w := analyticsqueries.ResolvePeriod(period, now())

	var tasks []Task
	if a.Tasks != nil {
		tasks = a.Tasks(w)
	} else {
		tasks = DefaultTasks(a.DB, w)
	}

	type outcome struct {
		value any
		err   error
	}
	outcomes := make([]outcome, len(tasks))

	var g errgroup.Group
	limit := a.Concurrency
	if limit < 1 {
		limit = DefaultConcurrency
	}
	g.SetLimit(limit)
	for i, t := range tasks {
		g.Go(func() error {
			defer func() {
				if p := recover(); p != nil {
					outcomes[i] = outcome{err: fmt.Errorf("panic: %v", p)}
				}
			}()
			tctx, cancel := timeouts.WithTimeout(ctx, timeouts.Aggregate(), log, "dashboard."+t.Name)
			defer cancel()
			v, err := t.Run(tctx)
			outcomes[i] = outcome{value: v, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Period:  w.Period,
		Start:   w.Start,
		End:     w.End,
		Metrics: make(map[string]any, len(tasks)),
		Failed:  []string{},
	}
	for i, t := range tasks {
		o := outcomes[i]
		if o.err != nil {
			log.Warn("dashboard metric failed",
				zap.String("metric", t.Name),
				zap.String("period", w.Period),
				zap.Error(o.err))
			metrics.DashboardTaskFailures.WithLabelValues(t.Name).Inc()
			res.Metrics[t.Name] = nil
			res.Failed = append(res.Failed, t.Name)
			continue
		}
		res.Metrics[t.Name] = o.value
	}
	return res
}

// granularityFor picks the bucket size for a period's time series.
func granularityFor(period string) pipeline.Granularity {
	if period == analyticsqueries.Period1y {
		return pipeline.Month
	}
	return pipeline.Day
}

// DefaultTasks returns the standard dashboard metrics for w.
func DefaultTasks(db *mongo.Database, w analyticsqueries.Window) []Task {
	g := granularityFor(w.Period)
	top := func(kind analyticsqueries.Kind) func(context.Context) (any, error) {
		return func(ctx context.Context) (any, error) {
			return analyticsqueries.TopN(ctx, db, kind, w, TopLimit)
		}
	}
	return []Task{
		{Overview, func(ctx context.Context) (any, error) {
			return metricsstore.FetchDashboardCounts(ctx, db)
		}},
		{ViewsOverTime, func(ctx context.Context) (any, error) {
			return analyticsqueries.TimeSeries(ctx, db, analyticsqueries.PropertyViews, w, g)
		}},
		{ContactsOverTime, func(ctx context.Context) (any, error) {
			return analyticsqueries.CountOverTime(ctx, db, catalog.Contacts, bson.M{}, w, g)
		}},
		{EventsByType, func(ctx context.Context) (any, error) {
			return analyticsqueries.CountByField(ctx, db, catalog.AnalyticsEvents, "event_type", w)
		}},
		{TopProperties, top(analyticsqueries.PropertyViews)},
		{MostViewedProperties, top(analyticsqueries.MostViewedProperties)},
		{TopPages, top(analyticsqueries.PageViews)},
		{TopSearches, top(analyticsqueries.Searches)},
		{PropertiesByType, func(ctx context.Context) (any, error) {
			return analyticsqueries.CountByField(ctx, db, catalog.Properties, "property_type", w)
		}},
		{UniqueVisitors, func(ctx context.Context) (any, error) {
			return analyticsqueries.UniqueVisitors(ctx, db, w)
		}},
	}
}

var names = []string{
	Overview, ViewsOverTime, ContactsOverTime, EventsByType, TopProperties,
	MostViewedProperties, TopPages, TopSearches, PropertiesByType, UniqueVisitors,
}

// Names lists the default metric names in dashboard order.
func Names() []string {
	return append([]string(nil), names...)
}
