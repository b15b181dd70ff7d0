// internal/app/store/pipeline/pipeline.go
//
// Package pipeline assembles MongoDB aggregation pipelines for windowed
// analytics: a required time-window match, one grouping, accumulators,
// optional enrichment and projection, then a terminal sort and limit.
//
//	stages, err := pipeline.New().
//		Window("timestamp", start, end).
//		Match(bson.M{"event_type": "property_view"}).
//		GroupByField("entity_id").
//		Count("views").
//		AddToSet("unique_views", "$user_id").
//		SortByMetric("views").
//		Limit(10).
//		Build()
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Granularity is the truncation applied by GroupByDate.
type Granularity string

const (
	Day   Granularity = "day"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// ParseGranularity maps a request token to a Granularity. Unknown tokens
// fall back to Day.
func ParseGranularity(s string) Granularity {
	switch Granularity(s) {
	case Month:
		return Month
	case Year:
		return Year
	default:
		return Day
	}
}

var (
	ErrNoWindow = errors.New("pipeline: time window is required")
	ErrNoGroup  = errors.New("pipeline: grouping is required")
)

type lookup struct {
	from, localField, foreignField, as string
}

// Builder accumulates pipeline parts. The zero value is not usable; call New.
// The first misuse is recorded and reported by Build.
type Builder struct {
	windowField string
	start, end  time.Time
	match       bson.M

	grouped     bool
	groupID     any // nil with grouped set means one group for all input
	granularity Granularity // set only for date groups
	acc         bson.M
	sizes       []string

	lookup  *lookup
	project bson.M
	sort    bson.D
	limit   int64

	err error
}

func New() *Builder {
	return &Builder{match: bson.M{}, acc: bson.M{}}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Window restricts input documents to field between start and end,
// both inclusive.
func (b *Builder) Window(field string, start, end time.Time) *Builder {
	if end.Before(start) {
		return b.fail(fmt.Errorf("pipeline: window end %s before start %s", end, start))
	}
	b.windowField, b.start, b.end = field, start.UTC(), end.UTC()
	return b
}

// Match adds equality or operator constraints. Later calls overwrite
// earlier keys.
func (b *Builder) Match(m bson.M) *Builder {
	for k, v := range m {
		b.match[k] = v
	}
	return b
}

// GroupByDate buckets documents by the (year, month, day) of field,
// truncated to g.
func (b *Builder) GroupByDate(field string, g Granularity) *Builder {
	ref := "$" + field
	id := bson.D{{Key: "year", Value: bson.M{"$year": ref}}}
	switch g {
	case Year:
	case Month:
		id = append(id, bson.E{Key: "month", Value: bson.M{"$month": ref}})
	case Day:
		id = append(id,
			bson.E{Key: "month", Value: bson.M{"$month": ref}},
			bson.E{Key: "day", Value: bson.M{"$dayOfMonth": ref}},
		)
	default:
		return b.fail(fmt.Errorf("pipeline: unknown granularity %q", g))
	}
	b.grouped, b.groupID, b.granularity = true, id, g
	return b
}

// GroupByField groups documents by the value at path.
func (b *Builder) GroupByField(path string) *Builder {
	b.grouped, b.groupID, b.granularity = true, "$"+path, ""
	return b
}

// GroupAll folds every matched document into a single row.
func (b *Builder) GroupAll() *Builder {
	b.grouped, b.groupID, b.granularity = true, nil, ""
	return b
}

// Count adds a document count accumulator.
func (b *Builder) Count(name string) *Builder {
	b.acc[name] = bson.M{"$sum": 1}
	return b
}

// Sum adds a sum of the numeric value at path.
func (b *Builder) Sum(name, path string) *Builder {
	b.acc[name] = bson.M{"$sum": "$" + path}
	return b
}

// AddToSet collects distinct values of expr and reports only the set's
// cardinality under name. expr is any aggregation expression, e.g. "$user_id"
// or bson.M{"$ifNull": bson.A{"$user_id", "$session_id"}}.
func (b *Builder) AddToSet(name string, expr any) *Builder {
	b.acc[name] = bson.M{"$addToSet": expr}
	b.sizes = append(b.sizes, name)
	return b
}

// Lookup joins each group row (by localField, usually "_id") to one document
// in from and flattens it under as. Rows with no match are dropped.
func (b *Builder) Lookup(from, localField, foreignField, as string) *Builder {
	b.lookup = &lookup{from: from, localField: localField, foreignField: foreignField, as: as}
	return b
}

// Project sets the output projection.
func (b *Builder) Project(p bson.M) *Builder {
	b.project = p
	return b
}

// SortByMetric orders by the named accumulator descending, then _id
// ascending so equal metrics come back in a stable order.
func (b *Builder) SortByMetric(name string) *Builder {
	b.sort = bson.D{{Key: name, Value: -1}, {Key: "_id", Value: 1}}
	return b
}

// SortChronological orders date buckets oldest first. For a field group it
// orders by the group key.
func (b *Builder) SortChronological() *Builder {
	switch b.granularity {
	case Year:
		b.sort = bson.D{{Key: "_id.year", Value: 1}}
	case Month:
		b.sort = bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}}
	case Day:
		b.sort = bson.D{{Key: "_id.year", Value: 1}, {Key: "_id.month", Value: 1}, {Key: "_id.day", Value: 1}}
	default:
		b.sort = bson.D{{Key: "_id", Value: 1}}
	}
	return b
}

// Limit truncates the output to n rows. n <= 0 means no limit.
func (b *Builder) Limit(n int64) *Builder {
	b.limit = n
	return b
}

// Build returns the pipeline stages.
func (b *Builder) Build() ([]bson.M, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.windowField == "" {
		return nil, ErrNoWindow
	}
	if !b.grouped {
		return nil, ErrNoGroup
	}

	match := bson.M{b.windowField: bson.M{"$gte": b.start, "$lte": b.end}}
	for k, v := range b.match {
		if k != b.windowField {
			match[k] = v
		}
	}

	group := bson.M{"_id": b.groupID}
	for k, v := range b.acc {
		group[k] = v
	}

	stages := []bson.M{
		{"$match": match},
		{"$group": group},
	}
	if len(b.sizes) > 0 {
		sizes := bson.M{}
		for _, name := range b.sizes {
			sizes[name] = bson.M{"$size": "$" + name}
		}
		stages = append(stages, bson.M{"$addFields": sizes})
	}
	if l := b.lookup; l != nil {
		stages = append(stages,
			bson.M{"$lookup": bson.M{
				"from":         l.from,
				"localField":   l.localField,
				"foreignField": l.foreignField,
				"as":           l.as,
			}},
			bson.M{"$unwind": "$" + l.as},
		)
	}
	if len(b.project) > 0 {
		stages = append(stages, bson.M{"$project": b.project})
	}
	if len(b.sort) > 0 {
		stages = append(stages, bson.M{"$sort": b.sort})
	}
	if b.limit > 0 {
		stages = append(stages, bson.M{"$limit": b.limit})
	}
	return stages, nil
}

// Run builds the pipeline, executes it against coll and decodes every row
// into out, which must be a pointer to a slice.
func (b *Builder) Run(ctx context.Context, coll *mongo.Collection, out any) (err error) {
	done := metrics.Observe(coll.Name(), "aggregate")
	defer func() { done(err) }()

	stages, err := b.Build()
	if err != nil {
		return err
	}
	cur, err := coll.Aggregate(ctx, stages)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", coll.Name(), err)
	}
	defer cur.Close(ctx)
	if err = cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll.Name(), err)
	}
	return nil
}

// DateKey is the _id of a GroupByDate row. Month and Day are zero when the
// granularity is coarser.
type DateKey struct {
	Year  int `bson:"year"`
	Month int `bson:"month,omitempty"`
	Day   int `bson:"day,omitempty"`
}

// Time returns the first instant of the bucket in UTC.
func (k DateKey) Time() time.Time {
	m, d := k.Month, k.Day
	if m == 0 {
		m = 1
	}
	if d == 0 {
		d = 1
	}
	return time.Date(k.Year, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}
