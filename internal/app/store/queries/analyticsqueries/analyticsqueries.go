// internal/app/store/queries/analyticsqueries/analyticsqueries.go
//
// Package analyticsqueries provides the named read-only aggregations behind
// the analytics endpoints and the dashboard: time series, top-N rankings,
// distinct-visitor counts and field breakdowns.
package analyticsqueries

// Terminology: Visitors
//   - A visitor is identified by user_id when the event has one, otherwise
//     by session_id. Anonymous traffic is therefore counted per session.

import (
	"context"
	"fmt"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/pipeline"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultTopN is used when a caller asks for a non-positive n.
const DefaultTopN = 10

var visitor = bson.M{"$ifNull": bson.A{"$user_id", "$session_id"}}

// present matches documents whose path is set to a non-empty value.
func present() bson.M { return bson.M{"$nin": bson.A{nil, ""}} }

// DateBucket is one row of a time series.
type DateBucket struct {
	Date  string `json:"date"` // 2006-01-02, 2006-01 or 2006
	Count int64  `json:"count"`
}

// RankedRow is one row of a ranking. Key is the group value (an ObjectID
// in hex for entity metrics), Label a display name.
type RankedRow struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

// DistinctRow reports total and unique-visitor counts for one group.
type DistinctRow struct {
	GroupKey    string `json:"groupKey"`
	Count       int64  `json:"count"`
	UniqueCount int64  `json:"uniqueCount"`
}

func dateFieldFor(collection string) string {
	if collection == catalog.AnalyticsEvents {
		return "timestamp"
	}
	return "created_at"
}

func keyString(v any) string {
	switch k := v.(type) {
	case primitive.ObjectID:
		return k.Hex()
	case string:
		return k
	case nil:
		return ""
	default:
		return fmt.Sprint(k)
	}
}

func clampN(n int) int64 {
	if n < 1 {
		return DefaultTopN
	}
	if ceiling := int64(paging.CurrentMaxLimit()); int64(n) > ceiling {
		return ceiling
	}
	return int64(n)
}

func formatKey(k pipeline.DateKey, g pipeline.Granularity) string {
	switch g {
	case pipeline.Year:
		return k.Time().Format("2006")
	case pipeline.Month:
		return k.Time().Format("2006-01")
	default:
		return k.Time().Format("2006-01-02")
	}
}

// CountOverTime buckets documents of collection by their date field,
// oldest bucket first. Buckets with no documents are absent.
func CountOverTime(ctx context.Context, db *mongo.Database, collection string, match bson.M, w Window, g pipeline.Granularity) ([]DateBucket, error) {
	field := dateFieldFor(collection)
	var rows []struct {
		ID    pipeline.DateKey `bson:"_id"`
		Count int64            `bson:"count"`
	}
	err := pipeline.New().
		Window(field, w.Start, w.End).
		Match(match).
		GroupByDate(field, g).
		Count("count").
		SortChronological().
		Run(ctx, db.Collection(collection), &rows)
	if err != nil {
		return nil, err
	}
	out := make([]DateBucket, 0, len(rows))
	for _, r := range rows {
		out = append(out, DateBucket{Date: formatKey(r.ID, g), Count: r.Count})
	}
	return out, nil
}

// TimeSeries counts events of an event-sourced kind per date bucket.
func TimeSeries(ctx context.Context, db *mongo.Database, kind Kind, w Window, g pipeline.Granularity) ([]DateBucket, error) {
	d, err := lookupEventKind(kind, "time series")
	if err != nil {
		return nil, err
	}
	return CountOverTime(ctx, db, catalog.AnalyticsEvents, bson.M{"event_type": d.eventType}, w, g)
}

// TopN returns the n highest-ranked groups for kind within w, metric
// descending. Entity rankings that reference a deleted document are
// dropped. Document-sourced kinds rank by the lifetime views counter and
// ignore w.
func TopN(ctx context.Context, db *mongo.Database, kind Kind, w Window, n int) ([]RankedRow, error) {
	d, err := lookupKind(kind)
	if err != nil {
		return nil, err
	}
	limit := clampN(n)
	if !d.eventSourced() {
		return topByViews(ctx, db, d, limit)
	}

	b := pipeline.New().
		Window("timestamp", w.Start, w.End).
		Match(bson.M{"event_type": d.eventType, d.groupPath: present()}).
		GroupByField(d.groupPath).
		Count("value")
	project := bson.M{"value": 1, "label": "$_id"}
	if d.entityKey {
		b.Lookup(d.collection, "_id", "_id", "doc")
		project["label"] = "$doc." + d.labelField
	}

	var rows []struct {
		ID    any   `bson:"_id"`
		Label any   `bson:"label"`
		Value int64 `bson:"value"`
	}
	err = b.Project(project).SortByMetric("value").Limit(limit).Run(ctx, db.Collection(catalog.AnalyticsEvents), &rows)
	if err != nil {
		return nil, err
	}
	out := make([]RankedRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, RankedRow{Key: keyString(r.ID), Label: keyString(r.Label), Value: r.Value})
	}
	return out, nil
}

func topByViews(ctx context.Context, db *mongo.Database, d kindDef, limit int64) (rows []RankedRow, err error) {
	done := metrics.Observe(d.collection, "top")
	defer func() { done(err) }()

	opts := options.Find().
		SetSort(bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}).
		SetLimit(limit).
		SetProjection(bson.M{d.labelField: 1, "views": 1})
	cur, err := db.Collection(d.collection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("top %s: %w", d.collection, err)
	}
	defer cur.Close(ctx)

	out := make([]RankedRow, 0, limit)
	for cur.Next(ctx) {
		var doc bson.M
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		views, _ := doc["views"].(int64)
		if v32, ok := doc["views"].(int32); ok {
			views = int64(v32)
		}
		out = append(out, RankedRow{Key: keyString(doc["_id"]), Label: keyString(doc[d.labelField]), Value: views})
	}
	return out, cur.Err()
}

// DistinctCount counts events of kind within w for one group and the number
// of distinct visitors among them. An empty groupKey covers every group.
func DistinctCount(ctx context.Context, db *mongo.Database, kind Kind, w Window, groupKey string) (DistinctRow, error) {
	d, err := lookupEventKind(kind, "distinct counts")
	if err != nil {
		return DistinctRow{}, err
	}
	match := bson.M{"event_type": d.eventType}
	switch {
	case groupKey == "":
	case d.entityKey:
		id, err := primitive.ObjectIDFromHex(groupKey)
		if err != nil {
			return DistinctRow{}, filters.Invalid("key", groupKey, "must be a valid id")
		}
		match[d.groupPath] = id
	default:
		match[d.groupPath] = groupKey
	}
	row, err := distinct(ctx, db, match, w)
	row.GroupKey = groupKey
	return row, err
}

// UniqueVisitors counts every event within w and the distinct visitors
// behind them.
func UniqueVisitors(ctx context.Context, db *mongo.Database, w Window) (DistinctRow, error) {
	return distinct(ctx, db, bson.M{}, w)
}

func distinct(ctx context.Context, db *mongo.Database, match bson.M, w Window) (DistinctRow, error) {
	var rows []struct {
		Count       int64 `bson:"count"`
		UniqueCount int64 `bson:"unique_count"`
	}
	err := pipeline.New().
		Window("timestamp", w.Start, w.End).
		Match(match).
		GroupAll().
		Count("count").
		AddToSet("unique_count", visitor).
		Run(ctx, db.Collection(catalog.AnalyticsEvents), &rows)
	if err != nil || len(rows) == 0 {
		return DistinctRow{}, err
	}
	return DistinctRow{Count: rows[0].Count, UniqueCount: rows[0].UniqueCount}, nil
}

// CountByField ranks the values of field across documents of collection
// created within w.
func CountByField(ctx context.Context, db *mongo.Database, collection, field string, w Window) ([]RankedRow, error) {
	var rows []struct {
		ID    any   `bson:"_id"`
		Count int64 `bson:"count"`
	}
	err := pipeline.New().
		Window(dateFieldFor(collection), w.Start, w.End).
		Match(bson.M{field: present()}).
		GroupByField(field).
		Count("count").
		SortByMetric("count").
		Run(ctx, db.Collection(collection), &rows)
	if err != nil {
		return nil, err
	}
	out := make([]RankedRow, 0, len(rows))
	for _, r := range rows {
		k := keyString(r.ID)
		out = append(out, RankedRow{Key: k, Label: k, Value: r.Count})
	}
	return out, nil
}
