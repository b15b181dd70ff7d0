// internal/app/store/query/query.go
//
// Package query executes descriptor-driven list, count and get operations
// against any listable collection. A Spec couples a parsed predicate with
// a resolved page window; List and Count evaluate the same filter so the
// reported total always matches the items that can be paged through.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/app/system/paging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrNotFound is returned when a single-document fetch matches nothing.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate")
)

// Spec is one list query: predicate, fixed constraints and page window.
type Spec struct {
	Desc      filters.Descriptor
	Predicate filters.Predicate
	Window    paging.Window

	// Fixed is merged into the parsed filter and wins on key conflicts.
	// Handlers use it for constraints the caller cannot override.
	Fixed bson.M
}

// Prepare parses params into a Spec. Only predicate parsing can fail.
func Prepare(d filters.Descriptor, params filters.Params) (Spec, error) {
	p, err := filters.Build(d, params)
	if err != nil {
		return Spec{}, err
	}
	return Spec{Desc: d, Predicate: p, Window: paging.Resolve(params, d)}, nil
}

// Filter returns the predicate filter merged with Fixed.
func (s Spec) Filter() bson.M {
	if len(s.Fixed) == 0 {
		return s.Predicate.Filter()
	}
	return s.Predicate.And(s.Fixed)
}

// Page is one page of results with the totals computed from the same filter.
type Page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Pages int   `json:"pages"`
	Limit int   `json:"limit"`
}

// Count returns the number of documents matching s.Filter(),
// ignoring the page window.
func Count(ctx context.Context, db *mongo.Database, s Spec) (n int64, err error) {
	done := metrics.Observe(s.Desc.Collection, "count")
	defer func() { done(err) }()

	n, err = db.Collection(s.Desc.Collection).CountDocuments(ctx, s.Filter())
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.Desc.Collection, err)
	}
	return n, nil
}

// List returns one page of documents decoded as T. List-excluded paths are
// dropped and populations are resolved into their summary fields.
func List[T any](ctx context.Context, db *mongo.Database, s Spec) (Page[T], error) {
	total, err := Count(ctx, db, s)
	if err != nil {
		return Page[T]{}, err
	}

	if s.Window.Unmapped {
		zap.L().Debug("sorting on undeclared key",
			zap.String("collection", s.Desc.Collection),
			zap.String("sort", s.Window.Sort.Path))
	}

	out := Page[T]{
		Items: []T{},
		Total: total,
		Page:  s.Window.Page,
		Pages: s.Window.Pages(total),
		Limit: s.Window.Limit,
	}
	// Nothing to fetch past the end.
	if total == 0 || s.Window.Skip >= total {
		return out, nil
	}

	items, err := fetch[T](ctx, db, s)
	if err != nil {
		return Page[T]{}, err
	}
	out.Items = items
	return out, nil
}

func fetch[T any](ctx context.Context, db *mongo.Database, s Spec) (items []T, err error) {
	coll := db.Collection(s.Desc.Collection)
	done := metrics.Observe(s.Desc.Collection, "list")
	defer func() { done(err) }()

	var cur *mongo.Cursor
	if len(s.Desc.Populations) == 0 {
		find := options.Find()
		s.Window.ApplyToFind(find)
		if proj := exclusion(s.Desc.ListExclude); proj != nil {
			find.SetProjection(proj)
		}
		cur, err = coll.Find(ctx, s.Filter(), find)
	} else {
		pipe := []bson.M{{"$match": s.Filter()}}
		pipe = append(pipe, s.Window.Stages()...)
		pipe = append(pipe, LookupStages(s.Desc.Populations)...)
		if proj := exclusion(s.Desc.ListExclude); proj != nil {
			pipe = append(pipe, bson.M{"$project": proj})
		}
		cur, err = coll.Aggregate(ctx, pipe)
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.Desc.Collection, err)
	}
	defer cur.Close(ctx)

	items = []T{}
	if err = cur.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.Desc.Collection, err)
	}
	return items, nil
}

// Get fetches one full document by id, with populations resolved. List
// exclusions do not apply.
func Get[T any](ctx context.Context, db *mongo.Database, d filters.Descriptor, id primitive.ObjectID) (out T, err error) {
	coll := db.Collection(d.Collection)
	done := metrics.Observe(d.Collection, "get")
	defer func() {
		if errors.Is(err, ErrNotFound) {
			done(nil)
			return
		}
		done(err)
	}()

	if len(d.Populations) == 0 {
		err = coll.FindOne(ctx, bson.M{"_id": id}).Decode(&out)
		if errors.Is(err, mongo.ErrNoDocuments) {
			return out, ErrNotFound
		}
		return out, err
	}

	pipe := []bson.M{{"$match": bson.M{"_id": id}}, {"$limit": 1}}
	pipe = append(pipe, LookupStages(d.Populations)...)
	cur, err := coll.Aggregate(ctx, pipe)
	if err != nil {
		return out, fmt.Errorf("get %s: %w", d.Collection, err)
	}
	defer cur.Close(ctx)

	if !cur.Next(ctx) {
		if err = cur.Err(); err != nil {
			return out, err
		}
		return out, ErrNotFound
	}
	err = cur.Decode(&out)
	return out, err
}

// LookupStages resolves each population into a summary sub-document.
// Documents whose reference is missing or dangling keep their place with
// the summary absent.
func LookupStages(pops []filters.Population) []bson.M {
	stages := make([]bson.M, 0, 2*len(pops))
	for _, p := range pops {
		proj := bson.M{}
		for _, f := range p.Fields {
			proj[f] = 1
		}
		stages = append(stages,
			bson.M{"$lookup": bson.M{
				"from": p.From,
				"let":  bson.M{"ref": "$" + p.Field},
				"pipeline": []bson.M{
					{"$match": bson.M{"$expr": bson.M{"$eq": bson.A{"$_id", "$$ref"}}}},
					{"$project": proj},
				},
				"as": p.As,
			}},
			bson.M{"$unwind": bson.M{"path": "$" + p.As, "preserveNullAndEmptyArrays": true}},
		)
	}
	return stages
}

func exclusion(paths []string) bson.M {
	if len(paths) == 0 {
		return nil
	}
	m := bson.M{}
	for _, p := range paths {
		m[p] = 0
	}
	return m
}
