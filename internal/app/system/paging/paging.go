// internal/app/system/paging/paging.go
package paging

import (
	"math"
	"regexp"
	"strconv"
	"sync/atomic"

	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultLimit is the page size used when the request does not ask for one.
const DefaultLimit = 10

// MaxLimit is the default hard cap on page size. Bootstrap may lower or
// raise it with SetMaxLimit.
const MaxLimit = 100

// Request parameter names.
const (
	ParamPage      = "page"
	ParamLimit     = "limit"
	ParamSortBy    = "sortBy"
	ParamSortOrder = "sortOrder"
)

var maxLimit atomic.Int64

func init() { maxLimit.Store(MaxLimit) }

// SetMaxLimit replaces the page-size cap. Values < 1 are ignored.
func SetMaxLimit(n int) {
	if n >= 1 {
		maxLimit.Store(int64(n))
	}
}

// CurrentMaxLimit returns the active page-size cap.
func CurrentMaxLimit() int { return int(maxLimit.Load()) }

// sortKey matches identifiers the store can sort on: letters, digits,
// underscores and dotted paths. Anything starting with "$" is rejected.
var sortKey = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z0-9_]+)*$`)

// Window is a resolved offset/limit page plus sort order.
type Window struct {
	Page  int
	Limit int
	Skip  int64
	Sort  filters.Sort

	// Unmapped is set when sortBy named a well-formed key the descriptor
	// does not declare. The key is passed through unchanged; the store
	// ignores keys that no document has.
	Unmapped bool
}

// Resolve reads page, limit, sortBy and sortOrder from params. Parse
// failures fall back to defaults and never error.
func Resolve(params filters.Params, d filters.Descriptor) Window {
	w := Window{Page: 1, Limit: DefaultLimit, Sort: d.DefaultSort}

	if s, ok := params.Get(ParamPage); ok {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			w.Page = n
		}
	}
	if s, ok := params.Get(ParamLimit); ok {
		if n, err := strconv.Atoi(s); err == nil && n >= 1 {
			w.Limit = n
		}
	}
	if ceiling := CurrentMaxLimit(); w.Limit > ceiling {
		w.Limit = ceiling
	}
	// Pages past the last representable offset collapse onto it; the
	// executor returns an empty page for any skip beyond the total.
	if lastPage := math.MaxInt64 / int64(w.Limit); int64(w.Page-1) > lastPage {
		w.Page = int(lastPage) + 1
	}
	w.Skip = int64(w.Page-1) * int64(w.Limit)

	if by, ok := params.Get(ParamSortBy); ok {
		if path, known := d.Sortable[by]; known {
			w.Sort.Path = path
		} else if sortKey.MatchString(by) {
			w.Sort.Path = by
			w.Unmapped = true
		}
	}

	// Only the exact token "desc" sorts descending.
	if order, ok := params.Get(ParamSortOrder); ok {
		if order == "desc" {
			w.Sort.Direction = filters.Desc
		} else {
			w.Sort.Direction = filters.Asc
		}
	}
	if w.Sort.Direction == 0 {
		w.Sort.Direction = filters.Asc
	}
	return w
}

// Pages returns ceil(total/limit).
func (w Window) Pages(total int64) int {
	if total <= 0 || w.Limit <= 0 {
		return 0
	}
	return int((total + int64(w.Limit) - 1) / int64(w.Limit))
}

// SortDoc returns the sort document with _id appended as tiebreak in the
// same direction, so page boundaries are stable.
func (w Window) SortDoc() bson.D {
	dir := int(w.Sort.Direction)
	if dir == 0 {
		dir = 1
	}
	if w.Sort.Path == "" || w.Sort.Path == "_id" {
		return bson.D{{Key: "_id", Value: dir}}
	}
	return bson.D{
		{Key: w.Sort.Path, Value: dir},
		{Key: "_id", Value: dir},
	}
}

// ApplyToFind configures sort, skip and limit on FindOptions.
func (w Window) ApplyToFind(find *options.FindOptions) {
	find.SetSort(w.SortDoc()).SetSkip(w.Skip).SetLimit(int64(w.Limit))
}

// Stages returns the $sort, $skip and $limit stages for an aggregation.
func (w Window) Stages() []bson.M {
	return []bson.M{
		{"$sort": w.SortDoc()},
		{"$skip": w.Skip},
		{"$limit": int64(w.Limit)},
	}
}
