// internal/app/system/filters/predicate.go
package filters

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SearchParam is the parameter that expands into the text-search OR-group.
const SearchParam = "search"

// Predicate is a conjunction of per-path constraints plus at most one
// OR-group used for text search.
type Predicate struct {
	paths  []string
	ops    map[string]bson.M
	search bson.A
}

func newPredicate() Predicate {
	return Predicate{ops: make(map[string]bson.M)}
}

func (p *Predicate) add(path, op string, value any) {
	m, ok := p.ops[path]
	if !ok {
		m = bson.M{}
		p.ops[path] = m
		p.paths = append(p.paths, path)
	}
	m[op] = value
}

// Empty reports whether the predicate matches every document.
func (p Predicate) Empty() bool {
	return len(p.paths) == 0 && len(p.search) == 0
}

// Paths returns the constrained storage paths in declaration order.
func (p Predicate) Paths() []string {
	out := make([]string, len(p.paths))
	copy(out, p.paths)
	return out
}

// Filter renders the predicate as a MongoDB filter document.
func (p Predicate) Filter() bson.M {
	f := bson.M{}
	for _, path := range p.paths {
		ops := bson.M{}
		for k, v := range p.ops[path] {
			ops[k] = v
		}
		f[path] = ops
	}
	if len(p.search) > 0 {
		f["$or"] = p.search
	}
	return f
}

// And returns the predicate's filter merged with extra fixed constraints.
// Keys in extra win over parsed ones.
func (p Predicate) And(extra bson.M) bson.M {
	f := p.Filter()
	for k, v := range extra {
		f[k] = v
	}
	return f
}

// Build parses params against the descriptor. Unknown parameters are
// ignored and absent or unset values never fail; a value that cannot be
// parsed as its declared kind returns a *ValidationError.
func Build(d Descriptor, params Params) (Predicate, error) {
	p := newPredicate()

	for _, f := range d.Fields {
		if f.Kind.exact() {
			if raw, ok := params.Get(f.Param); ok {
				if err := p.addExact(f, raw); err != nil {
					return Predicate{}, err
				}
			}
		}
		if f.Kind.ranged() {
			minKey, maxKey := rangeParams(f.Param)
			if raw, ok := params.Get(minKey); ok {
				v, err := parseBound(f, minKey, raw, false)
				if err != nil {
					return Predicate{}, err
				}
				p.add(f.Path, "$gte", v)
			}
			if raw, ok := params.Get(maxKey); ok {
				v, err := parseBound(f, maxKey, raw, true)
				if err != nil {
					return Predicate{}, err
				}
				p.add(f.Path, "$lte", v)
			}
		}
	}

	if q, ok := params.Get(SearchParam); ok && len(d.TextSearch) > 0 {
		pattern := regexp.QuoteMeta(capSearch(q))
		for _, path := range d.TextSearch {
			p.search = append(p.search, bson.M{path: bson.M{"$regex": pattern, "$options": "i"}})
		}
	}

	return p, nil
}

// capSearch truncates free text to query.MaxSearchLen bytes, backing off
// to a rune boundary.
func capSearch(s string) string {
	if len(s) <= query.MaxSearchLen {
		return s
	}
	s = s[:query.MaxSearchLen]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}

func (p *Predicate) addExact(f Field, raw string) error {
	switch f.Kind {
	case Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return Invalid(f.Param, raw, "must be an integer")
		}
		p.add(f.Path, "$eq", n)
	case Float:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Invalid(f.Param, raw, "must be a number")
		}
		p.add(f.Path, "$eq", n)
	case StringRegex:
		p.add(f.Path, "$regex", regexp.QuoteMeta(capSearch(raw)))
		p.add(f.Path, "$options", "i")
	case StringExact, Enum:
		if (f.Kind == Enum || len(f.Allowed) > 0) && !contains(f.Allowed, raw) {
			return Invalid(f.Param, raw, "must be one of "+strings.Join(f.Allowed, ", "))
		}
		p.add(f.Path, "$eq", raw)
	case Boolean:
		b, ok := ParseBool(raw)
		if !ok {
			return Invalid(f.Param, raw, "must be true or false")
		}
		p.add(f.Path, "$eq", b)
	case ObjectID:
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			return Invalid(f.Param, raw, "must be a valid id")
		}
		p.add(f.Path, "$eq", oid)
	}
	return nil
}

func parseBound(f Field, param, raw string, upper bool) (any, error) {
	switch f.Kind {
	case Integer:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, Invalid(param, raw, "must be an integer")
		}
		return n, nil
	case Float, NestedRange:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, Invalid(param, raw, "must be a number")
		}
		return n, nil
	case DateRange:
		t, err := ParseDate(raw, upper)
		if err != nil {
			return nil, Invalid(param, raw, "must be a date (YYYY-MM-DD or RFC 3339)")
		}
		return t, nil
	}
	return nil, Invalid(param, raw, "is not a range field")
}

// ParseBool accepts the textual boolean tokens a query string can carry.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "1", "yes", "on":
		return true, true
	case "false", "0", "no", "off":
		return false, true
	}
	return false, false
}

// ParseDate accepts RFC 3339 timestamps or bare YYYY-MM-DD dates (UTC).
// When endOfDay is set, a bare date resolves to the last instant of that
// day so an upper bound includes the whole day.
func ParseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Millisecond)
	}
	return t, nil
}

func contains(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}
