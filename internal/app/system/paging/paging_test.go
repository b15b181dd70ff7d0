package paging

import (
	"reflect"
	"testing"

	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var desc = filters.Descriptor{
	Name:        "property",
	DefaultSort: filters.Sort{Path: "created_at", Direction: filters.Desc},
	Sortable: map[string]string{
		"price":     "price",
		"createdAt": "created_at",
	},
}

func TestResolve_Defaults(t *testing.T) {
	w := Resolve(filters.Params{}, desc)
	if w.Page != 1 || w.Limit != DefaultLimit || w.Skip != 0 {
		t.Errorf("window: got page=%d limit=%d skip=%d", w.Page, w.Limit, w.Skip)
	}
	if w.Sort != desc.DefaultSort {
		t.Errorf("Sort: got %+v, want %+v", w.Sort, desc.DefaultSort)
	}
}

func TestResolve_PageAndLimit(t *testing.T) {
	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantSkip  int64
	}{
		{"explicit", "3", "20", 3, 20, 40},
		{"non-numeric page", "abc", "20", 1, 20, 0},
		{"non-numeric limit", "2", "ten", 2, DefaultLimit, 10},
		{"zero page", "0", "5", 1, 5, 0},
		{"negative limit", "1", "-4", 1, DefaultLimit, 0},
		{"capped limit", "2", "5000", 2, MaxLimit, MaxLimit},
		{"unset tokens", "undefined", "null", 1, DefaultLimit, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := Resolve(filters.Params{ParamPage: tt.page, ParamLimit: tt.limit}, desc)
			if w.Page != tt.wantPage {
				t.Errorf("Page: got %d, want %d", w.Page, tt.wantPage)
			}
			if w.Limit != tt.wantLimit {
				t.Errorf("Limit: got %d, want %d", w.Limit, tt.wantLimit)
			}
			if w.Skip != tt.wantSkip {
				t.Errorf("Skip: got %d, want %d", w.Skip, tt.wantSkip)
			}
		})
	}
}

func TestResolve_HugePageKeepsSkipPositive(t *testing.T) {
	for _, page := range []string{"92233720368547759", "92233720368547760", "9223372036854775807"} {
		w := Resolve(filters.Params{ParamPage: page, ParamLimit: "100"}, desc)
		if w.Skip < 0 {
			t.Errorf("page %s: negative skip %d", page, w.Skip)
		}
		if w.Page <= 1 {
			t.Errorf("page %s: got page %d, want a far page", page, w.Page)
		}
		if w.Skip != int64(w.Page-1)*int64(w.Limit) {
			t.Errorf("page %s: skip %d does not match page %d", page, w.Skip, w.Page)
		}
	}
}

func TestResolve_SortOrder(t *testing.T) {
	tests := []struct {
		order string
		want  filters.Direction
	}{
		{"desc", filters.Desc},
		{"DESC", filters.Asc},
		{"asc", filters.Asc},
		{"descending", filters.Asc},
		{"", filters.Desc}, // unset keeps the descriptor default
	}
	for _, tt := range tests {
		w := Resolve(filters.Params{ParamSortOrder: tt.order}, desc)
		if w.Sort.Direction != tt.want {
			t.Errorf("sortOrder=%q: got %d, want %d", tt.order, w.Sort.Direction, tt.want)
		}
	}
}

func TestResolve_SortBy(t *testing.T) {
	tests := []struct {
		by           string
		wantPath     string
		wantUnmapped bool
	}{
		{"price", "price", false},
		{"createdAt", "created_at", false},
		{"square_feet", "square_feet", true},
		{"address.city", "address.city", true},
		{"$where", "created_at", false},
		{"price; drop", "created_at", false},
	}
	for _, tt := range tests {
		w := Resolve(filters.Params{ParamSortBy: tt.by}, desc)
		if w.Sort.Path != tt.wantPath {
			t.Errorf("sortBy=%q Path: got %q, want %q", tt.by, w.Sort.Path, tt.wantPath)
		}
		if w.Unmapped != tt.wantUnmapped {
			t.Errorf("sortBy=%q Unmapped: got %v, want %v", tt.by, w.Unmapped, tt.wantUnmapped)
		}
	}
}

func TestSetMaxLimit(t *testing.T) {
	defer SetMaxLimit(MaxLimit)

	SetMaxLimit(25)
	w := Resolve(filters.Params{ParamLimit: "50"}, desc)
	if w.Limit != 25 {
		t.Errorf("Limit: got %d, want 25", w.Limit)
	}

	SetMaxLimit(0)
	if CurrentMaxLimit() != 25 {
		t.Errorf("CurrentMaxLimit: got %d, want 25", CurrentMaxLimit())
	}
}

func TestPages(t *testing.T) {
	w := Window{Limit: 10}
	tests := []struct {
		total int64
		want  int
	}{
		{0, 0},
		{1, 1},
		{10, 1},
		{11, 2},
		{31, 4},
	}
	for _, tt := range tests {
		if got := w.Pages(tt.total); got != tt.want {
			t.Errorf("Pages(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestSortDoc_AppendsIDTiebreak(t *testing.T) {
	w := Window{Sort: filters.Sort{Path: "price", Direction: filters.Desc}}
	want := bson.D{{Key: "price", Value: -1}, {Key: "_id", Value: -1}}
	if got := w.SortDoc(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortDoc: got %v, want %v", got, want)
	}

	w = Window{Sort: filters.Sort{Path: "_id", Direction: filters.Asc}}
	want = bson.D{{Key: "_id", Value: 1}}
	if got := w.SortDoc(); !reflect.DeepEqual(got, want) {
		t.Errorf("SortDoc(_id): got %v, want %v", got, want)
	}
}

func TestApplyToFind(t *testing.T) {
	w := Resolve(filters.Params{ParamPage: "3", ParamLimit: "7"}, desc)
	find := options.Find()
	w.ApplyToFind(find)
	if find.Skip == nil || *find.Skip != 14 {
		t.Errorf("Skip: got %v, want 14", find.Skip)
	}
	if find.Limit == nil || *find.Limit != 7 {
		t.Errorf("Limit: got %v, want 7", find.Limit)
	}
}

func TestStages(t *testing.T) {
	w := Resolve(filters.Params{ParamPage: "2"}, desc)
	st := w.Stages()
	if len(st) != 3 {
		t.Fatalf("Stages: got %d, want 3", len(st))
	}
	if st[1]["$skip"] != int64(10) {
		t.Errorf("$skip: got %v, want 10", st[1]["$skip"])
	}
	if st[2]["$limit"] != int64(10) {
		t.Errorf("$limit: got %v, want 10", st[2]["$limit"])
	}
}
