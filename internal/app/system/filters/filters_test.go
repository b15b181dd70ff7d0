package filters

import (
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/dalemusser/waffle/pantry/query"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var testDesc = Descriptor{
	Name:       "property",
	Collection: "properties",
	Fields: []Field{
		{Param: "propertyType", Path: "property_type", Kind: Enum, Allowed: []string{"house", "apartment", "condo"}},
		{Param: "city", Path: "address.city", Kind: StringRegex},
		{Param: "bedrooms", Path: "bedrooms", Kind: Integer},
		{Param: "price", Path: "price", Kind: Float},
		{Param: "area", Path: "area.size", Kind: NestedRange},
		{Param: "featured", Path: "featured", Kind: Boolean},
		{Param: "createdAt", Path: "created_at", Kind: DateRange},
		{Param: "agent", Path: "agent", Kind: ObjectID},
	},
	TextSearch: []string{"title", "description"},
}

func TestBuild_EmptyParamsMatchEverything(t *testing.T) {
	p, err := Build(testDesc, Params{})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !p.Empty() {
		t.Errorf("expected empty predicate, got %v", p.Filter())
	}
	if len(p.Filter()) != 0 {
		t.Errorf("Filter: got %v, want empty", p.Filter())
	}
}

func TestBuild_UnsetTokensEqualAbsent(t *testing.T) {
	for _, tok := range []string{"", "undefined", "null", "  "} {
		params := Params{
			"propertyType": tok,
			"minPrice":     tok,
			"featured":     tok,
			"search":       tok,
		}
		p, err := Build(testDesc, params)
		if err != nil {
			t.Fatalf("Build(%q) failed: %v", tok, err)
		}
		if !p.Empty() {
			t.Errorf("token %q: expected empty predicate, got %v", tok, p.Filter())
		}
	}
}

func TestBuild_UnknownParamsIgnored(t *testing.T) {
	p, err := Build(testDesc, Params{"colour": "blue", "page": "3"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !p.Empty() {
		t.Errorf("expected empty predicate, got %v", p.Filter())
	}
}

func TestBuild_RangeCombinesBounds(t *testing.T) {
	p, err := Build(testDesc, Params{"minPrice": "100000", "maxPrice": "250000.5"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"price": bson.M{"$gte": 100000.0, "$lte": 250000.5}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestBuild_NestedRangeUsesPath(t *testing.T) {
	p, err := Build(testDesc, Params{"minArea": "50"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"area.size": bson.M{"$gte": 50.0}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestBuild_IntegerExactAndRange(t *testing.T) {
	p, err := Build(testDesc, Params{"bedrooms": "3", "minBedrooms": "2"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"bedrooms": bson.M{"$eq": int64(3), "$gte": int64(2)}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestBuild_EnumRejectsUnknownValue(t *testing.T) {
	_, err := Build(testDesc, Params{"propertyType": "castle"})
	if err == nil {
		t.Fatal("expected validation error for unknown enum value")
	}
	if !IsValidation(err) {
		t.Errorf("expected ValidationError, got %T", err)
	}
	ve := err.(*ValidationError)
	if ve.Param != "propertyType" {
		t.Errorf("Param: got %q, want %q", ve.Param, "propertyType")
	}
}

func TestBuild_EnumAcceptsAllowed(t *testing.T) {
	p, err := Build(testDesc, Params{"propertyType": "condo"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"property_type": bson.M{"$eq": "condo"}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestBuild_RegexIsEscapedAndCaseInsensitive(t *testing.T) {
	p, err := Build(testDesc, Params{"city": "St. Louis (MO)"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"address.city": bson.M{"$regex": `St\. Louis \(MO\)`, "$options": "i"}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestBuild_SearchExpandsToOrGroup(t *testing.T) {
	p, err := Build(testDesc, Params{"search": "pool", "featured": "true"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f := p.Filter()
	or, ok := f["$or"].(bson.A)
	if !ok {
		t.Fatalf("expected $or group, got %v", f)
	}
	if len(or) != 2 {
		t.Fatalf("$or: got %d clauses, want 2", len(or))
	}
	first := or[0].(bson.M)
	if _, ok := first["title"]; !ok {
		t.Errorf("first clause: got %v, want title", first)
	}
	if !reflect.DeepEqual(f["featured"], bson.M{"$eq": true}) {
		t.Errorf("featured: got %v", f["featured"])
	}
}

func TestBuild_SearchTextIsCapped(t *testing.T) {
	long := strings.Repeat("a", query.MaxSearchLen+50)
	p, err := Build(testDesc, Params{"search": long, "city": long})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f := p.Filter()
	for _, clause := range f["$or"].(bson.A) {
		for _, cond := range clause.(bson.M) {
			if got := len(cond.(bson.M)["$regex"].(string)); got != query.MaxSearchLen {
				t.Errorf("search pattern length: got %d, want %d", got, query.MaxSearchLen)
			}
		}
	}
	city := f["address.city"].(bson.M)["$regex"].(string)
	if len(city) != query.MaxSearchLen {
		t.Errorf("city pattern length: got %d, want %d", len(city), query.MaxSearchLen)
	}
}

func TestCapSearch(t *testing.T) {
	if got := capSearch("pool"); got != "pool" {
		t.Errorf("short input: got %q", got)
	}
	// 'é' is two bytes; an odd-length prefix would split the last one.
	in := "x" + strings.Repeat("é", query.MaxSearchLen)
	got := capSearch(in)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a rune: %q", got)
	}
	if len(got) != query.MaxSearchLen-1 {
		t.Errorf("length: got %d, want %d", len(got), query.MaxSearchLen-1)
	}
}

func TestBuild_BooleanTokens(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{"true", true},
		{"1", true},
		{"yes", true},
		{"FALSE", false},
		{"0", false},
		{"no", false},
		{true, true},
		{false, false},
	}
	for _, tt := range tests {
		p, err := Build(testDesc, Params{"featured": tt.in})
		if err != nil {
			t.Fatalf("Build(%v) failed: %v", tt.in, err)
		}
		got := p.Filter()["featured"].(bson.M)["$eq"]
		if got != tt.want {
			t.Errorf("featured=%v: got %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := Build(testDesc, Params{"featured": "maybe"}); !IsValidation(err) {
		t.Errorf("featured=maybe: expected ValidationError, got %v", err)
	}
}

func TestBuild_TypeErrors(t *testing.T) {
	tests := []struct {
		name  string
		param string
		value string
	}{
		{"integer", "bedrooms", "three"},
		{"integer range", "minBedrooms", "2.5"},
		{"float range", "maxPrice", "cheap"},
		{"date", "minCreatedAt", "yesterday"},
		{"object id", "agent", "not-an-id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(testDesc, Params{tt.param: tt.value})
			if !IsValidation(err) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve := err.(*ValidationError); ve.Param != tt.param {
				t.Errorf("Param: got %q, want %q", ve.Param, tt.param)
			}
		})
	}
}

func TestBuild_DateRangeBounds(t *testing.T) {
	p, err := Build(testDesc, Params{"minCreatedAt": "2024-01-01", "maxCreatedAt": "2024-01-31"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	ops := p.Filter()["created_at"].(bson.M)
	lo := ops["$gte"].(time.Time)
	hi := ops["$lte"].(time.Time)
	if !lo.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("$gte: got %v", lo)
	}
	if hi.Day() != 31 || hi.Hour() != 23 || hi.Minute() != 59 {
		t.Errorf("$lte: got %v, want end of 2024-01-31", hi)
	}
}

func TestBuild_ObjectID(t *testing.T) {
	id := primitive.NewObjectID()
	p, err := Build(testDesc, Params{"agent": id.Hex()})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	want := bson.M{"agent": bson.M{"$eq": id}}
	if got := p.Filter(); !reflect.DeepEqual(got, want) {
		t.Errorf("Filter: got %v, want %v", got, want)
	}
}

func TestPredicate_AndOverridesParsed(t *testing.T) {
	p, err := Build(testDesc, Params{"featured": "false"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	f := p.And(bson.M{"featured": true, "status": "available"})
	if f["featured"] != true {
		t.Errorf("featured: got %v, want true", f["featured"])
	}
	if f["status"] != "available" {
		t.Errorf("status: got %v, want available", f["status"])
	}
}

func TestFromValues(t *testing.T) {
	v := url.Values{}
	v.Add("city", "Austin")
	v.Add("city", "Dallas")
	v.Set("minPrice", "null")
	p := FromValues(v)

	if got, ok := p.Get("city"); !ok || got != "Austin" {
		t.Errorf("city: got %q,%v, want Austin,true", got, ok)
	}
	if _, ok := p.Get("minPrice"); ok {
		t.Error("minPrice: expected unset")
	}
	if _, ok := p.Get("missing"); ok {
		t.Error("missing: expected unset")
	}
}

func TestRangeParams(t *testing.T) {
	lo, hi := rangeParams("price")
	if lo != "minPrice" || hi != "maxPrice" {
		t.Errorf("rangeParams: got %q,%q", lo, hi)
	}
}

func TestDescriptorField(t *testing.T) {
	f, ok := testDesc.field("city")
	if !ok || f.Path != "address.city" {
		t.Errorf("field(city): got %+v,%v", f, ok)
	}
	if _, ok := testDesc.field("nope"); ok {
		t.Error("field(nope): expected not found")
	}
}
