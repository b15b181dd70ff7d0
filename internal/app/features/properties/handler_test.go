package properties_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/listinghub/internal/app/features/properties"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	h := properties.NewHandler(db, zap.NewNop())
	return properties.Routes(h), testutil.NewFixtures(t, db)
}

func TestList_FiltersAndPages(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateProperty(ctx, testutil.PropertySpec{Title: "Cheap", Price: 100000})
	fx.CreateProperty(ctx, testutil.PropertySpec{Title: "Mid", Price: 250000})
	fx.CreateProperty(ctx, testutil.PropertySpec{Title: "Dear", Price: 900000})

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?minPrice=100000&maxPrice=250000&sortBy=price&sortOrder=asc&limit=1"))
	rec.AssertStatus(t, http.StatusOK)

	var page query.Page[models.Property]
	rec.DecodeJSON(t, &page)
	if page.Total != 2 || page.Pages != 2 || page.Limit != 1 {
		t.Errorf("totals: got total=%d pages=%d limit=%d", page.Total, page.Pages, page.Limit)
	}
	if len(page.Items) != 1 || page.Items[0].Title != "Cheap" {
		t.Errorf("items: got %+v", page.Items)
	}
}

func TestList_BadParam(t *testing.T) {
	r, _ := newRouter(t)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/?minPrice=cheap"))
	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "validation_error")
}

func TestCount_MatchesList(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateProperty(ctx, testutil.PropertySpec{City: "Austin"})
	fx.CreateProperty(ctx, testutil.PropertySpec{City: "Austin", Status: models.PropertySold})
	fx.CreateProperty(ctx, testutil.PropertySpec{City: "Boston"})

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/count?city=austin"))
	rec.AssertStatus(t, http.StatusOK)
	var body struct {
		Count int64 `json:"count"`
	}
	rec.DecodeJSON(t, &body)
	if body.Count != 2 {
		t.Errorf("count: got %d, want 2", body.Count)
	}
}

func TestGet_IncrementsViews(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fx.CreateAgent(ctx, "Ava", "ava@example.com")
	p := fx.CreateProperty(ctx, testutil.PropertySpec{Title: "Loft", Agent: testutil.Ptr(agent.ID)})

	var got models.Property
	for i := 0; i < 2; i++ {
		rec := testutil.NewRecorder()
		r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+p.ID.Hex()))
		rec.AssertStatus(t, http.StatusOK)
		rec.DecodeJSON(t, &got)
	}
	if got.Views != 2 {
		t.Errorf("views: got %d, want 2", got.Views)
	}
	if got.AgentInfo == nil || got.AgentInfo.Name != "Ava" {
		t.Errorf("agent_info: got %+v", got.AgentInfo)
	}
}

func TestGet_Errors(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name   string
		path   string
		status int
		code   string
	}{
		{"bad id", "/not-an-id", http.StatusBadRequest, "invalid_id"},
		{"missing", "/" + primitive.NewObjectID().Hex(), http.StatusNotFound, "not_found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.path))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.code)
		})
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	r, _ := newRouter(t)

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"title":         "Harbor View",
		"description":   `<p>Sunny</p><script>alert(1)</script>`,
		"property_type": "condo",
		"listing_type":  "rent",
		"price":         2400,
		"address":       map[string]string{"city": "Seattle"},
	}))
	rec.AssertStatus(t, http.StatusCreated)
	var created models.Property
	rec.DecodeJSON(t, &created)
	if created.Status != models.PropertyAvailable {
		t.Errorf("status: got %q, want available", created.Status)
	}
	if created.Description != "<p>Sunny</p>" {
		t.Errorf("description not sanitized: %q", created.Description)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/"+created.ID.Hex(), map[string]any{"status": "rented"}))
	rec.AssertStatus(t, http.StatusOK)
	var updated models.Property
	rec.DecodeJSON(t, &updated)
	if updated.Status != models.PropertyRented || updated.Title != "Harbor View" {
		t.Errorf("update: got %+v", updated)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodDelete, "/"+created.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodDelete, "/"+created.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestCreate_Rejects(t *testing.T) {
	r, _ := newRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{"bad type", map[string]any{"title": "X", "property_type": "castle", "listing_type": "sale", "price": 1}},
		{"unknown agent", map[string]any{
			"title": "X", "property_type": "house", "listing_type": "sale", "price": 1,
			"agent": primitive.NewObjectID().Hex(),
		}},
		{"unknown field", map[string]any{"title": "X", "colour": "red"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}
}
