package agents_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/listinghub/internal/app/features/agents"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (chi.Router, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return agents.Routes(agents.NewHandler(db, zap.NewNop())), testutil.NewFixtures(t, db)
}

func TestList_SortsByNameAndOmitsTestimonials(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateAgent(ctx, "zoe", "zoe@example.com")
	fx.CreateAgent(ctx, "Ángel", "angel@example.com")
	fx.CreateAgent(ctx, "Bea", "bea@example.com")

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"))
	rec.AssertStatus(t, http.StatusOK)

	var page query.Page[models.Agent]
	rec.DecodeJSON(t, &page)
	if page.Total != 3 {
		t.Fatalf("total: got %d, want 3", page.Total)
	}
	want := []string{"Ángel", "Bea", "zoe"}
	for i, a := range page.Items {
		if a.Name != want[i] {
			t.Errorf("item %d: got %q, want %q", i, a.Name, want[i])
		}
		if len(a.Testimonials) != 0 {
			t.Errorf("item %d: testimonials should be omitted from lists", i)
		}
	}
}

func TestCreate_DuplicateEmailConflicts(t *testing.T) {
	r, _ := newRouter(t)
	body := map[string]any{"name": "Dee", "email": "dee@example.com"}

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", body))
	rec.AssertStatus(t, http.StatusCreated)

	body["email"] = "DEE@example.com"
	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", body))
	rec.AssertStatus(t, http.StatusConflict)
}

func TestAddTestimonial(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAgent(ctx, "Eli", "eli@example.com")

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/"+a.ID.Hex()+"/testimonials",
		map[string]any{"client_name": "Sam", "comment": "Fast close", "rating": 4}))
	rec.AssertStatus(t, http.StatusCreated)

	var got models.Agent
	rec.DecodeJSON(t, &got)
	if len(got.Testimonials) != 2 || got.Testimonials[1].ClientName != "Sam" {
		t.Errorf("testimonials: got %+v", got.Testimonials)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/"+a.ID.Hex()+"/testimonials",
		map[string]any{"client_name": "Sam", "rating": 9}))
	rec.AssertStatus(t, http.StatusBadRequest)
}

func TestUpdateAndDelete(t *testing.T) {
	r, fx := newRouter(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	a := fx.CreateAgent(ctx, "Fay", "fay@example.com")

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/"+a.ID.Hex(), map[string]any{"is_active": false}))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/count?isActive=false"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"count":1`)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodDelete, "/"+a.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+a.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}
