package contacts_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/listinghub/internal/app/features/contacts"
	"github.com/dalemusser/listinghub/internal/app/features/shared"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func TestCreate_RecordsSubmitEvent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	p := fx.CreateProperty(ctx, testutil.PropertySpec{Title: "Bungalow"})
	r := contacts.Routes(contacts.NewHandler(db, zap.NewNop()))

	req := testutil.NewJSONRequest(t, http.MethodPost, "/", map[string]any{
		"name":         "Jordan <b>Lee</b>",
		"email":        "Jordan@Example.com",
		"message":      "Is it still available?",
		"inquiry_type": "viewing",
		"property":     p.ID.Hex(),
	})
	req.Header.Set(shared.SessionHeader, "sess-42")
	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, req)
	rec.AssertStatus(t, http.StatusCreated)

	var c models.Contact
	rec.DecodeJSON(t, &c)
	if c.Name != "Jordan Lee" || c.Email != "jordan@example.com" || c.Status != models.ContactNew {
		t.Errorf("contact: got %+v", c)
	}

	var ev models.AnalyticsEvent
	err := db.Collection("analytics_events").FindOne(ctx, bson.M{"event_type": models.EventContactSubmit}).Decode(&ev)
	if err != nil {
		t.Fatalf("contact_submit event not found: %v", err)
	}
	if ev.SessionID != "sess-42" || ev.EntityID == nil || *ev.EntityID != p.ID {
		t.Errorf("event: got %+v", ev)
	}

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/"+c.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Bungalow")
}

func TestCreate_Rejects(t *testing.T) {
	db := testutil.SetupTestDB(t)
	r := contacts.Routes(contacts.NewHandler(db, zap.NewNop()))

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing message", map[string]any{"name": "A", "email": "a@example.com"}},
		{"bad email", map[string]any{"name": "A", "email": "nope", "message": "hi"}},
		{"unknown property", map[string]any{
			"name": "A", "email": "a@example.com", "message": "hi",
			"property": primitive.NewObjectID().Hex(),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/", tt.body))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}

	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := db.Collection("analytics_events").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("rejected submissions recorded %d events", n)
	}
}

func TestUpdateStatusAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	c := fx.CreateContact(ctx, "Kim", "kim@example.com", nil)
	fx.CreateContact(ctx, "Lou", "lou@example.com", nil)
	r := contacts.Routes(contacts.NewHandler(db, zap.NewNop()))

	rec := testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/"+c.ID.Hex(), map[string]string{"status": "resolved"}))
	rec.AssertStatus(t, http.StatusOK)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPut, "/"+c.ID.Hex(), map[string]string{"status": "lost"}))
	rec.AssertStatus(t, http.StatusBadRequest)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/count?status=resolved"))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"count":1`)

	rec = testutil.NewRecorder()
	r.ServeHTTP(rec, testutil.NewRequest(http.MethodDelete, "/"+c.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
}
