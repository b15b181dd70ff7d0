package propertystore_test

import (
	"errors"
	"strings"
	"testing"

	propertystore "github.com/dalemusser/listinghub/internal/app/store/properties"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newProperty() models.Property {
	return models.Property{
		Title:        "  Lake House  ",
		Description:  `<p>Quiet</p><script>alert(1)</script>`,
		PropertyType: models.PropertyHouse,
		ListingType:  models.ListingSale,
		Price:        420000,
		Bedrooms:     3,
		Bathrooms:    2,
		Area:         models.Area{Size: 1800},
		Address:      models.Address{City: "Madison", State: "WI"},
	}
}

func TestCreate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := propertystore.New(db)
	p, err := s.Create(ctx, newProperty())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if p.ID.IsZero() {
		t.Error("expected ID to be set")
	}
	if p.Title != "Lake House" {
		t.Errorf("Title: got %q, want %q", p.Title, "Lake House")
	}
	if p.Status != models.PropertyAvailable {
		t.Errorf("Status: got %q, want %q", p.Status, models.PropertyAvailable)
	}
	if strings.Contains(p.Description, "script") {
		t.Errorf("Description not sanitized: %q", p.Description)
	}
	if p.Area.Unit != "sqft" {
		t.Errorf("Area.Unit: got %q, want sqft", p.Area.Unit)
	}
}

func TestCreate_Validation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := propertystore.New(db)
	tests := []struct {
		name  string
		mut   func(*models.Property)
		field string
	}{
		{"missing title", func(p *models.Property) { p.Title = "" }, "title"},
		{"bad type", func(p *models.Property) { p.PropertyType = "castle" }, "property_type"},
		{"bad listing", func(p *models.Property) { p.ListingType = "lease" }, "listing_type"},
		{"negative price", func(p *models.Property) { p.Price = -1 }, "price"},
		{"bad image", func(p *models.Property) { p.Images = []string{"not a url"} }, "images"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newProperty()
			tt.mut(&p)
			_, err := s.Create(ctx, p)
			var ve *filters.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Param != tt.field {
				t.Errorf("Param: got %q, want %q", ve.Param, tt.field)
			}
		})
	}
}

func TestGetByID_IncrementsViews(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	agent := fx.CreateAgent(ctx, "Ana Ruiz", "ana@test.com")
	created := fx.CreateProperty(ctx, testutil.PropertySpec{Agent: testutil.Ptr(agent.ID)})

	s := propertystore.New(db)
	for i := 1; i <= 3; i++ {
		p, err := s.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetByID failed: %v", err)
		}
		if p.Views != int64(i) {
			t.Errorf("read %d: Views got %d, want %d", i, p.Views, i)
		}
		if p.AgentInfo == nil || p.AgentInfo.Name != "Ana Ruiz" {
			t.Errorf("AgentInfo: got %+v", p.AgentInfo)
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, err := propertystore.New(db).GetByID(ctx, primitive.NewObjectID())
	if !errors.Is(err, query.ErrNotFound) {
		t.Errorf("GetByID: got %v, want ErrNotFound", err)
	}
}

func TestUpdate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	s := propertystore.New(db)
	p, err := s.Create(ctx, newProperty())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	price := 399000.0
	status := models.PropertyPending
	got, err := s.Update(ctx, p.ID, propertystore.Patch{Price: &price, Status: &status})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Price != price || got.Status != status {
		t.Errorf("Update: got price=%v status=%q", got.Price, got.Status)
	}
	if got.Title != "Lake House" {
		t.Errorf("Title changed: got %q", got.Title)
	}

	bad := "castle"
	if _, err := s.Update(ctx, p.ID, propertystore.Patch{PropertyType: &bad}); !filters.IsValidation(err) {
		t.Errorf("Update bad type: got %v, want ValidationError", err)
	}
	if _, err := s.Update(ctx, primitive.NewObjectID(), propertystore.Patch{Price: &price}); !errors.Is(err, query.ErrNotFound) {
		t.Errorf("Update missing: got %v, want ErrNotFound", err)
	}
}

func TestListCountDelete(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx.CreateProperty(ctx, testutil.PropertySpec{City: "Austin", Price: 300000})
	fx.CreateProperty(ctx, testutil.PropertySpec{City: "Austin", Price: 500000})
	gone := fx.CreateProperty(ctx, testutil.PropertySpec{City: "Boston", Price: 700000, Status: models.PropertySold})

	s := propertystore.New(db)
	page, err := s.List(ctx, filters.Params{"city": "austin"})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if page.Total != 2 || len(page.Items) != 2 {
		t.Errorf("List: total=%d items=%d, want 2", page.Total, len(page.Items))
	}

	n, err := s.Count(ctx, filters.Params{"maxPrice": "500000"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Count: got %d, want 2", n)
	}

	byStatus, err := s.CountByStatus(ctx)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if byStatus[models.PropertyAvailable] != 2 || byStatus[models.PropertySold] != 1 {
		t.Errorf("CountByStatus: got %v", byStatus)
	}

	deleted, err := s.Delete(ctx, gone.ID)
	if err != nil || deleted != 1 {
		t.Errorf("Delete: got %d, %v", deleted, err)
	}
	if ok, _ := s.Exists(ctx, gone.ID); ok {
		t.Error("Exists after delete: got true")
	}
}
