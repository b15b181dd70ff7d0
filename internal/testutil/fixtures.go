package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("failed to insert test %s: %v", coll, err)
	}
}

// CreateUser creates an active user with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, name, email, role string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Email:     email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAgent creates an active agent with one testimonial.
func (f *Fixtures) CreateAgent(ctx context.Context, name, email string) models.Agent {
	f.t.Helper()
	now := time.Now().UTC()
	a := models.Agent{
		ID:              primitive.NewObjectID(),
		Name:            name,
		NameCI:          text.Fold(name),
		Email:           email,
		Phone:           "555-0100",
		Agency:          "Test Realty",
		YearsExperience: 5,
		Rating:          4.5,
		IsActive:        true,
		Testimonials: []models.Testimonial{
			{ClientName: "Pat", Comment: "Great help", Rating: 5, Date: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.insert(ctx, "agents", a)
	return a
}

// PropertySpec holds the property fields tests commonly vary. Zero values
// get defaults.
type PropertySpec struct {
	Title        string
	PropertyType string
	ListingType  string
	Status       string
	Price        float64
	Bedrooms     int
	AreaSize     float64
	City         string
	Featured     bool
	Views        int64
	Agent        *primitive.ObjectID
	CreatedAt    time.Time
}

// CreateProperty creates a property from spec.
func (f *Fixtures) CreateProperty(ctx context.Context, spec PropertySpec) models.Property {
	f.t.Helper()
	now := time.Now().UTC()
	if spec.Title == "" {
		spec.Title = "Test Property"
	}
	if spec.PropertyType == "" {
		spec.PropertyType = models.PropertyHouse
	}
	if spec.ListingType == "" {
		spec.ListingType = models.ListingSale
	}
	if spec.Status == "" {
		spec.Status = models.PropertyAvailable
	}
	if spec.City == "" {
		spec.City = "Springfield"
	}
	if spec.CreatedAt.IsZero() {
		spec.CreatedAt = now
	}
	p := models.Property{
		ID:           primitive.NewObjectID(),
		Title:        spec.Title,
		Description:  "A test listing",
		PropertyType: spec.PropertyType,
		ListingType:  spec.ListingType,
		Status:       spec.Status,
		Price:        spec.Price,
		Bedrooms:     spec.Bedrooms,
		Bathrooms:    1,
		Area:         models.Area{Size: spec.AreaSize, Unit: "sqft"},
		Address:      models.Address{Street: "1 Main St", City: spec.City, State: "IL", Country: "US"},
		Featured:     spec.Featured,
		Agent:        spec.Agent,
		Views:        spec.Views,
		CreatedAt:    spec.CreatedAt,
		UpdatedAt:    spec.CreatedAt,
	}
	f.insert(ctx, "properties", p)
	return p
}

// CreateBlog creates a published blog post by author.
func (f *Fixtures) CreateBlog(ctx context.Context, title, slug string, author primitive.ObjectID, views int64) models.Blog {
	f.t.Helper()
	now := time.Now().UTC()
	b := models.Blog{
		ID:          primitive.NewObjectID(),
		Title:       title,
		Slug:        slug,
		Content:     "<p>Body</p>",
		Excerpt:     "Body",
		Author:      author,
		Category:    "tips",
		Status:      models.BlogPublished,
		Views:       views,
		PublishedAt: &now,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "blogs", b)
	return b
}

// CreateContact creates a new contact submission.
func (f *Fixtures) CreateContact(ctx context.Context, name, email string, property *primitive.ObjectID) models.Contact {
	f.t.Helper()
	now := time.Now().UTC()
	c := models.Contact{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Email:       email,
		Message:     "I would like to know more.",
		InquiryType: "general",
		Status:      models.ContactNew,
		Property:    property,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	f.insert(ctx, "contacts", c)
	return c
}

// CreateEvent records an analytics event at ts.
func (f *Fixtures) CreateEvent(ctx context.Context, eventType string, entity, user *primitive.ObjectID, session string, ts time.Time) models.AnalyticsEvent {
	f.t.Helper()
	e := models.AnalyticsEvent{
		ID:        primitive.NewObjectID(),
		EventType: eventType,
		EntityID:  entity,
		UserID:    user,
		SessionID: session,
		Timestamp: ts.UTC(),
	}
	f.insert(ctx, "analytics_events", e)
	return e
}

// InsertEvent stores e as given, filling only a missing ID.
func (f *Fixtures) InsertEvent(ctx context.Context, e models.AnalyticsEvent) models.AnalyticsEvent {
	f.t.Helper()
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	f.insert(ctx, "analytics_events", e)
	return e
}

// Ptr returns a pointer to id.
func Ptr(id primitive.ObjectID) *primitive.ObjectID {
	return &id
}
