// internal/app/store/properties/propertystore.go
package propertystore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/listinghub/internal/app/system/inputval"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(catalog.Properties)}
}

// EnsureIndexes covers the common filter and sort paths.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_properties_status_created")},
		{Keys: bson.D{{Key: "property_type", Value: 1}, {Key: "price", Value: 1}}, Options: options.Index().SetName("idx_properties_type_price")},
		{Keys: bson.D{{Key: "address.city", Value: 1}}, Options: options.Index().SetName("idx_properties_city")},
		{Keys: bson.D{{Key: "agent", Value: 1}}, Options: options.Index().SetName("idx_properties_agent")},
		{Keys: bson.D{{Key: "featured", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_properties_featured")},
		{Keys: bson.D{{Key: "views", Value: -1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_properties_views")},
	})
	return err
}

func validate(p models.Property) error {
	return inputval.First(
		inputval.Required("title", p.Title),
		inputval.OneOf("property_type", p.PropertyType, models.PropertyTypes),
		inputval.OneOf("listing_type", p.ListingType, models.ListingTypes),
		inputval.OneOf("status", p.Status, models.PropertyStatuses),
		inputval.NonNegative("price", p.Price),
		inputval.NonNegative("bedrooms", float64(p.Bedrooms)),
		inputval.NonNegative("bathrooms", p.Bathrooms),
		inputval.NonNegative("area.size", p.Area.Size),
		inputval.Required("address.city", p.Address.City),
		imagesValid(p.Images),
	)
}

func imagesValid(images []string) error {
	for _, img := range images {
		if err := inputval.HTTPURL("images", img); err != nil {
			return err
		}
	}
	return nil
}

// Create validates and inserts a property. Status defaults to available
// and the description is sanitized.
func (s *Store) Create(ctx context.Context, p models.Property) (out models.Property, err error) {
	done := metrics.Observe(catalog.Properties, "create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.Title = strings.TrimSpace(p.Title)
	p.Description = htmlsanitize.Sanitize(p.Description)
	if p.Status == "" {
		p.Status = models.PropertyAvailable
	}
	if p.Area.Unit == "" {
		p.Area.Unit = "sqft"
	}
	p.Views = 0
	p.AgentInfo, p.OwnerInfo = nil, nil
	p.CreatedAt = now
	p.UpdatedAt = now

	if err = validate(p); err != nil {
		return models.Property{}, err
	}
	if _, err = s.c.InsertOne(ctx, p); err != nil {
		return models.Property{}, err
	}
	return p, nil
}

// GetByID returns a property with agent and owner summaries and records
// the read by incrementing views. Concurrent reads may race on the
// counter; the increment itself is atomic.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Property, error) {
	if err := s.incrementViews(ctx, id); err != nil {
		return models.Property{}, err
	}
	return query.Get[models.Property](ctx, s.db, catalog.Property, id)
}

func (s *Store) incrementViews(ctx context.Context, id primitive.ObjectID) (err error) {
	done := metrics.Observe(catalog.Properties, "view")
	defer func() { done(err) }()

	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		options.FindOneAndUpdate().SetProjection(bson.M{"_id": 1}),
	).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return query.ErrNotFound
	}
	return err
}

// Exists reports whether id names a property, without touching views.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// Patch carries the mutable fields of an update. Nil fields are left
// unchanged.
type Patch struct {
	Title        *string             `json:"title"`
	Description  *string             `json:"description"`
	PropertyType *string             `json:"property_type"`
	ListingType  *string             `json:"listing_type"`
	Status       *string             `json:"status"`
	Price        *float64            `json:"price"`
	Bedrooms     *int                `json:"bedrooms"`
	Bathrooms    *float64            `json:"bathrooms"`
	Area         *models.Area        `json:"area"`
	Address      *models.Address     `json:"address"`
	Features     *[]string           `json:"features"`
	Images       *[]string           `json:"images"`
	Featured     *bool               `json:"featured"`
	Agent        *primitive.ObjectID `json:"agent"`
	Owner        *primitive.ObjectID `json:"owner"`
}

// Update applies a patch and returns the updated document.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, patch Patch) (out models.Property, err error) {
	var cur models.Property
	if err = s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cur); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Property{}, query.ErrNotFound
		}
		return models.Property{}, err
	}

	set := bson.M{}
	apply := func(key string, ptr bool, v any) {
		if ptr {
			set[key] = v
		}
	}
	if patch.Title != nil {
		cur.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		cur.Description = htmlsanitize.Sanitize(*patch.Description)
	}
	if patch.PropertyType != nil {
		cur.PropertyType = *patch.PropertyType
	}
	if patch.ListingType != nil {
		cur.ListingType = *patch.ListingType
	}
	if patch.Status != nil {
		cur.Status = *patch.Status
	}
	if patch.Price != nil {
		cur.Price = *patch.Price
	}
	if patch.Bedrooms != nil {
		cur.Bedrooms = *patch.Bedrooms
	}
	if patch.Bathrooms != nil {
		cur.Bathrooms = *patch.Bathrooms
	}
	if patch.Area != nil {
		cur.Area = *patch.Area
	}
	if patch.Address != nil {
		cur.Address = *patch.Address
	}
	if patch.Features != nil {
		cur.Features = *patch.Features
	}
	if patch.Images != nil {
		cur.Images = *patch.Images
	}
	if patch.Featured != nil {
		cur.Featured = *patch.Featured
	}
	if err = validate(cur); err != nil {
		return models.Property{}, err
	}

	apply("title", patch.Title != nil, cur.Title)
	apply("description", patch.Description != nil, cur.Description)
	apply("property_type", patch.PropertyType != nil, cur.PropertyType)
	apply("listing_type", patch.ListingType != nil, cur.ListingType)
	apply("status", patch.Status != nil, cur.Status)
	apply("price", patch.Price != nil, cur.Price)
	apply("bedrooms", patch.Bedrooms != nil, cur.Bedrooms)
	apply("bathrooms", patch.Bathrooms != nil, cur.Bathrooms)
	apply("area", patch.Area != nil, cur.Area)
	apply("address", patch.Address != nil, cur.Address)
	apply("features", patch.Features != nil, cur.Features)
	apply("images", patch.Images != nil, cur.Images)
	apply("featured", patch.Featured != nil, cur.Featured)
	apply("agent", patch.Agent != nil, patch.Agent)
	apply("owner", patch.Owner != nil, patch.Owner)
	set["updated_at"] = time.Now().UTC()

	done := metrics.Observe(catalog.Properties, "update")
	defer func() { done(err) }()
	if _, err = s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		return models.Property{}, err
	}
	return query.Get[models.Property](ctx, s.db, catalog.Property, id)
}

// Delete removes a property. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// List returns one page of properties matching params.
func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.Property], error) {
	spec, err := query.Prepare(catalog.Property, params)
	if err != nil {
		return query.Page[models.Property]{}, err
	}
	return query.List[models.Property](ctx, s.db, spec)
}

// Count returns how many properties match params.
func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.Property, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}

// CountByStatus returns the number of properties per status.
func (s *Store) CountByStatus(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, []bson.M{{"$group": bson.M{"_id": "$status", "n": bson.M{"$sum": 1}}}})
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer cur.Close(ctx)
	var rows []struct {
		ID string `bson:"_id"`
		N  int64  `bson:"n"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.ID] = r.N
	}
	return out, nil
}
