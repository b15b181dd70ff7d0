// internal/app/store/agents/agentstore.go
package agentstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/inputval"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
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
	return &Store{db: db, c: db.Collection(catalog.Agents)}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetName("uniq_agents_email").SetUnique(true)},
		{Keys: bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}, Options: options.Index().SetName("idx_agents_name_ci")},
		{Keys: bson.D{{Key: "is_active", Value: 1}, {Key: "rating", Value: -1}}, Options: options.Index().SetName("idx_agents_active_rating")},
	})
	return err
}

func validate(a models.Agent) error {
	return inputval.First(
		inputval.Required("name", a.Name),
		inputval.Required("email", a.Email),
		inputval.Email("email", a.Email),
		inputval.Between("rating", a.Rating, 0, 5),
		inputval.NonNegative("years_experience", float64(a.YearsExperience)),
		inputval.HTTPURL("photo", a.Photo),
		testimonialsValid(a.Testimonials),
	)
}

func testimonialsValid(ts []models.Testimonial) error {
	for _, t := range ts {
		if err := inputval.First(
			inputval.Required("testimonials.client_name", t.ClientName),
			inputval.Between("testimonials.rating", float64(t.Rating), 1, 5),
		); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts an agent. Email is lowercased and must be unique.
func (s *Store) Create(ctx context.Context, a models.Agent) (out models.Agent, err error) {
	done := metrics.Observe(catalog.Agents, "create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	a.ID = primitive.NewObjectID()
	a.Name = strings.TrimSpace(a.Name)
	a.NameCI = text.Fold(a.Name)
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	for i := range a.Testimonials {
		if a.Testimonials[i].Date.IsZero() {
			a.Testimonials[i].Date = now
		}
	}
	a.CreatedAt = now
	a.UpdatedAt = now

	if err = validate(a); err != nil {
		return models.Agent{}, err
	}
	if _, err = s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Agent{}, query.ErrDuplicate
		}
		return models.Agent{}, err
	}
	return a, nil
}

// GetByID returns the full agent, testimonials included.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Agent, error) {
	return query.Get[models.Agent](ctx, s.db, catalog.Agent, id)
}

// Patch carries the mutable fields of an update.
type Patch struct {
	Name            *string   `json:"name"`
	Email           *string   `json:"email"`
	Phone           *string   `json:"phone"`
	Bio             *string   `json:"bio"`
	Agency          *string   `json:"agency"`
	LicenseNumber   *string   `json:"license_number"`
	Specialties     *[]string `json:"specialties"`
	Languages       *[]string `json:"languages"`
	YearsExperience *int      `json:"years_experience"`
	Rating          *float64  `json:"rating"`
	Photo           *string   `json:"photo"`
	IsActive        *bool     `json:"is_active"`
}

// Update applies a patch and returns the updated agent.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, p Patch) (models.Agent, error) {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return models.Agent{}, err
	}

	set := bson.M{}
	if p.Name != nil {
		cur.Name = strings.TrimSpace(*p.Name)
		cur.NameCI = text.Fold(cur.Name)
		set["name"], set["name_ci"] = cur.Name, cur.NameCI
	}
	if p.Email != nil {
		cur.Email = strings.ToLower(strings.TrimSpace(*p.Email))
		set["email"] = cur.Email
	}
	if p.Phone != nil {
		cur.Phone = *p.Phone
		set["phone"] = cur.Phone
	}
	if p.Bio != nil {
		cur.Bio = *p.Bio
		set["bio"] = cur.Bio
	}
	if p.Agency != nil {
		cur.Agency = *p.Agency
		set["agency"] = cur.Agency
	}
	if p.LicenseNumber != nil {
		cur.LicenseNumber = *p.LicenseNumber
		set["license_number"] = cur.LicenseNumber
	}
	if p.Specialties != nil {
		cur.Specialties = *p.Specialties
		set["specialties"] = cur.Specialties
	}
	if p.Languages != nil {
		cur.Languages = *p.Languages
		set["languages"] = cur.Languages
	}
	if p.YearsExperience != nil {
		cur.YearsExperience = *p.YearsExperience
		set["years_experience"] = cur.YearsExperience
	}
	if p.Rating != nil {
		cur.Rating = *p.Rating
		set["rating"] = cur.Rating
	}
	if p.Photo != nil {
		cur.Photo = *p.Photo
		set["photo"] = cur.Photo
	}
	if p.IsActive != nil {
		cur.IsActive = *p.IsActive
		set["is_active"] = cur.IsActive
	}
	if err := validate(cur); err != nil {
		return models.Agent{}, err
	}
	cur.UpdatedAt = time.Now().UTC()
	set["updated_at"] = cur.UpdatedAt

	if _, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Agent{}, query.ErrDuplicate
		}
		return models.Agent{}, err
	}
	return cur, nil
}

// AddTestimonial appends a testimonial to an agent.
func (s *Store) AddTestimonial(ctx context.Context, id primitive.ObjectID, t models.Testimonial) (models.Agent, error) {
	if t.Date.IsZero() {
		t.Date = time.Now().UTC()
	}
	if err := testimonialsValid([]models.Testimonial{t}); err != nil {
		return models.Agent{}, err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{
		"$push": bson.M{"testimonials": t},
		"$set":  bson.M{"updated_at": time.Now().UTC()},
	})
	if err != nil {
		return models.Agent{}, err
	}
	if res.MatchedCount == 0 {
		return models.Agent{}, query.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes an agent. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Exists reports whether id names an agent.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"_id": id}, options.FindOne().SetProjection(bson.M{"_id": 1})).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	return err == nil, err
}

// List returns one page of agents. Testimonials are not included.
func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.Agent], error) {
	spec, err := query.Prepare(catalog.Agent, params)
	if err != nil {
		return query.Page[models.Agent]{}, err
	}
	return query.List[models.Agent](ctx, s.db, spec)
}

// Count returns how many agents match params.
func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.Agent, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}
