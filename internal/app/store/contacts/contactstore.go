// internal/app/store/contacts/contactstore.go
package contactstore

import (
	"context"
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

// MaxMessageLength bounds the stored message, in runes.
const MaxMessageLength = 5000

type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(catalog.Contacts)}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_contacts_status_created")},
		{Keys: bson.D{{Key: "property", Value: 1}}, Options: options.Index().SetName("idx_contacts_property")},
		{Keys: bson.D{{Key: "agent", Value: 1}}, Options: options.Index().SetName("idx_contacts_agent")},
		{Keys: bson.D{{Key: "created_at", Value: -1}}, Options: options.Index().SetName("idx_contacts_created")},
	})
	return err
}

func validate(c models.Contact) error {
	return inputval.First(
		inputval.Required("name", c.Name),
		inputval.Required("email", c.Email),
		inputval.Email("email", c.Email),
		inputval.Required("message", c.Message),
		messageLength(c.Message),
		inputval.OneOf("inquiry_type", c.InquiryType, models.InquiryTypes),
		inputval.OneOf("status", c.Status, models.ContactStatuses),
	)
}

func messageLength(msg string) error {
	if len([]rune(msg)) > MaxMessageLength {
		return filters.Invalid("message", "", "is too long")
	}
	return nil
}

// Create records a new enquiry. Free text is stripped of markup, status
// starts at new and inquiry_type defaults to general.
func (s *Store) Create(ctx context.Context, c models.Contact) (out models.Contact, err error) {
	done := metrics.Observe(catalog.Contacts, "create")
	defer func() { done(err) }()

	now := time.Now().UTC()
	c.ID = primitive.NewObjectID()
	c.Name = strings.TrimSpace(htmlsanitize.StripTags(c.Name))
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Subject = htmlsanitize.StripTags(c.Subject)
	c.Message = htmlsanitize.StripTags(c.Message)
	if c.InquiryType == "" {
		c.InquiryType = "general"
	}
	c.Status = models.ContactNew
	c.PropertyInfo, c.AgentInfo = nil, nil
	c.CreatedAt = now
	c.UpdatedAt = now

	if err = validate(c); err != nil {
		return models.Contact{}, err
	}
	if _, err = s.c.InsertOne(ctx, c); err != nil {
		return models.Contact{}, err
	}
	return c, nil
}

// GetByID returns an enquiry with property and agent summaries.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Contact, error) {
	return query.Get[models.Contact](ctx, s.db, catalog.Contact, id)
}

// UpdateStatus moves an enquiry through its workflow.
func (s *Store) UpdateStatus(ctx context.Context, id primitive.ObjectID, status string) (models.Contact, error) {
	if err := inputval.OneOf("status", status, models.ContactStatuses); err != nil {
		return models.Contact{}, err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return models.Contact{}, err
	}
	if res.MatchedCount == 0 {
		return models.Contact{}, query.ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Delete removes an enquiry. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.Contact], error) {
	spec, err := query.Prepare(catalog.Contact, params)
	if err != nil {
		return query.Page[models.Contact]{}, err
	}
	return query.List[models.Contact](ctx, s.db, spec)
}

func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.Contact, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}
