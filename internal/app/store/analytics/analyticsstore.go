// internal/app/store/analytics/analyticsstore.go
package analyticsstore

import (
	"context"
	"strings"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/app/store/query"
	"github.com/dalemusser/listinghub/internal/app/system/filters"
	"github.com/dalemusser/listinghub/internal/app/system/inputval"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store manages analytics events.
type Store struct {
	db *mongo.Database
	c  *mongo.Collection
}

// New creates a new analytics Store.
func New(db *mongo.Database) *Store {
	return &Store{db: db, c: db.Collection(catalog.AnalyticsEvents)}
}

// EnsureIndexes creates the query indexes and the TTL index that expires
// events after models.AnalyticsRetention.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Retention
		{
			Keys:    bson.D{{Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("ttl_analytics_timestamp").SetExpireAfterSeconds(int32(models.AnalyticsRetention / time.Second)),
		},
		// Windowed counts per type (time series, most-viewed rankings)
		{
			Keys:    bson.D{{Key: "event_type", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_analytics_type_time"),
		},
		// Per-entity history
		{
			Keys:    bson.D{{Key: "entity_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_analytics_entity"),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}, {Key: "timestamp", Value: 1}},
			Options: options.Index().SetName("idx_analytics_session"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("idx_analytics_user"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Record stores one event. The timestamp defaults to now and an anonymous
// caller gets a fresh session id so visitor counts still see them.
func (s *Store) Record(ctx context.Context, e models.AnalyticsEvent) (out models.AnalyticsEvent, err error) {
	done := metrics.Observe(catalog.AnalyticsEvents, "record")
	defer func() { done(err) }()

	if err = inputval.OneOf("event_type", e.EventType, models.EventTypes); err != nil {
		return models.AnalyticsEvent{}, err
	}
	if err = needsEntity(e); err != nil {
		return models.AnalyticsEvent{}, err
	}
	e.ID = primitive.NewObjectID()
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	e.Timestamp = e.Timestamp.UTC()
	e.SessionID = strings.TrimSpace(e.SessionID)
	if e.SessionID == "" {
		e.SessionID = uuid.NewString()
	}
	e.Query = strings.TrimSpace(e.Query)

	if _, err = s.c.InsertOne(ctx, e); err != nil {
		return models.AnalyticsEvent{}, err
	}
	metrics.EventsRecorded.WithLabelValues(e.EventType).Inc()
	return e, nil
}

// needsEntity rejects entity-view events that do not name an entity.
func needsEntity(e models.AnalyticsEvent) error {
	switch e.EventType {
	case models.EventPropertyView, models.EventBlogView, models.EventAgentView:
		if e.EntityID == nil || e.EntityID.IsZero() {
			return filters.Invalid("entity_id", "", "is required for "+e.EventType)
		}
	case models.EventSearch:
		if strings.TrimSpace(e.Query) == "" {
			return filters.Invalid("query", "", "is required for "+e.EventType)
		}
	}
	return nil
}

// List returns one page of events, newest first by default.
func (s *Store) List(ctx context.Context, params filters.Params) (query.Page[models.AnalyticsEvent], error) {
	spec, err := query.Prepare(catalog.AnalyticsEvent, params)
	if err != nil {
		return query.Page[models.AnalyticsEvent]{}, err
	}
	return query.List[models.AnalyticsEvent](ctx, s.db, spec)
}

// Count returns how many events match params.
func (s *Store) Count(ctx context.Context, params filters.Params) (int64, error) {
	spec, err := query.Prepare(catalog.AnalyticsEvent, params)
	if err != nil {
		return 0, err
	}
	return query.Count(ctx, s.db, spec)
}

// GetBySession retrieves all events for a session in time order.
func (s *Store) GetBySession(ctx context.Context, sessionID string) ([]models.AnalyticsEvent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"session_id": sessionID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var events []models.AnalyticsEvent
	if err := cur.All(ctx, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// DeleteOlderThan removes events with a timestamp before cutoff and returns
// how many were deleted.
func (s *Store) DeleteOlderThan(ctx context.Context, cutoff time.Time) (n int64, err error) {
	done := metrics.Observe(catalog.AnalyticsEvents, "retention")
	defer func() { done(err) }()

	res, err := s.c.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff.UTC()}})
	if err != nil {
		return 0, err
	}
	metrics.RetentionDeleted.Add(float64(res.DeletedCount))
	return res.DeletedCount, nil
}
