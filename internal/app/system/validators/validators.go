// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// EnsureAll creates collections (if missing) and tries to attach JSON-Schema
// validators. On servers that don't support collMod/validators (e.g. some
// DocumentDB versions), we log and skip gracefully.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(coll string, schema bson.M) {
		if _, err := ensureCollection(ctx, db, coll); err != nil {
			problems = append(problems, coll+": "+err.Error())
			return
		}
		if schema == nil {
			return
		}
		if err := setValidator(ctx, db, coll, schema); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				return
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	ensure(catalog.Users, usersSchema())
	ensure(catalog.Properties, propertiesSchema())
	ensure(catalog.Agents, agentsSchema())
	ensure(catalog.Blogs, blogsSchema())
	ensure(catalog.Contacts, contactsSchema())
	ensure(catalog.AnalyticsEvents, analyticsEventsSchema())

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

/* ---------------------- collection helpers & logging ---------------------- */

// ensureCollection idempotently makes sure name exists.
// Returns created==true only if we actually created it.
func ensureCollection(ctx context.Context, db *mongo.Database, name string) (created bool, err error) {
	names, listErr := db.ListCollectionNames(ctx, bson.M{"name": name})
	if listErr == nil && len(names) > 0 {
		zap.L().Info("collection exists", zap.String("collection", name))
		return false, nil
	}
	// If listing failed, fall back to create-and-handle-race.
	if err := db.CreateCollection(ctx, name); err != nil {
		if commandErr(err, []int32{48}, "already exists", "namespace exists") {
			zap.L().Info("collection exists", zap.String("collection", name))
			return false, nil
		}
		zap.L().Warn("createCollection failed", zap.String("collection", name), zap.Error(err))
		return false, err
	}
	zap.L().Info("created collection", zap.String("collection", name))
	return true, nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, validator bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	var out bson.M
	if err := db.RunCommand(ctx, cmd).Decode(&out); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

/* ------------------------- error helpers ------------------------- */

// commandErr matches err by server error code or, for drivers and
// deployments that wrap it, by message text.
func commandErr(err error, codes []int32, phrases ...string) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		for _, c := range codes {
			if ce.Code == c {
				return true
			}
		}
	}
	s := strings.ToLower(err.Error())
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// isUnsupported covers NoSuchCommand (59) and CommandNotSupported (115).
func isUnsupported(err error) bool {
	return commandErr(err, []int32{59, 115}, "no such command", "not implemented", "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}

func enumOf(values []string) bson.M {
	a := make(bson.A, len(values))
	for i, v := range values {
		a[i] = v
	}
	return bson.M{"enum": a}
}

func nonNegative() bson.M {
	return bson.M{"bsonType": "number", "minimum": 0}
}

func schema(required []string, props bson.M) bson.M {
	req := make(bson.A, len(required))
	for i, r := range required {
		req[i] = r
	}
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   req,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return schema([]string{"name", "email", "role"}, bson.M{
		"name":          nonBlank,
		"name_ci":       bson.M{"bsonType": "string"},
		"email":         nonBlank,
		"role":          enumOf(models.UserRoles),
		"password_hash": bson.M{"bsonType": "string"},
		"is_active":     bson.M{"bsonType": "bool"},
	})
}

func propertiesSchema() bson.M {
	return schema([]string{"title", "property_type", "listing_type", "status", "price"}, bson.M{
		"title":         nonBlank,
		"property_type": enumOf(models.PropertyTypes),
		"listing_type":  enumOf(models.ListingTypes),
		"status":        enumOf(models.PropertyStatuses),
		"price":         nonNegative(),
		"bedrooms":      nonNegative(),
		"bathrooms":     nonNegative(),
		"views":         nonNegative(),
		"agent":         bson.M{"bsonType": bson.A{"objectId", "null"}},
		"owner":         bson.M{"bsonType": bson.A{"objectId", "null"}},
	})
}

func agentsSchema() bson.M {
	return schema([]string{"name", "email"}, bson.M{
		"name":             nonBlank,
		"email":            nonBlank,
		"rating":           bson.M{"bsonType": "number", "minimum": 0, "maximum": 5},
		"years_experience": nonNegative(),
		"is_active":        bson.M{"bsonType": "bool"},
	})
}

func blogsSchema() bson.M {
	return schema([]string{"title", "slug", "content", "author", "category", "status"}, bson.M{
		"title":    nonBlank,
		"slug":     nonBlank,
		"content":  nonBlank,
		"author":   bson.M{"bsonType": "objectId"},
		"category": enumOf(models.BlogCategories),
		"status":   enumOf(models.BlogStatuses),
		"views":    nonNegative(),
	})
}

func contactsSchema() bson.M {
	return schema([]string{"name", "email", "message", "inquiry_type", "status"}, bson.M{
		"name":         nonBlank,
		"email":        nonBlank,
		"message":      nonBlank,
		"inquiry_type": enumOf(models.InquiryTypes),
		"status":       enumOf(models.ContactStatuses),
		"property":     bson.M{"bsonType": bson.A{"objectId", "null"}},
		"agent":        bson.M{"bsonType": bson.A{"objectId", "null"}},
	})
}

func analyticsEventsSchema() bson.M {
	return schema([]string{"event_type", "session_id", "timestamp"}, bson.M{
		"event_type": enumOf(models.EventTypes),
		"session_id": nonBlank,
		"timestamp":  bson.M{"bsonType": "date"},
		"entity_id":  bson.M{"bsonType": bson.A{"objectId", "null"}},
		"user_id":    bson.M{"bsonType": bson.A{"objectId", "null"}},
	})
}
