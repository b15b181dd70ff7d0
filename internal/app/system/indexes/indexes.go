// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	agentstore "github.com/dalemusser/listinghub/internal/app/store/agents"
	analyticsstore "github.com/dalemusser/listinghub/internal/app/store/analytics"
	blogstore "github.com/dalemusser/listinghub/internal/app/store/blogs"
	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	contactstore "github.com/dalemusser/listinghub/internal/app/store/contacts"
	propertystore "github.com/dalemusser/listinghub/internal/app/store/properties"
	userstore "github.com/dalemusser/listinghub/internal/app/store/users"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

/*
EnsureAll is called at startup. Each store's EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	sets := []struct {
		coll string
		s    ensurer
	}{
		{catalog.Users, userstore.New(db)},
		{catalog.Properties, propertystore.New(db)},
		{catalog.Agents, agentstore.New(db)},
		{catalog.Blogs, blogstore.New(db)},
		{catalog.Contacts, contactstore.New(db)},
		{catalog.AnalyticsEvents, analyticsstore.New(db)},
	}

	var problems []string
	for _, set := range sets {
		start := time.Now()
		if err := set.s.EnsureIndexes(ctx); err != nil {
			if isOptionsConflictErr(err) {
				// An index with the same keys exists under another name or
				// options; leave it in place for an operator to reconcile.
				zap.L().Warn("index options conflict; keeping existing index",
					zap.String("collection", set.coll),
					zap.Error(err))
				continue
			}
			zap.L().Error("ensure indexes failed",
				zap.String("collection", set.coll),
				zap.Error(err))
			problems = append(problems, set.coll+": "+err.Error())
			continue
		}
		zap.L().Info("indexes ensured",
			zap.String("collection", set.coll),
			zap.String("took", time.Since(start).String()))
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

// Mongo/DocDB returns IndexOptionsConflict (85) or IndexKeySpecsConflict (86)
// when an index with the same keys already exists with different options.
func isOptionsConflictErr(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 85 || ce.Code == 86) {
		return true
	}
	return strings.Contains(err.Error(), "IndexOptionsConflict")
}
