// internal/app/store/metrics/metricsstore.go
package metricsstore

import (
	"context"
	"fmt"

	"github.com/dalemusser/listinghub/internal/app/store/catalog"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Counts is the set of totals shown in the dashboard overview.
type Counts struct {
	Properties          int64 `json:"properties"`
	AvailableProperties int64 `json:"availableProperties"`
	Agents              int64 `json:"agents"`
	ActiveAgents        int64 `json:"activeAgents"`
	Blogs               int64 `json:"blogs"`
	PublishedBlogs      int64 `json:"publishedBlogs"`
	Contacts            int64 `json:"contacts"`
	NewContacts         int64 `json:"newContacts"`
	Users               int64 `json:"users"`
}

// FetchDashboardCounts returns the high-level counts used by the dashboard
// overview. Unlike a per-metric task, the overview is one unit: the first
// failing count fails the whole result.
func FetchDashboardCounts(ctx context.Context, db *mongo.Database) (Counts, error) {
	var out Counts
	counts := []struct {
		coll   string
		filter bson.M
		dst    *int64
	}{
		{catalog.Properties, bson.M{}, &out.Properties},
		{catalog.Properties, bson.M{"status": models.PropertyAvailable}, &out.AvailableProperties},
		{catalog.Agents, bson.M{}, &out.Agents},
		{catalog.Agents, bson.M{"is_active": true}, &out.ActiveAgents},
		{catalog.Blogs, bson.M{}, &out.Blogs},
		{catalog.Blogs, bson.M{"status": models.BlogPublished}, &out.PublishedBlogs},
		{catalog.Contacts, bson.M{}, &out.Contacts},
		{catalog.Contacts, bson.M{"status": models.ContactNew}, &out.NewContacts},
		{catalog.Users, bson.M{"role": bson.M{"$ne": models.RoleSystem}}, &out.Users},
	}
	for _, c := range counts {
		n, err := db.Collection(c.coll).CountDocuments(ctx, c.filter)
		if err != nil {
			return Counts{}, fmt.Errorf("count %s: %w", c.coll, err)
		}
		*c.dst = n
	}
	return out, nil
}
