package indexes_test

import (
	"context"
	"testing"

	"github.com/dalemusser/listinghub/internal/app/system/indexes"
	"github.com/dalemusser/listinghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bson.M {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bson.M)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = idx
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// First call
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("First EnsureAll failed: %v", err)
	}
	// Second call should also succeed (idempotent)
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("Second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}

	expected := map[string][]string{
		"users":            {"uniq_users_email", "idx_users_name_ci"},
		"properties":       {"idx_properties_status_created", "idx_properties_views"},
		"agents":           {"uniq_agents_email", "idx_agents_name_ci"},
		"blogs":            {"uniq_blogs_slug", "idx_blogs_views"},
		"contacts":         {"idx_contacts_status_created"},
		"analytics_events": {"ttl_analytics_timestamp", "idx_analytics_type_time"},
	}
	for coll, names := range expected {
		got := indexNames(t, ctx, db, coll)
		for _, name := range names {
			if _, ok := got[name]; !ok {
				t.Errorf("%s: missing index %s", coll, name)
			}
		}
	}

	ttl := indexNames(t, ctx, db, "analytics_events")["ttl_analytics_timestamp"]
	if ttl["expireAfterSeconds"] == nil {
		t.Errorf("ttl index has no expireAfterSeconds: %v", ttl)
	}
}
