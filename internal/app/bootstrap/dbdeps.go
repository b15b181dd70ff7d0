// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/listinghub/internal/app/system/ratelimit"
	"github.com/dalemusser/listinghub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Retention is created with the connection, started in Startup and
	// stopped in Shutdown. Nil when the sweep interval is zero.
	Retention *workers.RetentionSweeper

	// WriteLimiter throttles public submissions. Nil when the write rate
	// limit is zero.
	WriteLimiter *ratelimit.Limiter
}
