// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	analyticsstore "github.com/dalemusser/listinghub/internal/app/store/analytics"
	"github.com/dalemusser/listinghub/internal/app/system/indexes"
	"github.com/dalemusser/listinghub/internal/app/system/ratelimit"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/app/system/validators"
	"github.com/dalemusser/listinghub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	cctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	client, err := mongo.Connect(cctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pctx, pcancel := context.WithTimeout(ctx, timeouts.Ping())
	defer pcancel()
	if err := client.Ping(pctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(appCfg.MongoDatabase)
	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	deps := DBDeps{MongoClient: client, MongoDatabase: db}
	if appCfg.RetentionSweepInterval > 0 {
		deps.Retention = workers.NewRetentionSweeper(analyticsstore.New(db), logger, appCfg.RetentionSweepInterval)
	}
	if appCfg.WriteRateLimit > 0 {
		deps.WriteLimiter = ratelimit.New(appCfg.WriteRateLimit, appCfg.WriteRateWindow)
	}
	return deps, nil
}

// EnsureSchema creates collections with their validators, then indexes.
// Both steps are idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	sctx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	if err := validators.EnsureAll(sctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure validators failed", zap.Error(err))
		return fmt.Errorf("ensure validators: %w", err)
	}
	if err := indexes.EnsureAll(sctx, deps.MongoDatabase); err != nil {
		logger.Error("ensure indexes failed", zap.Error(err))
		return fmt.Errorf("ensure indexes: %w", err)
	}
	return nil
}
