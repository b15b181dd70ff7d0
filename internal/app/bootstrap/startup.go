// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/dalemusser/listinghub/internal/app/store/query"
	userstore "github.com/dalemusser/listinghub/internal/app/store/users"
	"github.com/dalemusser/listinghub/internal/app/system/paging"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built: it applies
// query limits and deadlines, ensures the system user exists, and starts the
// retention sweeper.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(appCfg.Timeouts)
	paging.SetMaxLimit(appCfg.MaxPageSize)
	logger.Info("query limits applied",
		zap.Int("max_page_size", paging.CurrentMaxLimit()),
		zap.Int("dashboard_concurrency", appCfg.DashboardConcurrency))

	if err := ensureSystemActor(ctx, deps, appCfg, logger); err != nil {
		return err
	}

	if deps.Retention != nil {
		deps.Retention.Start()
	}
	return nil
}

// ensureSystemActor creates the user behind the configured system actor. An
// existing user with that id is left as is; an email already taken by a
// different user aborts startup.
func ensureSystemActor(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	sctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	a := appCfg.SystemActor
	created, err := userstore.New(deps.MongoDatabase).EnsureSystemUser(sctx, a)
	if errors.Is(err, query.ErrDuplicate) {
		return fmt.Errorf("system actor email %q belongs to another user", a.Email)
	}
	if err != nil {
		logger.Error("ensure system actor failed", zap.Error(err))
		return fmt.Errorf("ensure system actor: %w", err)
	}
	if created {
		logger.Info("created system actor", zap.String("id", a.ID.Hex()), zap.String("email", a.Email))
	}
	return nil
}
