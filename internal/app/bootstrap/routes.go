// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	agentsfeature "github.com/dalemusser/listinghub/internal/app/features/agents"
	analyticsfeature "github.com/dalemusser/listinghub/internal/app/features/analytics"
	blogsfeature "github.com/dalemusser/listinghub/internal/app/features/blogs"
	contactsfeature "github.com/dalemusser/listinghub/internal/app/features/contacts"
	healthfeature "github.com/dalemusser/listinghub/internal/app/features/health"
	propertiesfeature "github.com/dalemusser/listinghub/internal/app/features/properties"
	usersfeature "github.com/dalemusser/listinghub/internal/app/features/users"
	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/apierror"
	"github.com/dalemusser/listinghub/internal/app/system/metrics"
	"github.com/dalemusser/listinghub/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. Every /api request carries the system
// actor in its context.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus scrape endpoint
	r.Handle("/metrics", metrics.Handler())

	writes := func(next http.Handler) http.Handler { return next }
	if deps.WriteLimiter != nil {
		writes = ratelimit.Writes(deps.WriteLimiter, logger)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(actor.Middleware(appCfg.SystemActor))

		api.Mount("/properties", propertiesfeature.Routes(propertiesfeature.NewHandler(db, logger)))
		api.Mount("/agents", agentsfeature.Routes(agentsfeature.NewHandler(db, logger)))
		api.Mount("/blogs", blogsfeature.Routes(blogsfeature.NewHandler(db, logger)))
		api.With(writes).Mount("/contacts", contactsfeature.Routes(contactsfeature.NewHandler(db, logger)))
		api.Mount("/users", usersfeature.Routes(usersfeature.NewHandler(db, logger)))
		api.With(writes).Mount("/analytics", analyticsfeature.Routes(
			analyticsfeature.NewHandler(db, logger, appCfg.DashboardConcurrency)))

		api.NotFound(func(w http.ResponseWriter, r *http.Request) {
			apierror.Write(w, r, logger, apierror.NotFound("route"), "route")
		})
	})

	logger.Info("routes mounted", zap.String("base_url", appCfg.BaseURL))
	return r, nil
}
