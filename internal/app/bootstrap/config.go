// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/listinghub/internal/app/store/queries/dashboard"
	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/paging"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// defaultSystemActorID is stable so the system user survives restarts.
const defaultSystemActorID = "000000000000000000000001"

// appConfigKeys defines the configuration keys for ListingHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, max_page_size, etc.
//   - Environment variables: LISTINGHUB_MONGO_URI, LISTINGHUB_MAX_PAGE_SIZE, etc.
//   - Command-line flags: --mongo_uri, --max_page_size, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "listinghub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "base_url", Default: "http://localhost:8080", Desc: "Public base URL of the API"},

	// System actor
	{Name: "system_actor_id", Default: defaultSystemActorID, Desc: "ObjectID (hex) of the system user requests act as"},
	{Name: "system_actor_name", Default: "ListingHub", Desc: "Display name of the system user"},
	{Name: "system_actor_email", Default: "system@listinghub.local", Desc: "Email of the system user"},

	// Query limits
	{Name: "max_page_size", Default: paging.MaxLimit, Desc: "Largest limit a list or ranking may request"},
	{Name: "dashboard_concurrency", Default: dashboard.DefaultConcurrency, Desc: "Dashboard metrics computed concurrently"},

	// Storage deadlines (Go durations, e.g. 2s, 500ms)
	{Name: "timeout_ping", Default: timeouts.DefaultPing.String(), Desc: "Deadline for health-check pings"},
	{Name: "timeout_short", Default: timeouts.DefaultShort.String(), Desc: "Deadline for single-document operations"},
	{Name: "timeout_medium", Default: timeouts.DefaultMedium.String(), Desc: "Deadline for lists and counts"},
	{Name: "timeout_long", Default: timeouts.DefaultLong.String(), Desc: "Deadline for multi-collection work"},
	{Name: "timeout_aggregate", Default: timeouts.DefaultAggregate.String(), Desc: "Deadline for one aggregation pipeline"},

	// Background work
	{Name: "retention_sweep_interval", Default: "1h", Desc: "How often expired analytics events are swept (0 disables)"},

	// Public submission throttling
	{Name: "write_rate_limit", Default: 60, Desc: "Contact/event submissions per client per window (0 disables)"},
	{Name: "write_rate_window", Default: "1m", Desc: "Window for write_rate_limit"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, LISTINGHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "LISTINGHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	actorID, err := primitive.ObjectIDFromHex(strings.TrimSpace(appValues.String("system_actor_id")))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("system_actor_id: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		BaseURL: appValues.String("base_url"),

		SystemActor: actor.Actor{
			ID:    actorID,
			Name:  appValues.String("system_actor_name"),
			Email: appValues.String("system_actor_email"),
			Role:  models.RoleSystem,
		},

		MaxPageSize:          appValues.Int("max_page_size"),
		DashboardConcurrency: appValues.Int("dashboard_concurrency"),

		Timeouts: timeouts.Config{
			Ping:      appValues.Duration("timeout_ping", timeouts.DefaultPing),
			Short:     appValues.Duration("timeout_short", timeouts.DefaultShort),
			Medium:    appValues.Duration("timeout_medium", timeouts.DefaultMedium),
			Long:      appValues.Duration("timeout_long", timeouts.DefaultLong),
			Aggregate: appValues.Duration("timeout_aggregate", timeouts.DefaultAggregate),
		},

		RetentionSweepInterval: appValues.Duration("retention_sweep_interval", time.Hour),

		WriteRateLimit:  appValues.Int("write_rate_limit"),
		WriteRateWindow: appValues.Duration("write_rate_window", time.Minute),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// The MongoDB URI is checked here to catch configuration errors before
// attempting to connect.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(appCfg)
}

func validateApp(appCfg AppConfig) error {
	var problems []string
	if strings.TrimSpace(appCfg.MongoDatabase) == "" {
		problems = append(problems, "mongo_database is required")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		problems = append(problems, "mongo_min_pool_size exceeds mongo_max_pool_size")
	}
	if appCfg.SystemActor.IsZero() {
		problems = append(problems, "system_actor_id must be a non-zero ObjectID")
	}
	if strings.TrimSpace(appCfg.SystemActor.Name) == "" {
		problems = append(problems, "system_actor_name is required")
	}
	if !validate.SimpleEmailValid(appCfg.SystemActor.Email) {
		problems = append(problems, "system_actor_email is not a valid email")
	}
	if appCfg.MaxPageSize < 1 {
		problems = append(problems, "max_page_size must be at least 1")
	}
	if appCfg.DashboardConcurrency < 1 {
		problems = append(problems, "dashboard_concurrency must be at least 1")
	}
	if appCfg.RetentionSweepInterval < 0 {
		problems = append(problems, "retention_sweep_interval must not be negative")
	}
	if appCfg.WriteRateLimit < 0 {
		problems = append(problems, "write_rate_limit must not be negative")
	}
	if appCfg.WriteRateLimit > 0 && appCfg.WriteRateWindow <= 0 {
		problems = append(problems, "write_rate_window must be positive when write_rate_limit is set")
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}
