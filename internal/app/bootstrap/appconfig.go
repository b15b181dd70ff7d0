// internal/app/bootstrap/appconfig.go
package bootstrap

import (
	"time"

	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
)

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework-level settings (ports, TLS, logging, CORS, body limits); this
// struct carries what is specific to ListingHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Public base URL of the API (used in logs and absolute links)
	BaseURL string

	// System actor every request acts as. Ensured in the users collection
	// at startup.
	SystemActor actor.Actor

	// Query limits
	MaxPageSize          int // hard cap on limit for lists and rankings
	DashboardConcurrency int // dashboard metrics computed at once

	// Storage deadlines; zero values keep the defaults.
	Timeouts timeouts.Config

	// How often the analytics retention sweeper runs. Zero disables it.
	RetentionSweepInterval time.Duration

	// Contact and analytics submissions allowed per client per window.
	// Zero disables throttling.
	WriteRateLimit  int
	WriteRateWindow time.Duration
}
