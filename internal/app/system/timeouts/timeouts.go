// Package timeouts provides centralized deadlines for storage calls.
//
// Every handler and dashboard task derives its context from the inbound
// request with one of these values, so a slow or unreachable database
// never holds a request open indefinitely.
//
// Tiers:
//   - Ping: health checks
//   - Short: single-document reads and writes
//   - Medium: list queries and counts
//   - Long: writes that touch several collections
//   - Aggregate: one aggregation pipeline (each dashboard task gets its own)
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Defaults, used until Configure or ConfigureFromEnv override them.
const (
	DefaultPing      = 2 * time.Second
	DefaultShort     = 5 * time.Second
	DefaultMedium    = 10 * time.Second
	DefaultLong      = 30 * time.Second
	DefaultAggregate = 15 * time.Second
)

// EnvPrefix prefixes the environment variables read by ConfigureFromEnv.
const EnvPrefix = "LISTINGHUB_TIMEOUT_"

var mu sync.RWMutex

var current = defaults()

func defaults() Config {
	return Config{
		Ping:      DefaultPing,
		Short:     DefaultShort,
		Medium:    DefaultMedium,
		Long:      DefaultLong,
		Aggregate: DefaultAggregate,
	}
}

// Config holds timeout values. Zero fields are ignored by Configure.
type Config struct {
	Ping      time.Duration
	Short     time.Duration
	Medium    time.Duration
	Long      time.Duration
	Aggregate time.Duration
}

func Ping() time.Duration      { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration     { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration    { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration      { return get(func(c Config) time.Duration { return c.Long }) }
func Aggregate() time.Duration { return get(func(c Config) time.Duration { return c.Aggregate }) }

func get(f func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return f(current)
}

// Configure overrides the non-zero values in cfg. Call it during startup,
// before handlers are built.
func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	set := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	set(&current.Ping, cfg.Ping)
	set(&current.Short, cfg.Short)
	set(&current.Medium, cfg.Medium)
	set(&current.Long, cfg.Long)
	set(&current.Aggregate, cfg.Aggregate)
}

// Reset restores the defaults. Used by tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	current = defaults()
}

// ConfigureFromEnv reads LISTINGHUB_TIMEOUT_{PING,SHORT,MEDIUM,LONG,AGGREGATE}
// as Go durations ("2s", "500ms"). Invalid or non-positive values are
// skipped. Returns how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	read := func(name string, dst *time.Duration) {
		v := os.Getenv(EnvPrefix + name)
		if v == "" {
			return
		}
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	read("PING", &cfg.Ping)
	read("SHORT", &cfg.Short)
	read("MEDIUM", &cfg.Medium)
	read("LONG", &cfg.Long)
	read("AGGREGATE", &cfg.Aggregate)
	Configure(cfg)
	return n
}

// Current returns the active configuration.
func Current() Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// WithTimeout derives a context with the given timeout. The returned cancel
// logs a warning when the deadline was the reason the context ended.
//
//	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Aggregate(), h.Log, "dashboard topProperties")
//	defer cancel()
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if ctx.Err() == context.DeadlineExceeded && log != nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout),
			)
		}
		cancel()
	}
}
