package bootstrap

import (
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/listinghub/internal/app/system/actor"
	"github.com/dalemusser/listinghub/internal/app/system/indexes"
	"github.com/dalemusser/listinghub/internal/app/system/paging"
	"github.com/dalemusser/listinghub/internal/app/system/ratelimit"
	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func testAppConfig() AppConfig {
	return AppConfig{
		MongoURI:         "mongodb://localhost:27017",
		MongoDatabase:    "listinghub_test",
		MongoMaxPoolSize: 10,
		MongoMinPoolSize: 1,
		SystemActor: actor.Actor{
			ID:    primitive.NewObjectID(),
			Name:  "ListingHub",
			Email: "system@listinghub.test",
			Role:  models.RoleSystem,
		},
		MaxPageSize:          50,
		DashboardConcurrency: 2,
	}
}

func TestEnsureSystemActor_CreatesOnce(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	cfg := testAppConfig()
	deps := DBDeps{MongoDatabase: db}

	for i := 0; i < 2; i++ {
		if err := ensureSystemActor(ctx, deps, cfg, testLogger()); err != nil {
			t.Fatalf("ensureSystemActor #%d failed: %v", i+1, err)
		}
	}

	var u models.User
	if err := db.Collection("users").FindOne(ctx, map[string]any{"_id": cfg.SystemActor.ID}).Decode(&u); err != nil {
		t.Fatalf("system user not found: %v", err)
	}
	if u.Role != models.RoleSystem || u.Name != "ListingHub" || !u.IsActive {
		t.Errorf("system user: got %+v", u)
	}
	n, err := db.Collection("users").CountDocuments(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 1 {
		t.Errorf("users: got %d, want 1", n)
	}
}

func TestEnsureSystemActor_EmailTaken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	cfg := testAppConfig()
	fx.CreateUser(ctx, "Someone", cfg.SystemActor.Email, models.RoleUser)

	if err := ensureSystemActor(ctx, DBDeps{MongoDatabase: db}, cfg, testLogger()); err == nil {
		t.Fatal("expected error when the system email belongs to another user")
	}
}

func TestStartup_AppliesLimits(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	t.Cleanup(func() {
		paging.SetMaxLimit(paging.MaxLimit)
		timeouts.Reset()
	})

	cfg := testAppConfig()
	cfg.Timeouts = timeouts.Config{Aggregate: 3 * time.Second}
	if err := Startup(ctx, nil, cfg, DBDeps{MongoDatabase: db}, testLogger()); err != nil {
		t.Fatalf("Startup failed: %v", err)
	}
	if got := paging.CurrentMaxLimit(); got != 50 {
		t.Errorf("max limit: got %d, want 50", got)
	}
	if got := timeouts.Aggregate(); got != 3*time.Second {
		t.Errorf("aggregate timeout: got %v, want 3s", got)
	}
	if got := timeouts.Short(); got != timeouts.DefaultShort {
		t.Errorf("short timeout: got %v, want default", got)
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr bool
	}{
		{"valid", func(*AppConfig) {}, false},
		{"no database", func(c *AppConfig) { c.MongoDatabase = " " }, true},
		{"pool sizes inverted", func(c *AppConfig) { c.MongoMinPoolSize = 20 }, true},
		{"zero actor", func(c *AppConfig) { c.SystemActor.ID = primitive.NilObjectID }, true},
		{"bad actor email", func(c *AppConfig) { c.SystemActor.Email = "system" }, true},
		{"zero page size", func(c *AppConfig) { c.MaxPageSize = 0 }, true},
		{"zero concurrency", func(c *AppConfig) { c.DashboardConcurrency = 0 }, true},
		{"negative sweep", func(c *AppConfig) { c.RetentionSweepInterval = -time.Second }, true},
		{"rate limit without window", func(c *AppConfig) { c.WriteRateLimit = 5 }, true},
		{"rate limit with window", func(c *AppConfig) { c.WriteRateLimit = 5; c.WriteRateWindow = time.Minute }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testAppConfig()
			tt.mutate(&cfg)
			if err := validateApp(cfg); (err != nil) != tt.wantErr {
				t.Errorf("validateApp err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestBuildHandler_Routes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := testAppConfig()
	h, err := BuildHandler(nil, cfg, DBDeps{MongoClient: db.Client(), MongoDatabase: db}, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		path   string
		status int
	}{
		{"/health", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/api/properties", http.StatusOK},
		{"/api/agents/count", http.StatusOK},
		{"/api/analytics/metrics", http.StatusOK},
		{"/api/listings", http.StatusNotFound},
	}
	for _, tt := range tests {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, tt.path))
		if rec.Code != tt.status {
			t.Errorf("GET %s: got %d, want %d", tt.path, rec.Code, tt.status)
		}
	}
}

func TestBuildHandler_ThrottlesWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	limiter := ratelimit.New(1, time.Minute)
	defer limiter.Stop()

	h, err := BuildHandler(nil, testAppConfig(), DBDeps{MongoClient: db.Client(), MongoDatabase: db, WriteLimiter: limiter}, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	body := map[string]any{"event_type": "search", "query": "lake", "session_id": "s1"}
	for i, want := range []int{http.StatusCreated, http.StatusTooManyRequests} {
		rec := testutil.NewRecorder()
		h.ServeHTTP(rec, testutil.NewJSONRequest(t, http.MethodPost, "/api/analytics/events", body))
		if rec.Code != want {
			t.Errorf("POST #%d: got %d, want %d", i+1, rec.Code, want)
		}
	}

	rec := testutil.NewRecorder()
	h.ServeHTTP(rec, testutil.NewRequest(http.MethodGet, "/api/analytics/events"))
	if rec.Code != http.StatusOK {
		t.Errorf("GET after throttle: got %d, want 200", rec.Code)
	}
}
