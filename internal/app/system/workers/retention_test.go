package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	analyticsstore "github.com/dalemusser/listinghub/internal/app/store/analytics"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"github.com/dalemusser/listinghub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type fakePurger struct {
	mu      sync.Mutex
	cutoffs []time.Time
	err     error
	called  chan struct{}
}

func (f *fakePurger) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	f.mu.Lock()
	f.cutoffs = append(f.cutoffs, cutoff)
	f.mu.Unlock()
	if f.called != nil {
		select {
		case f.called <- struct{}{}:
		default:
		}
	}
	return 3, f.err
}

func TestSweep_UsesRetentionCutoff(t *testing.T) {
	p := &fakePurger{}
	w := NewRetentionSweeper(p, zap.NewNop(), time.Minute)
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	n, err := w.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 3 {
		t.Errorf("Sweep count: got %d, want 3", n)
	}
	want := now.Add(-models.AnalyticsRetention)
	if len(p.cutoffs) != 1 || !p.cutoffs[0].Equal(want) {
		t.Errorf("cutoff: got %v, want %v", p.cutoffs, want)
	}
}

func TestSweep_PropagatesError(t *testing.T) {
	p := &fakePurger{err: errors.New("unavailable")}
	w := NewRetentionSweeper(p, nil, 0)
	if _, err := w.Sweep(context.Background()); err == nil {
		t.Fatal("expected error from Sweep")
	}
	if w.interval != time.Hour {
		t.Errorf("default interval: got %v, want 1h", w.interval)
	}
}

func TestStartSweepsImmediatelyAndStops(t *testing.T) {
	p := &fakePurger{called: make(chan struct{}, 1)}
	w := NewRetentionSweeper(p, zap.NewNop(), time.Hour)

	w.Start()
	select {
	case <-p.called:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not run on start")
	}
	w.Stop()
	w.Stop()
}

func TestSweep_RemovesExpiredEvents(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	now := time.Now().UTC()
	fx.CreateEvent(ctx, models.EventPageView, nil, nil, "old", now.Add(-models.AnalyticsRetention-time.Hour))
	fx.CreateEvent(ctx, models.EventPageView, nil, nil, "fresh", now.Add(-time.Hour))

	w := NewRetentionSweeper(analyticsstore.New(db), zap.NewNop(), time.Hour)
	n, err := w.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if n != 1 {
		t.Errorf("deleted: got %d, want 1", n)
	}
	left, err := db.Collection("analytics_events").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if left != 1 {
		t.Errorf("remaining events: got %d, want 1", left)
	}
}
