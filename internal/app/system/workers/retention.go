// internal/app/system/workers/retention.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/listinghub/internal/app/system/timeouts"
	"github.com/dalemusser/listinghub/internal/domain/models"
	"go.uber.org/zap"
)

// EventPurger deletes analytics events recorded before cutoff.
type EventPurger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// RetentionSweeper periodically removes analytics events older than the
// retention window. The TTL index on analytics_events does the same job,
// but the TTL monitor can lag and is absent on some Mongo-compatible servers.
type RetentionSweeper struct {
	events    EventPurger
	log       *zap.Logger
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRetentionSweeper creates a sweeper that runs every interval and keeps
// models.AnalyticsRetention worth of events.
func NewRetentionSweeper(events EventPurger, logger *zap.Logger, interval time.Duration) *RetentionSweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &RetentionSweeper{
		events:    events,
		log:       logger,
		interval:  interval,
		retention: models.AnalyticsRetention,
		now:       time.Now,
		stopCh:    make(chan struct{}),
	}
}

// Start runs one sweep immediately and then one per interval.
func (w *RetentionSweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("analytics retention sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("retention", w.retention))
}

// Stop signals the sweeper to stop and waits for the current sweep to finish.
// Safe to call more than once.
func (w *RetentionSweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("analytics retention sweeper stopped")
	})
}

func (w *RetentionSweeper) run() {
	defer w.wg.Done()

	w.sweepLogged()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweepLogged()
		}
	}
}

func (w *RetentionSweeper) sweepLogged() {
	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	n, err := w.Sweep(ctx)
	if err != nil {
		w.log.Error("analytics retention sweep failed", zap.Error(err))
		return
	}
	if n > 0 {
		w.log.Info("removed expired analytics events", zap.Int64("count", n))
	}
}

// Sweep deletes every event older than now minus the retention window and
// reports how many were removed.
func (w *RetentionSweeper) Sweep(ctx context.Context) (int64, error) {
	cutoff := w.now().UTC().Add(-w.retention)
	return w.events.DeleteOlderThan(ctx, cutoff)
}
