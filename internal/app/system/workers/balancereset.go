// internal/app/system/workers/balancereset.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/enrollhub/internal/app/system/sweeper"
	"go.uber.org/zap"
)

// BalanceReset is a background worker that forces the balance sweep on a
// fixed interval. The sweeper's own overlap guard makes a slow sweep and the
// next tick safe together.
type BalanceReset struct {
	sweep    *sweeper.Sweeper
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewBalanceReset creates the worker. The interval is clamped to the sweeper
// floor so configuration cannot schedule a tight loop.
func NewBalanceReset(sweep *sweeper.Sweeper, logger *zap.Logger, interval time.Duration) *BalanceReset {
	if interval <= 0 {
		interval = sweeper.DefaultRunInterval
	}
	if interval < sweeper.IntervalFloor {
		interval = sweeper.IntervalFloor
	}
	return &BalanceReset{
		sweep:    sweep,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *BalanceReset) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("balance reset worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *BalanceReset) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("balance reset worker stopped")
}

func (w *BalanceReset) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			w.sweep.MaybeRun(ctx, true)
			cancel()
		}
	}
}
