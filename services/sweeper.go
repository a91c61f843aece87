package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweeper expires stale WAITING entries on a fixed cadence. Expiry is
// the only mutation the system performs without a staff or bus trigger.
type Sweeper struct {
	queue    *QueueService
	interval time.Duration
	logger   *zap.Logger

	stopCh  chan struct{}
	stopped sync.WaitGroup
}

func NewSweeper(queue *QueueService, interval time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		queue:    queue,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (w *Sweeper) Run(ctx context.Context) {
	w.stopped.Add(1)
	go func() {
		defer w.stopped.Done()
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.sweep(ctx)
			case <-w.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (w *Sweeper) Stop() {
	close(w.stopCh)
	w.stopped.Wait()
}

func (w *Sweeper) sweep(ctx context.Context) {
	expired, err := w.queue.ExpireStale(ctx)
	if err != nil {
		w.logger.Error("expiry sweep failed", zap.Error(err))
		return
	}
	if expired > 0 {
		w.logger.Info("expired stale entries", zap.Int("count", expired))
	}
}
