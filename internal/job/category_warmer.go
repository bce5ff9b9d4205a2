// Package job provides background job schedulers.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"unified-catalog-service/internal/app/service"
	"unified-catalog-service/pkg/locker"
)

// CategoryWarmer periodically refreshes the per-source category cache
// so category listings survive upstream outages, with distributed
// locking to ensure only one instance does the refresh at a time.
type CategoryWarmer struct {
	catalogService *service.CatalogService
	interval       time.Duration
	timeout        time.Duration
	logger         *zap.Logger
	locker         locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WarmConfig holds warmer configuration.
type WarmConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// NewCategoryWarmer creates a new CategoryWarmer with distributed locking support.
func NewCategoryWarmer(
	catalogSvc *service.CatalogService,
	cfg WarmConfig,
	logger *zap.Logger,
	locker locker.DistributedLocker,
) *CategoryWarmer {
	return &CategoryWarmer{
		catalogService: catalogSvc,
		interval:       cfg.Interval,
		timeout:        cfg.Timeout,
		logger:         logger,
		locker:         locker,
	}
}

// Start begins the background warm job.
func (w *CategoryWarmer) Start(runOnStartup bool) {
	w.ctx, w.cancel = context.WithCancel(context.Background())

	w.logger.Info("starting category warmer",
		zap.Duration("interval", w.interval),
		zap.Bool("run_on_startup", runOnStartup),
	)

	w.wg.Add(1)
	go w.run(runOnStartup)
}

// Stop gracefully stops the warmer.
func (w *CategoryWarmer) Stop() {
	w.logger.Info("stopping category warmer")
	w.cancel()
	w.wg.Wait()
	w.logger.Info("category warmer stopped")
}

// run is the main loop of the warmer.
func (w *CategoryWarmer) run(runOnStartup bool) {
	defer w.wg.Done()

	// Run immediately if configured
	if runOnStartup {
		w.executeWarm()
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.executeWarm()
		}
	}
}

// executeWarm refreshes the category cache with distributed locking and timeout.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: Lock held for full interval to prevent duplicate refreshes
//   - Failure: Lock released immediately to allow retry by another instance
func (w *CategoryWarmer) executeWarm() {
	const lockKey = "warm:categories:lock"

	// Try to acquire lock with interval-based TTL (cooldown model)
	acquired, err := w.locker.Acquire(w.ctx, lockKey, w.interval)
	if err != nil {
		w.logger.Error("failed to acquire distributed lock", zap.Error(err))

		return
	}
	if !acquired {
		w.logger.Debug("another instance is warming categories, skipping execution")

		return
	}

	// Lock acquired - refresh with timeout
	ctx, cancel := context.WithTimeout(w.ctx, w.timeout)
	defer cancel()

	categories, err := w.catalogService.RefreshCategories(ctx)
	if err != nil {
		// Release lock immediately on error (allow immediate retry)
		if releaseErr := w.locker.Release(w.ctx, lockKey); releaseErr != nil {
			w.logger.Error("failed to release lock after warm error", zap.Error(releaseErr))
		}
		w.logger.Warn("category warm failed, lock released for retry", zap.Error(err))

		return
	}

	// Lock will expire naturally after interval (cooldown period)
	w.logger.Info("category cache warmed, lock held for cooldown",
		zap.Int("categories", len(categories)),
		zap.Duration("cooldown", w.interval),
	)
}
