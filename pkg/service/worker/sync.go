package worker

import (
	"context"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// Trigger starts one pipeline run. It is satisfied by the sync use case;
// the indirection keeps the worker free of pipeline internals.
type Trigger interface {
	RunSync(ctx context.Context, force bool) (*model.RunReport, error)
}

// SyncWorker runs the pipeline on a fixed interval.
//
// Architecture assumptions:
// - Single server instance (no distributed locking)
// - For future horizontal scaling, implement distributed locking or leader election
type SyncWorker struct {
	trigger  Trigger
	interval time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSyncWorker creates a worker that triggers a sync run every interval
func NewSyncWorker(trigger Trigger, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		trigger:  trigger,
		interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sync loop
// - Initial run and periodic runs both happen in a background goroutine
// - Does not block startup
func (w *SyncWorker) Start(ctx context.Context) error {
	logging.Default().Info("sync worker starting",
		"interval", w.interval.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *SyncWorker) Stop() {
	logging.Default().Info("sync worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("sync worker stopped")
}

// run is the main worker loop (runs in goroutine)
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.runOnce(ctx)

		case <-w.stopCh:
			logging.Default().Info("sync worker received stop signal")
			return

		case <-ctx.Done():
			logging.Default().Info("sync worker context cancelled")
			return
		}
	}
}

// runOnce performs a single sync cycle. A busy trigger means an earlier run
// is still in flight, so the tick is skipped quietly. Other errors are
// logged and the worker keeps going until the next tick.
func (w *SyncWorker) runOnce(ctx context.Context) {
	startTime := time.Now()

	report, err := w.trigger.RunSync(ctx, false)
	if err != nil {
		if report != nil && report.Status == types.RunStatusBusy {
			logging.Default().Debug("sync still in progress, skipping tick")
			return
		}
		logging.Default().Error("sync run failed (will retry next interval)",
			"error", err.Error())
		return
	}

	logging.Default().Info("sync run completed",
		"status", report.Status,
		"fetched", report.CasesFetched,
		"categorized", report.CasesCategorized,
		"articles", report.ArticlesGenerated,
		"vectors", report.VectorsWritten,
		"duration", time.Since(startTime).String())
}
