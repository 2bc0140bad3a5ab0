package usecase

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// StatusReport is a point-in-time snapshot of the pipeline for operators
type StatusReport struct {
	State          types.SyncState
	LastRun        *model.RunReport // nil if no run has completed since startup
	Cursor         *model.SyncCursor
	Unprocessed    map[types.CategoryID]int
	ArticleTotal   int
	PendingVectors int
	StaleArticles  int
}

// Status gathers the pipeline state and store-derived counters. It reads
// through to the repository so the counts reflect what is actually
// persisted, not what this process believes.
func (uc *UseCases) Status(ctx context.Context) (*StatusReport, error) {
	cursor, err := uc.repo.Cursor().Get(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load sync cursor")
	}

	unprocessed, err := uc.repo.Assignment().CountUnprocessed(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count unprocessed cases")
	}

	_, total, err := uc.repo.Article().ListWithPagination(ctx, 1, 0)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to count articles")
	}

	pending, err := uc.repo.Article().ListByVectorStatus(ctx, types.VectorStatusPending)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list pending articles")
	}

	stale, err := uc.repo.Article().ListByVectorStatus(ctx, types.VectorStatusStale)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list stale articles")
	}

	return &StatusReport{
		State:          uc.State(),
		LastRun:        uc.LastReport(),
		Cursor:         cursor,
		Unprocessed:    unprocessed,
		ArticleTotal:   total,
		PendingVectors: len(pending),
		StaleArticles:  len(stale),
	}, nil
}
