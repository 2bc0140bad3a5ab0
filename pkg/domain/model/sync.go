package model

import (
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// SyncCursor is the persisted watermark of incremental case polling.
// It only advances after a fully successful batch; a partially failed batch
// leaves it untouched so the failed cases are fetched again (at-least-once).
type SyncCursor struct {
	LastProcessed time.Time
	UpdatedAt     time.Time
}

// RunReport summarizes one sync run for the caller
type RunReport struct {
	Status            types.RunStatus
	CasesFetched      int
	CasesCategorized  int
	CasesSkipped      int // validation failures, skipped per record
	ArticlesGenerated int
	ArticlesStale     int
	VectorsWritten    int
	Retries           int
	StartedAt         time.Time
	Duration          time.Duration
	Err               string // last error message, empty on success
}
