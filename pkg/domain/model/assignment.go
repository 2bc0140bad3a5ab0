package model

import (
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// Assignment maps a case to at most one category. It is produced by the
// pattern detector and is the persisted source of truth for per-category
// counts; thresholds are always recomputed from assignments, never from
// in-memory counters.
type Assignment struct {
	CaseID     CaseID
	CategoryID types.CategoryID
	// Matches is the number of category keywords found in the case text,
	// kept for diagnostics and re-classification.
	Matches   int
	ArticleID ArticleID // empty until the case is attributed to an article
	CaseAt    time.Time // case creation time, for recency-ordered selection
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsProcessed reports whether the case has been attributed to an article
// and therefore no longer counts toward the generation threshold.
func (a *Assignment) IsProcessed() bool {
	return a.ArticleID != ""
}
