package model

import (
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// VectorRecord is the unit stored in the vector index
type VectorRecord struct {
	ID         string // case ID or article ID
	Embedding  []float32
	EntityType types.EntityType
	CategoryID types.CategoryID
	// CaseIDs carries the contributing cases when EntityType is article,
	// so search can deduplicate article hits against direct case hits.
	CaseIDs   []CaseID
	Status    types.CaseStatus // case status snapshot at indexing time
	Timestamp time.Time        // case resolution time or article generation time
	UpdatedAt time.Time
}

// Match is a raw nearest-neighbor hit returned by the vector index
type Match struct {
	Record   VectorRecord
	Distance float64 // metric distance, unbounded above, 0 means identical
}

// SearchResult is one ranked entry of a query response. It is ephemeral,
// constructed per query and never persisted.
type SearchResult struct {
	ID         string
	EntityType types.EntityType
	CategoryID types.CategoryID
	Distance   float64
	Similarity float64 // exp(-distance), in (0, 1]
	Relevance  float64 // composite ranking score
	Timestamp  time.Time
	Rank       int // 1-based position in the final ordering
}
