package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// VectorIndex defines nearest-neighbor search over stored embeddings.
// Implementations report raw metric distances; normalization to (0,1]
// similarity is the ranking engine's responsibility.
type VectorIndex interface {
	// Upsert inserts or replaces a vector record
	Upsert(ctx context.Context, record *model.VectorRecord) error

	// Query returns the k nearest records to the given embedding,
	// ordered by ascending distance.
	Query(ctx context.Context, embedding []float32, k int) ([]*model.Match, error)

	// Delete removes a record by ID
	Delete(ctx context.Context, id string) error
}

// Embedder maps text to a fixed-dimension vector. Failures are treated as
// retryable by the sync orchestrator.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}
