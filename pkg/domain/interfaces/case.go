package interfaces

import (
	"context"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// CaseRepository defines read access to externally owned case records.
// The pipeline never creates or mutates cases beyond knowledge attribution.
type CaseRepository interface {
	// Put stores a case record. Used by ingestion tooling and tests; the
	// sync pipeline itself is a reader.
	Put(ctx context.Context, c *model.Case) (*model.Case, error)

	// Get retrieves a case by ID
	Get(ctx context.Context, id model.CaseID) (*model.Case, error)

	// GetBatch retrieves multiple cases by ID
	GetBatch(ctx context.Context, ids []model.CaseID) ([]*model.Case, error)

	// ListSince retrieves cases created after the given timestamp in
	// ascending creation order, up to limit entries.
	ListSince(ctx context.Context, since time.Time, limit int) ([]*model.Case, error)
}
