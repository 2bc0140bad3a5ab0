package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// CursorRepository persists the incremental sync watermark
type CursorRepository interface {
	// Get retrieves the current cursor. A missing cursor is returned as the
	// zero value, not an error, so the first run fetches from the beginning.
	Get(ctx context.Context) (*model.SyncCursor, error)

	// Put stores the cursor. Called only after a fully successful batch.
	Put(ctx context.Context, cursor *model.SyncCursor) error
}
