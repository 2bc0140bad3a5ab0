package memory

import (
	"context"
	"sync"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

type cursorRepository struct {
	mu     sync.RWMutex
	cursor *model.SyncCursor
}

func newCursorRepository() *cursorRepository {
	return &cursorRepository{}
}

func (r *cursorRepository) Get(ctx context.Context) (*model.SyncCursor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.cursor == nil {
		return &model.SyncCursor{}, nil
	}

	copied := *r.cursor
	return &copied, nil
}

func (r *cursorRepository) Put(ctx context.Context, cursor *model.SyncCursor) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *cursor
	copied.UpdatedAt = time.Now().UTC()
	r.cursor = &copied
	return nil
}
