package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

type caseRepository struct {
	mu    sync.RWMutex
	cases map[model.CaseID]*model.Case
}

func newCaseRepository() *caseRepository {
	return &caseRepository{
		cases: make(map[model.CaseID]*model.Case),
	}
}

func copyCase(c *model.Case) *model.Case {
	copied := *c
	return &copied
}

func (r *caseRepository) Put(ctx context.Context, c *model.Case) (*model.Case, error) {
	if c.ID == "" {
		return nil, goerr.New("case ID is required", goerr.T(model.TagPermanent))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := copyCase(c)
	stored.UpdatedAt = time.Now().UTC()
	r.cases[stored.ID] = stored
	return copyCase(stored), nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.cases[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
	}

	return copyCase(c), nil
}

func (r *caseRepository) GetBatch(ctx context.Context, ids []model.CaseID) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.Case, 0, len(ids))
	for _, id := range ids {
		if c, exists := r.cases[id]; exists {
			result = append(result, copyCase(c))
		}
	}

	return result, nil
}

func (r *caseRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*model.Case, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Case
	for _, c := range r.cases {
		if c.CreatedAt.After(since) {
			result = append(result, copyCase(c))
		}
	}

	// Ascending creation order so cursor advancement stays monotonic
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}
