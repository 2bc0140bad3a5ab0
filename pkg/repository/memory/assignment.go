package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

type assignmentRepository struct {
	mu          sync.RWMutex
	assignments map[model.CaseID]*model.Assignment
}

func newAssignmentRepository() *assignmentRepository {
	return &assignmentRepository{
		assignments: make(map[model.CaseID]*model.Assignment),
	}
}

func copyAssignment(a *model.Assignment) *model.Assignment {
	copied := *a
	return &copied
}

func (r *assignmentRepository) Put(ctx context.Context, assignment *model.Assignment) error {
	if assignment.CaseID == "" {
		return goerr.New("assignment case ID is required", goerr.T(model.TagPermanent))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	stored := copyAssignment(assignment)
	if existing, exists := r.assignments[stored.CaseID]; exists {
		stored.CreatedAt = existing.CreatedAt
		// Re-classification must not drop an existing attribution
		if stored.ArticleID == "" {
			stored.ArticleID = existing.ArticleID
		}
	} else {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now

	r.assignments[stored.CaseID] = stored
	return nil
}

func (r *assignmentRepository) Get(ctx context.Context, caseID model.CaseID) (*model.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.assignments[caseID]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "assignment not found", goerr.V("caseID", caseID))
	}

	return copyAssignment(a), nil
}

func (r *assignmentRepository) ListUnprocessed(ctx context.Context, categoryID types.CategoryID) ([]*model.Assignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Assignment
	for _, a := range r.assignments {
		if a.CategoryID == categoryID && !a.IsProcessed() {
			result = append(result, copyAssignment(a))
		}
	}

	// Newest cases first so article size caps keep the most recent ones
	sort.Slice(result, func(i, j int) bool {
		if result[i].CaseAt.Equal(result[j].CaseAt) {
			return result[i].CaseID < result[j].CaseID
		}
		return result[i].CaseAt.After(result[j].CaseAt)
	})

	return result, nil
}

func (r *assignmentRepository) CountUnprocessed(ctx context.Context) (map[types.CategoryID]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[types.CategoryID]int)
	for _, a := range r.assignments {
		if a.CategoryID == types.Uncategorized || a.IsProcessed() {
			continue
		}
		counts[a.CategoryID]++
	}

	return counts, nil
}

func (r *assignmentRepository) MarkProcessed(ctx context.Context, caseIDs []model.CaseID, categoryID types.CategoryID, articleID model.ArticleID) error {
	if articleID == "" {
		return goerr.New("article ID is required", goerr.T(model.TagPermanent))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for _, caseID := range caseIDs {
		a, exists := r.assignments[caseID]
		if !exists {
			return goerr.Wrap(ErrNotFound, "assignment not found", goerr.V("caseID", caseID))
		}
		if a.CategoryID != categoryID {
			return goerr.New("assignment category mismatch",
				goerr.T(model.TagPermanent),
				goerr.V("caseID", caseID),
				goerr.V("expected", categoryID),
				goerr.V("actual", a.CategoryID))
		}
		a.ArticleID = articleID
		a.UpdatedAt = now
	}

	return nil
}
