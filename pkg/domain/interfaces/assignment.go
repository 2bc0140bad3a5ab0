package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// AssignmentRepository persists case-to-category assignments
type AssignmentRepository interface {
	// Put stores an assignment, replacing any previous assignment of the case
	Put(ctx context.Context, assignment *model.Assignment) error

	// Get retrieves the assignment of a case
	Get(ctx context.Context, caseID model.CaseID) (*model.Assignment, error)

	// ListUnprocessed retrieves assignments of a category not yet attributed
	// to an article, ordered by case creation time descending (newest first).
	ListUnprocessed(ctx context.Context, categoryID types.CategoryID) ([]*model.Assignment, error)

	// CountUnprocessed recomputes the per-category unprocessed counts from
	// the persisted assignments. Uncategorized assignments are excluded.
	CountUnprocessed(ctx context.Context) (map[types.CategoryID]int, error)

	// MarkProcessed attributes the given cases to an article so they no
	// longer count toward the category threshold.
	MarkProcessed(ctx context.Context, caseIDs []model.CaseID, categoryID types.CategoryID, articleID model.ArticleID) error
}
