package interfaces

import (
	"context"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// ArticleRepository persists generated knowledge articles
type ArticleRepository interface {
	// Create creates a new article
	Create(ctx context.Context, article *model.Article) (*model.Article, error)

	// Get retrieves an article by ID
	Get(ctx context.Context, id model.ArticleID) (*model.Article, error)

	// ListByCategory retrieves all articles of a category, newest first
	ListByCategory(ctx context.Context, categoryID types.CategoryID) ([]*model.Article, error)

	// ListByVectorStatus retrieves articles with the given vector status
	ListByVectorStatus(ctx context.Context, status types.VectorStatus) ([]*model.Article, error)

	// UpdateVectorStatus transitions an article's vector status
	UpdateVectorStatus(ctx context.Context, id model.ArticleID, status types.VectorStatus) error

	// ListWithPagination retrieves articles with pagination
	// Returns articles, total count, and error
	ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Article, int, error)

	// Delete deletes an article by ID
	Delete(ctx context.Context, id model.ArticleID) error
}
