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

type articleRepository struct {
	mu       sync.RWMutex
	articles map[model.ArticleID]*model.Article
}

func newArticleRepository() *articleRepository {
	return &articleRepository{
		articles: make(map[model.ArticleID]*model.Article),
	}
}

// copyArticle creates a deep copy of an article
func copyArticle(a *model.Article) *model.Article {
	copied := *a

	if a.CaseIDs != nil {
		copied.CaseIDs = make([]model.CaseID, len(a.CaseIDs))
		copy(copied.CaseIDs, a.CaseIDs)
	}
	if a.Embedding != nil {
		copied.Embedding = make([]float32, len(a.Embedding))
		copy(copied.Embedding, a.Embedding)
	}
	copied.Sections.Symptoms = append([]string(nil), a.Sections.Symptoms...)
	copied.Sections.Diagnostics = append([]string(nil), a.Sections.Diagnostics...)
	copied.Sections.Resolutions = append([]string(nil), a.Sections.Resolutions...)
	copied.Sections.Products = append([]string(nil), a.Sections.Products...)

	return &copied
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) (*model.Article, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	created := copyArticle(article)
	if created.ID == "" {
		created.ID = model.NewArticleID()
	}
	created.VectorStatus = created.VectorStatus.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	r.articles[created.ID] = created
	return copyArticle(created), nil
}

func (r *articleRepository) Get(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	article, exists := r.articles[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
	}

	return copyArticle(article), nil
}

func (r *articleRepository) ListByCategory(ctx context.Context, categoryID types.CategoryID) ([]*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Article
	for _, a := range r.articles {
		if a.CategoryID == categoryID {
			result = append(result, copyArticle(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt.After(result[j].GeneratedAt)
	})

	return result, nil
}

func (r *articleRepository) ListByVectorStatus(ctx context.Context, status types.VectorStatus) ([]*model.Article, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*model.Article
	for _, a := range r.articles {
		if a.VectorStatus.Normalize() == status {
			result = append(result, copyArticle(a))
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].GeneratedAt.Before(result[j].GeneratedAt)
	})

	return result, nil
}

func (r *articleRepository) UpdateVectorStatus(ctx context.Context, id model.ArticleID, status types.VectorStatus) error {
	if !status.IsValid() {
		return goerr.New("invalid vector status", goerr.T(model.TagPermanent), goerr.V("status", status))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	article, exists := r.articles[id]
	if !exists {
		return goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
	}

	article.VectorStatus = status
	article.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *articleRepository) ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Article, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*model.Article, 0, len(r.articles))
	for _, a := range r.articles {
		all = append(all, copyArticle(a))
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	totalCount := len(all)

	if offset >= len(all) {
		return []*model.Article{}, totalCount, nil
	}

	end := offset + limit
	if end > len(all) {
		end = len(all)
	}

	return all[offset:end], totalCount, nil
}

func (r *articleRepository) Delete(ctx context.Context, id model.ArticleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.articles[id]; !exists {
		return goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
	}

	delete(r.articles, id)
	return nil
}
