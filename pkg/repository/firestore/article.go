package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// articleDoc is the Firestore document representation of model.Article.
// Embedding is stored as firestore.Vector32 so that FindNearest works.
type articleDoc struct {
	ID             string             `firestore:"ID"`
	Title          string             `firestore:"Title"`
	Summary        string             `firestore:"Summary"`
	Symptoms       []string           `firestore:"Symptoms"`
	Diagnostics    []string           `firestore:"Diagnostics"`
	Resolutions    []string           `firestore:"Resolutions"`
	Products       []string           `firestore:"Products"`
	CategoryID     string             `firestore:"CategoryID"`
	ResolutionType string             `firestore:"ResolutionType"`
	CaseIDs        []string           `firestore:"CaseIDs"`
	Embedding      firestore.Vector32 `firestore:"Embedding,omitempty"`
	VectorStatus   string             `firestore:"VectorStatus"`
	GeneratedAt    time.Time          `firestore:"GeneratedAt"`
	CreatedAt      time.Time          `firestore:"CreatedAt"`
	UpdatedAt      time.Time          `firestore:"UpdatedAt"`
}

func toArticleDoc(a *model.Article) *articleDoc {
	doc := &articleDoc{
		ID:             string(a.ID),
		Title:          a.Title,
		Summary:        a.Summary,
		Symptoms:       a.Sections.Symptoms,
		Diagnostics:    a.Sections.Diagnostics,
		Resolutions:    a.Sections.Resolutions,
		Products:       a.Sections.Products,
		CategoryID:     string(a.CategoryID),
		ResolutionType: a.ResolutionType,
		VectorStatus:   string(a.VectorStatus.Normalize()),
		GeneratedAt:    a.GeneratedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
	doc.CaseIDs = make([]string, len(a.CaseIDs))
	for i, id := range a.CaseIDs {
		doc.CaseIDs[i] = string(id)
	}
	if len(a.Embedding) > 0 {
		doc.Embedding = firestore.Vector32(a.Embedding)
	}
	return doc
}

func fromArticleDoc(d *articleDoc) *model.Article {
	a := &model.Article{
		ID:      model.ArticleID(d.ID),
		Title:   d.Title,
		Summary: d.Summary,
		Sections: model.ArticleSections{
			Symptoms:    d.Symptoms,
			Diagnostics: d.Diagnostics,
			Resolutions: d.Resolutions,
			Products:    d.Products,
		},
		CategoryID:     types.CategoryID(d.CategoryID),
		ResolutionType: d.ResolutionType,
		VectorStatus:   types.VectorStatus(d.VectorStatus),
		GeneratedAt:    d.GeneratedAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
	a.CaseIDs = make([]model.CaseID, len(d.CaseIDs))
	for i, id := range d.CaseIDs {
		a.CaseIDs[i] = model.CaseID(id)
	}
	if len(d.Embedding) > 0 {
		a.Embedding = []float32(d.Embedding)
	}
	return a
}

func docToArticle(doc *firestore.DocumentSnapshot) (*model.Article, error) {
	var d articleDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromArticleDoc(&d), nil
}

type articleRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newArticleRepository(client *firestore.Client) *articleRepository {
	return &articleRepository{
		client: client,
	}
}

func (r *articleRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "articles")
}

func (r *articleRepository) Create(ctx context.Context, article *model.Article) (*model.Article, error) {
	now := time.Now().UTC()
	created := *article
	if created.ID == "" {
		created.ID = model.NewArticleID()
	}
	created.VectorStatus = created.VectorStatus.Normalize()
	created.CreatedAt = now
	created.UpdatedAt = now

	docRef := r.collection().Doc(string(created.ID))
	if _, err := docRef.Set(ctx, toArticleDoc(&created)); err != nil {
		return nil, goerr.Wrap(err, "failed to create article", goerr.V("id", created.ID))
	}

	return &created, nil
}

func (r *articleRepository) Get(ctx context.Context, id model.ArticleID) (*model.Article, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get article", goerr.V("id", id))
	}

	a, err := docToArticle(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal article", goerr.V("id", id))
	}

	return a, nil
}

func (r *articleRepository) ListByCategory(ctx context.Context, categoryID types.CategoryID) ([]*model.Article, error) {
	iter := r.collection().
		Where("CategoryID", "==", string(categoryID)).
		OrderBy("GeneratedAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	return r.collectArticles(iter, categoryID)
}

func (r *articleRepository) ListByVectorStatus(ctx context.Context, vs types.VectorStatus) ([]*model.Article, error) {
	iter := r.collection().
		Where("VectorStatus", "==", string(vs)).
		Documents(ctx)
	defer iter.Stop()

	return r.collectArticles(iter, "")
}

func (r *articleRepository) collectArticles(iter *firestore.DocumentIterator, categoryID types.CategoryID) ([]*model.Article, error) {
	articles := make([]*model.Article, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate articles", goerr.V("categoryID", categoryID))
		}

		a, err := docToArticle(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal article")
		}

		articles = append(articles, a)
	}

	return articles, nil
}

func (r *articleRepository) UpdateVectorStatus(ctx context.Context, id model.ArticleID, vs types.VectorStatus) error {
	if !vs.IsValid() {
		return goerr.New("invalid vector status", goerr.T(model.TagPermanent), goerr.V("status", vs))
	}

	docRef := r.collection().Doc(string(id))
	_, err := docRef.Update(ctx, []firestore.Update{
		{Path: "VectorStatus", Value: string(vs)},
		{Path: "UpdatedAt", Value: time.Now().UTC()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to update vector status", goerr.V("id", id))
	}

	return nil
}

func (r *articleRepository) ListWithPagination(ctx context.Context, limit, offset int) ([]*model.Article, int, error) {
	allDocs, err := r.collection().Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, goerr.Wrap(err, "failed to count articles")
	}
	totalCount := len(allDocs)

	query := r.collection().
		OrderBy("CreatedAt", firestore.Desc).
		Offset(offset).
		Limit(limit)

	iter := query.Documents(ctx)
	defer iter.Stop()

	articles, err := r.collectArticles(iter, "")
	if err != nil {
		return nil, 0, err
	}

	return articles, totalCount, nil
}

func (r *articleRepository) Delete(ctx context.Context, id model.ArticleID) error {
	docRef := r.collection().Doc(string(id))

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "article not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get article", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete article", goerr.V("id", id))
	}

	return nil
}
