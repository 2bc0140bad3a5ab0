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

// caseDoc is the Firestore document representation of model.Case
type caseDoc struct {
	ID         string    `firestore:"ID"`
	Subject    string    `firestore:"Subject"`
	Issue      string    `firestore:"Issue"`
	Resolution string    `firestore:"Resolution"`
	Status     string    `firestore:"Status"`
	Product    string    `firestore:"Product"`
	CreatedAt  time.Time `firestore:"CreatedAt"`
	ResolvedAt time.Time `firestore:"ResolvedAt"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

func toCaseDoc(c *model.Case) *caseDoc {
	return &caseDoc{
		ID:         string(c.ID),
		Subject:    c.Subject,
		Issue:      c.Issue,
		Resolution: c.Resolution,
		Status:     string(c.Status),
		Product:    c.Product,
		CreatedAt:  c.CreatedAt,
		ResolvedAt: c.ResolvedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCaseDoc(d *caseDoc) *model.Case {
	return &model.Case{
		ID:         model.CaseID(d.ID),
		Subject:    d.Subject,
		Issue:      d.Issue,
		Resolution: d.Resolution,
		Status:     types.CaseStatus(d.Status),
		Product:    d.Product,
		CreatedAt:  d.CreatedAt,
		ResolvedAt: d.ResolvedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func docToCase(doc *firestore.DocumentSnapshot) (*model.Case, error) {
	var d caseDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromCaseDoc(&d), nil
}

type caseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCaseRepository(client *firestore.Client) *caseRepository {
	return &caseRepository{
		client: client,
	}
}

func (r *caseRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "cases")
}

func (r *caseRepository) Put(ctx context.Context, c *model.Case) (*model.Case, error) {
	if c.ID == "" {
		return nil, goerr.New("case ID is required", goerr.T(model.TagPermanent))
	}

	stored := *c
	stored.UpdatedAt = time.Now().UTC()

	docRef := r.collection().Doc(string(stored.ID))
	if _, err := docRef.Set(ctx, toCaseDoc(&stored)); err != nil {
		return nil, goerr.Wrap(err, "failed to put case", goerr.V("id", c.ID))
	}

	return &stored, nil
}

func (r *caseRepository) Get(ctx context.Context, id model.CaseID) (*model.Case, error) {
	doc, err := r.collection().Doc(string(id)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "case not found", goerr.V("id", id))
		}
		return nil, goerr.Wrap(err, "failed to get case", goerr.V("id", id))
	}

	c, err := docToCase(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal case", goerr.V("id", id))
	}

	return c, nil
}

func (r *caseRepository) GetBatch(ctx context.Context, ids []model.CaseID) ([]*model.Case, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	refs := make([]*firestore.DocumentRef, len(ids))
	for i, id := range ids {
		refs[i] = r.collection().Doc(string(id))
	}

	docs, err := r.client.GetAll(ctx, refs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get cases", goerr.V("count", len(ids)))
	}

	cases := make([]*model.Case, 0, len(docs))
	for _, doc := range docs {
		if !doc.Exists() {
			continue
		}
		c, err := docToCase(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal case")
		}
		cases = append(cases, c)
	}

	return cases, nil
}

func (r *caseRepository) ListSince(ctx context.Context, since time.Time, limit int) ([]*model.Case, error) {
	query := r.collection().
		Where("CreatedAt", ">", since).
		OrderBy("CreatedAt", firestore.Asc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	cases := make([]*model.Case, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate cases", goerr.V("since", since))
		}

		c, err := docToCase(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal case")
		}

		cases = append(cases, c)
	}

	return cases, nil
}
