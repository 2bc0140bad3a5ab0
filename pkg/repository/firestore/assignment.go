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

// assignmentDoc is the Firestore document representation of model.Assignment
type assignmentDoc struct {
	CaseID     string    `firestore:"CaseID"`
	CategoryID string    `firestore:"CategoryID"`
	Matches    int       `firestore:"Matches"`
	ArticleID  string    `firestore:"ArticleID"`
	CaseAt     time.Time `firestore:"CaseAt"`
	CreatedAt  time.Time `firestore:"CreatedAt"`
	UpdatedAt  time.Time `firestore:"UpdatedAt"`
}

func toAssignmentDoc(a *model.Assignment) *assignmentDoc {
	return &assignmentDoc{
		CaseID:     string(a.CaseID),
		CategoryID: string(a.CategoryID),
		Matches:    a.Matches,
		ArticleID:  string(a.ArticleID),
		CaseAt:     a.CaseAt,
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	}
}

func fromAssignmentDoc(d *assignmentDoc) *model.Assignment {
	return &model.Assignment{
		CaseID:     model.CaseID(d.CaseID),
		CategoryID: types.CategoryID(d.CategoryID),
		Matches:    d.Matches,
		ArticleID:  model.ArticleID(d.ArticleID),
		CaseAt:     d.CaseAt,
		CreatedAt:  d.CreatedAt,
		UpdatedAt:  d.UpdatedAt,
	}
}

func docToAssignment(doc *firestore.DocumentSnapshot) (*model.Assignment, error) {
	var d assignmentDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, err
	}
	return fromAssignmentDoc(&d), nil
}

type assignmentRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newAssignmentRepository(client *firestore.Client) *assignmentRepository {
	return &assignmentRepository{
		client: client,
	}
}

func (r *assignmentRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "assignments")
}

func (r *assignmentRepository) Put(ctx context.Context, assignment *model.Assignment) error {
	if assignment.CaseID == "" {
		return goerr.New("assignment case ID is required", goerr.T(model.TagPermanent))
	}

	docRef := r.collection().Doc(string(assignment.CaseID))
	now := time.Now().UTC()

	stored := *assignment
	stored.UpdatedAt = now

	existing, err := docRef.Get(ctx)
	switch {
	case err == nil:
		prev, derr := docToAssignment(existing)
		if derr != nil {
			return goerr.Wrap(derr, "failed to unmarshal existing assignment", goerr.V("caseID", assignment.CaseID))
		}
		stored.CreatedAt = prev.CreatedAt
		// Re-classification must not drop an existing attribution
		if stored.ArticleID == "" {
			stored.ArticleID = prev.ArticleID
		}
	case status.Code(err) == codes.NotFound:
		stored.CreatedAt = now
	default:
		return goerr.Wrap(err, "failed to get assignment", goerr.V("caseID", assignment.CaseID))
	}

	if _, err := docRef.Set(ctx, toAssignmentDoc(&stored)); err != nil {
		return goerr.Wrap(err, "failed to put assignment", goerr.V("caseID", assignment.CaseID))
	}

	return nil
}

func (r *assignmentRepository) Get(ctx context.Context, caseID model.CaseID) (*model.Assignment, error) {
	doc, err := r.collection().Doc(string(caseID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "assignment not found", goerr.V("caseID", caseID))
		}
		return nil, goerr.Wrap(err, "failed to get assignment", goerr.V("caseID", caseID))
	}

	a, err := docToAssignment(doc)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal assignment", goerr.V("caseID", caseID))
	}

	return a, nil
}

func (r *assignmentRepository) ListUnprocessed(ctx context.Context, categoryID types.CategoryID) ([]*model.Assignment, error) {
	iter := r.collection().
		Where("CategoryID", "==", string(categoryID)).
		Where("ArticleID", "==", "").
		OrderBy("CaseAt", firestore.Desc).
		Documents(ctx)
	defer iter.Stop()

	assignments := make([]*model.Assignment, 0)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assignments", goerr.V("categoryID", categoryID))
		}

		a, err := docToAssignment(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assignment")
		}

		assignments = append(assignments, a)
	}

	return assignments, nil
}

func (r *assignmentRepository) CountUnprocessed(ctx context.Context) (map[types.CategoryID]int, error) {
	iter := r.collection().
		Where("ArticleID", "==", "").
		Documents(ctx)
	defer iter.Stop()

	counts := make(map[types.CategoryID]int)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate assignments")
		}

		a, err := docToAssignment(doc)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal assignment")
		}

		if a.CategoryID == types.Uncategorized {
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

	// Single transaction so attribution is all-or-nothing per article
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now().UTC()
		docs := make([]*assignmentDoc, 0, len(caseIDs))

		for _, caseID := range caseIDs {
			doc, err := tx.Get(r.collection().Doc(string(caseID)))
			if err != nil {
				if status.Code(err) == codes.NotFound {
					return goerr.Wrap(ErrNotFound, "assignment not found", goerr.V("caseID", caseID))
				}
				return goerr.Wrap(err, "failed to get assignment", goerr.V("caseID", caseID))
			}

			a, err := docToAssignment(doc)
			if err != nil {
				return goerr.Wrap(err, "failed to unmarshal assignment", goerr.V("caseID", caseID))
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
			docs = append(docs, toAssignmentDoc(a))
		}

		for _, d := range docs {
			if err := tx.Set(r.collection().Doc(d.CaseID), d); err != nil {
				return goerr.Wrap(err, "failed to update assignment", goerr.V("caseID", d.CaseID))
			}
		}

		return nil
	})
	if err != nil {
		return goerr.Wrap(err, "failed to mark assignments processed",
			goerr.V("articleID", articleID), goerr.V("count", len(caseIDs)))
	}

	return nil
}
