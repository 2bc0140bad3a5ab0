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

// vectorDoc is the Firestore document representation of model.VectorRecord.
// Distance is only populated by FindNearest via DistanceResultField.
type vectorDoc struct {
	ID         string             `firestore:"ID"`
	Embedding  firestore.Vector32 `firestore:"Embedding"`
	EntityType string             `firestore:"EntityType"`
	CategoryID string             `firestore:"CategoryID"`
	CaseIDs    []string           `firestore:"CaseIDs"`
	Status     string             `firestore:"Status"`
	Timestamp  time.Time          `firestore:"Timestamp"`
	UpdatedAt  time.Time          `firestore:"UpdatedAt"`
	Distance   float64            `firestore:"vector_distance"`
}

func toVectorDoc(rec *model.VectorRecord) *vectorDoc {
	doc := &vectorDoc{
		ID:         rec.ID,
		Embedding:  firestore.Vector32(rec.Embedding),
		EntityType: string(rec.EntityType),
		CategoryID: string(rec.CategoryID),
		Status:     string(rec.Status),
		Timestamp:  rec.Timestamp,
		UpdatedAt:  rec.UpdatedAt,
	}
	doc.CaseIDs = make([]string, len(rec.CaseIDs))
	for i, id := range rec.CaseIDs {
		doc.CaseIDs[i] = string(id)
	}
	return doc
}

func fromVectorDoc(d *vectorDoc) *model.VectorRecord {
	rec := &model.VectorRecord{
		ID:         d.ID,
		EntityType: types.EntityType(d.EntityType),
		CategoryID: types.CategoryID(d.CategoryID),
		Status:     types.CaseStatus(d.Status),
		Timestamp:  d.Timestamp,
		UpdatedAt:  d.UpdatedAt,
	}
	if len(d.Embedding) > 0 {
		rec.Embedding = []float32(d.Embedding)
	}
	rec.CaseIDs = make([]model.CaseID, len(d.CaseIDs))
	for i, id := range d.CaseIDs {
		rec.CaseIDs[i] = model.CaseID(id)
	}
	return rec
}

type vectorIndex struct {
	client           *firestore.Client
	collectionPrefix string
}

func newVectorIndex(client *firestore.Client) *vectorIndex {
	return &vectorIndex{
		client: client,
	}
}

func (x *vectorIndex) collection() *firestore.CollectionRef {
	return x.client.Collection(x.collectionPrefix + "vectors")
}

func (x *vectorIndex) Upsert(ctx context.Context, record *model.VectorRecord) error {
	if record.ID == "" {
		return goerr.New("vector record ID is required", goerr.T(model.TagPermanent))
	}
	if len(record.Embedding) == 0 {
		return goerr.New("vector record embedding is empty", goerr.T(model.TagPermanent), goerr.V("id", record.ID))
	}

	stored := *record
	stored.UpdatedAt = time.Now().UTC()

	docRef := x.collection().Doc(stored.ID)
	if _, err := docRef.Set(ctx, toVectorDoc(&stored)); err != nil {
		return goerr.Wrap(err, "failed to upsert vector record", goerr.V("id", record.ID))
	}

	return nil
}

func (x *vectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]*model.Match, error) {
	if len(embedding) == 0 {
		return nil, goerr.New("query embedding is empty", goerr.T(model.TagPermanent))
	}
	if k <= 0 {
		return nil, goerr.New("k must be positive", goerr.T(model.TagPermanent), goerr.V("k", k))
	}

	vq := x.collection().FindNearest("Embedding",
		firestore.Vector32(embedding), k,
		firestore.DistanceMeasureCosine,
		&firestore.FindNearestOptions{
			DistanceResultField: "vector_distance",
		})

	iter := vq.Documents(ctx)
	defer iter.Stop()

	matches := make([]*model.Match, 0, k)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate vector search results")
		}

		var d vectorDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, goerr.Wrap(err, "failed to unmarshal vector record")
		}

		matches = append(matches, &model.Match{
			Record:   *fromVectorDoc(&d),
			Distance: d.Distance,
		})
	}

	return matches, nil
}

func (x *vectorIndex) Delete(ctx context.Context, id string) error {
	docRef := x.collection().Doc(id)

	_, err := docRef.Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return goerr.Wrap(ErrNotFound, "vector record not found", goerr.V("id", id))
		}
		return goerr.Wrap(err, "failed to get vector record", goerr.V("id", id))
	}

	if _, err := docRef.Delete(ctx); err != nil {
		return goerr.Wrap(err, "failed to delete vector record", goerr.V("id", id))
	}

	return nil
}
