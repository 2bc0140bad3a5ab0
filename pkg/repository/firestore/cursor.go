package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// cursorDocID is the fixed document ID of the single sync cursor
const cursorDocID = "sync"

type cursorDoc struct {
	LastProcessed time.Time `firestore:"LastProcessed"`
	UpdatedAt     time.Time `firestore:"UpdatedAt"`
}

type cursorRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

func newCursorRepository(client *firestore.Client) *cursorRepository {
	return &cursorRepository{
		client: client,
	}
}

func (r *cursorRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(r.collectionPrefix + "cursors")
}

func (r *cursorRepository) Get(ctx context.Context) (*model.SyncCursor, error) {
	doc, err := r.collection().Doc(cursorDocID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			// First run: fetch from the beginning
			return &model.SyncCursor{}, nil
		}
		return nil, goerr.Wrap(err, "failed to get sync cursor")
	}

	var d cursorDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, goerr.Wrap(err, "failed to unmarshal sync cursor")
	}

	return &model.SyncCursor{
		LastProcessed: d.LastProcessed,
		UpdatedAt:     d.UpdatedAt,
	}, nil
}

func (r *cursorRepository) Put(ctx context.Context, cursor *model.SyncCursor) error {
	d := cursorDoc{
		LastProcessed: cursor.LastProcessed,
		UpdatedAt:     time.Now().UTC(),
	}

	if _, err := r.collection().Doc(cursorDocID).Set(ctx, d); err != nil {
		return goerr.Wrap(err, "failed to put sync cursor")
	}

	return nil
}
