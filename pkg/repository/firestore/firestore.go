package firestore

import (
	"context"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
)

type Firestore struct {
	client      *firestore.Client
	cases       *caseRepository
	assignments *assignmentRepository
	articles    *articleRepository
	cursor      *cursorRepository
	vectors     *vectorIndex
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.cases.collectionPrefix = prefix
		f.assignments.collectionPrefix = prefix
		f.articles.collectionPrefix = prefix
		f.cursor.collectionPrefix = prefix
		f.vectors.collectionPrefix = prefix
	}
}

func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	var client *firestore.Client
	var err error
	if databaseID != "" {
		client, err = firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	} else {
		client, err = firestore.NewClient(ctx, projectID)
	}
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client", goerr.V("projectID", projectID))
	}

	f := &Firestore{
		client:      client,
		cases:       newCaseRepository(client),
		assignments: newAssignmentRepository(client),
		articles:    newArticleRepository(client),
		cursor:      newCursorRepository(client),
		vectors:     newVectorIndex(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) Case() interfaces.CaseRepository {
	return f.cases
}

func (f *Firestore) Assignment() interfaces.AssignmentRepository {
	return f.assignments
}

func (f *Firestore) Article() interfaces.ArticleRepository {
	return f.articles
}

func (f *Firestore) Cursor() interfaces.CursorRepository {
	return f.cursor
}

func (f *Firestore) Vector() interfaces.VectorIndex {
	return f.vectors
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}
