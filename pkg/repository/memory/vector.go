package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// vectorIndex is a brute-force nearest-neighbor index. It reports cosine
// distance (1 - cosine similarity) to match the Firestore backend's
// DistanceMeasureCosine, so both backends feed the normalizer the same metric.
type vectorIndex struct {
	mu      sync.RWMutex
	records map[string]*model.VectorRecord
}

func newVectorIndex() *vectorIndex {
	return &vectorIndex{
		records: make(map[string]*model.VectorRecord),
	}
}

func copyRecord(rec *model.VectorRecord) *model.VectorRecord {
	copied := *rec
	if rec.Embedding != nil {
		copied.Embedding = make([]float32, len(rec.Embedding))
		copy(copied.Embedding, rec.Embedding)
	}
	if rec.CaseIDs != nil {
		copied.CaseIDs = make([]model.CaseID, len(rec.CaseIDs))
		copy(copied.CaseIDs, rec.CaseIDs)
	}
	return &copied
}

func (x *vectorIndex) Upsert(ctx context.Context, record *model.VectorRecord) error {
	if record.ID == "" {
		return goerr.New("vector record ID is required", goerr.T(model.TagPermanent))
	}
	if len(record.Embedding) == 0 {
		return goerr.New("vector record embedding is empty", goerr.T(model.TagPermanent), goerr.V("id", record.ID))
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	stored := copyRecord(record)
	stored.UpdatedAt = time.Now().UTC()
	x.records[stored.ID] = stored
	return nil
}

func (x *vectorIndex) Query(ctx context.Context, embedding []float32, k int) ([]*model.Match, error) {
	if len(embedding) == 0 {
		return nil, goerr.New("query embedding is empty", goerr.T(model.TagPermanent))
	}
	if k <= 0 {
		return nil, goerr.New("k must be positive", goerr.T(model.TagPermanent), goerr.V("k", k))
	}

	x.mu.RLock()
	defer x.mu.RUnlock()

	matches := make([]*model.Match, 0, len(x.records))
	for _, rec := range x.records {
		d, err := cosineDistance(embedding, rec.Embedding)
		if err != nil {
			return nil, goerr.Wrap(err, "incompatible vector record", goerr.V("id", rec.ID))
		}
		matches = append(matches, &model.Match{
			Record:   *copyRecord(rec),
			Distance: d,
		})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance == matches[j].Distance {
			return matches[i].Record.ID < matches[j].Record.ID
		}
		return matches[i].Distance < matches[j].Distance
	})

	if len(matches) > k {
		matches = matches[:k]
	}

	return matches, nil
}

func (x *vectorIndex) Delete(ctx context.Context, id string) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	if _, exists := x.records[id]; !exists {
		return goerr.Wrap(ErrNotFound, "vector record not found", goerr.V("id", id))
	}

	delete(x.records, id)
	return nil
}

func cosineDistance(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, goerr.New("embedding dimension mismatch",
			goerr.T(model.TagPermanent),
			goerr.V("query", len(a)), goerr.V("record", len(b)))
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0, goerr.New("zero-norm embedding", goerr.T(model.TagPermanent))
	}

	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB)), nil
}
