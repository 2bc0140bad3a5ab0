package usecase

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// overfetchFactor widens the index query beyond topK so that threshold
// filtering and case-level deduplication still leave enough results.
const overfetchFactor = 2

// Search embeds the query text, fetches nearest neighbors from the vector
// index and returns the ranked, deduplicated top results. Read only; safe
// to call while a sync run is in progress.
func (uc *UseCases) Search(ctx context.Context, query string, topK int) ([]*model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, goerr.Wrap(ErrEmptyQuery, "invalid search request")
	}
	if topK <= 0 {
		return nil, goerr.Wrap(ErrInvalidTopK, "invalid search request", goerr.V("topK", topK))
	}

	embedding, err := uc.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to embed query")
	}

	matches, err := uc.repo.Vector().Query(ctx, embedding, topK*overfetchFactor)
	if err != nil {
		return nil, goerr.Wrap(err, "vector query failed")
	}

	results := uc.engine.Rank(ctx, matches)
	if len(results) > topK {
		results = results[:topK]
	}

	return results, nil
}
