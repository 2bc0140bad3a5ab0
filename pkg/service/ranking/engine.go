package ranking

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// Weights are the coefficients of the composite relevance score.
// They are stable configuration constants; their sum is not required to be 1.
type Weights struct {
	Similarity float64
	Recency    float64
	Quality    float64
}

// Config holds the ranking engine configuration
type Config struct {
	Weights Weights

	// SimilarityThreshold excludes low-similarity matches BEFORE ranking,
	// so noise never influences tie-breaks.
	SimilarityThreshold float64

	// RecencyScale is the time constant of the recency decay exp(-age/scale)
	RecencyScale time.Duration
}

// DefaultConfig returns the documented default ranking configuration:
// similarity-biased weights 0.7/0.15/0.15, threshold 0.3, 30-day decay.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Similarity: 0.7,
			Recency:    0.15,
			Quality:    0.15,
		},
		SimilarityThreshold: 0.3,
		RecencyScale:        30 * 24 * time.Hour,
	}
}

// Resolution-quality constants. Resolved cases carry a confirmed fix,
// closed cases likely do, open cases carry none. Articles are curated
// knowledge and score as resolved.
const (
	qualityResolved = 1.0
	qualityClosed   = 0.7
	qualityOpen     = 0.2
)

// Engine fuses similarity, recency and resolution-quality signals into a
// relevance score and orders matches deterministically.
type Engine struct {
	cfg Config
	now func() time.Time
}

// EngineOption is a functional option for Engine configuration
type EngineOption func(*Engine)

// WithClock overrides the engine's clock (for tests)
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// New creates a ranking engine with the given configuration
func New(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg: cfg,
		now: func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Rank converts raw vector matches into an ordered, deduplicated result list.
//
// Pipeline: normalize distances, drop matches below the similarity threshold,
// score the rest, then deduplicate by underlying case identity (a case hit
// and an article citing the same case keep only the higher-scoring instance)
// and order by relevance descending. Ties are broken by the most recent
// timestamp, then by ID, so the output is stable across runs.
func (e *Engine) Rank(ctx context.Context, matches []*model.Match) []*model.SearchResult {
	now := e.now()

	scored := make([]*model.SearchResult, 0, len(matches))
	for _, m := range matches {
		similarity := Normalize(ctx, m.Distance)
		if similarity < e.cfg.SimilarityThreshold {
			continue
		}

		scored = append(scored, &model.SearchResult{
			ID:         m.Record.ID,
			EntityType: m.Record.EntityType,
			CategoryID: m.Record.CategoryID,
			Distance:   m.Distance,
			Similarity: similarity,
			Relevance:  e.relevance(similarity, m.Record, now),
			Timestamp:  m.Record.Timestamp,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Relevance != scored[j].Relevance {
			return scored[i].Relevance > scored[j].Relevance
		}
		if !scored[i].Timestamp.Equal(scored[j].Timestamp) {
			return scored[i].Timestamp.After(scored[j].Timestamp)
		}
		return scored[i].ID < scored[j].ID
	})

	results := e.dedupe(scored, matches)

	for i, r := range results {
		r.Rank = i + 1
	}

	return results
}

// relevance computes w1*similarity + w2*recency + w3*quality
func (e *Engine) relevance(similarity float64, rec model.VectorRecord, now time.Time) float64 {
	w := e.cfg.Weights
	return w.Similarity*similarity +
		w.Recency*e.recencyBoost(rec.Timestamp, now) +
		w.Quality*resolutionQuality(rec)
}

// recencyBoost decays exponentially with age and is capped at 1.0 by
// construction. A missing timestamp earns no boost.
func (e *Engine) recencyBoost(ts time.Time, now time.Time) float64 {
	if ts.IsZero() {
		return 0
	}
	age := now.Sub(ts)
	if age < 0 {
		age = 0
	}
	return math.Exp(-float64(age) / float64(e.cfg.RecencyScale))
}

func resolutionQuality(rec model.VectorRecord) float64 {
	if rec.EntityType == types.EntityTypeArticle {
		return qualityResolved
	}
	switch rec.Status.Normalize() {
	case types.CaseStatusResolved:
		return qualityResolved
	case types.CaseStatusClosed:
		return qualityClosed
	default:
		return qualityOpen
	}
}

// dedupe drops results whose underlying cases were already claimed by a
// higher-ranked result. A direct case hit claims its own ID; an article hit
// claims every case it cites.
func (e *Engine) dedupe(scored []*model.SearchResult, matches []*model.Match) []*model.SearchResult {
	caseSets := make(map[string][]model.CaseID, len(matches))
	for _, m := range matches {
		switch m.Record.EntityType {
		case types.EntityTypeArticle:
			caseSets[m.Record.ID] = m.Record.CaseIDs
		default:
			caseSets[m.Record.ID] = []model.CaseID{model.CaseID(m.Record.ID)}
		}
	}

	seen := make(map[model.CaseID]struct{})
	results := make([]*model.SearchResult, 0, len(scored))

	for _, r := range scored {
		cases := caseSets[r.ID]
		claimed := false
		for _, id := range cases {
			if _, ok := seen[id]; ok {
				claimed = true
				break
			}
		}
		if claimed {
			continue
		}
		for _, id := range cases {
			seen[id] = struct{}{}
		}
		results = append(results, r)
	}

	return results
}
