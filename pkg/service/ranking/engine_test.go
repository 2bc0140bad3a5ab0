package ranking_test

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/ranking"
)

func TestNormalize(t *testing.T) {
	ctx := context.Background()

	t.Run("zero distance maps to perfect similarity", func(t *testing.T) {
		gt.Number(t, ranking.Normalize(ctx, 0)).Equal(1.0)
	})

	t.Run("unit distance decays to about 0.368", func(t *testing.T) {
		s := ranking.Normalize(ctx, 1)
		gt.B(t, math.Abs(s-0.3679) < 0.001).True()
	})

	t.Run("negative distance is clamped to zero", func(t *testing.T) {
		gt.Number(t, ranking.Normalize(ctx, -0.5)).Equal(1.0)
	})

	t.Run("score stays within (0, 1] for large distances", func(t *testing.T) {
		for _, d := range []float64{0.1, 1, 5, 50, 1000} {
			s := ranking.Normalize(ctx, d)
			gt.B(t, s > 0 && s <= 1).True()
		}
	})

	t.Run("monotonically decreasing", func(t *testing.T) {
		gt.B(t, ranking.Normalize(ctx, 0.2) > ranking.Normalize(ctx, 0.3)).True()
	})
}

func caseMatch(id string, distance float64, status types.CaseStatus, ts time.Time) *model.Match {
	return &model.Match{
		Record: model.VectorRecord{
			ID:         id,
			EntityType: types.EntityTypeCase,
			CaseIDs:    []model.CaseID{model.CaseID(id)},
			Status:     status,
			Timestamp:  ts,
		},
		Distance: distance,
	}
}

func articleMatch(id string, distance float64, caseIDs []model.CaseID, ts time.Time) *model.Match {
	return &model.Match{
		Record: model.VectorRecord{
			ID:         id,
			EntityType: types.EntityTypeArticle,
			CaseIDs:    caseIDs,
			Timestamp:  ts,
		},
		Distance: distance,
	}
}

func TestEngineRank(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	t.Run("low similarity matches are dropped before ranking", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		// exp(-2) is about 0.135, below the default 0.3 threshold
		results := engine.Rank(ctx, []*model.Match{
			caseMatch("near", 0.1, types.CaseStatusResolved, now),
			caseMatch("far", 2.0, types.CaseStatusResolved, now),
		})

		gt.Array(t, results).Length(1)
		gt.Value(t, results[0].ID).Equal("near")
	})

	t.Run("resolved cases outrank open cases at equal distance", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			caseMatch("open", 0.2, types.CaseStatusOpen, now),
			caseMatch("resolved", 0.2, types.CaseStatusResolved, now),
		})

		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].ID).Equal("resolved")
		gt.B(t, results[0].Relevance > results[1].Relevance).True()
	})

	t.Run("recent cases outrank old cases at equal distance and status", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			caseMatch("old", 0.2, types.CaseStatusResolved, now.Add(-90*24*time.Hour)),
			caseMatch("recent", 0.2, types.CaseStatusResolved, now.Add(-24*time.Hour)),
		})

		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].ID).Equal("recent")
	})

	t.Run("exact ties fall back to ID order", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			caseMatch("bbb", 0.2, types.CaseStatusResolved, now),
			caseMatch("aaa", 0.2, types.CaseStatusResolved, now),
		})

		gt.Array(t, results).Length(2)
		gt.Value(t, results[0].ID).Equal("aaa")
		gt.Value(t, results[1].ID).Equal("bbb")
	})

	t.Run("article citing an already ranked case is deduplicated", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			caseMatch("case-1", 0.05, types.CaseStatusResolved, now),
			articleMatch("article-1", 0.5, []model.CaseID{"case-1", "case-2"}, now),
		})

		gt.Array(t, results).Length(1)
		gt.Value(t, results[0].ID).Equal("case-1")
	})

	t.Run("higher scoring article suppresses its cited cases", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			articleMatch("article-1", 0.05, []model.CaseID{"case-1"}, now),
			caseMatch("case-1", 0.5, types.CaseStatusResolved, now),
		})

		gt.Array(t, results).Length(1)
		gt.Value(t, results[0].ID).Equal("article-1")
	})

	t.Run("ranks are assigned contiguously from 1", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))

		results := engine.Rank(ctx, []*model.Match{
			caseMatch("a", 0.1, types.CaseStatusResolved, now),
			caseMatch("b", 0.2, types.CaseStatusResolved, now),
			caseMatch("c", 0.3, types.CaseStatusResolved, now),
		})

		gt.Array(t, results).Length(3)
		for i, r := range results {
			gt.Number(t, r.Rank).Equal(i + 1)
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		engine := ranking.New(ranking.DefaultConfig(), ranking.WithClock(clock))
		gt.Array(t, engine.Rank(ctx, nil)).Length(0)
	})
}
