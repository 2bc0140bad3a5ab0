package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/repository/memory"
)

func TestCaseRepository(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("put and get round-trip", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Case().Put(ctx, &model.Case{
			ID:      "case-1",
			Subject: "disk failure",
			Status:  types.CaseStatusResolved,
		})
		gt.NoError(t, err).Required()

		got, err := repo.Case().Get(ctx, "case-1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Subject).Equal("disk failure")
	})

	t.Run("get missing case returns not found", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Case().Get(ctx, "nope")
		gt.B(t, errors.Is(err, memory.ErrNotFound)).True()
	})

	t.Run("list since is exclusive, ascending and capped", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 5; i++ {
			_, err := repo.Case().Put(ctx, &model.Case{
				ID:        model.CaseID(fmt.Sprintf("case-%d", i)),
				Subject:   "x",
				CreatedAt: base.Add(time.Duration(i) * time.Hour),
			})
			gt.NoError(t, err).Required()
		}

		// since equals case-1's creation time, so case-1 itself is excluded
		cases, err := repo.Case().ListSince(ctx, base.Add(time.Hour), 2)
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(2)
		gt.Value(t, cases[0].ID).Equal(model.CaseID("case-2"))
		gt.Value(t, cases[1].ID).Equal(model.CaseID("case-3"))
	})

	t.Run("get batch skips unknown IDs", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Case().Put(ctx, &model.Case{ID: "case-1", Subject: "x"})
		gt.NoError(t, err).Required()

		cases, err := repo.Case().GetBatch(ctx, []model.CaseID{"case-1", "ghost"})
		gt.NoError(t, err).Required()
		gt.Array(t, cases).Length(1)
	})

	t.Run("stored cases are isolated from caller mutation", func(t *testing.T) {
		repo := memory.New()
		c := &model.Case{ID: "case-1", Subject: "original"}
		_, err := repo.Case().Put(ctx, c)
		gt.NoError(t, err).Required()

		c.Subject = "mutated"
		got, err := repo.Case().Get(ctx, "case-1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.Subject).Equal("original")
	})
}

func TestAssignmentRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("re-classification preserves attribution", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID:     "case-1",
			CategoryID: "memory_issues",
		})).Required()
		gt.NoError(t, repo.Assignment().MarkProcessed(ctx,
			[]model.CaseID{"case-1"}, "memory_issues", "article-1")).Required()

		// Re-classify the same case without an article reference
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID:     "case-1",
			CategoryID: "memory_issues",
			Matches:    2,
		})).Required()

		got, err := repo.Assignment().Get(ctx, "case-1")
		gt.NoError(t, err).Required()
		gt.Value(t, got.ArticleID).Equal(model.ArticleID("article-1"))
		gt.Number(t, got.Matches).Equal(2)
	})

	t.Run("count excludes uncategorized and processed", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID: "case-1", CategoryID: "memory_issues",
		})).Required()
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID: "case-2", CategoryID: "memory_issues",
		})).Required()
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID: "case-3", CategoryID: types.Uncategorized,
		})).Required()
		gt.NoError(t, repo.Assignment().MarkProcessed(ctx,
			[]model.CaseID{"case-2"}, "memory_issues", "article-1")).Required()

		counts, err := repo.Assignment().CountUnprocessed(ctx)
		gt.NoError(t, err).Required()
		gt.Number(t, counts["memory_issues"]).Equal(1)
		gt.Number(t, counts[types.Uncategorized]).Equal(0)
	})

	t.Run("unprocessed listing is newest first", func(t *testing.T) {
		repo := memory.New()
		base := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
		for i := 0; i < 3; i++ {
			gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
				CaseID:     model.CaseID(fmt.Sprintf("case-%d", i)),
				CategoryID: "boot_failures",
				CaseAt:     base.Add(time.Duration(i) * time.Hour),
			})).Required()
		}

		list, err := repo.Assignment().ListUnprocessed(ctx, "boot_failures")
		gt.NoError(t, err).Required()
		gt.Array(t, list).Length(3)
		gt.Value(t, list[0].CaseID).Equal(model.CaseID("case-2"))
		gt.Value(t, list[2].CaseID).Equal(model.CaseID("case-0"))
	})

	t.Run("mark processed rejects category mismatch", func(t *testing.T) {
		repo := memory.New()
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID: "case-1", CategoryID: "memory_issues",
		})).Required()

		err := repo.Assignment().MarkProcessed(ctx,
			[]model.CaseID{"case-1"}, "boot_failures", "article-1")
		gt.Value(t, err).NotNil()
	})
}

func TestArticleRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("create assigns pending vector status", func(t *testing.T) {
		repo := memory.New()
		created, err := repo.Article().Create(ctx, &model.Article{
			ID:         model.NewArticleID(),
			Title:      "guide",
			CategoryID: "memory_issues",
		})
		gt.NoError(t, err).Required()
		gt.Value(t, created.VectorStatus).Equal(types.VectorStatusPending)
	})

	t.Run("vector status transition and filtered listing", func(t *testing.T) {
		repo := memory.New()
		created, err := repo.Article().Create(ctx, &model.Article{
			ID: model.NewArticleID(), Title: "guide", CategoryID: "memory_issues",
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Article().UpdateVectorStatus(ctx,
			created.ID, types.VectorStatusVectorized)).Required()

		pending, err := repo.Article().ListByVectorStatus(ctx, types.VectorStatusPending)
		gt.NoError(t, err).Required()
		gt.Array(t, pending).Length(0)

		done, err := repo.Article().ListByVectorStatus(ctx, types.VectorStatusVectorized)
		gt.NoError(t, err).Required()
		gt.Array(t, done).Length(1)
	})

	t.Run("pagination reports the total count", func(t *testing.T) {
		repo := memory.New()
		for i := 0; i < 5; i++ {
			_, err := repo.Article().Create(ctx, &model.Article{
				ID: model.NewArticleID(), Title: fmt.Sprintf("guide-%d", i),
			})
			gt.NoError(t, err).Required()
		}

		page, total, err := repo.Article().ListWithPagination(ctx, 2, 0)
		gt.NoError(t, err).Required()
		gt.Array(t, page).Length(2)
		gt.Number(t, total).Equal(5)
	})

	t.Run("delete removes the article", func(t *testing.T) {
		repo := memory.New()
		created, err := repo.Article().Create(ctx, &model.Article{
			ID: model.NewArticleID(), Title: "guide",
		})
		gt.NoError(t, err).Required()

		gt.NoError(t, repo.Article().Delete(ctx, created.ID)).Required()
		_, err = repo.Article().Get(ctx, created.ID)
		gt.B(t, errors.Is(err, memory.ErrNotFound)).True()
	})
}

func TestCursorRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("missing cursor reads as zero value", func(t *testing.T) {
		repo := memory.New()
		cursor, err := repo.Cursor().Get(ctx)
		gt.NoError(t, err).Required()
		gt.B(t, cursor.LastProcessed.IsZero()).True()
	})

	t.Run("put and get round-trip", func(t *testing.T) {
		repo := memory.New()
		ts := time.Date(2026, 7, 15, 0, 0, 0, 0, time.UTC)
		gt.NoError(t, repo.Cursor().Put(ctx, &model.SyncCursor{LastProcessed: ts})).Required()

		cursor, err := repo.Cursor().Get(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, cursor.LastProcessed).Equal(ts)
	})
}

func TestVectorIndex(t *testing.T) {
	ctx := context.Background()

	put := func(t *testing.T, repo *memory.Memory, id string, v []float32) {
		t.Helper()
		gt.NoError(t, repo.Vector().Upsert(ctx, &model.VectorRecord{
			ID:         id,
			Embedding:  v,
			EntityType: types.EntityTypeCase,
		})).Required()
	}

	t.Run("query returns nearest records by cosine distance", func(t *testing.T) {
		repo := memory.New()
		put(t, repo, "same", []float32{1, 0, 0})
		put(t, repo, "close", []float32{1, 0.2, 0})
		put(t, repo, "orthogonal", []float32{0, 1, 0})

		matches, err := repo.Vector().Query(ctx, []float32{1, 0, 0}, 2)
		gt.NoError(t, err).Required()
		gt.Array(t, matches).Length(2)
		gt.Value(t, matches[0].Record.ID).Equal("same")
		gt.Number(t, matches[0].Distance).Equal(0.0)
		gt.Value(t, matches[1].Record.ID).Equal("close")
		gt.B(t, matches[1].Distance > 0).True()
	})

	t.Run("identical vectors tie-break by record ID", func(t *testing.T) {
		repo := memory.New()
		put(t, repo, "bbb", []float32{1, 0})
		put(t, repo, "aaa", []float32{1, 0})

		matches, err := repo.Vector().Query(ctx, []float32{1, 0}, 10)
		gt.NoError(t, err).Required()
		gt.Value(t, matches[0].Record.ID).Equal("aaa")
	})

	t.Run("dimension mismatch is an error", func(t *testing.T) {
		repo := memory.New()
		put(t, repo, "rec", []float32{1, 0, 0})

		_, err := repo.Vector().Query(ctx, []float32{1, 0}, 1)
		gt.Value(t, err).NotNil()
	})

	t.Run("upsert replaces an existing record", func(t *testing.T) {
		repo := memory.New()
		put(t, repo, "rec", []float32{1, 0})
		put(t, repo, "rec", []float32{0, 1})

		matches, err := repo.Vector().Query(ctx, []float32{0, 1}, 1)
		gt.NoError(t, err).Required()
		gt.Value(t, matches[0].Record.ID).Equal("rec")
		gt.Number(t, matches[0].Distance).Equal(0.0)
	})

	t.Run("delete removes the record", func(t *testing.T) {
		repo := memory.New()
		put(t, repo, "rec", []float32{1, 0})
		gt.NoError(t, repo.Vector().Delete(ctx, "rec")).Required()

		matches, err := repo.Vector().Query(ctx, []float32{1, 0}, 1)
		gt.NoError(t, err).Required()
		gt.Array(t, matches).Length(0)
	})
}

func TestPermanentErrors(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()

	t.Run("not-found carries the permanent tag", func(t *testing.T) {
		_, err := repo.Case().Get(ctx, "absent")
		gt.B(t, goerr.HasTag(err, model.TagPermanent)).True()
	})

	t.Run("category mismatch carries the permanent tag", func(t *testing.T) {
		gt.NoError(t, repo.Assignment().Put(ctx, &model.Assignment{
			CaseID:     "case-1",
			CategoryID: "memory_issues",
		})).Required()

		err := repo.Assignment().MarkProcessed(ctx,
			[]model.CaseID{"case-1"}, "boot_failures", "art-1")
		gt.B(t, goerr.HasTag(err, model.TagPermanent)).True()
	})

	t.Run("dimension mismatch carries the permanent tag", func(t *testing.T) {
		gt.NoError(t, repo.Vector().Upsert(ctx, &model.VectorRecord{
			ID:        "vec-1",
			Embedding: []float32{1, 0, 0},
		})).Required()

		_, err := repo.Vector().Query(ctx, []float32{1, 0}, 1)
		gt.B(t, goerr.HasTag(err, model.TagPermanent)).True()
	})
}
