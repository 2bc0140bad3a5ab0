package usecase

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/article"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"golang.org/x/sync/errgroup"
)

// syncRun carries the mutable state of one pipeline run. Counters touched
// by the vectorize stage are atomic because that stage is concurrent.
type syncRun struct {
	force       bool
	report      *model.RunReport
	cases       []*model.Case
	assignments []*model.Assignment
	retries     atomic.Int64
	vectors     atomic.Int64
}

// RunSync executes one pipeline run: fetch new cases, categorize them,
// generate articles for categories over the threshold, then vectorize the
// batch and any pending articles. The cursor advances only when every stage
// succeeded, so a failed batch is re-fetched next run (at-least-once).
//
// Runs are single-flight. A concurrent trigger gets a BUSY report and
// ErrSyncRunning without waiting; the in-flight run is unaffected.
//
// force additionally re-queues stale articles for re-vectorization. It never
// bypasses the single-flight lock.
func (uc *UseCases) RunSync(ctx context.Context, force bool) (*model.RunReport, error) {
	if !uc.runMu.TryLock() {
		return &model.RunReport{
			Status:    types.RunStatusBusy,
			StartedAt: time.Now().UTC(),
		}, ErrSyncRunning
	}
	defer uc.runMu.Unlock()

	startedAt := time.Now().UTC()
	run := &syncRun{
		force:  force,
		report: &model.RunReport{StartedAt: startedAt},
	}

	logging.From(ctx).Info("sync run starting", "force", force)

	err := uc.execute(ctx, run)

	report := run.report
	report.Retries = int(run.retries.Load())
	report.VectorsWritten = int(run.vectors.Load())
	report.Duration = time.Since(startedAt)

	if err != nil {
		report.Err = err.Error()
		if report.CasesCategorized > 0 || report.ArticlesGenerated > 0 || report.VectorsWritten > 0 {
			report.Status = types.RunStatusPartial
		} else {
			report.Status = types.RunStatusFailed
		}
		uc.setState(types.SyncStateError)
		uc.setLastReport(report)
		return report, goerr.Wrap(err, "sync run failed", goerr.V("status", report.Status))
	}

	report.Status = types.RunStatusSuccess
	uc.setState(types.SyncStateIdle)
	uc.setLastReport(report)

	logging.From(ctx).Info("sync run finished",
		"fetched", report.CasesFetched,
		"categorized", report.CasesCategorized,
		"skipped", report.CasesSkipped,
		"articles", report.ArticlesGenerated,
		"stale", report.ArticlesStale,
		"vectors", report.VectorsWritten,
		"retries", report.Retries,
		"duration", report.Duration.String())

	return report, nil
}

func (uc *UseCases) execute(ctx context.Context, run *syncRun) error {
	if err := uc.fetch(ctx, run); err != nil {
		return err
	}
	if err := uc.categorize(ctx, run); err != nil {
		return err
	}
	if err := uc.generate(ctx, run); err != nil {
		return err
	}
	if err := uc.vectorize(ctx, run); err != nil {
		return err
	}
	return uc.commit(ctx, run)
}

// fetch loads the batch of cases created after the cursor watermark
func (uc *UseCases) fetch(ctx context.Context, run *syncRun) error {
	uc.setState(types.SyncStateFetching)

	var cursor *model.SyncCursor
	if err := uc.retry(ctx, run, func() error {
		var err error
		cursor, err = uc.repo.Cursor().Get(ctx)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to load sync cursor")
	}

	if err := uc.retry(ctx, run, func() error {
		var err error
		run.cases, err = uc.repo.Case().ListSince(ctx, cursor.LastProcessed, uc.batchLimit)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to fetch cases",
			goerr.V("since", cursor.LastProcessed))
	}

	run.report.CasesFetched = len(run.cases)
	return nil
}

// categorize assigns every valid case of the batch to a category and
// persists the assignments. Invalid cases are skipped per record.
func (uc *UseCases) categorize(ctx context.Context, run *syncRun) error {
	uc.setState(types.SyncStateCategorizing)

	assignments, skipped := uc.detector.ClassifyBatch(ctx, run.cases)
	run.report.CasesSkipped = skipped

	for _, a := range assignments {
		if err := uc.retry(ctx, run, func() error {
			return uc.repo.Assignment().Put(ctx, a)
		}); err != nil {
			return goerr.Wrap(err, "failed to store assignment",
				goerr.V("caseID", a.CaseID))
		}
		run.report.CasesCategorized++
	}

	run.assignments = assignments
	return nil
}

// generate produces one article per category whose unprocessed count reached
// the threshold. Counts are recomputed from the store, never carried in
// memory, so a crash between runs cannot skew them.
//
// Categories under the threshold but with enough new cases get their
// existing articles flagged stale instead.
func (uc *UseCases) generate(ctx context.Context, run *syncRun) error {
	uc.setState(types.SyncStateGenerating)

	var counts map[types.CategoryID]int
	if err := uc.retry(ctx, run, func() error {
		var err error
		counts, err = uc.repo.Assignment().CountUnprocessed(ctx)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to count unprocessed cases")
	}

	for _, cat := range uc.detector.Categories() {
		// Checked between categories so cancellation never leaves a
		// category half generated.
		if err := ctx.Err(); err != nil {
			return goerr.Wrap(err, "sync cancelled during generation")
		}

		n := counts[cat.ID]
		switch {
		case n >= uc.generator.Threshold():
			if err := uc.generateForCategory(ctx, run, cat); err != nil {
				return err
			}
		case n >= uc.staleThreshold:
			if err := uc.markStale(ctx, run, cat.ID); err != nil {
				return err
			}
		}
	}

	return nil
}

// generateForCategory creates exactly one article for the category and
// attributes its contributing cases. Create and MarkProcessed form a unit:
// when attribution fails the article is deleted again so the store never
// holds an article whose cases still count as unprocessed.
func (uc *UseCases) generateForCategory(ctx context.Context, run *syncRun, cat model.Category) error {
	var assignments []*model.Assignment
	if err := uc.retry(ctx, run, func() error {
		var err error
		assignments, err = uc.repo.Assignment().ListUnprocessed(ctx, cat.ID)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to list unprocessed cases",
			goerr.V("categoryID", cat.ID))
	}

	ids := make([]model.CaseID, len(assignments))
	for i, a := range assignments {
		ids[i] = a.CaseID
	}

	var cases []*model.Case
	if err := uc.retry(ctx, run, func() error {
		var err error
		cases, err = uc.repo.Case().GetBatch(ctx, ids)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to load contributing cases",
			goerr.V("categoryID", cat.ID))
	}

	// GetBatch gives no order guarantee; restore the newest-first order of
	// the assignments before the generator applies its case cap.
	byID := make(map[model.CaseID]*model.Case, len(cases))
	for _, c := range cases {
		byID[c.ID] = c
	}
	ordered := make([]*model.Case, 0, len(ids))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
		}
	}

	art, err := uc.generator.Generate(cat, ordered)
	if err != nil {
		if errors.Is(err, article.ErrInsufficientCases) {
			// The count raced with another writer; not an error.
			return nil
		}
		return goerr.Wrap(err, "article generation failed",
			goerr.V("categoryID", cat.ID))
	}

	var created *model.Article
	if err := uc.retry(ctx, run, func() error {
		var err error
		created, err = uc.repo.Article().Create(ctx, art)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to store article",
			goerr.V("categoryID", cat.ID))
	}

	if err := uc.retry(ctx, run, func() error {
		return uc.repo.Assignment().MarkProcessed(ctx, art.CaseIDs, cat.ID, created.ID)
	}); err != nil {
		// Attribution can fail because the run context was cancelled. The
		// rollback must still reach the store, so it runs detached; otherwise
		// the orphan article survives while its cases stay unprocessed and
		// the next run would generate a second article over the same cases.
		if delErr := uc.repo.Article().Delete(context.WithoutCancel(ctx), created.ID); delErr != nil {
			logging.From(ctx).Error("failed to roll back article after attribution failure",
				"articleID", created.ID, "error", delErr.Error())
		}
		return goerr.Wrap(err, "failed to attribute cases to article",
			goerr.V("categoryID", cat.ID),
			goerr.V("articleID", created.ID))
	}

	run.report.ArticlesGenerated++
	logging.From(ctx).Info("article generated",
		"categoryID", cat.ID,
		"articleID", created.ID,
		"cases", len(art.CaseIDs))

	return nil
}

// markStale flags the category's vectorized articles as stale. The
// transition is idempotent, already stale articles are left alone.
func (uc *UseCases) markStale(ctx context.Context, run *syncRun, categoryID types.CategoryID) error {
	var articles []*model.Article
	if err := uc.retry(ctx, run, func() error {
		var err error
		articles, err = uc.repo.Article().ListByCategory(ctx, categoryID)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to list category articles",
			goerr.V("categoryID", categoryID))
	}

	for _, a := range articles {
		if a.VectorStatus.Normalize() != types.VectorStatusVectorized {
			continue
		}
		if err := uc.retry(ctx, run, func() error {
			return uc.repo.Article().UpdateVectorStatus(ctx, a.ID, types.VectorStatusStale)
		}); err != nil {
			return goerr.Wrap(err, "failed to mark article stale",
				goerr.V("articleID", a.ID))
		}
		run.report.ArticlesStale++
	}

	return nil
}

// vectorize embeds the batch cases and every pending article, bounded by the
// configured parallelism. Any failure aborts the stage; the cursor then
// stays put and the batch is retried next run.
func (uc *UseCases) vectorize(ctx context.Context, run *syncRun) error {
	uc.setState(types.SyncStateVectorizing)

	var pending []*model.Article
	if err := uc.retry(ctx, run, func() error {
		var err error
		pending, err = uc.repo.Article().ListByVectorStatus(ctx, types.VectorStatusPending)
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to list pending articles")
	}

	if run.force {
		var stale []*model.Article
		if err := uc.retry(ctx, run, func() error {
			var err error
			stale, err = uc.repo.Article().ListByVectorStatus(ctx, types.VectorStatusStale)
			return err
		}); err != nil {
			return goerr.Wrap(err, "failed to list stale articles")
		}
		pending = append(pending, stale...)
	}

	byCase := make(map[model.CaseID]*model.Assignment, len(run.assignments))
	for _, a := range run.assignments {
		byCase[a.CaseID] = a
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.parallelism)

	for _, c := range run.cases {
		a, ok := byCase[c.ID]
		if !ok {
			continue // skipped as invalid during categorization
		}
		g.Go(func() error {
			return uc.vectorizeCase(gctx, run, c, a)
		})
	}

	for _, art := range pending {
		g.Go(func() error {
			return uc.vectorizeArticle(gctx, run, art)
		})
	}

	if err := g.Wait(); err != nil {
		return goerr.Wrap(err, "vectorize stage failed")
	}

	return nil
}

func (uc *UseCases) vectorizeCase(ctx context.Context, run *syncRun, c *model.Case, a *model.Assignment) error {
	var embedding []float32
	if err := uc.retry(ctx, run, func() error {
		var err error
		embedding, err = uc.embedder.Embed(ctx, caseEmbeddingText(c))
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to embed case", goerr.V("caseID", c.ID))
	}

	ts := c.ResolvedAt
	if ts.IsZero() {
		ts = c.CreatedAt
	}

	record := &model.VectorRecord{
		ID:         c.ID.String(),
		Embedding:  embedding,
		EntityType: types.EntityTypeCase,
		CategoryID: a.CategoryID,
		CaseIDs:    []model.CaseID{c.ID},
		Status:     c.Status,
		Timestamp:  ts,
	}

	if err := uc.retry(ctx, run, func() error {
		return uc.repo.Vector().Upsert(ctx, record)
	}); err != nil {
		return goerr.Wrap(err, "failed to index case vector", goerr.V("caseID", c.ID))
	}

	run.vectors.Add(1)
	return nil
}

func (uc *UseCases) vectorizeArticle(ctx context.Context, run *syncRun, art *model.Article) error {
	var embedding []float32
	if err := uc.retry(ctx, run, func() error {
		var err error
		embedding, err = uc.embedder.Embed(ctx, article.Text(art))
		return err
	}); err != nil {
		return goerr.Wrap(err, "failed to embed article", goerr.V("articleID", art.ID))
	}

	record := &model.VectorRecord{
		ID:         art.ID.String(),
		Embedding:  embedding,
		EntityType: types.EntityTypeArticle,
		CategoryID: art.CategoryID,
		CaseIDs:    art.CaseIDs,
		Timestamp:  art.GeneratedAt,
	}

	if err := uc.retry(ctx, run, func() error {
		return uc.repo.Vector().Upsert(ctx, record)
	}); err != nil {
		return goerr.Wrap(err, "failed to index article vector", goerr.V("articleID", art.ID))
	}

	if err := uc.retry(ctx, run, func() error {
		return uc.repo.Article().UpdateVectorStatus(ctx, art.ID, types.VectorStatusVectorized)
	}); err != nil {
		return goerr.Wrap(err, "failed to mark article vectorized", goerr.V("articleID", art.ID))
	}

	run.vectors.Add(1)
	return nil
}

// commit advances the cursor past the processed batch. Reached only when
// every prior stage succeeded.
func (uc *UseCases) commit(ctx context.Context, run *syncRun) error {
	if len(run.cases) == 0 {
		return nil
	}

	// ListSince returns ascending creation order, the last case carries
	// the new watermark.
	cursor := &model.SyncCursor{
		LastProcessed: run.cases[len(run.cases)-1].CreatedAt,
		UpdatedAt:     time.Now().UTC(),
	}

	if err := uc.retry(ctx, run, func() error {
		return uc.repo.Cursor().Put(ctx, cursor)
	}); err != nil {
		return goerr.Wrap(err, "failed to advance sync cursor",
			goerr.V("lastProcessed", cursor.LastProcessed))
	}

	return nil
}

// retry runs op with exponential backoff up to the configured retry budget.
// Errors tagged permanent stop the loop at once; only transient failures are
// retried. Each retry is counted into the run report.
func (uc *UseCases) retry(ctx context.Context, run *syncRun, op func() error) error {
	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(uc.maxRetries)), ctx)
	return backoff.RetryNotify(func() error {
		err := op()
		if err != nil && goerr.HasTag(err, model.TagPermanent) {
			return backoff.Permanent(err)
		}
		return err
	}, bo, func(err error, wait time.Duration) {
		run.retries.Add(1)
		logging.From(ctx).Warn("transient failure, retrying",
			"error", err.Error(),
			"wait", wait.String())
	})
}

// caseEmbeddingText is the flat text a case is embedded from. Resolution
// text is included so resolved cases are findable by fix language too.
func caseEmbeddingText(c *model.Case) string {
	parts := make([]string, 0, 3)
	for _, s := range []string{c.Subject, c.Issue, c.Resolution} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}
