package pattern

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
)

// Detector buckets cases into issue categories by keyword matching.
// The category table is immutable after construction; classification of an
// unmodified case is fully deterministic.
type Detector struct {
	categories []model.Category
}

// New creates a detector from the given category table. Priority for
// tie-breaking follows the slice order (first declared wins).
func New(categories []model.Category) (*Detector, error) {
	if len(categories) == 0 {
		return nil, goerr.New("at least one category is required")
	}

	seen := make(map[types.CategoryID]bool, len(categories))
	owned := make([]model.Category, len(categories))
	for i, cat := range categories {
		if err := cat.Validate(); err != nil {
			return nil, goerr.Wrap(err, "invalid category", goerr.V("index", i))
		}
		if seen[cat.ID] {
			return nil, goerr.New("duplicate category ID", goerr.V("id", cat.ID))
		}
		seen[cat.ID] = true

		owned[i] = cat
		owned[i].Priority = i
	}

	return &Detector{categories: owned}, nil
}

// Categories returns the detector's category table in priority order
func (d *Detector) Categories() []model.Category {
	return d.categories
}

// Classify assigns a case to at most one category. A case matching no
// keyword set is assigned types.Uncategorized; it is kept for potential
// re-classification but never counts toward generation thresholds.
//
// When multiple categories match, the one with the most matching keywords
// wins; remaining ties fall back to declaration order.
func (d *Detector) Classify(c *model.Case) *model.Assignment {
	text := c.SearchableText()

	best := -1
	bestMatches := 0
	for i, cat := range d.categories {
		n := cat.MatchCount(text)
		if n > bestMatches {
			best = i
			bestMatches = n
		}
	}

	assignment := &model.Assignment{
		CaseID:     c.ID,
		CategoryID: types.Uncategorized,
		CaseAt:     c.CreatedAt,
	}
	if best >= 0 {
		assignment.CategoryID = d.categories[best].ID
		assignment.Matches = bestMatches
	}

	return assignment
}

// ClassifyBatch classifies a batch of cases, skipping invalid records.
// Validation failures never fail the batch; they are logged and counted.
func (d *Detector) ClassifyBatch(ctx context.Context, cases []*model.Case) (assignments []*model.Assignment, skipped int) {
	assignments = make([]*model.Assignment, 0, len(cases))

	for _, c := range cases {
		if err := c.Validate(); err != nil {
			logging.From(ctx).Warn("skipping invalid case", "caseID", c.ID, "error", err)
			skipped++
			continue
		}
		assignments = append(assignments, d.Classify(c))
	}

	return assignments, skipped
}
