package pattern_test

import (
	"context"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/pattern"
)

func newDetector(t *testing.T) *pattern.Detector {
	t.Helper()
	d, err := pattern.New(model.DefaultCategories())
	gt.NoError(t, err).Required()
	return d
}

func TestDetectorNew(t *testing.T) {
	t.Run("empty category table is rejected", func(t *testing.T) {
		_, err := pattern.New(nil)
		gt.Value(t, err).NotNil()
	})

	t.Run("duplicate category IDs are rejected", func(t *testing.T) {
		_, err := pattern.New([]model.Category{
			{ID: "memory_issues", Name: "Memory Issues", Keywords: []string{"memory"}},
			{ID: "memory_issues", Name: "Memory Again", Keywords: []string{"ram"}},
		})
		gt.Value(t, err).NotNil()
	})

	t.Run("priority follows declaration order", func(t *testing.T) {
		d, err := pattern.New([]model.Category{
			{ID: "second_declared", Name: "Second", Keywords: []string{"b"}, Priority: 99},
			{ID: "first_declared", Name: "First", Keywords: []string{"a"}, Priority: 0},
		})
		gt.NoError(t, err).Required()

		cats := d.Categories()
		gt.Number(t, cats[0].Priority).Equal(0)
		gt.Number(t, cats[1].Priority).Equal(1)
	})
}

func TestDetectorClassify(t *testing.T) {
	detector := newDetector(t)

	t.Run("most keyword matches wins", func(t *testing.T) {
		// "processor" and "thermal" both hit processor_errors while
		// thermal_issues has no keyword in this text.
		a := detector.Classify(&model.Case{
			ID:      "case-1",
			Subject: "Processor thermal alert",
			Issue:   "CPU temperature exceeds limit",
		})
		gt.Value(t, a.CategoryID).Equal(types.CategoryID("processor_errors"))
		gt.Number(t, a.Matches).Equal(3)
	})

	t.Run("keyword count ties break by declaration order", func(t *testing.T) {
		// One keyword each: "network" and "power"; network_issues is
		// declared before power_supply_issues.
		a := detector.Classify(&model.Case{
			ID:      "case-2",
			Subject: "network card power event",
		})
		gt.Value(t, a.CategoryID).Equal(types.CategoryID("network_issues"))
	})

	t.Run("no keyword match yields uncategorized", func(t *testing.T) {
		a := detector.Classify(&model.Case{
			ID:      "case-3",
			Subject: "license renewal question",
			Issue:   "customer asks about support entitlement",
		})
		gt.Value(t, a.CategoryID).Equal(types.Uncategorized)
		gt.Number(t, a.Matches).Equal(0)
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		a := detector.Classify(&model.Case{
			ID:      "case-4",
			Subject: "RAID CONTROLLER degraded",
		})
		gt.Value(t, a.CategoryID).Equal(types.CategoryID("raid_controller_issues"))
	})

	t.Run("classification is deterministic", func(t *testing.T) {
		c := &model.Case{ID: "case-5", Subject: "DIMM error on boot"}
		first := detector.Classify(c)
		for i := 0; i < 10; i++ {
			gt.Value(t, detector.Classify(c).CategoryID).Equal(first.CategoryID)
		}
	})

	t.Run("assignment carries the case creation time", func(t *testing.T) {
		created := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
		a := detector.Classify(&model.Case{
			ID:        "case-6",
			Subject:   "fan failure",
			CreatedAt: created,
		})
		gt.Value(t, a.CaseAt).Equal(created)
	})
}

func TestDetectorClassifyBatch(t *testing.T) {
	detector := newDetector(t)
	ctx := context.Background()

	t.Run("invalid cases are skipped, valid ones classified", func(t *testing.T) {
		assignments, skipped := detector.ClassifyBatch(ctx, []*model.Case{
			{ID: "ok-1", Subject: "bios update failed", Status: types.CaseStatusOpen},
			{ID: "", Subject: "missing id"},
			{ID: "ok-2", Subject: "disk failure", Status: types.CaseStatusResolved},
			{ID: "no-text", Subject: "   ", Issue: ""},
		})

		gt.Number(t, skipped).Equal(2)
		gt.Array(t, assignments).Length(2)
		gt.Value(t, assignments[0].CaseID).Equal(model.CaseID("ok-1"))
		gt.Value(t, assignments[1].CaseID).Equal(model.CaseID("ok-2"))
	})

	t.Run("empty batch yields no assignments", func(t *testing.T) {
		assignments, skipped := detector.ClassifyBatch(ctx, nil)
		gt.Array(t, assignments).Length(0)
		gt.Number(t, skipped).Equal(0)
	})
}
