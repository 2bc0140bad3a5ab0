package article_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/article"
)

var testCategory = model.Category{
	ID:       "memory_issues",
	Name:     "Memory Issues",
	Keywords: []string{"memory", "dimm", "ram"},
}

func makeCases(n int) []*model.Case {
	cases := make([]*model.Case, n)
	for i := 0; i < n; i++ {
		cases[i] = &model.Case{
			ID:         model.CaseID(fmt.Sprintf("case-%03d", i)),
			Subject:    "Memory error on ProLiant",
			Issue:      "DIMM failure detected during POST",
			Resolution: "Replace faulty DIMM module",
			Product:    "HPE ProLiant DL380",
			CreatedAt:  time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(-i) * time.Hour),
		}
	}
	return cases
}

func TestGeneratorThreshold(t *testing.T) {
	gen := article.New()

	t.Run("below threshold is rejected", func(t *testing.T) {
		_, err := gen.Generate(testCategory, makeCases(4))
		gt.B(t, errors.Is(err, article.ErrInsufficientCases)).True()
	})

	t.Run("exactly at threshold generates", func(t *testing.T) {
		art, err := gen.Generate(testCategory, makeCases(5))
		gt.NoError(t, err).Required()
		gt.Array(t, art.CaseIDs).Length(5)
	})

	t.Run("custom threshold is honored", func(t *testing.T) {
		gen := article.New(article.WithThreshold(3))
		art, err := gen.Generate(testCategory, makeCases(3))
		gt.NoError(t, err).Required()
		gt.Array(t, art.CaseIDs).Length(3)
	})
}

func TestGeneratorCaseCap(t *testing.T) {
	t.Run("most recent cases are kept when over the cap", func(t *testing.T) {
		gen := article.New(article.WithMaxCases(10))
		cases := makeCases(30) // newest first

		art, err := gen.Generate(testCategory, cases)
		gt.NoError(t, err).Required()

		gt.Array(t, art.CaseIDs).Length(10)
		for i := 0; i < 10; i++ {
			gt.Value(t, art.CaseIDs[i]).Equal(cases[i].ID)
		}
	})
}

func TestGeneratorContent(t *testing.T) {
	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	gen := article.New(article.WithClock(func() time.Time { return now }))

	t.Run("title names the category and case count", func(t *testing.T) {
		art, err := gen.Generate(testCategory, makeCases(7))
		gt.NoError(t, err).Required()
		gt.Value(t, art.Title).Equal("Memory Issues Troubleshooting Guide (Based on 7 Cases)")
	})

	t.Run("resolutions are ordered by frequency", func(t *testing.T) {
		cases := makeCases(6)
		cases[0].Resolution = "Update BIOS"
		cases[1].Resolution = "Replace faulty DIMM module"
		// remaining four keep the default resolution

		art, err := gen.Generate(testCategory, cases)
		gt.NoError(t, err).Required()

		gt.Array(t, art.Sections.Resolutions).Length(2)
		gt.Value(t, art.Sections.Resolutions[0]).Equal("Replace faulty DIMM module")
		gt.Value(t, art.Sections.Resolutions[1]).Equal("Update BIOS")
	})

	t.Run("products are collected without duplicates", func(t *testing.T) {
		cases := makeCases(5)
		cases[2].Product = "HPE ProLiant DL360"

		art, err := gen.Generate(testCategory, cases)
		gt.NoError(t, err).Required()

		gt.Array(t, art.Sections.Products).Length(2)
		gt.Value(t, art.Sections.Products[0]).Equal("HPE ProLiant DL380")
		gt.Value(t, art.Sections.Products[1]).Equal("HPE ProLiant DL360")
	})

	t.Run("resolution type reflects the dominant fix", func(t *testing.T) {
		art, err := gen.Generate(testCategory, makeCases(5))
		gt.NoError(t, err).Required()
		gt.Value(t, art.ResolutionType).Equal("Hardware Replacement")

		cases := makeCases(5)
		for _, c := range cases {
			c.Resolution = "Restart the management controller"
		}
		art, err = gen.Generate(testCategory, cases)
		gt.NoError(t, err).Required()
		gt.Value(t, art.ResolutionType).Equal("System Restart")
	})

	t.Run("generated metadata is populated", func(t *testing.T) {
		art, err := gen.Generate(testCategory, makeCases(5))
		gt.NoError(t, err).Required()

		gt.Value(t, art.CategoryID).Equal(testCategory.ID)
		gt.Value(t, art.GeneratedAt).Equal(now)
		gt.B(t, art.ID != "").True()
		gt.B(t, art.Summary != "").True()
		gt.B(t, len(art.Sections.Diagnostics) > 0).True()
	})

	t.Run("same input yields same content apart from the ID", func(t *testing.T) {
		a, err := gen.Generate(testCategory, makeCases(5))
		gt.NoError(t, err).Required()
		b, err := gen.Generate(testCategory, makeCases(5))
		gt.NoError(t, err).Required()

		gt.Value(t, a.Title).Equal(b.Title)
		gt.Value(t, a.Sections).Equal(b.Sections)
		gt.Value(t, a.CaseIDs).Equal(b.CaseIDs)
	})
}

func TestArticleText(t *testing.T) {
	gen := article.New()
	art, err := gen.Generate(testCategory, makeCases(5))
	gt.NoError(t, err).Required()

	text := article.Text(art)
	gt.B(t, len(text) > 0).True()
	gt.S(t, text).Contains(art.Title)
	gt.S(t, text).Contains("Replace faulty DIMM module")
}
