package article

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// DefaultThreshold is the minimum number of unprocessed cases a category
// needs before an article is generated.
const DefaultThreshold = 5

// DefaultMaxCases caps the number of contributing cases per article; when a
// category exceeds it, the most recent cases are kept.
const DefaultMaxCases = 25

// ErrInsufficientCases is returned when a category has fewer unprocessed
// cases than the generation threshold. Callers treat it as a no-op signal,
// not a failure.
var ErrInsufficientCases = goerr.New("not enough unprocessed cases for article generation")

const (
	maxSymptoms    = 5
	maxResolutions = 8
	maxProducts    = 10
)

// Generator synthesizes a knowledge article from the unprocessed cases of
// one category.
type Generator struct {
	threshold int
	maxCases  int
	now       func() time.Time
}

// Option is a functional option for Generator configuration
type Option func(*Generator)

// WithThreshold overrides the generation threshold
func WithThreshold(n int) Option {
	return func(g *Generator) {
		g.threshold = n
	}
}

// WithMaxCases overrides the per-article case cap
func WithMaxCases(n int) Option {
	return func(g *Generator) {
		g.maxCases = n
	}
}

// WithClock overrides the generator's clock (for tests)
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates an article generator
func New(opts ...Option) *Generator {
	g := &Generator{
		threshold: DefaultThreshold,
		maxCases:  DefaultMaxCases,
		now:       func() time.Time { return time.Now().UTC() },
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Threshold returns the configured generation threshold
func (g *Generator) Threshold() int {
	return g.threshold
}

// Generate produces exactly one article from the given category and its
// unprocessed cases (expected newest first). The article is NOT persisted
// and the cases are NOT marked processed here; the sync orchestrator owns
// both so that generation stays all-or-nothing per category.
//
// Returns ErrInsufficientCases when fewer than threshold cases are given.
func (g *Generator) Generate(category model.Category, cases []*model.Case) (*model.Article, error) {
	if len(cases) < g.threshold {
		return nil, goerr.Wrap(ErrInsufficientCases, "generation skipped",
			goerr.V("categoryID", category.ID),
			goerr.V("cases", len(cases)),
			goerr.V("threshold", g.threshold))
	}

	if len(cases) > g.maxCases {
		cases = cases[:g.maxCases]
	}

	resolutions := topResolutions(cases)
	sections := model.ArticleSections{
		Symptoms:    topSymptoms(cases),
		Diagnostics: diagnosticSteps(),
		Resolutions: resolutions,
		Products:    affectedProducts(cases),
	}

	caseIDs := make([]model.CaseID, len(cases))
	for i, c := range cases {
		caseIDs[i] = c.ID
	}

	return &model.Article{
		ID:             model.NewArticleID(),
		Title:          fmt.Sprintf("%s Troubleshooting Guide (Based on %d Cases)", category.Name, len(cases)),
		Summary:        buildSummary(category, cases, sections.Products),
		Sections:       sections,
		CategoryID:     category.ID,
		ResolutionType: classifyResolutionType(resolutions),
		CaseIDs:        caseIDs,
		GeneratedAt:    g.now(),
	}, nil
}

// buildSummary assembles the one-paragraph article summary
func buildSummary(category model.Category, cases []*model.Case, products []string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Troubleshooting guide for %s", strings.ToLower(category.Name))
	if len(products) > 0 {
		limit := len(products)
		if limit > 3 {
			limit = 3
		}
		fmt.Fprintf(&sb, " affecting %s", strings.Join(products[:limit], ", "))
	}
	fmt.Fprintf(&sb, ". Compiled from %d resolved customer cases.", len(cases))

	return sb.String()
}

// topSymptoms collects the most frequent distinct issue descriptions
func topSymptoms(cases []*model.Case) []string {
	return topByFrequency(cases, maxSymptoms, func(c *model.Case) string {
		return strings.TrimSpace(c.Issue)
	})
}

// topResolutions collects resolution steps ordered by how often they were
// applied. Resolution text is normalized (trimmed, case-folded for counting)
// so trivially different phrasings of the same fix collapse into one step.
func topResolutions(cases []*model.Case) []string {
	return topByFrequency(cases, maxResolutions, func(c *model.Case) string {
		return strings.TrimSpace(c.Resolution)
	})
}

// topByFrequency counts normalized values across cases and returns the
// original spellings of the top n, most frequent first. Ties preserve the
// order of first appearance so output is deterministic.
func topByFrequency(cases []*model.Case, n int, extract func(*model.Case) string) []string {
	type entry struct {
		text  string
		count int
		first int
	}

	byKey := make(map[string]*entry)
	order := make([]*entry, 0, len(cases))

	for i, c := range cases {
		text := extract(c)
		if text == "" {
			continue
		}
		key := strings.ToLower(text)
		if e, ok := byKey[key]; ok {
			e.count++
			continue
		}
		e := &entry{text: text, count: 1, first: i}
		byKey[key] = e
		order = append(order, e)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return order[i].first < order[j].first
	})

	if len(order) > n {
		order = order[:n]
	}

	result := make([]string, len(order))
	for i, e := range order {
		result[i] = e.text
	}
	return result
}

// diagnosticSteps returns the fixed initial-diagnosis checklist shared by
// all generated articles.
func diagnosticSteps() []string {
	return []string{
		"Verify system power and LED status indicators",
		"Check for any error messages or codes",
		"Review system logs for relevant entries",
	}
}

// affectedProducts extracts distinct product references from the cases
func affectedProducts(cases []*model.Case) []string {
	seen := make(map[string]bool)
	products := make([]string, 0, len(cases))

	for _, c := range cases {
		p := strings.TrimSpace(c.Product)
		if p == "" || seen[strings.ToLower(p)] {
			continue
		}
		seen[strings.ToLower(p)] = true
		products = append(products, p)
		if len(products) >= maxProducts {
			break
		}
	}

	return products
}

// classifyResolutionType labels the article by the dominant kind of fix
func classifyResolutionType(resolutions []string) string {
	text := strings.ToLower(strings.Join(resolutions, " "))

	switch {
	case strings.Contains(text, "replace"):
		return "Hardware Replacement"
	case strings.Contains(text, "firmware") || strings.Contains(text, "update"):
		return "Firmware Update"
	case strings.Contains(text, "restart") || strings.Contains(text, "reboot"):
		return "System Restart"
	case strings.Contains(text, "configure") || strings.Contains(text, "setting"):
		return "Configuration Change"
	default:
		return "General Troubleshooting"
	}
}

// Text renders the article into the flat text that gets embedded. Sections
// are concatenated so the vector captures symptom and resolution language.
func Text(a *model.Article) string {
	var sb strings.Builder

	sb.WriteString(a.Title)
	sb.WriteString("\n")
	sb.WriteString(a.Summary)
	sb.WriteString("\n")

	for _, s := range a.Sections.Symptoms {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	for _, s := range a.Sections.Resolutions {
		sb.WriteString(s)
		sb.WriteString("\n")
	}
	for _, p := range a.Sections.Products {
		sb.WriteString(p)
		sb.WriteString("\n")
	}

	return sb.String()
}
