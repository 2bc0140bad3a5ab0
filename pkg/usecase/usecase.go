package usecase

import (
	"sync"

	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/service/article"
	"github.com/secmon-lab/mnemosyne/pkg/service/pattern"
	"github.com/secmon-lab/mnemosyne/pkg/service/ranking"
)

const (
	defaultBatchLimit     = 100
	defaultMaxRetries     = 3
	defaultParallelism    = 4
	defaultStaleThreshold = 3
)

// UseCases wires the pipeline services behind the application operations.
// The sync run is single-flight; search and status are safe to call at any
// time, including while a run is in progress.
type UseCases struct {
	repo      interfaces.Repository
	embedder  interfaces.Embedder
	detector  *pattern.Detector
	generator *article.Generator
	engine    *ranking.Engine

	batchLimit     int
	maxRetries     int
	parallelism    int
	staleThreshold int

	// runMu serializes sync runs. Acquired with TryLock so a concurrent
	// trigger is rejected immediately instead of queueing.
	runMu sync.Mutex

	stateMu    sync.RWMutex
	state      types.SyncState
	lastReport *model.RunReport
}

type Option func(*UseCases)

// WithBatchLimit caps the number of cases fetched per sync run
func WithBatchLimit(n int) Option {
	return func(uc *UseCases) {
		uc.batchLimit = n
	}
}

// WithMaxRetries sets the retry budget for transient store and embedder failures
func WithMaxRetries(n int) Option {
	return func(uc *UseCases) {
		uc.maxRetries = n
	}
}

// WithParallelism bounds concurrent embedding calls during the vectorize stage
func WithParallelism(n int) Option {
	return func(uc *UseCases) {
		uc.parallelism = n
	}
}

// WithStaleThreshold sets how many new unprocessed cases a category needs
// before its existing articles are marked stale.
func WithStaleThreshold(n int) Option {
	return func(uc *UseCases) {
		uc.staleThreshold = n
	}
}

// WithRankingEngine overrides the default ranking engine
func WithRankingEngine(engine *ranking.Engine) Option {
	return func(uc *UseCases) {
		uc.engine = engine
	}
}

func New(repo interfaces.Repository, embedder interfaces.Embedder, detector *pattern.Detector, generator *article.Generator, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:           repo,
		embedder:       embedder,
		detector:       detector,
		generator:      generator,
		batchLimit:     defaultBatchLimit,
		maxRetries:     defaultMaxRetries,
		parallelism:    defaultParallelism,
		staleThreshold: defaultStaleThreshold,
		state:          types.SyncStateIdle,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.engine == nil {
		uc.engine = ranking.New(ranking.DefaultConfig())
	}

	return uc
}

// State returns the current pipeline state
func (uc *UseCases) State() types.SyncState {
	uc.stateMu.RLock()
	defer uc.stateMu.RUnlock()
	return uc.state
}

// LastReport returns a copy of the most recent run report, or nil if no run
// has completed since startup.
func (uc *UseCases) LastReport() *model.RunReport {
	uc.stateMu.RLock()
	defer uc.stateMu.RUnlock()
	if uc.lastReport == nil {
		return nil
	}
	report := *uc.lastReport
	return &report
}

func (uc *UseCases) setState(s types.SyncState) {
	uc.stateMu.Lock()
	defer uc.stateMu.Unlock()
	uc.state = s
}

func (uc *UseCases) setLastReport(report *model.RunReport) {
	uc.stateMu.Lock()
	defer uc.stateMu.Unlock()
	uc.lastReport = report
}
