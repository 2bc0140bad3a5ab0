package config

import (
	"log/slog"
	"time"

	"github.com/secmon-lab/mnemosyne/pkg/service/article"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// Sync holds CLI flags for the pipeline tuning knobs
type Sync struct {
	batchLimit        int
	maxRetries        int
	parallelism       int
	generateThreshold int
	maxCases          int
	staleThreshold    int
	interval          time.Duration
}

// Flags returns CLI flags for sync configuration
func (s *Sync) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:        "sync-batch-limit",
			Usage:       "Maximum number of cases fetched per sync run",
			Value:       100,
			Sources:     cli.EnvVars("MNEMOSYNE_SYNC_BATCH_LIMIT"),
			Destination: &s.batchLimit,
		},
		&cli.IntFlag{
			Name:        "sync-max-retries",
			Usage:       "Retry budget for transient store and embedding failures",
			Value:       3,
			Sources:     cli.EnvVars("MNEMOSYNE_SYNC_MAX_RETRIES"),
			Destination: &s.maxRetries,
		},
		&cli.IntFlag{
			Name:        "sync-parallelism",
			Usage:       "Concurrent embedding calls during the vectorize stage",
			Value:       4,
			Sources:     cli.EnvVars("MNEMOSYNE_SYNC_PARALLELISM"),
			Destination: &s.parallelism,
		},
		&cli.IntFlag{
			Name:        "generate-threshold",
			Usage:       "Unprocessed cases a category needs before an article is generated",
			Value:       article.DefaultThreshold,
			Sources:     cli.EnvVars("MNEMOSYNE_GENERATE_THRESHOLD"),
			Destination: &s.generateThreshold,
		},
		&cli.IntFlag{
			Name:        "generate-max-cases",
			Usage:       "Maximum contributing cases per generated article",
			Value:       article.DefaultMaxCases,
			Sources:     cli.EnvVars("MNEMOSYNE_GENERATE_MAX_CASES"),
			Destination: &s.maxCases,
		},
		&cli.IntFlag{
			Name:        "stale-threshold",
			Usage:       "New cases in an articled category before its articles are marked stale",
			Value:       3,
			Sources:     cli.EnvVars("MNEMOSYNE_STALE_THRESHOLD"),
			Destination: &s.staleThreshold,
		},
		&cli.DurationFlag{
			Name:        "sync-interval",
			Usage:       "Interval between scheduled sync runs (watch command)",
			Value:       5 * time.Minute,
			Sources:     cli.EnvVars("MNEMOSYNE_SYNC_INTERVAL"),
			Destination: &s.interval,
		},
	}
}

// LogValue returns the sync configuration as a structured log value
func (s Sync) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("batch_limit", s.batchLimit),
		slog.Int("max_retries", s.maxRetries),
		slog.Int("parallelism", s.parallelism),
		slog.Int("generate_threshold", s.generateThreshold),
		slog.Int("max_cases", s.maxCases),
		slog.Int("stale_threshold", s.staleThreshold),
		slog.Duration("interval", s.interval),
	)
}

// Interval returns the scheduled run interval
func (s *Sync) Interval() time.Duration {
	return s.interval
}

// UseCaseOptions returns the pipeline options derived from the flags
func (s *Sync) UseCaseOptions() []usecase.Option {
	return []usecase.Option{
		usecase.WithBatchLimit(s.batchLimit),
		usecase.WithMaxRetries(s.maxRetries),
		usecase.WithParallelism(s.parallelism),
		usecase.WithStaleThreshold(s.staleThreshold),
	}
}

// GeneratorOptions returns the article generator options derived from the flags
func (s *Sync) GeneratorOptions() []article.Option {
	return []article.Option{
		article.WithThreshold(s.generateThreshold),
		article.WithMaxCases(s.maxCases),
	}
}
