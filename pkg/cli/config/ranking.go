package config

import (
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/service/ranking"
	"github.com/urfave/cli/v3"
)

// Ranking holds CLI flags for the search ranking configuration
type Ranking struct {
	similarityWeight    float64
	recencyWeight       float64
	qualityWeight       float64
	similarityThreshold float64
	recencyScale        time.Duration
}

// Flags returns CLI flags for ranking configuration
func (r *Ranking) Flags() []cli.Flag {
	defaults := ranking.DefaultConfig()

	return []cli.Flag{
		&cli.FloatFlag{
			Name:        "rank-similarity-weight",
			Usage:       "Weight of vector similarity in the relevance score",
			Value:       defaults.Weights.Similarity,
			Sources:     cli.EnvVars("MNEMOSYNE_RANK_SIMILARITY_WEIGHT"),
			Destination: &r.similarityWeight,
		},
		&cli.FloatFlag{
			Name:        "rank-recency-weight",
			Usage:       "Weight of recency in the relevance score",
			Value:       defaults.Weights.Recency,
			Sources:     cli.EnvVars("MNEMOSYNE_RANK_RECENCY_WEIGHT"),
			Destination: &r.recencyWeight,
		},
		&cli.FloatFlag{
			Name:        "rank-quality-weight",
			Usage:       "Weight of resolution quality in the relevance score",
			Value:       defaults.Weights.Quality,
			Sources:     cli.EnvVars("MNEMOSYNE_RANK_QUALITY_WEIGHT"),
			Destination: &r.qualityWeight,
		},
		&cli.FloatFlag{
			Name:        "rank-similarity-threshold",
			Usage:       "Minimum similarity a match needs to enter ranking",
			Value:       defaults.SimilarityThreshold,
			Sources:     cli.EnvVars("MNEMOSYNE_RANK_SIMILARITY_THRESHOLD"),
			Destination: &r.similarityThreshold,
		},
		&cli.DurationFlag{
			Name:        "rank-recency-scale",
			Usage:       "Time constant of the recency decay",
			Value:       defaults.RecencyScale,
			Sources:     cli.EnvVars("MNEMOSYNE_RANK_RECENCY_SCALE"),
			Destination: &r.recencyScale,
		},
	}
}

// Configure builds the ranking configuration from the flags
func (r *Ranking) Configure() (ranking.Config, error) {
	for _, w := range []float64{r.similarityWeight, r.recencyWeight, r.qualityWeight} {
		if w < 0 {
			return ranking.Config{}, goerr.New("ranking weights must not be negative")
		}
	}
	if r.similarityThreshold < 0 || r.similarityThreshold > 1 {
		return ranking.Config{}, goerr.New("similarity threshold must be within [0, 1]",
			goerr.V("threshold", r.similarityThreshold))
	}
	if r.recencyScale <= 0 {
		return ranking.Config{}, goerr.New("recency scale must be positive",
			goerr.V("scale", r.recencyScale))
	}

	return ranking.Config{
		Weights: ranking.Weights{
			Similarity: r.similarityWeight,
			Recency:    r.recencyWeight,
			Quality:    r.qualityWeight,
		},
		SimilarityThreshold: r.similarityThreshold,
		RecencyScale:        r.recencyScale,
	}, nil
}
