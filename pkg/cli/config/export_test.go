package config

import "time"

// NewCategoriesForTest creates a Categories config for testing purposes
func NewCategoriesForTest(path string) *Categories {
	return &Categories{path: path}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

// NewRankingForTest creates a Ranking config for testing purposes
func NewRankingForTest(similarity, recency, quality, threshold float64, scale time.Duration) *Ranking {
	return &Ranking{
		similarityWeight:    similarity,
		recencyWeight:       recency,
		qualityWeight:       quality,
		similarityThreshold: threshold,
		recencyScale:        scale,
	}
}
