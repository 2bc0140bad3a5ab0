package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// Concurrency errors
	ErrSyncRunning = goerr.New("sync run already in progress")

	// Input errors
	ErrEmptyQuery  = goerr.New("search query is empty")
	ErrInvalidTopK = goerr.New("top-k must be positive")
)
