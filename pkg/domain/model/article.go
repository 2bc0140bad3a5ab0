package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
)

// EmbeddingDimension is the dimension of the embedding vector
// Gemini text-embedding-004 uses 768 dimensions
const EmbeddingDimension = 768

// ArticleID is a UUID-based identifier for a knowledge article
type ArticleID string

// NewArticleID generates a new UUID v4 ArticleID
func NewArticleID() ArticleID {
	return ArticleID(uuid.New().String())
}

// ArticleSections is the structured body of a knowledge article
type ArticleSections struct {
	Symptoms    []string // most frequent issue descriptions
	Diagnostics []string // initial diagnosis steps
	Resolutions []string // resolution steps ordered by frequency
	Products    []string // affected products extracted from case subjects
}

// Article is a knowledge article synthesized from the cases of one category
type Article struct {
	ID             ArticleID
	Title          string
	Summary        string
	Sections       ArticleSections
	CategoryID     types.CategoryID
	ResolutionType string // e.g. "Hardware Replacement", "Firmware Update"
	CaseIDs        []CaseID
	Embedding      []float32
	VectorStatus   types.VectorStatus
	GeneratedAt    time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// String returns the string representation of the article ID
func (id ArticleID) String() string {
	return string(id)
}
