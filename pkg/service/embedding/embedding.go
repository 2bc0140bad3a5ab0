package embedding

import (
	"context"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
)

// client implements interfaces.Embedder on top of a gollem LLM client
type client struct {
	llmClient gollem.LLMClient
	dimension int
}

// Option is a functional option for client configuration
type Option func(*client)

// WithDimension overrides the embedding dimension
func WithDimension(dim int) Option {
	return func(c *client) {
		c.dimension = dim
	}
}

// New creates a new embedder backed by the provided LLM client
func New(llmClient gollem.LLMClient, opts ...Option) (interfaces.Embedder, error) {
	if llmClient == nil {
		return nil, goerr.New("LLM client is required")
	}

	c := &client{
		llmClient: llmClient,
		dimension: model.EmbeddingDimension,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Embed generates an embedding vector for the given text
func (c *client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, goerr.New("text is empty")
	}

	embeddings, err := c.llmClient.GenerateEmbedding(ctx, c.dimension, []string{text})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to generate embedding")
	}

	if len(embeddings) == 0 {
		return nil, goerr.New("no embedding returned")
	}

	result := make([]float32, len(embeddings[0]))
	for i, v := range embeddings[0] {
		result[i] = float32(v)
	}

	return result, nil
}
