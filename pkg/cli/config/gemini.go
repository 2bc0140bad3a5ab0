package config

import (
	"context"
	"log/slog"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gollem/llm/gemini"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/service/embedding"
	"github.com/urfave/cli/v3"
)

// Gemini holds configuration for the Gemini embedding client
type Gemini struct {
	projectID string
	location  string
	dimension int
}

// Flags returns CLI flags for Gemini configuration
func (g *Gemini) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-project",
			Usage:       "Google Cloud project ID for Gemini API",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_PROJECT"),
			Destination: &g.projectID,
		},
		&cli.StringFlag{
			Name:        "gemini-location",
			Usage:       "Google Cloud location for Gemini API",
			Value:       "us-central1",
			Sources:     cli.EnvVars("MNEMOSYNE_GEMINI_LOCATION"),
			Destination: &g.location,
		},
		&cli.IntFlag{
			Name:        "embedding-dimension",
			Usage:       "Dimension of generated embedding vectors",
			Value:       model.EmbeddingDimension,
			Sources:     cli.EnvVars("MNEMOSYNE_EMBEDDING_DIMENSION"),
			Destination: &g.dimension,
		},
	}
}

// LogAttrs returns log attributes for the Gemini configuration
func (g *Gemini) LogAttrs() []slog.Attr {
	return []slog.Attr{
		slog.String("project_id", g.projectID),
		slog.String("location", g.location),
		slog.Int("dimension", g.dimension),
	}
}

// Configure creates an embedder backed by the Gemini API
func (g *Gemini) Configure(ctx context.Context) (interfaces.Embedder, error) {
	if g.projectID == "" {
		return nil, goerr.New("gemini-project is required")
	}

	client, err := gemini.New(ctx, g.projectID, g.location)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create Gemini client")
	}

	return embedding.New(client, embedding.WithDimension(g.dimension))
}
