package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/cli/config"
	"github.com/secmon-lab/mnemosyne/pkg/domain/interfaces"
	"github.com/secmon-lab/mnemosyne/pkg/service/article"
	"github.com/secmon-lab/mnemosyne/pkg/service/pattern"
	"github.com/secmon-lab/mnemosyne/pkg/service/ranking"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/urfave/cli/v3"
)

// pipelineConfig bundles the flag groups shared by every pipeline command
type pipelineConfig struct {
	repo       config.Repository
	gemini     config.Gemini
	categories config.Categories
	sync       config.Sync
	ranking    config.Ranking
}

func (p *pipelineConfig) flags() []cli.Flag {
	var flags []cli.Flag
	flags = append(flags, p.repo.Flags()...)
	flags = append(flags, p.gemini.Flags()...)
	flags = append(flags, p.categories.Flags()...)
	flags = append(flags, p.sync.Flags()...)
	flags = append(flags, p.ranking.Flags()...)
	return flags
}

// build wires the repository, embedder and services into the use cases.
// The caller owns the returned repository and must Close it.
func (p *pipelineConfig) build(ctx context.Context) (*usecase.UseCases, interfaces.Repository, error) {
	repo, err := p.repo.Configure(ctx)
	if err != nil {
		return nil, nil, goerr.Wrap(err, "failed to initialize repository")
	}

	embedder, err := p.gemini.Configure(ctx)
	if err != nil {
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "failed to configure embedder")
	}

	categories, err := p.categories.Configure()
	if err != nil {
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "failed to load category table")
	}

	detector, err := pattern.New(categories)
	if err != nil {
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "failed to build pattern detector")
	}

	rankCfg, err := p.ranking.Configure()
	if err != nil {
		_ = repo.Close()
		return nil, nil, goerr.Wrap(err, "invalid ranking configuration")
	}

	generator := article.New(p.sync.GeneratorOptions()...)

	opts := append(p.sync.UseCaseOptions(), usecase.WithRankingEngine(ranking.New(rankCfg)))
	uc := usecase.New(repo, embedder, detector, generator, opts...)

	return uc, repo, nil
}
