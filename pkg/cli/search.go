package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSearch() *cli.Command {
	var topK int
	var pipeCfg pipelineConfig

	flags := []cli.Flag{
		&cli.IntFlag{
			Name:        "top-k",
			Usage:       "Maximum number of results",
			Value:       10,
			Sources:     cli.EnvVars("MNEMOSYNE_SEARCH_TOP_K"),
			Destination: &topK,
		},
	}
	flags = append(flags, pipeCfg.flags()...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search cases and knowledge articles by similarity",
		ArgsUsage: "<query>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			query := strings.Join(c.Args().Slice(), " ")
			if strings.TrimSpace(query) == "" {
				return goerr.New("query argument is required")
			}

			uc, repo, err := pipeCfg.build(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			results, err := uc.Search(ctx, query, topK)
			if err != nil {
				return goerr.Wrap(err, "search failed", goerr.V("query", query))
			}

			if len(results) == 0 {
				color.Yellow("no results above the similarity threshold")
				return nil
			}

			header := color.New(color.FgCyan, color.Bold)
			articleTag := color.New(color.FgGreen)
			caseTag := color.New(color.FgBlue)

			header.Printf("Results for %q\n", query)
			for _, r := range results {
				tag := caseTag
				if r.EntityType == types.EntityTypeArticle {
					tag = articleTag
				}
				fmt.Printf("%3d. ", r.Rank)
				tag.Printf("[%s] ", r.EntityType)
				fmt.Printf("%s  relevance=%.3f similarity=%.3f category=%s\n",
					r.ID, r.Relevance, r.Similarity, r.CategoryID)
			}

			return nil
		},
	}
}
