package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdStatus() *cli.Command {
	var pipeCfg pipelineConfig

	return &cli.Command{
		Name:  "status",
		Usage: "Show pipeline state and store counters",
		Flags: pipeCfg.flags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			uc, repo, err := pipeCfg.build(ctx)
			if err != nil {
				return err
			}
			defer func() {
				if err := repo.Close(); err != nil {
					logging.Default().Error("failed to close repository", "error", err.Error())
				}
			}()

			status, err := uc.Status(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to gather status")
			}

			header := color.New(color.FgCyan, color.Bold)
			header.Println("Pipeline Status")
			fmt.Printf("  state:           %s\n", status.State)

			if status.Cursor.LastProcessed.IsZero() {
				fmt.Println("  cursor:          (no batch processed yet)")
			} else {
				fmt.Printf("  cursor:          %s (%s ago)\n",
					status.Cursor.LastProcessed.Format(time.RFC3339),
					time.Since(status.Cursor.LastProcessed).Round(time.Second))
			}

			fmt.Printf("  articles:        %d total, %d pending vectors, %d stale\n",
				status.ArticleTotal, status.PendingVectors, status.StaleArticles)

			if len(status.Unprocessed) > 0 {
				fmt.Println("  unprocessed cases by category:")
				for id, n := range status.Unprocessed {
					fmt.Printf("    %-24s %d\n", id, n)
				}
			}

			if status.LastRun != nil {
				fmt.Printf("  last run:        %s at %s (%d cases, %d articles)\n",
					status.LastRun.Status,
					status.LastRun.StartedAt.Format(time.RFC3339),
					status.LastRun.CasesFetched,
					status.LastRun.ArticlesGenerated)
			}

			return nil
		},
	}
}
