package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/domain/model"
	"github.com/secmon-lab/mnemosyne/pkg/domain/types"
	"github.com/secmon-lab/mnemosyne/pkg/usecase"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdSync() *cli.Command {
	var force bool
	var pipeCfg pipelineConfig

	flags := []cli.Flag{
		&cli.BoolFlag{
			Name:        "force",
			Usage:       "Also re-vectorize stale articles",
			Sources:     cli.EnvVars("MNEMOSYNE_SYNC_FORCE"),
			Destination: &force,
		},
	}
	flags = append(flags, pipeCfg.flags()...)

	return &cli.Command{
		Name:  "sync",
		Usage: "Run the case-to-knowledge pipeline once",
		Flags: flags,
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

			report, err := uc.RunSync(ctx, force)
			if err != nil {
				if errors.Is(err, usecase.ErrSyncRunning) {
					color.Yellow("sync rejected: another run is in progress")
					return err
				}
				if report != nil {
					printRunReport(report)
				}
				return goerr.Wrap(err, "sync run failed")
			}

			printRunReport(report)
			return nil
		},
	}
}

func printRunReport(report *model.RunReport) {
	header := color.New(color.FgCyan, color.Bold)
	ok := color.New(color.FgGreen)
	bad := color.New(color.FgRed)

	header.Println("Sync Run Report")
	switch report.Status {
	case types.RunStatusSuccess:
		ok.Printf("  status:     %s\n", report.Status)
	default:
		bad.Printf("  status:     %s\n", report.Status)
	}
	fmt.Printf("  fetched:    %d\n", report.CasesFetched)
	fmt.Printf("  categorized %d (skipped %d)\n", report.CasesCategorized, report.CasesSkipped)
	fmt.Printf("  articles:   %d generated, %d marked stale\n", report.ArticlesGenerated, report.ArticlesStale)
	fmt.Printf("  vectors:    %d written\n", report.VectorsWritten)
	fmt.Printf("  retries:    %d\n", report.Retries)
	fmt.Printf("  duration:   %s\n", report.Duration)
	if report.Err != "" {
		fmt.Fprintf(os.Stderr, "  error:      %s\n", report.Err)
	}
}
