package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/mnemosyne/pkg/service/worker"
	"github.com/secmon-lab/mnemosyne/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func cmdWatch() *cli.Command {
	var pipeCfg pipelineConfig

	return &cli.Command{
		Name:  "watch",
		Usage: "Run the pipeline on a schedule until interrupted",
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

			w := worker.NewSyncWorker(uc, pipeCfg.sync.Interval())
			if err := w.Start(ctx); err != nil {
				return goerr.Wrap(err, "failed to start sync worker")
			}

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

			select {
			case sig := <-sigCh:
				logging.Default().Info("Received shutdown signal", "signal", sig)
			case <-ctx.Done():
				logging.Default().Info("Context cancelled")
			}

			w.Stop()
			return nil
		},
	}
}
