package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/solatis/docguard/internal/core/config"
	"github.com/solatis/docguard/internal/core/pipeline"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Validate pending documents in the background",
	Long: `Polls the documents table for pending documents and validates them with
the same engine the API uses. Run one or more next to 'docguard serve'.`,
	RunE: runWorker,
}

func init() {
	rootCmd.AddCommand(workerCmd)
	workerCmd.Flags().Int("concurrency", 0, "documents validated in parallel (default from config)")
	workerCmd.Flags().Bool("once", false, "process one batch and exit")
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Worker.Concurrency, _ = cmd.Flags().GetInt("concurrency")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	once, _ := cmd.Flags().GetBool("once")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	processor := pipeline.NewProcessor(a.store, a.service, cfg.Worker, logger.Named("worker"))
	if once {
		result, err := processor.ProcessBatch(ctx)
		if err != nil {
			return err
		}
		logger.Info("single batch done", zap.Int("processed", result.Processed), zap.Int("failed", result.Failed))
		return nil
	}
	return processor.Run(ctx)
}
