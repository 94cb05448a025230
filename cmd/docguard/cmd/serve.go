package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/solatis/docguard/internal/core/api"
	"github.com/solatis/docguard/internal/core/config"
	"github.com/solatis/docguard/internal/core/pipeline"
	"github.com/solatis/docguard/internal/core/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC validation APIs",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("host", "0.0.0.0", "listen host")
	serveCmd.Flags().Int("http-port", 8080, "HTTP port")
	serveCmd.Flags().Int("grpc-port", 50051, "gRPC port")
	serveCmd.Flags().Bool("with-worker", false, "also run the background processor in this process")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("host") {
		cfg.Server.Host, _ = cmd.Flags().GetString("host")
	}
	if cmd.Flags().Changed("http-port") {
		cfg.Server.HTTPPort, _ = cmd.Flags().GetInt("http-port")
	}
	if cmd.Flags().Changed("grpc-port") {
		cfg.Server.GRPCPort, _ = cmd.Flags().GetInt("grpc-port")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	withWorker, _ := cmd.Flags().GetBool("with-worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	router := server.NewRouter(cfg.Server, api.NewHandlers(a.service, logger.Named("http")), a.metrics, a.gatherer, logger.Named("http"))
	httpServer := server.NewHTTPServer(cfg.Server, router, logger.Named("http"))
	grpcServer, err := server.NewGRPCServer(cfg.Server, a.service, logger.Named("grpc"))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	logger.Info("starting DocGuard",
		zap.String("version", Version),
		zap.String("http_addr", cfg.Server.HTTPAddr()),
		zap.String("grpc_addr", cfg.Server.GRPCAddr()),
		zap.Bool("with_worker", withWorker))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpServer.Start(gctx) })
	g.Go(func() error { return grpcServer.Start(gctx) })
	if withWorker {
		processor := pipeline.NewProcessor(a.store, a.service, cfg.Worker, logger.Named("worker"))
		g.Go(func() error { return processor.Run(gctx) })
	}
	if a.rules != nil {
		// SIGHUP drops cached rule sets, e.g. after 'docguard rules import'
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case <-hup:
					a.rules.Invalidate()
					logger.Info("rule cache invalidated")
				}
			}
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP shutdown", zap.Error(err))
		}
		return grpcServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
