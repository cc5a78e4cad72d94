package main

import (
	"context"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	apiserver "github.com/crewforge/content-orchestrator/internal/api_server"
	"github.com/crewforge/content-orchestrator/internal/config"
	"github.com/crewforge/content-orchestrator/internal/store"
	"github.com/crewforge/content-orchestrator/internal/stream"
	"github.com/crewforge/content-orchestrator/internal/workunit"
	"github.com/crewforge/content-orchestrator/pkg/log"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the content orchestrator api",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		logger := log.InitLog(log.AtomicLevelFrom(cfg.Service.LogLevel))
		defer func() { _ = logger.Sync() }()

		undo := zap.ReplaceGlobals(logger)
		defer undo()

		zap.S().Info("Starting orchestrator API service")
		defer zap.S().Info("Orchestrator API service stopped")

		dataStore := store.NewStore()
		defer dataStore.Close()

		hub := stream.NewHub(cfg.Service.SubscriberQueueSize)

		registry := workunit.NewRegistry()
		registry.Register(workunit.ContentPipelineName, workunit.NewContentPipeline(hub))

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
		defer cancel()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.Address)
			if err != nil {
				zap.S().Fatalw("creating listener", "error", err)
			}

			server := apiserver.New(cfg, dataStore, registry, hub, listener)
			if err := server.Run(ctx); err != nil {
				zap.S().Fatalw("running api server", "error", err)
			}
		}()

		go func() {
			defer cancel()
			listener, err := newListener(cfg.Service.MetricsAddress)
			if err != nil {
				zap.S().Fatalw("creating metrics listener", "error", err)
			}

			metricsServer := apiserver.NewMetricServer(cfg.Service.MetricsAddress, listener)
			if err := metricsServer.Run(ctx); err != nil {
				zap.S().Fatalw("running metrics server", "error", err)
			}
		}()

		<-ctx.Done()
		return nil
	},
}

func newListener(address string) (net.Listener, error) {
	if address == "" {
		address = "localhost:0"
	}
	return net.Listen("tcp", address)
}
