package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shardctl/controller/pkg/computehook"
	"github.com/shardctl/controller/pkg/config"
	"github.com/shardctl/controller/pkg/controller"
	"github.com/shardctl/controller/pkg/log"
	"github.com/shardctl/controller/pkg/metrics"
	"github.com/shardctl/controller/pkg/noderegistry"
	"github.com/shardctl/controller/pkg/pageserverclient"
	"github.com/shardctl/controller/pkg/persistence"
	"github.com/shardctl/controller/pkg/reconciler"
	"github.com/shardctl/controller/pkg/scheduler"
	"github.com/shardctl/controller/pkg/shard"
	"github.com/shardctl/controller/pkg/shardtypes"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the shard placement controller",
	Long:  `Run the control loop that schedules and reconciles tenant shard placement until interrupted.`,
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")

	cfg := config.Default()
	if cfgPath != "" {
		loaded, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	logger := log.WithComponent("serve")
	logger.Info().Str("data_dir", cfg.DataDir).Str("listen_addr", cfg.ListenAddr).Msg("starting shardctl")

	store, err := persistence.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open persistence store: %w", err)
	}
	defer store.Close()

	registry := noderegistry.New()
	sched := scheduler.New(registry)
	for _, n := range cfg.Nodes {
		id := shardtypes.NodeId(n.ID)
		registry.Upsert(id, n.Address)
		sched.SetCapacity(scheduler.NodeCapacity{NodeID: id, Capacity: n.Capacity})
	}

	hook := computehook.New()
	defer hook.Stop()

	client := pageserverclient.New()
	builder := reconciler.NewBuilder(client, registry)

	ctrl := controller.New(controller.Deps{
		Scheduler:     sched,
		Nodes:         registry,
		ComputeHook:   hook,
		Persistence:   store,
		Store:         store,
		Builder:       builder,
		ServiceConfig: shard.ServiceConfig{RPCTimeout: cfg.ReconcileTimeout},
		TickInterval:  cfg.TickInterval,
	})
	if err := ctrl.Start(context.Background()); err != nil {
		return fmt.Errorf("start controller: %w", err)
	}
	defer ctrl.Stop()

	proberCtx, stopProbing := context.WithCancel(context.Background())
	defer stopProbing()
	go registry.Run(proberCtx, noderegistry.NewHTTPProber(), cfg.NodeProbeInterval, log.WithComponent("noderegistry"), ctrl.NotifyNodeOffline)

	mux := newAPIMux(ctrl, logger, cfg.ReconcileTimeout)
	mux.Handle("/metrics", metrics.Handler())
	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: mux}
	errCh := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	logger.Info().Str("addr", cfg.ListenAddr).Msg("http api and metrics endpoint listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutting down")
	case err := <-errCh:
		logger.Error().Err(err).Msg("metrics server error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("metrics server shutdown did not complete cleanly")
	}

	logger.Info().Msg("shutdown complete")
	return nil
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a YAML config file")
}
