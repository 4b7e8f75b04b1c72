package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/config"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/deploy"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/history"
	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/server"
)

func newServeCommand() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the planning, deployment and analytics API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFromEnv()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 8080, "HTTP listen port (overrides SERVER_PORT)")
	return cmd
}

func openHistory(cfg config.HistoryConfig) (history.Store, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	store, err := history.NewSQLiteStore(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open deployment history: %w", err)
	}
	return store, nil
}

func buildApplier(cfg config.DeployConfig) deploy.Applier {
	if !cfg.Enabled {
		klog.InfoS("Cluster deployment disabled, deployments run as dry runs")
		return deploy.DryRunApplier{}
	}
	var opts []deploy.Option
	if cfg.RegionCheck {
		opts = append(opts, deploy.WithRegionCheck(deploy.CloudInfoRegionDetector))
	}
	return deploy.NewClusterApplier(deploy.KubeconfigClientFactory(cfg.Kubeconfig), opts...)
}

func serve(ctx context.Context, cfg *config.Config) error {
	built, err := buildPlanner(cfg)
	if err != nil {
		return err
	}
	defer built.Close()

	store, err := openHistory(cfg.History)
	if err != nil {
		return err
	}

	opts := []server.Option{
		server.WithPUE(cfg.Power.PUE),
		server.WithRequestTimeout(cfg.Server.RequestTimeout),
	}
	if store != nil {
		defer store.Close()
		opts = append(opts, server.WithHistory(store))
	}

	srv := server.New(built.planner, buildApplier(cfg.Deploy), server.NewPlanStore(cfg.Server.PlanStoreSize), opts...)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      srv.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.Server.RequestTimeout + 5*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		klog.InfoS("Starting placement planner server",
			"port", cfg.Server.Port,
			"carbonProvider", cfg.Carbon.Provider,
			"historyEnabled", cfg.History.Enabled,
			"deployEnabled", cfg.Deploy.Enabled)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	klog.InfoS("Shutting down placement planner server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		klog.ErrorS(err, "Server shutdown error")
	}
	klog.InfoS("Placement planner server stopped")
	return nil
}
