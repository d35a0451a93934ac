// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/observability"
	"github.com/gatewarden/gatewarden/pkg/errutil"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the observability endpoints",
		Long: `Hold a live store connection and serve Prometheus metrics and
health probes until interrupted. Readiness reflects database
reachability.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var a *app
	server := observability.NewServer(cfg.ObservabilityAddr, func() bool {
		if a == nil {
			return false
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return a.pool.Ping(pingCtx) == nil
	})

	a, err = newAppWithConfig(ctx, cfg, server.AuthMetrics())
	if err != nil {
		return err
	}
	defer a.Close()

	errCh, err := server.Start()
	if err != nil {
		return err
	}

	slog.Info("gatewarden serving", "observability_addr", server.Addr())

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case serveErr, ok := <-errCh:
		if ok && serveErr != nil {
			errutil.LogError(slog.Default(), "observability server failed", serveErr)
		}
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Stop(stopCtx)
}
