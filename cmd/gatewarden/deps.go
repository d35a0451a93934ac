// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
	"github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/config"
	"github.com/gatewarden/gatewarden/internal/logging"
	"github.com/gatewarden/gatewarden/internal/store"
)

// app bundles the wired service and its database pool for CLI commands.
type app struct {
	cfg     *config.Config
	pool    *pgxpool.Pool
	service *auth.Service
}

// loadConfig resolves configuration for the invoked command, layering
// changed flags over the config file and defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Root().PersistentFlags())
	if err != nil {
		return nil, err
	}
	logging.SetDefault("gatewarden", version, cfg.LogFormat)
	return cfg, nil
}

// newApp connects to the database and wires the auth service. metrics may
// be nil for commands that do not serve an observability endpoint.
func newApp(ctx context.Context, cmd *cobra.Command, metrics *auth.Metrics) (*app, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return newAppWithConfig(ctx, cfg, metrics)
}

// newAppWithConfig wires the auth service against an already-loaded
// configuration.
func newAppWithConfig(ctx context.Context, cfg *config.Config, metrics *auth.Metrics) (*app, error) {
	if cfg.DatabaseURL == "" {
		return nil, oops.Code("CONFIG_INVALID").
			Errorf("database URL is required (--database.url, config file, or DATABASE_URL)")
	}

	pool, err := store.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}

	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2idParams{
		Time:    cfg.Argon2Time,
		Memory:  cfg.Argon2Memory,
		Threads: cfg.Argon2Threads,
	})

	opts := []auth.Option{
		auth.WithLogger(slog.Default()),
		auth.WithSessionTTL(cfg.SessionTTL),
	}
	if metrics != nil {
		opts = append(opts, auth.WithMetrics(metrics))
	}

	service, err := auth.NewService(postgres.NewUserRepository(pool), hasher, auth.NewUUIDGenerator(), opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &app{cfg: cfg, pool: pool, service: service}, nil
}

// Close releases the database pool.
func (a *app) Close() {
	a.pool.Close()
}
