// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

//go:build integration

// Package integration provides end-to-end integration tests for Gatewarden
// against a real PostgreSQL instance.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/gatewarden/gatewarden/internal/auth"
	authpg "github.com/gatewarden/gatewarden/internal/auth/postgres"
	"github.com/gatewarden/gatewarden/internal/store"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Integration Suite")
}

// testEnv holds all resources needed for integration tests.
type testEnv struct {
	ctx       context.Context
	container testcontainers.Container
	pool      *pgxpool.Pool

	Users   *authpg.UserRepository
	Service *auth.Service
}

var env *testEnv

var _ = BeforeSuite(func() {
	var err error
	env, err = setupAuthTestEnv()
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if env != nil {
		env.cleanup()
	}
})

func setupAuthTestEnv() (*testEnv, error) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:18-alpine",
		postgres.WithDatabase("gatewarden_test"),
		postgres.WithUsername("gatewarden"),
		postgres.WithPassword("gatewarden"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	if err != nil {
		return nil, err
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	migrator, err := store.NewMigrator(connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}
	if err := migrator.Close(); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	pool, err := store.NewPool(ctx, connStr)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	users := authpg.NewUserRepository(pool)
	// Small work factor keeps the suite fast.
	hasher := auth.NewArgon2idHasherWithParams(auth.Argon2idParams{
		Time:    1,
		Memory:  8 * 1024,
		Threads: 1,
	})

	service, err := auth.NewService(users, hasher, auth.NewUUIDGenerator())
	if err != nil {
		pool.Close()
		_ = container.Terminate(ctx)
		return nil, err
	}

	return &testEnv{
		ctx:       ctx,
		container: container,
		pool:      pool,
		Users:     users,
		Service:   service,
	}, nil
}

func (e *testEnv) cleanup() {
	if e.pool != nil {
		e.pool.Close()
	}
	if e.container != nil {
		_ = e.container.Terminate(e.ctx)
	}
}

// cleanupUsers removes all users from the test database.
func cleanupUsers(ctx context.Context, pool *pgxpool.Pool) {
	_, _ = pool.Exec(ctx, "DELETE FROM users")
}
