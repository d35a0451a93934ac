// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the Gatewarden CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gatewarden",
		Short: "Gatewarden - credential and session authentication service",
		Long: `Gatewarden manages user credentials, opaque session tokens, and
password-reset tokens backed by PostgreSQL. The CLI covers schema
migration, account administration, and the observability endpoints.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewUserCmd())
	cmd.AddCommand(NewSessionCmd())
	cmd.AddCommand(NewResetCmd())

	return cmd
}
