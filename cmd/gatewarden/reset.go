// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// NewResetCmd creates the reset subcommand group.
func NewResetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Manage password resets",
	}

	cmd.AddCommand(newResetRequestCmd())
	cmd.AddCommand(newResetRedeemCmd())

	return cmd
}

func newResetRequestCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "request",
		Short: "Issue a password reset token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.service.RequestPasswordReset(cmd.Context(), email)
			if err != nil {
				if errors.Is(err, auth.ErrUserNotFound) {
					cmd.PrintErrf("no user with email %s\n", email)
				}
				return err
			}

			cmd.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag exists

	return cmd
}

func newResetRedeemCmd() *cobra.Command {
	var token, password string

	cmd := &cobra.Command{
		Use:   "redeem",
		Short: "Redeem a reset token and set a new password",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			err = a.service.RedeemPasswordReset(cmd.Context(), token, password)
			if err != nil {
				if errors.Is(err, auth.ErrInvalidResetToken) {
					cmd.PrintErrln("reset token is invalid or already used")
				}
				return err
			}

			cmd.Println("password updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "reset token")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	_ = cmd.MarkFlagRequired("token")    //nolint:errcheck // flag exists
	_ = cmd.MarkFlagRequired("password") //nolint:errcheck // flag exists

	return cmd
}
