// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// NewUserCmd creates the user subcommand group.
func NewUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(newUserRegisterCmd())
	cmd.AddCommand(newUserVerifyCmd())

	return cmd
}

func newUserRegisterCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Register a new user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.service.Register(cmd.Context(), email, password)
			if err != nil {
				if errors.Is(err, auth.ErrAlreadyExists) {
					cmd.PrintErrf("user %s already exists\n", email)
				}
				return err
			}

			cmd.Printf("registered %s (id %s)\n", user.Email, user.ID.String())
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")    //nolint:errcheck // flag exists
	_ = cmd.MarkFlagRequired("password") //nolint:errcheck // flag exists

	return cmd
}

func newUserVerifyCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check whether an email/password pair is valid",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			valid, err := a.service.ValidateLogin(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			if valid {
				cmd.Println("valid")
				return nil
			}
			cmd.Println("invalid")
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password")
	_ = cmd.MarkFlagRequired("email")    //nolint:errcheck // flag exists
	_ = cmd.MarkFlagRequired("password") //nolint:errcheck // flag exists

	return cmd
}
