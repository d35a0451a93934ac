// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package main

import (
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// NewSessionCmd creates the session subcommand group.
func NewSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage user sessions",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionResolveCmd())
	cmd.AddCommand(newSessionDestroyCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Issue a session token for a user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			token, err := a.service.CreateSession(cmd.Context(), email)
			if err != nil {
				return err
			}
			if token == "" {
				cmd.Println("no such user")
				return nil
			}

			cmd.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	_ = cmd.MarkFlagRequired("email") //nolint:errcheck // flag exists

	return cmd
}

func newSessionResolveCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Look up the user holding a session token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			user, err := a.service.ResolveSession(cmd.Context(), token)
			if err != nil {
				return err
			}
			if user == nil {
				cmd.Println("no active session")
				return nil
			}

			cmd.Printf("%s %s\n", user.ID.String(), user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "session token")
	_ = cmd.MarkFlagRequired("token") //nolint:errcheck // flag exists

	return cmd
}

func newSessionDestroyCmd() *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Destroy a user's session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, err := ulid.Parse(userID)
			if err != nil {
				return oops.Code("CLI_INVALID_USER_ID").
					With("user_id", userID).
					Wrap(err)
			}

			a, err := newApp(cmd.Context(), cmd, nil)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.service.DestroySession(cmd.Context(), id); err != nil {
				return err
			}

			cmd.Println("session destroyed")
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user-id", "", "user identifier")
	_ = cmd.MarkFlagRequired("user-id") //nolint:errcheck // flag exists

	return cmd
}
