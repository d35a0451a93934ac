// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import "errors"

// Store-level sentinel errors. Repository implementations wrap these so
// callers can dispatch with errors.Is without knowing the engine.
var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateEmail is returned when an insert collides with the
	// unique email constraint.
	ErrDuplicateEmail = errors.New("duplicate email")

	// ErrInvalidField is returned when a filter or update names a field
	// outside the closed User field set. This is a programmer error and
	// fails loudly rather than degrading to a miss.
	ErrInvalidField = errors.New("invalid user field")

	// ErrConstraintViolation is returned when an update collides with a
	// unique constraint other than email (session_id, reset_token).
	// Callers may re-roll the token and retry.
	ErrConstraintViolation = errors.New("constraint violation")

	// ErrStoreUnavailable is returned when the persistence engine fails
	// for reasons unrelated to the data (connection loss, timeout).
	ErrStoreUnavailable = errors.New("store unavailable")
)

// Service-level sentinel errors, reported to callers as expected outcomes.
var (
	// ErrAlreadyExists is returned by Register when the email is taken.
	ErrAlreadyExists = errors.New("user already exists")

	// ErrUserNotFound is returned by RequestPasswordReset for an unknown
	// email. CreateSession deliberately does not share this behavior: an
	// unknown email there is a benign negative, not an error.
	ErrUserNotFound = errors.New("user not found")

	// ErrInvalidResetToken is returned by RedeemPasswordReset when the
	// token is unknown or already consumed.
	ErrInvalidResetToken = errors.New("invalid reset token")
)
