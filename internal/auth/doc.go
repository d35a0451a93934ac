// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package auth provides credential and session authentication primitives
// for Gatewarden.
//
// # Domain Types
//
// User is the single persisted entity. Sessions and password resets are
// not separate records: they are nullable, uniquely-indexed fields on the
// User row, valid exactly while non-null. The store enforces uniqueness
// of email, session ID, and reset token.
//
// # Services
//
// Service orchestrates registration, login validation, session issuance
// and destruction, and the password-reset flow. It depends only on the
// UserRepository, PasswordHasher, and TokenGenerator interfaces, so any
// persistence engine satisfying UserRepository can back it.
//
// Callers receive typed failures (ErrAlreadyExists, ErrUserNotFound,
// ErrInvalidResetToken) rather than raw storage errors; transport
// concerns such as HTTP status codes and cookies live outside this
// package.
package auth
