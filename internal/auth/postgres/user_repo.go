// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package postgres implements the auth user store over PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// poolIface is the subset of pgxpool.Pool the repository needs. Narrowed
// so pgxmock can stand in during unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, email, hashed_password, session_id, session_created_at, reset_token, created_at, updated_at`

// UserRepository implements auth.UserRepository using PostgreSQL.
type UserRepository struct {
	pool poolIface
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(pool poolIface) *UserRepository {
	return &UserRepository{pool: pool}
}

// FindOne retrieves the user whose field equals value. Filter fields map
// onto uniquely-indexed columns, so zero-or-one rows holds by
// construction; zero rows yields auth.ErrNotFound.
func (r *UserRepository) FindOne(ctx context.Context, field auth.Field, value string) (*auth.User, error) {
	if !field.Filterable() {
		return nil, oops.Code("STORE_INVALID_FILTER").
			With("field", string(field)).
			Wrap(auth.ErrInvalidField)
	}

	row := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, field),
		value)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").
			With("field", string(field)).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_FIND_FAILED").
			With("operation", "find user").
			With("field", string(field)).
			Wrap(translate(err))
	}
	return user, nil
}

// Insert creates a new user with a fresh ULID identifier.
func (r *UserRepository) Insert(ctx context.Context, email, passwordHash string) (*auth.User, error) {
	now := time.Now().UTC()
	user := &auth.User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, hashed_password, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		user.ID.String(),
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, oops.Code("STORE_DUPLICATE_EMAIL").
				With("email", email).
				Wrap(auth.ErrDuplicateEmail)
		}
		return nil, oops.Code("USER_INSERT_FAILED").
			With("operation", "insert user").
			Wrap(translate(err))
	}
	return user, nil
}

// Update applies all changes in a single UPDATE statement, so concurrent
// readers never observe a partially-applied field set. A missing user
// fails with auth.ErrNotFound.
func (r *UserRepository) Update(ctx context.Context, id ulid.ULID, changes auth.Changes) error {
	if err := auth.ValidateChanges(changes); err != nil {
		return oops.Code("STORE_INVALID_FIELD").Wrap(err)
	}

	set := make([]string, 0, len(changes)+1)
	args := []any{id.String()}
	for _, field := range auth.UpdateOrder() {
		value, ok := changes[field]
		if !ok {
			continue
		}
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", field, len(args)))
	}
	if _, ok := changes[auth.FieldUpdatedAt]; !ok {
		args = append(args, time.Now().UTC())
		set = append(set, fmt.Sprintf("updated_at = $%d", len(args)))
	}

	result, err := r.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = $1`, strings.Join(set, ", ")),
		args...)
	if err != nil {
		if isUniqueViolation(err) {
			var pgErr *pgconn.PgError
			_ = errors.As(err, &pgErr)
			if strings.Contains(pgErr.ConstraintName, "email") {
				return oops.Code("STORE_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail)
			}
			return oops.Code("STORE_CONSTRAINT_VIOLATION").
				With("constraint", pgErr.ConstraintName).
				Wrap(auth.ErrConstraintViolation)
		}
		return oops.Code("USER_UPDATE_FAILED").
			With("operation", "update user").
			With("id", id.String()).
			Wrap(translate(err))
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

// translate folds engine faults into auth.ErrStoreUnavailable while
// keeping data errors (malformed rows) as-is. Anything that is not a
// server-reported SQL error is a connectivity or timeout failure.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return err
	}
	return errors.Join(auth.ErrStoreUnavailable, err)
}

func scanUser(row pgx.Row) (*auth.User, error) {
	var (
		idStr            string
		email            string
		passwordHash     string
		sessionID        *string
		sessionCreatedAt *time.Time
		resetToken       *string
		createdAt        time.Time
		updatedAt        time.Time
	)

	err := row.Scan(
		&idStr,
		&email,
		&passwordHash,
		&sessionID,
		&sessionCreatedAt,
		&resetToken,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		// Propagate pgx.ErrNoRows unchanged for callers to handle with context.
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := ulid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.User{
		ID:               id,
		Email:            email,
		PasswordHash:     passwordHash,
		SessionID:        sessionID,
		SessionCreatedAt: sessionCreatedAt,
		ResetToken:       resetToken,
		CreatedAt:        createdAt,
		UpdatedAt:        updatedAt,
	}, nil
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
