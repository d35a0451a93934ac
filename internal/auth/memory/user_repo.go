// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

// Package memory provides an in-memory auth.UserRepository for tests and
// embedding without PostgreSQL.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gatewarden/gatewarden/internal/auth"
)

// UserRepository implements auth.UserRepository with a mutex-guarded map.
// It enforces the same uniqueness invariants as the SQL adapter: email,
// session_id, and reset_token are unique across all users.
type UserRepository struct {
	mu    sync.Mutex
	users map[ulid.ULID]*auth.User
}

// NewUserRepository creates an empty in-memory repository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[ulid.ULID]*auth.User)}
}

// FindOne retrieves the user whose field equals value.
func (r *UserRepository) FindOne(_ context.Context, field auth.Field, value string) (*auth.User, error) {
	if !field.Filterable() {
		return nil, oops.Code("STORE_INVALID_FILTER").
			With("field", string(field)).
			Wrap(auth.ErrInvalidField)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if matches(u, field, value) {
			return copyUser(u), nil
		}
	}
	return nil, oops.Code("USER_NOT_FOUND").
		With("field", string(field)).
		Wrap(auth.ErrNotFound)
}

// Insert creates a new user, assigning a fresh ULID.
func (r *UserRepository) Insert(_ context.Context, email, passwordHash string) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			return nil, oops.Code("STORE_DUPLICATE_EMAIL").
				With("email", email).
				Wrap(auth.ErrDuplicateEmail)
		}
	}

	now := time.Now().UTC()
	user := &auth.User{
		ID:           ulid.Make(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.users[user.ID] = user
	return copyUser(user), nil
}

// Update applies all changes to the identified user atomically: the field
// set is validated and checked against uniqueness before anything is
// written, so a failed update leaves the record untouched.
func (r *UserRepository) Update(_ context.Context, id ulid.ULID, changes auth.Changes) error {
	if err := auth.ValidateChanges(changes); err != nil {
		return oops.Code("STORE_INVALID_FIELD").Wrap(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return oops.Code("USER_NOT_FOUND").
			With("id", id.String()).
			Wrap(auth.ErrNotFound)
	}

	if err := r.checkUnique(id, changes); err != nil {
		return err
	}

	updated := *user
	for field, value := range changes {
		if err := applyChange(&updated, field, value); err != nil {
			return err
		}
	}
	updated.UpdatedAt = time.Now().UTC()
	r.users[id] = &updated
	return nil
}

// checkUnique rejects changes that would collide with another user's
// email, session_id, or reset_token.
func (r *UserRepository) checkUnique(id ulid.ULID, changes auth.Changes) error {
	for field, value := range changes {
		s, ok := stringValue(value)
		if !ok || s == "" {
			continue
		}
		if field != auth.FieldEmail && field != auth.FieldSessionID && field != auth.FieldResetToken {
			continue
		}
		for otherID, other := range r.users {
			if otherID != id && matches(other, field, s) {
				if field == auth.FieldEmail {
					return oops.Code("STORE_DUPLICATE_EMAIL").Wrap(auth.ErrDuplicateEmail)
				}
				return oops.Code("STORE_CONSTRAINT_VIOLATION").
					With("field", string(field)).
					Wrap(auth.ErrConstraintViolation)
			}
		}
	}
	return nil
}

func matches(u *auth.User, field auth.Field, value string) bool {
	switch field {
	case auth.FieldID:
		return u.ID.String() == value
	case auth.FieldEmail:
		return u.Email == value
	case auth.FieldSessionID:
		return u.SessionID != nil && *u.SessionID == value
	case auth.FieldResetToken:
		return u.ResetToken != nil && *u.ResetToken == value
	default:
		return false
	}
}

func applyChange(u *auth.User, field auth.Field, value any) error {
	switch field {
	case auth.FieldEmail:
		s, ok := stringValue(value)
		if !ok {
			return badValue(field, value)
		}
		u.Email = s
	case auth.FieldPasswordHash:
		s, ok := stringValue(value)
		if !ok {
			return badValue(field, value)
		}
		u.PasswordHash = s
	case auth.FieldSessionID:
		p, ok := stringPtr(value)
		if !ok {
			return badValue(field, value)
		}
		u.SessionID = p
	case auth.FieldResetToken:
		p, ok := stringPtr(value)
		if !ok {
			return badValue(field, value)
		}
		u.ResetToken = p
	case auth.FieldSessionCreatedAt:
		p, ok := timePtr(value)
		if !ok {
			return badValue(field, value)
		}
		u.SessionCreatedAt = p
	case auth.FieldUpdatedAt:
		p, ok := timePtr(value)
		if !ok || p == nil {
			return badValue(field, value)
		}
		u.UpdatedAt = *p
	default:
		return oops.Code("STORE_INVALID_FIELD").Wrap(auth.ErrInvalidField)
	}
	return nil
}

func badValue(field auth.Field, value any) error {
	return oops.Code("STORE_INVALID_VALUE").
		With("field", string(field)).
		With("value", value).
		Wrap(auth.ErrInvalidField)
}

func stringValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	case nil:
		return "", true
	default:
		return "", false
	}
}

func stringPtr(value any) (*string, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case string:
		return &v, true
	case *string:
		return v, true
	default:
		return nil, false
	}
}

func timePtr(value any) (*time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return nil, true
	case time.Time:
		return &v, true
	case *time.Time:
		return v, true
	default:
		return nil, false
	}
}

func copyUser(u *auth.User) *auth.User {
	out := *u
	if u.SessionID != nil {
		s := *u.SessionID
		out.SessionID = &s
	}
	if u.ResetToken != nil {
		s := *u.ResetToken
		out.ResetToken = &s
	}
	if u.SessionCreatedAt != nil {
		t := *u.SessionCreatedAt
		out.SessionCreatedAt = &t
	}
	return &out
}

// Compile-time interface check.
var _ auth.UserRepository = (*UserRepository)(nil)
