// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"time"

	"github.com/oklog/ulid/v2"
)

// Field names a column of the User record. The set is closed: filters and
// updates referencing anything else fail with ErrInvalidField. This
// replaces a dynamic field-name dispatch with an enumerated query kind.
type Field string

// Known User fields.
const (
	FieldID               Field = "id"
	FieldEmail            Field = "email"
	FieldPasswordHash     Field = "hashed_password"
	FieldSessionID        Field = "session_id"
	FieldSessionCreatedAt Field = "session_created_at"
	FieldResetToken       Field = "reset_token"
	FieldUpdatedAt        Field = "updated_at"
)

// filterFields are the uniquely-indexed fields FindOne may query by.
var filterFields = map[Field]bool{
	FieldID:         true,
	FieldEmail:      true,
	FieldSessionID:  true,
	FieldResetToken: true,
}

// updateFields are the fields Update may change, in the order update
// statements apply them.
var updateFields = []Field{
	FieldEmail,
	FieldPasswordHash,
	FieldSessionID,
	FieldSessionCreatedAt,
	FieldResetToken,
	FieldUpdatedAt,
}

// Filterable reports whether f may be used as a FindOne filter.
func (f Field) Filterable() bool {
	return filterFields[f]
}

// Updatable reports whether f may be changed through Update.
func (f Field) Updatable() bool {
	for _, u := range updateFields {
		if u == f {
			return true
		}
	}
	return false
}

// UpdateOrder returns the updatable fields in their canonical order.
func UpdateOrder() []Field {
	out := make([]Field, len(updateFields))
	copy(out, updateFields)
	return out
}

// Changes is a set of field mutations applied atomically by Update.
// A nil value clears a nullable field.
type Changes map[Field]any

// User represents one registrant.
//
// SessionID and ResetToken are nil when no session or reset is active.
// At most one of each is live per user, and each is unique across all
// users while non-nil.
type User struct {
	ID               ulid.ULID
	Email            string
	PasswordHash     string
	SessionID        *string
	SessionCreatedAt *time.Time
	ResetToken       *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// HasSession reports whether the user currently holds a session token.
func (u *User) HasSession() bool {
	return u.SessionID != nil && *u.SessionID != ""
}

// SessionExpiredAt reports whether the user's session, if any, would be
// expired at time t under the given TTL. A zero TTL disables expiry.
func (u *User) SessionExpiredAt(t time.Time, ttl time.Duration) bool {
	if ttl <= 0 || u.SessionCreatedAt == nil {
		return false
	}
	return t.After(u.SessionCreatedAt.Add(ttl))
}

// UserRepository is the narrow persistence surface the auth core consumes.
//
// Implementations must enforce the uniqueness of email, session_id, and
// reset_token, apply every Update all-or-nothing through a single atomic
// statement, and translate engine faults into the package sentinels
// (ErrNotFound, ErrDuplicateEmail, ErrInvalidField, ErrConstraintViolation,
// ErrStoreUnavailable).
type UserRepository interface {
	// FindOne retrieves the user whose field equals value. The field must
	// be Filterable; anything else fails with ErrInvalidField. Zero
	// matches yield ErrNotFound.
	FindOne(ctx context.Context, field Field, value string) (*User, error)

	// Insert creates a new user from email and password hash, assigning
	// the identifier. A taken email fails with ErrDuplicateEmail.
	Insert(ctx context.Context, email, passwordHash string) (*User, error)

	// Update applies all changes to the identified user atomically.
	// Unknown fields fail with ErrInvalidField before anything is
	// written; a missing user fails with ErrNotFound.
	Update(ctx context.Context, id ulid.ULID, changes Changes) error
}

// ValidateChanges checks every key in changes against the updatable field
// set. Repositories call this before touching the store so that a bad
// field never results in a partial write.
func ValidateChanges(changes Changes) error {
	for f := range changes {
		if !f.Updatable() {
			return ErrInvalidField
		}
	}
	return nil
}
