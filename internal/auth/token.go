// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"github.com/google/uuid"
	"github.com/samber/oops"
)

// TokenGenerator produces opaque identifiers for sessions and password
// resets. Generated tokens are treated as globally unique without a
// lookup; the store's unique constraints catch the negligible collision
// case, and callers re-roll on ErrConstraintViolation.
type TokenGenerator interface {
	NewToken() (string, error)
}

// UUIDGenerator implements TokenGenerator with random (version 4) UUIDs:
// 128 bits from a cryptographically strong source in canonical text form.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewToken returns a fresh random UUID string.
func (g *UUIDGenerator) NewToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", oops.Code("AUTH_TOKEN_GENERATE_FAILED").
			With("operation", "uuid.NewRandom").
			Wrap(err)
	}
	return id.String(), nil
}

// Compile-time interface check.
var _ TokenGenerator = (*UUIDGenerator)(nil)
