// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/samber/oops"
	"golang.org/x/crypto/argon2"
)

// OWASP-recommended argon2id defaults.
const (
	DefaultArgon2Time    = 1         // iterations
	DefaultArgon2Memory  = 64 * 1024 // 64 MB
	DefaultArgon2Threads = 4         // parallelism

	argon2SaltLen = 16 // salt length in bytes
	argon2KeyLen  = 32 // output length in bytes

	// maxVerifyMemory caps the memory cost accepted from a stored hash.
	// The parameters are attacker-influenced once a hash is corrupted;
	// 2 GiB (in KiB) is far above any legitimate work factor.
	maxVerifyMemory = 2 * 1024 * 1024
)

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code("AUTH_EMPTY_PASSWORD").Errorf("password cannot be empty")

// PasswordHasher provides one-way password hashing and verification.
type PasswordHasher interface {
	// Hash produces a salted hash of the password. A fresh random salt is
	// drawn on every call, so two hashes of the same password differ.
	Hash(password string) (string, error)

	// Verify reports whether the password matches the hash. It returns
	// false for any mismatch or malformed hash; it never errors on bad
	// input.
	Verify(password, hash string) bool
}

// Argon2idParams tunes the argon2id work factor.
type Argon2idParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
}

// Argon2idHasher implements PasswordHasher using argon2id with PHC string
// encoding. The zero value is not usable; construct via NewArgon2idHasher.
type Argon2idHasher struct {
	params Argon2idParams
}

// NewArgon2idHasher creates an Argon2idHasher with OWASP-recommended
// parameters.
func NewArgon2idHasher() *Argon2idHasher {
	return NewArgon2idHasherWithParams(Argon2idParams{
		Time:    DefaultArgon2Time,
		Memory:  DefaultArgon2Memory,
		Threads: DefaultArgon2Threads,
	})
}

// NewArgon2idHasherWithParams creates an Argon2idHasher with explicit work
// factor parameters. Zero fields fall back to the defaults.
func NewArgon2idHasherWithParams(p Argon2idParams) *Argon2idHasher {
	if p.Time == 0 {
		p.Time = DefaultArgon2Time
	}
	if p.Memory == 0 {
		p.Memory = DefaultArgon2Memory
	}
	if p.Threads == 0 {
		p.Threads = DefaultArgon2Threads
	}
	return &Argon2idHasher{params: p}
}

// Hash produces an argon2id hash of the password in PHC string format:
// $argon2id$v=19$m=65536,t=1,p=4$<salt>$<hash>
func (h *Argon2idHasher) Hash(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, argon2SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", oops.Code("AUTH_SALT_FAILED").Wrap(err)
	}

	hash := argon2.IDKey([]byte(password), salt, h.params.Time, h.params.Memory, h.params.Threads, argon2KeyLen)

	encoded := fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	)

	return encoded, nil
}

// Verify reports whether the password, rehashed under the salt and
// parameters embedded in encodedHash, matches it. Malformed hashes verify
// as false rather than erroring: a corrupt stored hash must read as
// "wrong password", never as a crash in the login path.
func (h *Argon2idHasher) Verify(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var memory, time, threads uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &time, &threads); err != nil {
		return false
	}
	// argon2.IDKey panics on zero rounds or zero parallelism.
	if time == 0 || threads == 0 || threads > 255 {
		return false
	}
	if memory == 0 || memory > maxVerifyMemory {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}
	keyLen := len(expected)
	if keyLen <= 0 || keyLen > 1<<30 {
		return false
	}

	computed := argon2.IDKey([]byte(password), salt, time, memory, uint8(threads), uint32(keyLen))

	return subtle.ConstantTimeCompare(computed, expected) == 1
}

// Compile-time interface check.
var _ PasswordHasher = (*Argon2idHasher)(nil)
