// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

//go:build integration

package integration

import (
	"context"

	"github.com/oklog/ulid/v2"
	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention

	"github.com/gatewarden/gatewarden/internal/auth"
)

var _ = Describe("Registration", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
	})

	It("persists a user with a hashed password", func() {
		user, err := env.Service.Register(ctx, "alice@example.com", "hunter2!")
		Expect(err).NotTo(HaveOccurred())
		Expect(user.Email).To(Equal("alice@example.com"))

		stored, err := env.Users.FindOne(ctx, auth.FieldEmail, "alice@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(user.ID))
		Expect(stored.PasswordHash).To(HavePrefix("$argon2id$"))
		Expect(stored.PasswordHash).NotTo(ContainSubstring("hunter2!"))
	})

	It("rejects a duplicate email and keeps the original credentials", func() {
		first, err := env.Service.Register(ctx, "bob@example.com", "first-password")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Service.Register(ctx, "bob@example.com", "second-password")
		Expect(err).To(MatchError(auth.ErrAlreadyExists))

		stored, err := env.Users.FindOne(ctx, auth.FieldEmail, "bob@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(stored.ID).To(Equal(first.ID))
		Expect(stored.PasswordHash).To(Equal(first.PasswordHash))

		valid, err := env.Service.ValidateLogin(ctx, "bob@example.com", "first-password")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeTrue())
	})
})

var _ = Describe("Login validation", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)

		_, err := env.Service.Register(ctx, "carol@example.com", "correct-password")
		Expect(err).NotTo(HaveOccurred())
	})

	It("accepts the correct password", func() {
		valid, err := env.Service.ValidateLogin(ctx, "carol@example.com", "correct-password")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeTrue())
	})

	It("rejects a wrong password", func() {
		valid, err := env.Service.ValidateLogin(ctx, "carol@example.com", "wrong-password")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeFalse())
	})

	It("treats an unknown email as invalid, not an error", func() {
		valid, err := env.Service.ValidateLogin(ctx, "nobody@example.com", "whatever")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeFalse())
	})
})

var _ = Describe("Session lifecycle", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)

		_, err := env.Service.Register(ctx, "dave@example.com", "pw")
		Expect(err).NotTo(HaveOccurred())
	})

	It("issues a token that resolves to the user", func() {
		token, err := env.Service.CreateSession(ctx, "dave@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())

		user, err := env.Service.ResolveSession(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(user).NotTo(BeNil())
		Expect(user.Email).To(Equal("dave@example.com"))
	})

	It("returns an empty token for an unknown email", func() {
		token, err := env.Service.CreateSession(ctx, "nobody@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).To(BeEmpty())
	})

	It("replaces the previous session on a second login", func() {
		first, err := env.Service.CreateSession(ctx, "dave@example.com")
		Expect(err).NotTo(HaveOccurred())
		second, err := env.Service.CreateSession(ctx, "dave@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).NotTo(Equal(first))

		stale, err := env.Service.ResolveSession(ctx, first)
		Expect(err).NotTo(HaveOccurred())
		Expect(stale).To(BeNil())

		current, err := env.Service.ResolveSession(ctx, second)
		Expect(err).NotTo(HaveOccurred())
		Expect(current).NotTo(BeNil())
	})

	It("destroys a session idempotently", func() {
		token, err := env.Service.CreateSession(ctx, "dave@example.com")
		Expect(err).NotTo(HaveOccurred())

		user, err := env.Service.ResolveSession(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(user).NotTo(BeNil())

		Expect(env.Service.DestroySession(ctx, user.ID)).To(Succeed())

		gone, err := env.Service.ResolveSession(ctx, token)
		Expect(err).NotTo(HaveOccurred())
		Expect(gone).To(BeNil())

		Expect(env.Service.DestroySession(ctx, user.ID)).To(Succeed())
	})
})

var _ = Describe("Password reset", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)

		_, err := env.Service.Register(ctx, "erin@example.com", "old-password")
		Expect(err).NotTo(HaveOccurred())
	})

	It("walks the full request-and-redeem flow", func() {
		token, err := env.Service.RequestPasswordReset(ctx, "erin@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())

		Expect(env.Service.RedeemPasswordReset(ctx, token, "new-password")).To(Succeed())

		valid, err := env.Service.ValidateLogin(ctx, "erin@example.com", "new-password")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeTrue())

		valid, err = env.Service.ValidateLogin(ctx, "erin@example.com", "old-password")
		Expect(err).NotTo(HaveOccurred())
		Expect(valid).To(BeFalse())

		err = env.Service.RedeemPasswordReset(ctx, token, "another-password")
		Expect(err).To(MatchError(auth.ErrInvalidResetToken))
	})

	It("fails loudly for an unknown email", func() {
		_, err := env.Service.RequestPasswordReset(ctx, "nobody@example.com")
		Expect(err).To(MatchError(auth.ErrUserNotFound))
	})

	It("invalidates an earlier token when a new one is requested", func() {
		first, err := env.Service.RequestPasswordReset(ctx, "erin@example.com")
		Expect(err).NotTo(HaveOccurred())
		second, err := env.Service.RequestPasswordReset(ctx, "erin@example.com")
		Expect(err).NotTo(HaveOccurred())
		Expect(second).NotTo(Equal(first))

		err = env.Service.RedeemPasswordReset(ctx, first, "np")
		Expect(err).To(MatchError(auth.ErrInvalidResetToken))

		Expect(env.Service.RedeemPasswordReset(ctx, second, "np")).To(Succeed())
	})
})

var _ = Describe("User repository constraints", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		cleanupUsers(ctx, env.pool)
	})

	It("rejects a duplicate email on insert", func() {
		_, err := env.Users.Insert(ctx, "frank@example.com", "hash1")
		Expect(err).NotTo(HaveOccurred())

		_, err = env.Users.Insert(ctx, "frank@example.com", "hash2")
		Expect(err).To(MatchError(auth.ErrDuplicateEmail))
	})

	It("enforces session token uniqueness across users", func() {
		one, err := env.Users.Insert(ctx, "one@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())
		two, err := env.Users.Insert(ctx, "two@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Users.Update(ctx, one.ID, auth.Changes{auth.FieldSessionID: "shared-token"})).To(Succeed())

		err = env.Users.Update(ctx, two.ID, auth.Changes{auth.FieldSessionID: "shared-token"})
		Expect(err).To(MatchError(auth.ErrConstraintViolation))
	})

	It("allows re-using a token after the holder releases it", func() {
		one, err := env.Users.Insert(ctx, "one@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())
		two, err := env.Users.Insert(ctx, "two@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())

		Expect(env.Users.Update(ctx, one.ID, auth.Changes{auth.FieldSessionID: "token"})).To(Succeed())
		Expect(env.Users.Update(ctx, one.ID, auth.Changes{auth.FieldSessionID: nil})).To(Succeed())
		Expect(env.Users.Update(ctx, two.ID, auth.Changes{auth.FieldSessionID: "token"})).To(Succeed())
	})

	It("fails update for a missing user", func() {
		err := env.Users.Update(ctx, ulid.Make(), auth.Changes{auth.FieldSessionID: "token"})
		Expect(err).To(MatchError(auth.ErrNotFound))
	})

	It("finds users by reset token", func() {
		user, err := env.Users.Insert(ctx, "grace@example.com", "hash")
		Expect(err).NotTo(HaveOccurred())
		Expect(env.Users.Update(ctx, user.ID, auth.Changes{auth.FieldResetToken: "reset-1"})).To(Succeed())

		found, err := env.Users.FindOne(ctx, auth.FieldResetToken, "reset-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(found.ID).To(Equal(user.ID))
	})
})
