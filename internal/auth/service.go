// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gatewarden Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// tokenRetries bounds re-rolls when a generated token collides with the
// store's unique constraint. Collisions are negligible for 128-bit
// tokens, so one retry is already generous.
const tokenRetries = 3

// Service provides authentication operations over a user store.
//
// Per-user state lives entirely on the User record: session_id is set by
// CreateSession and cleared by DestroySession, reset_token is set by
// RequestPasswordReset and consumed by RedeemPasswordReset together with
// the password change.
type Service struct {
	users      UserRepository
	hasher     PasswordHasher
	tokens     TokenGenerator
	logger     *slog.Logger
	metrics    *Metrics
	sessionTTL time.Duration
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger attaches a structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics attaches Prometheus counters for auth operations.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSessionTTL enables session expiry: sessions older than ttl resolve
// as absent. A zero or negative ttl keeps sessions valid until logout.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.sessionTTL = ttl }
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(users UserRepository, hasher PasswordHasher, tokens TokenGenerator, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("password hasher is required")
	}
	if tokens == nil {
		return nil, oops.Code("AUTH_INVALID_DEPS").Errorf("token generator is required")
	}

	s := &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Register creates a new user from email and password. It is the only
// path that creates users. A taken email fails with ErrAlreadyExists,
// whether detected by the lookup or by the insert racing another
// registration.
func (s *Service) Register(ctx context.Context, email, password string) (*User, error) {
	_, err := s.users.FindOne(ctx, FieldEmail, email)
	if err == nil {
		return nil, oops.Code("AUTH_ALREADY_EXISTS").
			With("email", email).
			Wrap(ErrAlreadyExists)
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	user, err := s.users.Insert(ctx, email, hash)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			return nil, oops.Code("AUTH_ALREADY_EXISTS").
				With("email", email).
				Wrap(ErrAlreadyExists)
		}
		return nil, oops.Code("AUTH_REGISTER_FAILED").
			With("operation", "insert user").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.RegistrationsTotal.Inc()
	}
	return user, nil
}

// ValidateLogin reports whether email and password name a valid
// credential pair. An unknown email is a plain false, not an error; store
// faults still surface so an outage never reads as "wrong password" was
// confirmed.
func (s *Service) ValidateLogin(ctx context.Context, email, password string) (bool, error) {
	user, err := s.users.FindOne(ctx, FieldEmail, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			s.countLogin(verdictInvalid)
			return false, nil
		}
		return false, oops.Code("AUTH_LOGIN_CHECK_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	valid := s.hasher.Verify(password, user.PasswordHash)
	if valid {
		s.countLogin(verdictValid)
	} else {
		s.countLogin(verdictInvalid)
	}
	return valid, nil
}

// CreateSession issues a session token for the user with the given email
// and persists it on the user record, overwriting any prior session
// (single active session, last write wins). An unknown email yields an
// empty token and no error; the login flow treats it the same as a wrong
// password.
func (s *Service) CreateSession(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindOne(ctx, FieldEmail, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil
		}
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := s.storeToken(ctx, user.ID, func(token string) Changes {
		now := s.now().UTC()
		return Changes{
			FieldSessionID:        token,
			FieldSessionCreatedAt: now,
		}
	})
	if err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "session created", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.SessionsCreatedTotal.Inc()
	}
	return token, nil
}

// ResolveSession returns the user holding the given session token, or nil
// if the token is empty, unknown, or expired under the configured TTL.
func (s *Service) ResolveSession(ctx context.Context, sessionID string) (*User, error) {
	if sessionID == "" {
		return nil, nil
	}

	user, err := s.users.FindOne(ctx, FieldSessionID, sessionID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("AUTH_SESSION_RESOLVE_FAILED").
			With("operation", "find user by session id").
			Wrap(err)
	}

	if user.SessionExpiredAt(s.now(), s.sessionTTL) {
		return nil, nil
	}
	return user, nil
}

// DestroySession clears the user's session. It is idempotent: destroying
// an absent session, or the session of an unknown user, is a no-op.
func (s *Service) DestroySession(ctx context.Context, userID ulid.ULID) error {
	if userID.Compare(ulid.ULID{}) == 0 {
		return nil
	}

	err := s.users.Update(ctx, userID, Changes{
		FieldSessionID:        nil,
		FieldSessionCreatedAt: nil,
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return oops.Code("AUTH_SESSION_DESTROY_FAILED").
			With("user_id", userID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "session destroyed", "user_id", userID.String())
	if s.metrics != nil {
		s.metrics.SessionsEndedTotal.Inc()
	}
	return nil
}

// RequestPasswordReset issues a reset token for the user with the given
// email, overwriting any prior one. Unlike CreateSession, an unknown
// email fails with ErrUserNotFound: a reset request for a nonexistent
// account is an exceptional input, not a normal negative.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindOne(ctx, FieldEmail, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", oops.Code("AUTH_USER_NOT_FOUND").
				With("email", email).
				Wrap(ErrUserNotFound)
		}
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("operation", "find user by email").
			Wrap(err)
	}

	token, err := s.storeToken(ctx, user.ID, func(token string) Changes {
		return Changes{FieldResetToken: token}
	})
	if err != nil {
		return "", oops.Code("AUTH_RESET_REQUEST_FAILED").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset requested", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.ResetsRequestedTotal.Inc()
	}
	return token, nil
}

// RedeemPasswordReset sets a new password for the user holding the reset
// token and consumes the token. Both changes land in one atomic update: a
// reset token never survives the password change it authorized.
func (s *Service) RedeemPasswordReset(ctx context.Context, resetToken, newPassword string) error {
	if resetToken == "" {
		return oops.Code("AUTH_RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
	}

	user, err := s.users.FindOne(ctx, FieldResetToken, resetToken)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code("AUTH_RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
		}
		return oops.Code("AUTH_RESET_REDEEM_FAILED").
			With("operation", "find user by reset token").
			Wrap(err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("AUTH_RESET_REDEEM_FAILED").
			With("operation", "hash password").
			Wrap(err)
	}

	err = s.users.Update(ctx, user.ID, Changes{
		FieldPasswordHash: hash,
		FieldResetToken:   nil,
	})
	if err != nil {
		return oops.Code("AUTH_RESET_REDEEM_FAILED").
			With("operation", "update password").
			With("user_id", user.ID.String()).
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "password reset redeemed", "user_id", user.ID.String())
	if s.metrics != nil {
		s.metrics.ResetsRedeemedTotal.Inc()
	}
	return nil
}

// storeToken generates a token and persists the changes built from it,
// re-rolling on unique-constraint collisions.
func (s *Service) storeToken(ctx context.Context, userID ulid.ULID, build func(token string) Changes) (string, error) {
	var lastErr error
	for range tokenRetries {
		token, err := s.tokens.NewToken()
		if err != nil {
			return "", err
		}
		err = s.users.Update(ctx, userID, build(token))
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrConstraintViolation) {
			return "", err
		}
		lastErr = err
	}
	return "", oops.Code("AUTH_TOKEN_EXHAUSTED").
		With("retries", tokenRetries).
		Wrap(lastErr)
}

func (s *Service) countLogin(verdict string) {
	if s.metrics != nil {
		s.metrics.LoginChecksTotal.WithLabelValues(verdict).Inc()
	}
}
