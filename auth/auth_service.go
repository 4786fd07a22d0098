// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/oops"
)

// dummyPasswordHash is verified against when a username is unknown, so the
// unknown-user path does the same bcrypt work as the wrong-password path.
// This is NOT a real credential - it never matches any password.
//
//nolint:gosec // G101: intentionally fake hash for timing parity, not a credential.
const dummyPasswordHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

// AuthService provides login, token issuance, verification, refresh, and
// hierarchy-aware authorization checks.
type AuthService struct {
	users   UserRepository
	hasher  *PasswordService
	roles   *RoleService
	issuer  TokenIssuer
	metrics *Metrics
	logger  *slog.Logger
}

// AuthServiceOption configures an AuthService during construction.
type AuthServiceOption func(*authServiceOptions)

type authServiceOptions struct {
	issuer     TokenIssuer
	secret     []byte
	issuerName string
	tokenTTL   time.Duration
	metrics    *Metrics
	logger     *slog.Logger
}

// WithTokenIssuer replaces the default JWT issuer with a custom strategy.
// When set, WithTokenSecret, WithIssuerName, and WithTokenTTL are ignored.
func WithTokenIssuer(issuer TokenIssuer) AuthServiceOption {
	return func(o *authServiceOptions) { o.issuer = issuer }
}

// WithTokenSecret sets the signing secret for the default JWT issuer.
// Without it, a random per-instance secret is generated and tokens cannot
// be verified by any other instance.
func WithTokenSecret(secret []byte) AuthServiceOption {
	return func(o *authServiceOptions) { o.secret = secret }
}

// WithIssuerName sets the iss claim for the default JWT issuer.
func WithIssuerName(name string) AuthServiceOption {
	return func(o *authServiceOptions) { o.issuerName = name }
}

// WithTokenTTL sets the token lifetime for the default JWT issuer.
func WithTokenTTL(ttl time.Duration) AuthServiceOption {
	return func(o *authServiceOptions) { o.tokenTTL = ttl }
}

// WithMetrics attaches Prometheus counters for logins, issued tokens, and
// verifications.
func WithMetrics(m *Metrics) AuthServiceOption {
	return func(o *authServiceOptions) { o.metrics = m }
}

// WithLogger attaches a structured logger for best-effort failure paths
// (hash upgrades). Defaults to slog.Default().
func WithLogger(logger *slog.Logger) AuthServiceOption {
	return func(o *authServiceOptions) { o.logger = logger }
}

// NewAuthService creates an AuthService.
func NewAuthService(users UserRepository, hasher *PasswordService, roles *RoleService, opts ...AuthServiceOption) (*AuthService, error) {
	if users == nil {
		return nil, oops.Errorf("user repository is required")
	}
	if hasher == nil {
		return nil, oops.Errorf("password service is required")
	}
	if roles == nil {
		return nil, oops.Errorf("role service is required")
	}

	var o authServiceOptions
	for _, opt := range opts {
		opt(&o)
	}

	issuer := o.issuer
	if issuer == nil {
		var err error
		issuer, err = NewJWTIssuer(o.secret, o.issuerName, o.tokenTTL)
		if err != nil {
			return nil, err
		}
	}

	logger := o.logger
	if logger == nil {
		logger = slog.Default()
	}

	return &AuthService{
		users:   users,
		hasher:  hasher,
		roles:   roles,
		issuer:  issuer,
		metrics: o.metrics,
		logger:  logger,
	}, nil
}

// Login authenticates a username/password pair and returns a freshly issued
// token. An unknown username and a wrong password fail identically, with no
// distinguishing signal in either the reason code or the timing: the
// unknown-user path still performs a bcrypt verification against a dummy
// hash.
func (s *AuthService) Login(ctx context.Context, username, password string) (*Token, error) {
	user, lookupErr := s.users.FindByUsername(ctx, username)
	if lookupErr != nil {
		if errors.Is(lookupErr, ErrNotFound) {
			s.hasher.Verify(password, dummyPasswordHash)
			s.metrics.recordLogin(false)
			return nil, invalidCredentials()
		}
		return nil, oops.Code(CodeRepositoryFailure).
			With("operation", "find user by username").
			Wrap(lookupErr)
	}

	if !user.Enabled {
		s.metrics.recordLogin(false)
		return nil, oops.Code(CodeUserDisabled).
			With("username", username).
			Errorf("user account is disabled")
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.metrics.recordLogin(false)
		return nil, invalidCredentials()
	}

	// Transparently upgrade hashes stored at a lower cost (or malformed
	// legacy hashes). Login succeeds regardless of the save outcome.
	if s.hasher.NeedsRehash(user.PasswordHash) {
		if newHash, hashErr := s.hasher.Hash(password); hashErr == nil {
			if _, saveErr := s.users.Save(ctx, user.WithPasswordHash(newHash)); saveErr != nil {
				s.logger.Warn("password hash upgrade failed",
					"username", username,
					"error", saveErr)
			}
		}
	}

	token, err := s.issueFor(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.recordLogin(true)
	s.metrics.recordTokenIssued()
	return token, nil
}

// VerifyToken verifies the signature, issuer, and expiry of a signed token
// and reconstructs the claim set. It is a pure claim extraction: no
// repository lookups, no side effects, safe to call concurrently.
func (s *AuthService) VerifyToken(signed string) (*Token, error) {
	token, err := s.issuer.Verify(signed)
	if err != nil {
		if HasCode(err, CodeTokenExpired) {
			s.metrics.recordVerification(verifyResultExpired)
		} else {
			s.metrics.recordVerification(verifyResultInvalid)
		}
		return nil, err
	}
	s.metrics.recordVerification(verifyResultValid)
	return token, nil
}

// RefreshToken fully verifies the presented token, re-fetches the current
// user record, and issues a brand-new token with a fresh expiry for that
// current state. Role changes made after issuance are picked up here and
// only here; a deleted or disabled account fails the refresh.
func (s *AuthService) RefreshToken(ctx context.Context, signed string) (*Token, error) {
	verified, err := s.VerifyToken(signed)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, verified.UserID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).
				With("id", verified.UserID).
				Errorf("user %d not found", verified.UserID)
		}
		return nil, oops.Code(CodeRepositoryFailure).
			With("operation", "find user by id").
			Wrap(err)
	}
	if !user.Enabled {
		return nil, oops.Code(CodeUserDisabled).
			With("username", user.Username).
			Errorf("user account is disabled")
	}

	token, err := s.issueFor(ctx, user)
	if err != nil {
		return nil, err
	}
	s.metrics.recordTokenIssued()
	return token, nil
}

// UserHasRole reports whether any of the user's directly assigned roles
// transitively includes the target role. This is the authoritative,
// repository-backed hierarchy check; Token.HasScope answers the same
// question from the claims frozen at issuance.
func (s *AuthService) UserHasRole(ctx context.Context, user *User, roleName string) (bool, error) {
	if user == nil {
		return false, nil
	}
	for _, assigned := range user.Roles {
		ok, err := s.roles.RoleIncludes(ctx, assigned, roleName)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// RequireRole fails with a permission-denied error unless the user
// transitively holds the target role.
func (s *AuthService) RequireRole(ctx context.Context, user *User, roleName string) error {
	ok, err := s.UserHasRole(ctx, user, roleName)
	if err != nil {
		return err
	}
	if !ok {
		username := ""
		if user != nil {
			username = user.Username
		}
		return oops.Code(CodePermissionDenied).
			With("username", username).
			With("role", roleName).
			Errorf("role %q required", roleName)
	}
	return nil
}

// issueFor resolves the user's effective role closure and mints a token
// carrying both the direct assignments and the resolved scopes.
func (s *AuthService) issueFor(ctx context.Context, user *User) (*Token, error) {
	scopes, err := s.roles.EffectiveRoles(ctx, user.Roles)
	if err != nil {
		return nil, err
	}
	return s.issuer.Issue(user, scopes)
}

func invalidCredentials() error {
	return oops.Code(CodeInvalidCredentials).Errorf("invalid username or password")
}
