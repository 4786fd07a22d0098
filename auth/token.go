// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"crypto/rand"
	"errors"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"
)

// Token issuance defaults.
const (
	// DefaultTokenTTL is the token lifetime used when none is configured.
	DefaultTokenTTL = 24 * time.Hour
	// DefaultIssuerName is the iss claim used when none is configured.
	DefaultIssuerName = "stormstack-auth"
	// secretLength is the size of a generated signing secret in bytes.
	secretLength = 32
)

// Token is a verified, time-bounded authorization claim set. It is owned by
// the caller that requested verification: never persisted, reconstructed
// fresh from the signed string on every verification.
//
// Roles carries the user's directly assigned role names as of issuance.
// Scopes carries the transitive closure of those roles over the inclusion
// hierarchy, resolved once at issuance, so scope checks need no repository
// round-trip.
type Token struct {
	UserID    int64
	Username  string
	Roles     []string
	Scopes    []string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Signed    string
}

// HasRole reports whether the role is in the token's directly assigned role
// claim. It does not consult the role hierarchy; use HasScope for the
// resolved set, or AuthService.UserHasRole against current repository state.
func (t *Token) HasRole(role string) bool {
	return slices.Contains(t.Roles, role)
}

// HasScope reports whether the named role is in the token's resolved scope
// set. The set was computed from the role hierarchy at issuance time; role
// changes made since are only picked up by refreshing the token.
func (t *Token) HasScope(scope string) bool {
	return slices.Contains(t.Scopes, scope)
}

// IsExpired reports whether the token's expiry instant has passed.
func (t *Token) IsExpired() bool {
	return t.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the token would be expired at the given time.
func (t *Token) IsExpiredAt(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// TokenIssuer is the pluggable strategy that mints and verifies signed
// tokens for authenticated users. Implementations own the signing key;
// two issuers verify each other's tokens only if they share it.
type TokenIssuer interface {
	// Issue constructs a signed token for the user. scopes is the resolved
	// role closure to embed alongside the user's direct role assignments.
	Issue(user *User, scopes []string) (*Token, error)

	// Verify checks the signature, issuer, and expiry of a signed token and
	// reconstructs the Token from its claims. It performs no repository
	// lookups and has no side effects.
	Verify(signed string) (*Token, error)
}

// tokenClaims is the JWT payload for tokens minted by JWTIssuer.
type tokenClaims struct {
	UserID   int64    `json:"user_id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	Scopes   []string `json:"scopes,omitempty"`
	jwt.RegisteredClaims
}

// JWTIssuer is the default TokenIssuer: HMAC-SHA256 signed JWTs with a
// ULID jti claim. Safe for concurrent use.
type JWTIssuer struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewJWTIssuer creates a JWTIssuer.
//
// If secret is empty, a cryptographically random per-instance secret is
// generated; tokens minted by one instance can then not be verified by any
// other. Multi-instance deployments must inject a shared secret. An empty
// issuer name and a zero ttl fall back to DefaultIssuerName and
// DefaultTokenTTL.
func NewJWTIssuer(secret []byte, issuer string, ttl time.Duration) (*JWTIssuer, error) {
	if len(secret) == 0 {
		secret = make([]byte, secretLength)
		if _, err := rand.Read(secret); err != nil {
			return nil, oops.Code(CodeInvalidToken).
				With("operation", "generate signing secret").
				Wrap(err)
		}
	}
	if issuer == "" {
		issuer = DefaultIssuerName
	}
	if ttl == 0 {
		ttl = DefaultTokenTTL
	}
	return &JWTIssuer{
		secret: secret,
		issuer: issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue constructs and signs a token carrying the user's identity, direct
// roles, and resolved scopes.
func (i *JWTIssuer) Issue(user *User, scopes []string) (*Token, error) {
	if user == nil {
		return nil, oops.Code(CodeInvalidToken).Errorf("cannot issue token for nil user")
	}

	now := i.now()
	expiresAt := now.Add(i.ttl)
	claims := tokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		Roles:    slices.Clone(user.Roles),
		Scopes:   normalizeRoleSet(scopes),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Subject:   user.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        ulid.Make().String(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, oops.Code(CodeInvalidToken).
			With("operation", "sign token").
			Wrap(err)
	}

	return &Token{
		UserID:    user.ID,
		Username:  user.Username,
		Roles:     slices.Clone(claims.Roles),
		Scopes:    slices.Clone(claims.Scopes),
		IssuedAt:  now,
		ExpiresAt: expiresAt,
		Signed:    signed,
	}, nil
}

// Verify checks signature, signing method, issuer, and expiry, then
// reconstructs the Token from the verified claims.
func (i *JWTIssuer) Verify(signed string) (*Token, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims,
		func(_ *jwt.Token) (any, error) { return i.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(i.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, oops.Code(CodeTokenExpired).
				With("operation", "verify token").
				Wrap(err)
		}
		return nil, oops.Code(CodeInvalidToken).
			With("operation", "verify token").
			Wrap(err)
	}
	if !parsed.Valid {
		return nil, oops.Code(CodeInvalidToken).Errorf("token failed validation")
	}
	if claims.Username == "" {
		return nil, oops.Code(CodeInvalidToken).Errorf("token missing username claim")
	}
	if claims.UserID <= 0 {
		return nil, oops.Code(CodeInvalidToken).Errorf("token missing user_id claim")
	}

	var issuedAt time.Time
	if claims.IssuedAt != nil {
		issuedAt = claims.IssuedAt.Time
	}

	return &Token{
		UserID:    claims.UserID,
		Username:  claims.Username,
		Roles:     slices.Clone(claims.Roles),
		Scopes:    slices.Clone(claims.Scopes),
		IssuedAt:  issuedAt,
		ExpiresAt: claims.ExpiresAt.Time,
		Signed:    signed,
	}, nil
}
