// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"context"
	"regexp"
	"slices"
	"time"

	"github.com/samber/oops"
)

// Username validation constraints.
const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
)

// usernameRegex matches usernames that start with a letter and contain only
// letters, numbers, and underscores.
var usernameRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_]*$`)

// User is an identity record. The zero ID marks an unpersisted user; the
// repository assigns the ID on first save and it is immutable afterwards.
// Usernames are unique and case-sensitive. The password hash is the only
// credential material ever stored; plaintext never leaves the call that
// received it.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []string
	Enabled      bool
	CreatedAt    time.Time
}

// NewUser creates an enabled, unpersisted User with the given role set.
// The password hash must already be computed by PasswordService.
func NewUser(username, passwordHash string, roles []string) User {
	return User{
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        normalizeRoleSet(roles),
		Enabled:      true,
		CreatedAt:    time.Now().UTC(),
	}
}

// HasRole reports whether the role is directly assigned to the user.
// It does not resolve the role hierarchy; use AuthService.UserHasRole for
// the hierarchy-aware check.
func (u User) HasRole(role string) bool {
	return slices.Contains(u.Roles, role)
}

// WithPasswordHash returns a copy of the user with a replaced password hash.
func (u User) WithPasswordHash(hash string) User {
	c := u.clone()
	c.PasswordHash = hash
	return c
}

// WithRoles returns a copy of the user with a replaced role set.
func (u User) WithRoles(roles []string) User {
	c := u.clone()
	c.Roles = normalizeRoleSet(roles)
	return c
}

// WithEnabled returns a copy of the user with the enabled flag set.
func (u User) WithEnabled(enabled bool) User {
	c := u.clone()
	c.Enabled = enabled
	return c
}

func (u User) clone() User {
	c := u
	c.Roles = slices.Clone(u.Roles)
	return c
}

// normalizeRoleSet copies, sorts, and deduplicates a role-name list so that
// stored role sets have set semantics regardless of caller input.
func normalizeRoleSet(roles []string) []string {
	out := slices.Clone(roles)
	slices.Sort(out)
	return slices.Compact(out)
}

// ValidateUsername checks a username against the account naming rules:
// MinUsernameLength to MaxUsernameLength characters, starting with a letter,
// containing only letters, numbers, and underscores.
func ValidateUsername(username string) error {
	if username == "" {
		return oops.Code(CodeInvalidUsername).Errorf("username cannot be empty")
	}
	if len(username) < MinUsernameLength {
		return oops.Code(CodeInvalidUsername).
			With("min", MinUsernameLength).
			Errorf("username must be at least %d characters", MinUsernameLength)
	}
	if len(username) > MaxUsernameLength {
		return oops.Code(CodeInvalidUsername).
			With("max", MaxUsernameLength).
			Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return oops.Code(CodeInvalidUsername).
			Errorf("username must start with a letter and contain only letters, numbers, and underscores")
	}
	return nil
}

// UserRepository manages user persistence. Implementations must guarantee
// that a read following a completed save observes the saved value, and must
// never reuse the ID of a deleted user.
type UserRepository interface {
	// FindByUsername retrieves a user by exact username.
	// Returns ErrNotFound if no such user exists.
	FindByUsername(ctx context.Context, username string) (*User, error)

	// FindByID retrieves a user by ID.
	// Returns ErrNotFound if no such user exists.
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindAll returns every stored user.
	FindAll(ctx context.Context) ([]User, error)

	// Save persists the user as a whole-record replacement. A zero ID
	// requests insertion; the returned user carries the assigned ID.
	Save(ctx context.Context, user User) (*User, error)

	// DeleteByID removes a user. Returns ErrNotFound if absent.
	DeleteByID(ctx context.Context, id int64) error

	// ExistsByUsername reports whether a user with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// Count returns the number of stored users.
	Count(ctx context.Context) (int64, error)
}
