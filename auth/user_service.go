// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"context"
	"errors"
	"slices"

	"github.com/samber/oops"
)

// UserService handles user CRUD. Plaintext passwords are hashed through
// PasswordService before a User record is constructed and are never
// retained past the call that received them. Role assignments are
// validated against the role repository.
type UserService struct {
	users  UserRepository
	roles  RoleRepository
	hasher *PasswordService
}

// NewUserService creates a UserService.
func NewUserService(users UserRepository, hasher *PasswordService, roles RoleRepository) *UserService {
	return &UserService{users: users, roles: roles, hasher: hasher}
}

// CreateUser creates a new enabled user with the given role assignments.
// Fails if the username is invalid or taken, or if any requested role does
// not exist.
func (s *UserService) CreateUser(ctx context.Context, username, password string, roleNames []string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("username", username).Wrap(err)
	}
	if taken {
		return nil, oops.Code(CodeUsernameTaken).
			With("username", username).
			Errorf("username %q is already taken", username)
	}

	if err := s.validateRoles(ctx, roleNames); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	created, err := s.users.Save(ctx, NewUser(username, hash, roleNames))
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("username", username).Wrap(err)
	}
	return created, nil
}

// FindByID retrieves a user by ID.
func (s *UserService) FindByID(ctx context.Context, id int64) (*User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).
				With("id", id).
				Errorf("user %d not found", id)
		}
		return nil, oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return user, nil
}

// FindByUsername retrieves a user by exact username.
func (s *UserService) FindByUsername(ctx context.Context, username string) (*User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeUserNotFound).
				With("username", username).
				Errorf("user %q not found", username)
		}
		return nil, oops.Code(CodeRepositoryFailure).With("username", username).Wrap(err)
	}
	return user, nil
}

// FindAll returns every stored user.
func (s *UserService) FindAll(ctx context.Context) ([]User, error) {
	users, err := s.users.FindAll(ctx)
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).Wrap(err)
	}
	return users, nil
}

// UpdatePassword hashes the new plaintext and replaces the user's password
// hash.
func (s *UserService) UpdatePassword(ctx context.Context, id int64, password string) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user.WithPasswordHash(hash))
}

// UpdateRoles replaces the user's role set. Every role must exist.
func (s *UserService) UpdateRoles(ctx context.Context, id int64, roleNames []string) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRoles(ctx, roleNames); err != nil {
		return nil, err
	}
	return s.save(ctx, user.WithRoles(roleNames))
}

// AddRole adds a single role to the user's role set. The role must exist.
// Adding a role the user already has is a no-op.
func (s *UserService) AddRole(ctx context.Context, id int64, roleName string) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateRoles(ctx, []string{roleName}); err != nil {
		return nil, err
	}
	if user.HasRole(roleName) {
		return user, nil
	}
	return s.save(ctx, user.WithRoles(append(slices.Clone(user.Roles), roleName)))
}

// RemoveRole removes a single role from the user's role set. Removing a
// role the user does not have is a no-op, not an error; the role itself is
// not required to exist.
func (s *UserService) RemoveRole(ctx context.Context, id int64, roleName string) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.HasRole(roleName) {
		return user, nil
	}
	remaining := slices.DeleteFunc(slices.Clone(user.Roles), func(r string) bool {
		return r == roleName
	})
	return s.save(ctx, user.WithRoles(remaining))
}

// SetEnabled sets the user's enabled flag. Disabled users cannot log in or
// refresh tokens.
func (s *UserService) SetEnabled(ctx context.Context, id int64, enabled bool) (*User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, user.WithEnabled(enabled))
}

// DeleteUser removes a user by ID.
func (s *UserService) DeleteUser(ctx context.Context, id int64) error {
	if err := s.users.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeUserNotFound).
				With("id", id).
				Errorf("user %d not found", id)
		}
		return oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return nil
}

// Count returns the number of stored users.
func (s *UserService) Count(ctx context.Context) (int64, error) {
	count, err := s.users.Count(ctx)
	if err != nil {
		return 0, oops.Code(CodeRepositoryFailure).Wrap(err)
	}
	return count, nil
}

// IsUsernameAvailable reports whether no user holds the username.
func (s *UserService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, oops.Code(CodeRepositoryFailure).With("username", username).Wrap(err)
	}
	return !taken, nil
}

func (s *UserService) save(ctx context.Context, user User) (*User, error) {
	saved, err := s.users.Save(ctx, user)
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("id", user.ID).Wrap(err)
	}
	return saved, nil
}

// validateRoles checks that every named role exists in the role repository.
func (s *UserService) validateRoles(ctx context.Context, roleNames []string) error {
	for _, name := range roleNames {
		exists, err := s.roles.ExistsByName(ctx, name)
		if err != nil {
			return oops.Code(CodeRepositoryFailure).With("role", name).Wrap(err)
		}
		if !exists {
			return oops.Code(CodeInvalidRole).
				With("role", name).
				Errorf("role %q does not exist", name)
		}
	}
	return nil
}
