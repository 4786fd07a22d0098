// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"context"
	"errors"
	"slices"
	"strings"

	"github.com/samber/oops"
)

// RoleService handles role CRUD and recursive hierarchy resolution.
type RoleService struct {
	roles RoleRepository
}

// NewRoleService creates a RoleService.
func NewRoleService(roles RoleRepository) *RoleService {
	return &RoleService{roles: roles}
}

// CreateRole creates a new role. The name must not exist yet
// (case-insensitive), every included role must already exist, and a role
// must not include itself. Included roles therefore have to be created
// bottom-up, before the roles that include them.
func (s *RoleService) CreateRole(ctx context.Context, name, description string, includes []string) (*Role, error) {
	exists, err := s.roles.ExistsByName(ctx, name)
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("name", name).Wrap(err)
	}
	if exists {
		return nil, oops.Code(CodeRoleTaken).
			With("name", name).
			Errorf("role %q already exists", name)
	}

	if err := s.validateIncludes(ctx, name, includes); err != nil {
		return nil, err
	}

	created, err := s.roles.Save(ctx, NewRole(name, description, includes))
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("name", name).Wrap(err)
	}
	return created, nil
}

// FindByName retrieves a role by name (case-insensitive).
func (s *RoleService) FindByName(ctx context.Context, name string) (*Role, error) {
	role, err := s.roles.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeRoleNotFound).
				With("name", name).
				Errorf("role %q not found", name)
		}
		return nil, oops.Code(CodeRepositoryFailure).With("name", name).Wrap(err)
	}
	return role, nil
}

// FindByID retrieves a role by ID.
func (s *RoleService) FindByID(ctx context.Context, id int64) (*Role, error) {
	role, err := s.roles.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, oops.Code(CodeRoleNotFound).
				With("id", id).
				Errorf("role %d not found", id)
		}
		return nil, oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return role, nil
}

// FindAll returns every stored role.
func (s *RoleService) FindAll(ctx context.Context) ([]Role, error) {
	roles, err := s.roles.FindAll(ctx)
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).Wrap(err)
	}
	return roles, nil
}

// UpdateDescription replaces the role's description.
func (s *RoleService) UpdateDescription(ctx context.Context, id int64, description string) (*Role, error) {
	role, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	updated, err := s.roles.Save(ctx, role.WithDescription(description))
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return updated, nil
}

// UpdateIncludedRoles replaces the role's inclusion set. Every included
// role must exist and a role must not include itself.
func (s *RoleService) UpdateIncludedRoles(ctx context.Context, id int64, includes []string) (*Role, error) {
	role, err := s.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validateIncludes(ctx, role.Name, includes); err != nil {
		return nil, err
	}
	updated, err := s.roles.Save(ctx, role.WithIncludes(includes))
	if err != nil {
		return nil, oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return updated, nil
}

// DeleteRole removes a role by ID. Roles that still include the deleted
// role keep their dangling edge; resolution skips it (see RoleIncludes).
func (s *RoleService) DeleteRole(ctx context.Context, id int64) error {
	if err := s.roles.DeleteByID(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return oops.Code(CodeRoleNotFound).
				With("id", id).
				Errorf("role %d not found", id)
		}
		return oops.Code(CodeRepositoryFailure).With("id", id).Wrap(err)
	}
	return nil
}

// RoleExists reports whether a role with the name exists (case-insensitive).
func (s *RoleService) RoleExists(ctx context.Context, name string) (bool, error) {
	exists, err := s.roles.ExistsByName(ctx, name)
	if err != nil {
		return false, oops.Code(CodeRepositoryFailure).With("name", name).Wrap(err)
	}
	return exists, nil
}

// Count returns the number of stored roles.
func (s *RoleService) Count(ctx context.Context) (int64, error) {
	count, err := s.roles.Count(ctx)
	if err != nil {
		return 0, oops.Code(CodeRepositoryFailure).Wrap(err)
	}
	return count, nil
}

// RoleIncludes reports whether roleName grants target: a role always
// includes itself, includes its direct inclusions, and transitively
// includes everything they include. The inclusion graph is walked
// depth-first with a visited set, so cycles and dangling edges terminate
// cleanly: a re-encountered role is already resolved and is skipped, and an
// edge naming a role that no longer exists grants nothing.
func (s *RoleService) RoleIncludes(ctx context.Context, roleName, target string) (bool, error) {
	if equalRoleNames(roleName, target) {
		return true, nil
	}
	return s.roleIncludes(ctx, roleName, target, map[string]struct{}{})
}

func (s *RoleService) roleIncludes(ctx context.Context, roleName, target string, visited map[string]struct{}) (bool, error) {
	key := strings.ToLower(roleName)
	if _, seen := visited[key]; seen {
		return false, nil
	}
	visited[key] = struct{}{}

	role, err := s.roles.FindByName(ctx, roleName)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, oops.Code(CodeRepositoryFailure).With("name", roleName).Wrap(err)
	}

	for _, included := range role.Includes {
		if equalRoleNames(included, target) {
			// A matching edge grants only if the named role still exists.
			exists, err := s.roles.ExistsByName(ctx, included)
			if err != nil {
				return false, oops.Code(CodeRepositoryFailure).With("name", included).Wrap(err)
			}
			if exists {
				return true, nil
			}
			continue
		}
		ok, err := s.roleIncludes(ctx, included, target, visited)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// EffectiveRoles resolves the transitive closure of a set of role names
// over the inclusion hierarchy, including the names themselves. The result
// is sorted and deduplicated. Dangling names are kept (they still name an
// assignment) but contribute no inclusions.
func (s *RoleService) EffectiveRoles(ctx context.Context, names []string) ([]string, error) {
	resolved := make(map[string]string) // lowercased key -> name as first seen
	queue := slices.Clone(names)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]

		key := strings.ToLower(name)
		if _, seen := resolved[key]; seen {
			continue
		}
		resolved[key] = name

		role, err := s.roles.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, oops.Code(CodeRepositoryFailure).With("name", name).Wrap(err)
		}
		queue = append(queue, role.Includes...)
	}

	out := make([]string, 0, len(resolved))
	for _, name := range resolved {
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

// validateIncludes checks that an inclusion set names no missing roles and
// does not name the including role itself.
func (s *RoleService) validateIncludes(ctx context.Context, roleName string, includes []string) error {
	for _, included := range includes {
		if equalRoleNames(roleName, included) {
			return oops.Code(CodeInvalidRole).
				With("name", roleName).
				Errorf("role %q cannot include itself", roleName)
		}
		exists, err := s.roles.ExistsByName(ctx, included)
		if err != nil {
			return oops.Code(CodeRepositoryFailure).With("name", included).Wrap(err)
		}
		if !exists {
			return oops.Code(CodeRoleNotFound).
				With("name", included).
				Errorf("included role %q not found", included)
		}
	}
	return nil
}

// equalRoleNames compares role names with the repository's
// case-insensitive semantics.
func equalRoleNames(a, b string) bool {
	return strings.EqualFold(a, b)
}
