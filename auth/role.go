// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"context"
	"slices"
	"time"
)

// Role is an authorization unit. A role inherits every permission of each
// role it includes, transitively through those roles' own inclusions.
// Role names are unique case-insensitively. The inclusion graph is not
// guaranteed acyclic; resolution tolerates cycles (see RoleService).
type Role struct {
	ID          int64
	Name        string
	Description string
	Includes    []string
	CreatedAt   time.Time
}

// NewRole creates an unpersisted Role.
func NewRole(name, description string, includes []string) Role {
	return Role{
		Name:        name,
		Description: description,
		Includes:    normalizeRoleSet(includes),
		CreatedAt:   time.Now().UTC(),
	}
}

// IncludesDirectly reports whether the named role is in this role's direct
// inclusion set. Transitive inclusion is resolved by RoleService.
func (r Role) IncludesDirectly(name string) bool {
	return slices.Contains(r.Includes, name)
}

// WithDescription returns a copy of the role with a replaced description.
func (r Role) WithDescription(description string) Role {
	c := r.clone()
	c.Description = description
	return c
}

// WithIncludes returns a copy of the role with a replaced inclusion set.
func (r Role) WithIncludes(includes []string) Role {
	c := r.clone()
	c.Includes = normalizeRoleSet(includes)
	return c
}

func (r Role) clone() Role {
	c := r
	c.Includes = slices.Clone(r.Includes)
	return c
}

// RoleRepository manages role persistence. Name lookups are
// case-insensitive; the stored name keeps its original case.
type RoleRepository interface {
	// FindByName retrieves a role by name (case-insensitive).
	// Returns ErrNotFound if no such role exists.
	FindByName(ctx context.Context, name string) (*Role, error)

	// FindByID retrieves a role by ID.
	// Returns ErrNotFound if no such role exists.
	FindByID(ctx context.Context, id int64) (*Role, error)

	// FindAll returns every stored role.
	FindAll(ctx context.Context) ([]Role, error)

	// Save persists the role as a whole-record replacement. A zero ID
	// requests insertion; the returned role carries the assigned ID.
	Save(ctx context.Context, role Role) (*Role, error)

	// DeleteByID removes a role. Returns ErrNotFound if absent.
	DeleteByID(ctx context.Context, id int64) error

	// ExistsByName reports whether a role with the name exists
	// (case-insensitive).
	ExistsByName(ctx context.Context, name string) (bool, error)

	// Count returns the number of stored roles.
	Count(ctx context.Context) (int64, error)
}
