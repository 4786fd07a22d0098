// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/ireland-samantha/stormstack-auth/auth"
)

// RoleRepository is the in-memory reference implementation of
// auth.RoleRepository. Role names are unique case-insensitively; the stored
// record keeps the name's original case.
type RoleRepository struct {
	mu     sync.RWMutex
	nextID atomic.Int64
	byID   map[int64]auth.Role
	byName map[string]int64 // lowercased name -> id
}

// NewRoleRepository creates an empty RoleRepository.
func NewRoleRepository() *RoleRepository {
	return &RoleRepository{
		byID:   make(map[int64]auth.Role),
		byName: make(map[string]int64),
	}
}

// FindByName retrieves a role by name (case-insensitive).
func (r *RoleRepository) FindByName(_ context.Context, name string) (*auth.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, auth.ErrNotFound
	}
	role := cloneRole(r.byID[id])
	return &role, nil
}

// FindByID retrieves a role by ID.
func (r *RoleRepository) FindByID(_ context.Context, id int64) (*auth.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	role := cloneRole(stored)
	return &role, nil
}

// FindAll returns every stored role, ordered by ID.
func (r *RoleRepository) FindAll(_ context.Context) ([]auth.Role, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roles := make([]auth.Role, 0, len(r.byID))
	for _, stored := range r.byID {
		roles = append(roles, cloneRole(stored))
	}
	slices.SortFunc(roles, func(a, b auth.Role) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return roles, nil
}

// Save persists the role as a whole-record replacement. A zero ID requests
// insertion with a freshly assigned ID. Case-insensitive name uniqueness is
// enforced as a backstop behind the service-level check.
func (r *RoleRepository) Save(_ context.Context, role auth.Role) (*auth.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(role.Name)
	if holder, taken := r.byName[key]; taken && holder != role.ID {
		return nil, oops.Code(auth.CodeRoleTaken).
			With("name", role.Name).
			Errorf("role %q already exists", role.Name)
	}

	if role.ID == 0 {
		role.ID = r.nextID.Add(1)
	}

	if previous, ok := r.byID[role.ID]; ok {
		if previousKey := strings.ToLower(previous.Name); previousKey != key {
			delete(r.byName, previousKey)
		}
	}

	stored := cloneRole(role)
	r.byID[role.ID] = stored
	r.byName[key] = role.ID

	saved := cloneRole(stored)
	return &saved, nil
}

// DeleteByID removes a role. The freed ID is never reassigned.
func (r *RoleRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byName, strings.ToLower(stored.Name))
	return nil
}

// ExistsByName reports whether a role with the name exists
// (case-insensitive).
func (r *RoleRepository) ExistsByName(_ context.Context, name string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byName[strings.ToLower(name)]
	return ok, nil
}

// Count returns the number of stored roles.
func (r *RoleRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byID)), nil
}

func cloneRole(role auth.Role) auth.Role {
	c := role
	c.Includes = slices.Clone(role.Includes)
	return c
}

var _ auth.RoleRepository = (*RoleRepository)(nil)
