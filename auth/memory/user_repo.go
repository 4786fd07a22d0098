// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/samber/oops"

	"github.com/ireland-samantha/stormstack-auth/auth"
)

// UserRepository is the in-memory reference implementation of
// auth.UserRepository. Usernames are unique and case-sensitive.
type UserRepository struct {
	mu         sync.RWMutex
	nextID     atomic.Int64
	byID       map[int64]auth.User
	byUsername map[string]int64
}

// NewUserRepository creates an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{
		byID:       make(map[int64]auth.User),
		byUsername: make(map[string]int64),
	}
}

// FindByUsername retrieves a user by exact username.
func (r *UserRepository) FindByUsername(_ context.Context, username string) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.byUsername[username]
	if !ok {
		return nil, auth.ErrNotFound
	}
	user := cloneUser(r.byID[id])
	return &user, nil
}

// FindByID retrieves a user by ID.
func (r *UserRepository) FindByID(_ context.Context, id int64) (*auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	user := cloneUser(stored)
	return &user, nil
}

// FindAll returns every stored user, ordered by ID.
func (r *UserRepository) FindAll(_ context.Context) ([]auth.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]auth.User, 0, len(r.byID))
	for _, stored := range r.byID {
		users = append(users, cloneUser(stored))
	}
	slices.SortFunc(users, func(a, b auth.User) int {
		return cmp.Compare(a.ID, b.ID)
	})
	return users, nil
}

// Save persists the user as a whole-record replacement. A zero ID requests
// insertion with a freshly assigned ID. Username uniqueness is enforced as
// a backstop behind the service-level check.
func (r *UserRepository) Save(_ context.Context, user auth.User) (*auth.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if holder, taken := r.byUsername[user.Username]; taken && holder != user.ID {
		return nil, oops.Code(auth.CodeUsernameTaken).
			With("username", user.Username).
			Errorf("username %q is already taken", user.Username)
	}

	if user.ID == 0 {
		user.ID = r.nextID.Add(1)
	}

	// Whole-record replacement; drop a stale username index entry if the
	// username changed.
	if previous, ok := r.byID[user.ID]; ok && previous.Username != user.Username {
		delete(r.byUsername, previous.Username)
	}

	stored := cloneUser(user)
	r.byID[user.ID] = stored
	r.byUsername[user.Username] = user.ID

	saved := cloneUser(stored)
	return &saved, nil
}

// DeleteByID removes a user. The freed ID is never reassigned.
func (r *UserRepository) DeleteByID(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.byID[id]
	if !ok {
		return auth.ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byUsername, stored.Username)
	return nil
}

// ExistsByUsername reports whether a user with the username exists.
func (r *UserRepository) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.byUsername[username]
	return ok, nil
}

// Count returns the number of stored users.
func (r *UserRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.byID)), nil
}

func cloneUser(u auth.User) auth.User {
	c := u
	c.Roles = slices.Clone(u.Roles)
	return c
}

var _ auth.UserRepository = (*UserRepository)(nil)
