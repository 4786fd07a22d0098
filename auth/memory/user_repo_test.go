// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package memory_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ireland-samantha/stormstack-auth/auth"
	"github.com/ireland-samantha/stormstack-auth/auth/memory"
	"github.com/ireland-samantha/stormstack-auth/pkg/errutil"
)

func TestUserRepository_SaveAssignsID(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	second, err := repo.Save(ctx, auth.NewUser("bob", "hash", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.ID)
}

func TestUserRepository_FindByUsername(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", []string{"admin"}))
	require.NoError(t, err)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, []string{"admin"}, found.Roles)

	// Exact match only.
	_, err = repo.FindByUsername(ctx, "Alice")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserRepository_SaveRejectsDuplicateUsername(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)

	_, err = repo.Save(ctx, auth.NewUser("alice", "other", nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeUsernameTaken)
}

func TestUserRepository_SaveUpdatesInPlace(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)

	updated, err := repo.Save(ctx, saved.WithEnabled(false))
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)
	assert.False(t, updated.Enabled)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestUserRepository_RenameDropsStaleIndex(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)

	renamed := *saved
	renamed.Username = "alicia"
	_, err = repo.Save(ctx, renamed)
	require.NoError(t, err)

	_, err = repo.FindByUsername(ctx, "alice")
	require.ErrorIs(t, err, auth.ErrNotFound)

	found, err := repo.FindByUsername(ctx, "alicia")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
}

func TestUserRepository_DeleteByID(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	require.ErrorIs(t, repo.DeleteByID(ctx, saved.ID), auth.ErrNotFound)

	_, err = repo.FindByID(ctx, saved.ID)
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestUserRepository_IDsAreNeverReused(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	first, err := repo.Save(ctx, auth.NewUser("alice", "hash", nil))
	require.NoError(t, err)
	require.NoError(t, repo.DeleteByID(ctx, first.ID))

	second, err := repo.Save(ctx, auth.NewUser("bob", "hash", nil))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestUserRepository_FindAllOrderedByID(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	for _, name := range []string{"carol", "alice", "bob"} {
		_, err := repo.Save(ctx, auth.NewUser(name, "hash", nil))
		require.NoError(t, err)
	}

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "carol", users[0].Username)
	assert.Equal(t, "alice", users[1].Username)
	assert.Equal(t, "bob", users[2].Username)
}

func TestUserRepository_FindAllOrdersWidelySpacedIDs(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	// IDs whose difference exceeds 32 bits must still compare correctly.
	far := auth.NewUser("far", "hash", nil)
	far.ID = int64(1) << 40
	_, err := repo.Save(ctx, far)
	require.NoError(t, err)

	near := auth.NewUser("near", "hash", nil)
	near.ID = 3
	_, err = repo.Save(ctx, near)
	require.NoError(t, err)

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "near", users[0].Username)
	assert.Equal(t, "far", users[1].Username)
}

func TestUserRepository_ReturnsCopies(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewUser("alice", "hash", []string{"admin"}))
	require.NoError(t, err)

	// Mutating a returned record must not touch the stored one.
	saved.Roles[0] = "mutated"

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin"}, found.Roles)
}

func TestUserRepository_ConcurrentSaves(t *testing.T) {
	repo := memory.NewUserRepository()
	ctx := context.Background()

	const writers = 16
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := range writers {
		go func() {
			defer wg.Done()
			_, err := repo.Save(ctx, auth.NewUser(fmt.Sprintf("user_%d", i), "hash", nil))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(writers), count)

	users, err := repo.FindAll(ctx)
	require.NoError(t, err)
	seen := make(map[int64]bool, len(users))
	for _, u := range users {
		assert.False(t, seen[u.ID], "duplicate id %d", u.ID)
		seen[u.ID] = true
	}
}
