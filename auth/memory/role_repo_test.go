// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ireland-samantha/stormstack-auth/auth"
	"github.com/ireland-samantha/stormstack-auth/auth/memory"
	"github.com/ireland-samantha/stormstack-auth/pkg/errutil"
)

func TestRoleRepository_SaveAndFind(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewRole("View_Only", "read-only", nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	// Lookup is case-insensitive; the stored name keeps its case.
	found, err := repo.FindByName(ctx, "view_only")
	require.NoError(t, err)
	assert.Equal(t, "View_Only", found.Name)
	assert.Equal(t, "read-only", found.Description)

	found, err = repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)

	_, err = repo.FindByName(ctx, "missing")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestRoleRepository_SaveRejectsDuplicateName(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, auth.NewRole("admin", "", nil))
	require.NoError(t, err)

	_, err = repo.Save(ctx, auth.NewRole("ADMIN", "", nil))
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, auth.CodeRoleTaken)
}

func TestRoleRepository_RenameDropsStaleIndex(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewRole("operator", "", nil))
	require.NoError(t, err)

	renamed := *saved
	renamed.Name = "supervisor"
	_, err = repo.Save(ctx, renamed)
	require.NoError(t, err)

	_, err = repo.FindByName(ctx, "operator")
	require.ErrorIs(t, err, auth.ErrNotFound)

	found, err := repo.FindByName(ctx, "supervisor")
	require.NoError(t, err)
	assert.Equal(t, saved.ID, found.ID)
}

func TestRoleRepository_DeleteByID(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, auth.NewRole("temp", "", nil))
	require.NoError(t, err)

	require.NoError(t, repo.DeleteByID(ctx, saved.ID))
	require.ErrorIs(t, repo.DeleteByID(ctx, saved.ID), auth.ErrNotFound)

	exists, err := repo.ExistsByName(ctx, "temp")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestRoleRepository_ExistsByNameIsCaseInsensitive(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, auth.NewRole("admin", "", nil))
	require.NoError(t, err)

	exists, err := repo.ExistsByName(ctx, "Admin")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRoleRepository_ReturnsCopies(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	_, err := repo.Save(ctx, auth.NewRole("base", "", nil))
	require.NoError(t, err)
	saved, err := repo.Save(ctx, auth.NewRole("admin", "", []string{"base"}))
	require.NoError(t, err)

	saved.Includes[0] = "mutated"

	found, err := repo.FindByName(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"base"}, found.Includes)
}

func TestRoleRepository_FindAllOrderedByID(t *testing.T) {
	repo := memory.NewRoleRepository()
	ctx := context.Background()

	for _, name := range []string{"gamma", "alpha", "beta"} {
		_, err := repo.Save(ctx, auth.NewRole(name, "", nil))
		require.NoError(t, err)
	}

	roles, err := repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 3)
	assert.Equal(t, "gamma", roles[0].Name)
	assert.Equal(t, "alpha", roles[1].Name)
	assert.Equal(t, "beta", roles[2].Name)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	// IDs whose difference exceeds 32 bits must still compare correctly.
	far := auth.NewRole("far", "", nil)
	far.ID = int64(1) << 40
	_, err = repo.Save(ctx, far)
	require.NoError(t, err)

	roles, err = repo.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, roles, 4)
	assert.Equal(t, "far", roles[3].Name)
}
