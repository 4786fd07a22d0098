// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ireland-samantha/stormstack-auth/auth"
	"github.com/ireland-samantha/stormstack-auth/pkg/errutil"
)

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{"valid simple", "alice", false},
		{"valid with underscore", "alice_smith", false},
		{"valid with digits", "user42", false},
		{"minimum length", "abc", false},
		{"maximum length", "a" + strings.Repeat("b", 29), false},
		{"empty", "", true},
		{"too short", "ab", true},
		{"too long", "a" + strings.Repeat("b", 30), true},
		{"starts with digit", "1alice", true},
		{"starts with underscore", "_alice", true},
		{"contains space", "alice smith", true},
		{"contains hyphen", "alice-smith", true},
		{"contains symbol", "alice!", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.ValidateUsername(tt.username)
			if tt.wantErr {
				require.Error(t, err)
				errutil.AssertErrorCode(t, err, auth.CodeInvalidUsername)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestNewUser(t *testing.T) {
	user := auth.NewUser("alice", "hash", []string{"admin", "view_only", "admin"})

	assert.Zero(t, user.ID, "new users are unpersisted")
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.Equal(t, []string{"admin", "view_only"}, user.Roles, "role set is deduplicated and sorted")
	assert.True(t, user.Enabled)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUser_HasRole(t *testing.T) {
	user := auth.NewUser("alice", "hash", []string{"command_manager"})

	assert.True(t, user.HasRole("command_manager"))
	assert.False(t, user.HasRole("view_only"), "HasRole does not resolve the hierarchy")
	assert.False(t, user.HasRole("Command_Manager"), "direct assignments are case-sensitive")
}

func TestUser_WithMethodsDoNotMutate(t *testing.T) {
	original := auth.NewUser("alice", "hash", []string{"view_only"})

	modified := original.WithRoles([]string{"admin"})
	assert.Equal(t, []string{"view_only"}, original.Roles)
	assert.Equal(t, []string{"admin"}, modified.Roles)

	rehashed := original.WithPasswordHash("newhash")
	assert.Equal(t, "hash", original.PasswordHash)
	assert.Equal(t, "newhash", rehashed.PasswordHash)

	disabled := original.WithEnabled(false)
	assert.True(t, original.Enabled)
	assert.False(t, disabled.Enabled)
}
