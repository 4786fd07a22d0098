// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth_test

import (
	"errors"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"

	"github.com/ireland-samantha/stormstack-auth/auth"
)

func TestErrorCode(t *testing.T) {
	coded := oops.Code(auth.CodeRoleTaken).Errorf("role exists")
	assert.Equal(t, auth.CodeRoleTaken, auth.ErrorCode(coded))

	assert.Empty(t, auth.ErrorCode(nil))
	assert.Empty(t, auth.ErrorCode(errors.New("plain error")))
	assert.Empty(t, auth.ErrorCode(oops.Errorf("oops error without a code")))
	assert.Empty(t, auth.ErrorCode(auth.ErrNotFound))
}

func TestHasCode(t *testing.T) {
	coded := oops.Code(auth.CodeUserDisabled).Errorf("disabled")

	assert.True(t, auth.HasCode(coded, auth.CodeUserDisabled))
	assert.False(t, auth.HasCode(coded, auth.CodeUserNotFound))
	assert.False(t, auth.HasCode(nil, auth.CodeUserDisabled))
	assert.False(t, auth.HasCode(errors.New("plain error"), auth.CodeUserDisabled))
}

// Codes survive oops wrapping, which the service layer relies on when it
// re-raises repository errors.
func TestErrorCode_WrappedError(t *testing.T) {
	wrapped := oops.Code(auth.CodeRepositoryFailure).Wrap(errors.New("connection reset"))
	assert.Equal(t, auth.CodeRepositoryFailure, auth.ErrorCode(wrapped))
}
