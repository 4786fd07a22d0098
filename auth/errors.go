// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"errors"

	"github.com/samber/oops"
)

// ErrNotFound is returned by repositories when a requested record does not
// exist. Services translate it into one of the coded errors below.
var ErrNotFound = errors.New("not found")

// Reason codes carried by every error this package raises. The set is
// closed: callers can switch on ErrorCode(err) exhaustively.
const (
	CodeInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	CodeInvalidToken       = "AUTH_INVALID_TOKEN"
	CodeTokenExpired       = "AUTH_TOKEN_EXPIRED"
	CodeUserDisabled       = "AUTH_USER_DISABLED"
	CodePermissionDenied   = "AUTH_PERMISSION_DENIED"
	CodeUserNotFound       = "AUTH_USER_NOT_FOUND"
	CodeUsernameTaken      = "AUTH_USERNAME_TAKEN"
	CodeRoleNotFound       = "AUTH_ROLE_NOT_FOUND"
	CodeRoleTaken          = "AUTH_ROLE_TAKEN"
	CodeInvalidRole        = "AUTH_INVALID_ROLE"
	CodeInvalidUsername    = "AUTH_INVALID_USERNAME"
	CodeInvalidPassword    = "AUTH_INVALID_PASSWORD"
)

// CodeRepositoryFailure marks errors passed through from a failing
// repository implementation. It is infrastructure, not part of the domain
// taxonomy above: the in-memory reference repositories never produce it.
const CodeRepositoryFailure = "AUTH_REPOSITORY_FAILED"

// ErrorCode extracts the reason code from an error raised by this package.
// Returns the empty string for nil errors and errors from other sources.
// oops carries codes as any; only string codes are ever attached here.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	if oopsErr, ok := oops.AsOops(err); ok {
		if code, ok := oopsErr.Code().(string); ok {
			return code
		}
	}
	return ""
}

// HasCode reports whether err carries the given reason code.
func HasCode(err error, code string) bool {
	return ErrorCode(err) == code
}
