// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

// Package auth provides authentication and role-based authorization for
// StormStack services.
//
// # Domain Types
//
// User, Role, and Token are immutable value types. User and Role are
// modified through With* copy methods and persisted by whole-record
// replacement; direct field mutation of stored records is never performed
// by the services in this package. Token is reconstructed from verified
// claims on every verification and is never persisted.
//
// # Services
//
// Service types coordinate domain operations:
//   - PasswordService - bcrypt hashing, verification, and rehash detection
//   - RoleService - role CRUD and recursive hierarchy resolution
//   - UserService - user CRUD with password hashing and role validation
//   - AuthService - login, token issuance, verification, refresh, and
//     hierarchy-aware authorization checks
//
// Token issuance is pluggable through the TokenIssuer interface; JWTIssuer
// is the default HMAC-SHA256 implementation.
//
// Repository interfaces (UserRepository, RoleRepository) abstract
// persistence. The memory subpackage holds the in-process reference
// implementations; any conforming implementation may be substituted.
//
// All failures carry a closed set of reason codes (see errors.go) attached
// with github.com/samber/oops.
package auth
