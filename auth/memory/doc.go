// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

// Package memory provides in-process reference implementations of the auth
// repository interfaces.
//
// The repositories are safe for concurrent use: state lives in
// mutex-guarded maps, and IDs come from an atomic monotonically increasing
// counter (deleted IDs are never reused). Records are copied on the way in
// and out, so callers never share memory with the store. Read-after-write
// within the same call always observes the written value.
//
// These implementations back tests and single-process deployments; a
// production deployment substitutes a database-backed implementation of the
// same interfaces.
package memory
