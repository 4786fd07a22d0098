// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package auth

import (
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultPasswordCost is the bcrypt work factor used when none is
// configured. Bcrypt accepts costs from bcrypt.MinCost (4) to
// bcrypt.MaxCost (31); each step doubles the hashing work.
const DefaultPasswordCost = 12

// ErrEmptyPassword is returned when attempting to hash an empty password.
var ErrEmptyPassword = oops.Code(CodeInvalidPassword).Errorf("password cannot be empty")

// PasswordService provides one-way password hashing and verification backed
// by bcrypt. Each hash embeds the algorithm, cost, and a random per-call
// salt, so stored hashes are self-describing.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
// The cost must be within [bcrypt.MinCost, bcrypt.MaxCost]; an out-of-range
// cost fails immediately rather than at first hash.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, oops.Code(CodeInvalidPassword).
			With("cost", cost).
			With("min", bcrypt.MinCost).
			With("max", bcrypt.MaxCost).
			Errorf("bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// NewDefaultPasswordService creates a PasswordService with
// DefaultPasswordCost.
func NewDefaultPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultPasswordCost}
}

// Cost returns the configured work factor.
func (s *PasswordService) Cost() int {
	return s.cost
}

// Hash produces a salted bcrypt hash of the plaintext. Two calls with the
// same input produce different hashes (random per-call salt); both verify.
func (s *PasswordService) Hash(plaintext string) (string, error) {
	if plaintext == "" {
		return "", ErrEmptyPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), s.cost)
	if err != nil {
		return "", oops.Code(CodeInvalidPassword).
			With("operation", "bcrypt hash").
			Wrap(err)
	}
	return string(hash), nil
}

// Verify reports whether the plaintext matches the stored hash. The
// comparison runs bcrypt's own constant-structure check; malformed hashes
// simply fail to verify.
func (s *PasswordService) Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// NeedsRehash reports whether a stored hash was produced with a lower work
// factor than the service is configured with. Unparseable hashes report
// true so that malformed or legacy hashes get upgraded on the next
// successful login rather than trusted forever.
func (s *PasswordService) NeedsRehash(hash string) bool {
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return cost < s.cost
}
