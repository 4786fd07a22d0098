// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

package bootstrap

import (
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// Config keys recognized in the bootstrap config file.
const (
	keyAdminUsername = "admin.username"
	keyAdminPassword = "admin.initial.password"
	keyTokenIssuer   = "token.issuer"
	keyTokenTTL      = "token.ttl"
	keyPasswordCost  = "password.cost"
)

// Config holds optional bootstrap settings loaded from a YAML config file.
// Zero values mean "not set"; New falls back to the package defaults.
//
// The admin.initial.password key is the config-file counterpart of the
// ADMIN_INITIAL_PASSWORD environment variable, ranked below it in the
// resolution order. It exists mainly for test harnesses.
type Config struct {
	AdminUsername string
	AdminPassword string
	TokenIssuer   string
	TokenTTL      time.Duration
	PasswordCost  int
}

// LoadConfigFile reads a YAML bootstrap config file.
func LoadConfigFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, oops.Code("CONFIG_INVALID").
			With("path", path).
			Wrap(err)
	}

	return &Config{
		AdminUsername: k.String(keyAdminUsername),
		AdminPassword: k.String(keyAdminPassword),
		TokenIssuer:   k.String(keyTokenIssuer),
		TokenTTL:      k.Duration(keyTokenTTL),
		PasswordCost:  k.Int(keyPasswordCost),
	}, nil
}
