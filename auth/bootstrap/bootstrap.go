// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 StormStack Contributors

// Package bootstrap wires the auth subsystem together and idempotently
// seeds the default roles and admin account at process startup.
package bootstrap

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"log/slog"
	"os"
	"strings"

	"github.com/samber/oops"

	"github.com/ireland-samantha/stormstack-auth/auth"
	"github.com/ireland-samantha/stormstack-auth/auth/memory"
	"github.com/ireland-samantha/stormstack-auth/internal/logging"
)

// Default identities seeded by InitializeDefaults.
const (
	// DefaultAdminUsername is the seeded administrator account name.
	DefaultAdminUsername = "admin"

	// RoleViewOnly grants read-only access to snapshots and status.
	RoleViewOnly = "view_only"
	// RoleCommandManager grants command submission and includes RoleViewOnly.
	RoleCommandManager = "command_manager"
	// RoleAdmin grants full access and includes every other default role.
	RoleAdmin = "admin"
)

// EnvAdminPassword is the environment variable consulted for the seeded
// admin password when none is configured explicitly.
const EnvAdminPassword = "ADMIN_INITIAL_PASSWORD"

// generatedPasswordBytes is the entropy of a generated admin password.
const generatedPasswordBytes = 24

// Bootstrap owns the wired auth dependency graph and the startup seeding
// logic. Construct with New, then call InitializeDefaults once per process
// start; re-running it against an already-seeded store is a no-op.
type Bootstrap struct {
	users  auth.UserRepository
	roles  auth.RoleRepository
	hasher *auth.PasswordService

	userService *auth.UserService
	roleService *auth.RoleService
	authService *auth.AuthService

	adminUsername  string
	adminPassword  string // explicit override, highest priority
	configPassword string // from the config file, below the env var
	logger         *slog.Logger
}

// Option configures a Bootstrap during construction.
type Option func(*options)

type options struct {
	users         auth.UserRepository
	roles         auth.RoleRepository
	hasher        *auth.PasswordService
	issuer        auth.TokenIssuer
	metrics       *auth.Metrics
	adminPassword string
	configFile    string
	logger        *slog.Logger
}

// WithUserRepository substitutes a custom user repository implementation.
// Defaults to the in-memory reference implementation.
func WithUserRepository(users auth.UserRepository) Option {
	return func(o *options) { o.users = users }
}

// WithRoleRepository substitutes a custom role repository implementation.
// Defaults to the in-memory reference implementation.
func WithRoleRepository(roles auth.RoleRepository) Option {
	return func(o *options) { o.roles = roles }
}

// WithPasswordService substitutes a custom password service, overriding any
// password.cost config-file setting.
func WithPasswordService(hasher *auth.PasswordService) Option {
	return func(o *options) { o.hasher = hasher }
}

// WithTokenIssuer substitutes a custom token issuance strategy, overriding
// any token.* config-file settings.
func WithTokenIssuer(issuer auth.TokenIssuer) Option {
	return func(o *options) { o.issuer = issuer }
}

// WithMetrics attaches Prometheus counters to the wired AuthService.
func WithMetrics(m *auth.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAdminPassword sets the seeded admin password explicitly, taking
// priority over the environment variable and the config file.
func WithAdminPassword(password string) Option {
	return func(o *options) { o.adminPassword = password }
}

// WithConfigFile loads bootstrap settings from a YAML file (see Config).
func WithConfigFile(path string) Option {
	return func(o *options) { o.configFile = path }
}

// WithLogger substitutes the logger used for seeding progress and warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New builds the auth dependency graph bottom-up: repositories, password
// service, role and user services, then the auth service. Any dependency
// not supplied through an option falls back to its in-memory or default
// implementation.
func New(opts ...Option) (*Bootstrap, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var cfg *Config
	if o.configFile != "" {
		loaded, err := LoadConfigFile(o.configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	logger := o.logger
	if logger == nil {
		logger = logging.Setup("stormstack-auth", "json", nil)
	}

	hasher := o.hasher
	if hasher == nil {
		if cfg != nil && cfg.PasswordCost != 0 {
			var err error
			hasher, err = auth.NewPasswordService(cfg.PasswordCost)
			if err != nil {
				return nil, err
			}
		} else {
			hasher = auth.NewDefaultPasswordService()
		}
	}

	users := o.users
	if users == nil {
		users = memory.NewUserRepository()
	}
	roles := o.roles
	if roles == nil {
		roles = memory.NewRoleRepository()
	}

	roleService := auth.NewRoleService(roles)
	userService := auth.NewUserService(users, hasher, roles)

	authOpts := []auth.AuthServiceOption{auth.WithLogger(logger)}
	switch {
	case o.issuer != nil:
		authOpts = append(authOpts, auth.WithTokenIssuer(o.issuer))
	case cfg != nil:
		if cfg.TokenIssuer != "" {
			authOpts = append(authOpts, auth.WithIssuerName(cfg.TokenIssuer))
		}
		if cfg.TokenTTL != 0 {
			authOpts = append(authOpts, auth.WithTokenTTL(cfg.TokenTTL))
		}
	}
	if o.metrics != nil {
		authOpts = append(authOpts, auth.WithMetrics(o.metrics))
	}

	authService, err := auth.NewAuthService(users, hasher, roleService, authOpts...)
	if err != nil {
		return nil, err
	}

	adminUsername := DefaultAdminUsername
	configPassword := ""
	if cfg != nil {
		if cfg.AdminUsername != "" {
			adminUsername = cfg.AdminUsername
		}
		configPassword = cfg.AdminPassword
	}

	return &Bootstrap{
		users:          users,
		roles:          roles,
		hasher:         hasher,
		userService:    userService,
		roleService:    roleService,
		authService:    authService,
		adminUsername:  adminUsername,
		adminPassword:  o.adminPassword,
		configPassword: configPassword,
		logger:         logger,
	}, nil
}

// InitializeDefaults seeds the default roles and the admin account using
// create-if-absent semantics. Fully idempotent: a second run against the
// same store changes nothing and overwrites nothing.
func (b *Bootstrap) InitializeDefaults(ctx context.Context) error {
	if err := b.createDefaultRoles(ctx); err != nil {
		return err
	}
	return b.createAdminIfAbsent(ctx)
}

// CreateRoleIfAbsent creates a role unless one with the name already
// exists. An existing role's configuration is never overwritten.
func (b *Bootstrap) CreateRoleIfAbsent(ctx context.Context, name, description string, includes []string) error {
	exists, err := b.roleService.RoleExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		b.logger.Debug("role already exists", "role", name)
		return nil
	}
	if _, err := b.roleService.CreateRole(ctx, name, description, includes); err != nil {
		// A concurrent seeder may have won the race; that still satisfies
		// create-if-absent.
		if auth.HasCode(err, auth.CodeRoleTaken) {
			b.logger.Debug("role already exists", "role", name)
			return nil
		}
		return err
	}
	b.logger.Info("created role", "role", name)
	return nil
}

// createDefaultRoles seeds the default role hierarchy bottom-up: included
// roles must exist before the roles that include them.
func (b *Bootstrap) createDefaultRoles(ctx context.Context) error {
	if err := b.CreateRoleIfAbsent(ctx, RoleViewOnly,
		"Read-only access to snapshots and status", nil); err != nil {
		return err
	}
	if err := b.CreateRoleIfAbsent(ctx, RoleCommandManager,
		"Can post commands and view data", []string{RoleViewOnly}); err != nil {
		return err
	}
	return b.CreateRoleIfAbsent(ctx, RoleAdmin,
		"Full access to all endpoints", []string{RoleCommandManager, RoleViewOnly})
}

// createAdminIfAbsent seeds the admin account with the resolved password.
func (b *Bootstrap) createAdminIfAbsent(ctx context.Context) error {
	available, err := b.userService.IsUsernameAvailable(ctx, b.adminUsername)
	if err != nil {
		return err
	}
	if !available {
		b.logger.Debug("admin user already exists", "username", b.adminUsername)
		return nil
	}

	password, generated, err := b.resolveAdminPassword()
	if err != nil {
		return err
	}

	if _, err := b.userService.CreateUser(ctx, b.adminUsername, password, []string{RoleAdmin}); err != nil {
		if auth.HasCode(err, auth.CodeUsernameTaken) {
			b.logger.Debug("admin user already exists", "username", b.adminUsername)
			return nil
		}
		return err
	}

	b.logger.Info("created default admin user", "username", b.adminUsername)
	if generated {
		b.logger.Warn("no admin password configured; generated a random credential",
			"username", b.adminUsername,
			"action_required", "set "+EnvAdminPassword+" to a known value in production")
	} else {
		b.logger.Warn("default admin credentials are in use; change the password in production",
			"username", b.adminUsername)
	}
	return nil
}

// resolveAdminPassword resolves the seeded admin password by priority:
// explicit configuration, then the ADMIN_INITIAL_PASSWORD environment
// variable, then the admin.initial.password config-file key, then a
// generated random password. The generated value is returned to the
// hashing path only and is never logged or persisted.
func (b *Bootstrap) resolveAdminPassword() (password string, generated bool, err error) {
	if b.adminPassword != "" {
		return b.adminPassword, false, nil
	}
	// Blank-only values count as unset; a set value is used verbatim.
	if env := os.Getenv(EnvAdminPassword); strings.TrimSpace(env) != "" {
		return env, false, nil
	}
	if b.configPassword != "" {
		return b.configPassword, false, nil
	}

	raw := make([]byte, generatedPasswordBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", false, oops.Code("BOOTSTRAP_FAILED").
			With("operation", "generate admin password").
			Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), true, nil
}

// UserService returns the wired user service.
func (b *Bootstrap) UserService() *auth.UserService { return b.userService }

// RoleService returns the wired role service.
func (b *Bootstrap) RoleService() *auth.RoleService { return b.roleService }

// AuthService returns the wired auth service.
func (b *Bootstrap) AuthService() *auth.AuthService { return b.authService }

// PasswordService returns the wired password service.
func (b *Bootstrap) PasswordService() *auth.PasswordService { return b.hasher }

// UserRepository returns the wired user repository.
func (b *Bootstrap) UserRepository() auth.UserRepository { return b.users }

// RoleRepository returns the wired role repository.
func (b *Bootstrap) RoleRepository() auth.RoleRepository { return b.roles }
