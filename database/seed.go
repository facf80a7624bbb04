package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"rbac-center/services"
)

type SeedOptions struct {
	DefaultRole string
	AdminRole   string

	// DefaultPermissions are registered and granted to DefaultRole.
	DefaultPermissions []services.PermissionSpec

	// The admin user is only created when both are set.
	AdminUsername string
	AdminPassword string
}

// Seed makes sure the default and admin roles exist, grants the default
// permissions, gives the admin role every known permission and, if
// configured, creates the admin user. Running it again changes nothing that
// is already in place.
func Seed(ctx context.Context, opts SeedOptions, perms services.PermissionService, roles services.RoleService, users services.UserService, log *zap.Logger) error {
	if _, err := roles.EnsureRole(ctx, opts.DefaultRole, "User"); err != nil {
		return fmt.Errorf("seed default role: %w", err)
	}
	if _, err := roles.EnsureRole(ctx, opts.AdminRole, "Administrator"); err != nil {
		return fmt.Errorf("seed admin role: %w", err)
	}

	if len(opts.DefaultPermissions) > 0 {
		if err := perms.RegisterMany(ctx, opts.DefaultPermissions, true); err != nil {
			return fmt.Errorf("seed default permissions: %w", err)
		}
	}

	all, err := perms.List(ctx)
	if err != nil {
		return err
	}
	if len(all) > 0 {
		names := make([]string, 0, len(all))
		for _, p := range all {
			names = append(names, p.Name)
		}
		if err := roles.GrantPermissions(ctx, opts.AdminRole, names...); err != nil {
			return fmt.Errorf("grant admin permissions: %w", err)
		}
	}

	if opts.AdminUsername == "" || opts.AdminPassword == "" {
		return nil
	}

	admin, err := users.GetUserByUsername(ctx, opts.AdminUsername)
	if errors.Is(err, services.ErrUserNotFound) {
		admin, err = users.CreateUser(ctx, &services.CreateUserInput{
			Username:    opts.AdminUsername,
			ProfileName: "Administrator",
			Password:    opts.AdminPassword,
		})
		if err != nil {
			return fmt.Errorf("seed admin user: %w", err)
		}
		log.Info("created admin user", zap.String("username", admin.Username))
	} else if err != nil {
		return err
	}
	return users.SetRole(ctx, admin.ID, opts.AdminRole)
}
