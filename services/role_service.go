package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/models"
	"rbac-center/repositories"
)

type CreateRoleInput struct {
	Name        string   `json:"name" validate:"required,max=255"`
	DisplayName string   `json:"display_name" validate:"max=255"`
	Permissions []string `json:"permissions"`
}

// RoleService manages roles and the permissions they bundle. Every read of
// a role's permissions goes to the store.
type RoleService interface {
	NewRole(ctx context.Context, name, displayName string, perms ...string) (*models.Role, error)
	EnsureRole(ctx context.Context, name, displayName string) (*models.Role, error)
	Get(ctx context.Context, name string) (*models.Role, error)
	List(ctx context.Context) ([]models.Role, error)
	HasPermission(ctx context.Context, roleName, perm string) (bool, error)
	ListPermissions(ctx context.Context, roleName string) ([]models.Permission, error)
	GrantPermissions(ctx context.Context, roleName string, perms ...string) error
	RevokePermission(ctx context.Context, roleName, perm string) error
	Delete(ctx context.Context, name string) error
}

type roleService struct {
	store *repositories.Store
	log   *zap.Logger
}

var _ RoleService = (*roleService)(nil)

func NewRoleService(store *repositories.Store, log *zap.Logger) RoleService {
	return &roleService{store: store, log: log.Named("roles")}
}

// NewRole creates a role holding whichever of perms exist. Unknown permission
// names are skipped without error. A duplicate role name fails with the
// store's constraint violation.
func (s *roleService) NewRole(ctx context.Context, name, displayName string, perms ...string) (*models.Role, error) {
	input := CreateRoleInput{Name: strings.TrimSpace(name), DisplayName: displayName, Permissions: perms}
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	role := &models.Role{Name: input.Name, DisplayName: input.DisplayName}
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		found, err := tx.Permissions.FindByNames(ctx, perms)
		if err != nil {
			return err
		}
		if len(found) < len(perms) {
			s.log.Debug("skipping unknown permissions", zap.String("role", role.Name),
				zap.Strings("requested", perms), zap.Int("found", len(found)))
		}
		if err := tx.Roles.Create(ctx, role); err != nil {
			return err
		}
		if err := tx.Roles.AppendPermissions(ctx, role, found); err != nil {
			return err
		}
		role.Permissions = found
		return nil
	})
	if err != nil {
		return nil, err
	}
	return role, nil
}

// EnsureRole returns the named role, creating it without permissions when absent.
func (s *roleService) EnsureRole(ctx context.Context, name, displayName string) (*models.Role, error) {
	role, err := s.store.Roles.FindByName(ctx, name)
	if err == nil {
		return role, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.NewRole(ctx, name, displayName)
}

// Get returns the role with its permissions loaded.
func (s *roleService) Get(ctx context.Context, name string) (*models.Role, error) {
	role, err := s.store.Roles.FindByNameWithPermissions(ctx, name)
	if err != nil {
		return nil, roleLookupError(err, name)
	}
	return role, nil
}

func (s *roleService) List(ctx context.Context) ([]models.Role, error) {
	return s.store.Roles.FindAll(ctx)
}

func (s *roleService) HasPermission(ctx context.Context, roleName, perm string) (bool, error) {
	role, err := s.store.Roles.FindByName(ctx, roleName)
	if err != nil {
		return false, roleLookupError(err, roleName)
	}
	role.Permissions, err = s.store.Roles.Permissions(ctx, role)
	if err != nil {
		return false, err
	}
	return role.HasPermission(perm), nil
}

func (s *roleService) ListPermissions(ctx context.Context, roleName string) ([]models.Permission, error) {
	role, err := s.store.Roles.FindByName(ctx, roleName)
	if err != nil {
		return nil, roleLookupError(err, roleName)
	}
	return s.store.Roles.Permissions(ctx, role)
}

// GrantPermissions attaches perms to the role. Unlike NewRole it is strict:
// an unknown permission aborts the whole grant.
func (s *roleService) GrantPermissions(ctx context.Context, roleName string, perms ...string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		role, err := tx.Roles.FindByName(ctx, roleName)
		if err != nil {
			return roleLookupError(err, roleName)
		}
		found, err := tx.Permissions.FindByNames(ctx, perms)
		if err != nil {
			return err
		}
		if missing := missingNames(perms, found); len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrPermissionNotFound, strings.Join(missing, ", "))
		}
		return tx.Roles.AppendPermissions(ctx, role, found)
	})
}

func (s *roleService) RevokePermission(ctx context.Context, roleName, perm string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		role, err := tx.Roles.FindByName(ctx, roleName)
		if err != nil {
			return roleLookupError(err, roleName)
		}
		p, err := tx.Permissions.FindByName(ctx, perm)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", ErrPermissionNotFound, perm)
			}
			return err
		}
		return tx.Roles.RemovePermissions(ctx, role, []models.Permission{*p})
	})
}

// Delete refuses to remove a role that is still assigned to a user. The
// role's own permission grants are removed with it.
func (s *roleService) Delete(ctx context.Context, name string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		role, err := tx.Roles.FindByName(ctx, name)
		if err != nil {
			return roleLookupError(err, name)
		}
		n, err := tx.Roles.CountUsers(ctx, role)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrRoleInUse
		}
		return tx.Roles.Delete(ctx, role)
	})
}

func roleLookupError(err error, name string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %q", ErrRoleNotFound, name)
	}
	return err
}

func missingNames(requested []string, found []models.Permission) []string {
	have := make(map[string]struct{}, len(found))
	for _, p := range found {
		have[p.Name] = struct{}{}
	}
	var missing []string
	for _, name := range requested {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
