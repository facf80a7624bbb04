package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/models"
	"rbac-center/repositories"
)

// PermissionSpec is a (name, description) pair for bulk registration.
type PermissionSpec struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

// PermissionService is the catalog of permissions known to the system.
type PermissionService interface {
	Register(ctx context.Context, name, description string, addToDefault bool) (*models.Permission, error)
	RegisterMany(ctx context.Context, specs []PermissionSpec, addToDefault bool) error
	Get(ctx context.Context, name string) (*models.Permission, error)
	List(ctx context.Context) ([]models.Permission, error)
	UpdateDescription(ctx context.Context, name, description string) (*models.Permission, error)
	Delete(ctx context.Context, name string) error
}

type permissionService struct {
	store       *repositories.Store
	defaultRole string
	log         *zap.Logger
}

var _ PermissionService = (*permissionService)(nil)

// NewPermissionService creates a registry that attaches "default" permissions
// to the role named defaultRole.
func NewPermissionService(store *repositories.Store, defaultRole string, log *zap.Logger) PermissionService {
	return &permissionService{store: store, defaultRole: defaultRole, log: log.Named("permissions")}
}

// Register creates the permission if no permission with that name exists.
// An existing permission is returned untouched: the first description wins.
// With addToDefault the permission is also granted to the default role, which
// must already exist; otherwise nothing is written.
func (s *permissionService) Register(ctx context.Context, name, description string, addToDefault bool) (*models.Permission, error) {
	var perm *models.Permission
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		perm, err = s.register(ctx, tx, name, description, addToDefault)
		return err
	})
	if err != nil {
		return nil, err
	}
	return perm, nil
}

// RegisterMany registers each entry in order and commits once.
func (s *permissionService) RegisterMany(ctx context.Context, specs []PermissionSpec, addToDefault bool) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		for _, spec := range specs {
			if _, err := s.register(ctx, tx, spec.Name, spec.Description, addToDefault); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *permissionService) register(ctx context.Context, tx *repositories.Store, name, description string, addToDefault bool) (*models.Permission, error) {
	if err := models.ValidatePermissionName(name); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	// An existing permission wins; the new description is not even checked.
	perm, err := tx.Permissions.FindByName(ctx, name)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		spec := PermissionSpec{Name: name, Description: description}
		if err := validate.Struct(spec); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
		}
		perm = &models.Permission{Name: spec.Name, Description: spec.Description}
		if err := tx.Permissions.Create(ctx, perm); err != nil {
			return nil, fmt.Errorf("create permission %q: %w", spec.Name, err)
		}
		s.log.Debug("registered permission", zap.String("permission", perm.Name))
	default:
		return nil, err
	}

	if addToDefault {
		role, err := tx.Roles.FindByName(ctx, s.defaultRole)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("%w: %q", ErrDefaultRoleNotFound, s.defaultRole)
			}
			return nil, err
		}
		if err := tx.Roles.AppendPermissions(ctx, role, []models.Permission{*perm}); err != nil {
			return nil, fmt.Errorf("grant %q to default role: %w", perm.Name, err)
		}
	}
	return perm, nil
}

func (s *permissionService) Get(ctx context.Context, name string) (*models.Permission, error) {
	perm, err := s.store.Permissions.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrPermissionNotFound, name)
		}
		return nil, err
	}
	return perm, nil
}

func (s *permissionService) List(ctx context.Context) ([]models.Permission, error) {
	return s.store.Permissions.FindAll(ctx)
}

// UpdateDescription is the only mutation a permission allows after creation.
func (s *permissionService) UpdateDescription(ctx context.Context, name, description string) (*models.Permission, error) {
	perm, err := s.Get(ctx, name)
	if err != nil {
		return nil, err
	}
	if err := s.store.Permissions.UpdateDescription(ctx, perm, description); err != nil {
		return nil, err
	}
	perm.Description = description
	return perm, nil
}

// Delete refuses to remove a permission that any role still holds.
func (s *permissionService) Delete(ctx context.Context, name string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		perm, err := tx.Permissions.FindByName(ctx, name)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: %q", ErrPermissionNotFound, name)
			}
			return err
		}
		n, err := tx.Permissions.CountRoles(ctx, perm)
		if err != nil {
			return err
		}
		if n > 0 {
			return ErrPermissionInUse
		}
		return tx.Permissions.Delete(ctx, perm)
	})
}
