package repositories

import (
	"context"

	"gorm.io/gorm"

	"rbac-center/models"
)

// PermissionRepository defines Permission-related database operations
type PermissionRepository interface {
	Create(ctx context.Context, perm *models.Permission) error
	FindByName(ctx context.Context, name string) (*models.Permission, error)
	FindByNames(ctx context.Context, names []string) ([]models.Permission, error)
	FindAll(ctx context.Context) ([]models.Permission, error)
	ListNames(ctx context.Context) ([]string, error)
	UpdateDescription(ctx context.Context, perm *models.Permission, description string) error
	CountRoles(ctx context.Context, perm *models.Permission) (int64, error)
	Delete(ctx context.Context, perm *models.Permission) error
}

type permissionRepository struct {
	db *gorm.DB
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db: db}
}

func (r *permissionRepository) Create(ctx context.Context, perm *models.Permission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

// FindByName returns gorm.ErrRecordNotFound when no permission has that name.
func (r *permissionRepository) FindByName(ctx context.Context, name string) (*models.Permission, error) {
	var perm models.Permission
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&perm).Error; err != nil {
		return nil, err
	}
	return &perm, nil
}

// FindByNames returns the permissions that exist among names; missing names
// are simply absent from the result.
func (r *permissionRepository) FindByNames(ctx context.Context, names []string) ([]models.Permission, error) {
	var perms []models.Permission
	if len(names) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("name IN ?", names).Order("name").Find(&perms).Error
	return perms, err
}

func (r *permissionRepository) FindAll(ctx context.Context) ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.WithContext(ctx).Order("name").Find(&perms).Error
	return perms, err
}

func (r *permissionRepository) ListNames(ctx context.Context) ([]string, error) {
	var names []string
	err := r.db.WithContext(ctx).Model(&models.Permission{}).Order("name").Pluck("name", &names).Error
	return names, err
}

func (r *permissionRepository) UpdateDescription(ctx context.Context, perm *models.Permission, description string) error {
	return r.db.WithContext(ctx).Model(perm).Update("description", description).Error
}

func (r *permissionRepository) CountRoles(ctx context.Context, perm *models.Permission) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.RolePermission{}).
		Where("permission_id = ?", perm.ID).Count(&n).Error
	return n, err
}

func (r *permissionRepository) Delete(ctx context.Context, perm *models.Permission) error {
	return r.db.WithContext(ctx).Delete(perm).Error
}
