package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rbac-center/models"
)

// RoleRepository defines Role-related database operations. Methods that
// return permissions always query; nothing is cached on the Role value.
type RoleRepository interface {
	Create(ctx context.Context, role *models.Role) error
	FindByName(ctx context.Context, name string) (*models.Role, error)
	FindByNameWithPermissions(ctx context.Context, name string) (*models.Role, error)
	FindAll(ctx context.Context) ([]models.Role, error)
	Permissions(ctx context.Context, role *models.Role) ([]models.Permission, error)
	AppendPermissions(ctx context.Context, role *models.Role, perms []models.Permission) error
	RemovePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error
	CountUsers(ctx context.Context, role *models.Role) (int64, error)
	Delete(ctx context.Context, role *models.Role) error
}

type roleRepository struct {
	db *gorm.DB
}

func NewRoleRepository(db *gorm.DB) RoleRepository {
	return &roleRepository{db: db}
}

// Create inserts the role row only; attach permissions with AppendPermissions.
func (r *roleRepository) Create(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(role).Error
}

func (r *roleRepository) FindByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindByNameWithPermissions(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	err := r.db.WithContext(ctx).Preload("Permissions", orderByName).
		Where("name = ?", name).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepository) FindAll(ctx context.Context) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Preload("Permissions", orderByName).Order("name").Find(&roles).Error
	return roles, err
}

func (r *roleRepository) Permissions(ctx context.Context, role *models.Role) ([]models.Permission, error) {
	var perms []models.Permission
	err := r.db.WithContext(ctx).Model(role).Order("name").Association("Permissions").Find(&perms)
	return perms, err
}

// AppendPermissions adds join rows; pairs that already exist are left alone.
func (r *roleRepository) AppendPermissions(ctx context.Context, role *models.Role, perms []models.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Append(perms)
}

func (r *roleRepository) RemovePermissions(ctx context.Context, role *models.Role, perms []models.Permission) error {
	if len(perms) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(role).Association("Permissions").Delete(perms)
}

func (r *roleRepository) CountUsers(ctx context.Context, role *models.Role) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.UserRole{}).Where("role_id = ?", role.ID).Count(&n).Error
	return n, err
}

// Delete removes the role and its role_permissions rows.
func (r *roleRepository) Delete(ctx context.Context, role *models.Role) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("role_id = ?", role.ID).Delete(&models.RolePermission{}).Error; err != nil {
		return err
	}
	return db.Delete(role).Error
}

func orderByName(db *gorm.DB) *gorm.DB {
	return db.Order("name")
}
