package repositories

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"rbac-center/models"
)

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByIDWithPermissions(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, user *models.User) error
	FindAll(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
	Roles(ctx context.Context, user *models.User) ([]models.Role, error)
	AppendRole(ctx context.Context, user *models.User, role *models.Role) error
	RemoveRole(ctx context.Context, user *models.User, role *models.Role) error
	ClearRoles(ctx context.Context, user *models.User) error
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(user).Error
}

// FindByID finds a User by ID without its roles
func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByIDWithPermissions eagerly loads the user's roles and each role's permissions.
func (r *userRepository) FindByIDWithPermissions(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Roles", orderByName).
		Preload("Roles.Permissions", orderByName).
		First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// Update saves the user's own columns; role membership is changed through
// AppendRole/RemoveRole only.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(user).Error
}

// Delete removes the user and its user_roles rows.
func (r *userRepository) Delete(ctx context.Context, user *models.User) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("user_id = ?", user.ID).Delete(&models.UserRole{}).Error; err != nil {
		return err
	}
	return db.Delete(user).Error
}

// FindAll Pagination find all Users
func (r *userRepository) FindAll(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	offset := (page - 1) * pageSize
	var users []models.User
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	result := db.Preload("Roles", orderByName).Order("id").Offset(offset).Limit(pageSize).Find(&users)
	if result.Error != nil {
		return nil, 0, result.Error
	}

	return users, total, nil
}

func (r *userRepository) Roles(ctx context.Context, user *models.User) ([]models.Role, error) {
	var roles []models.Role
	err := r.db.WithContext(ctx).Model(user).Order("name").Association("Roles").Find(&roles)
	return roles, err
}

func (r *userRepository) AppendRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Append(role)
}

func (r *userRepository) RemoveRole(ctx context.Context, user *models.User, role *models.Role) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Delete(role)
}

func (r *userRepository) ClearRoles(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Model(user).Association("Roles").Clear()
}
