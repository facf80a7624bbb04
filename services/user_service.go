package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/models"
	"rbac-center/password"
	"rbac-center/repositories"
)

// The UserService interface defines the methods that user services need to implement
type UserService interface {
	CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error)
	GetUserByID(ctx context.Context, userID uint) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
	DeleteUser(ctx context.Context, userID uint) error

	SetRole(ctx context.Context, userID uint, roleName string) error
	UnsetRole(ctx context.Context, userID uint, roleName string) error
	ClearRoles(ctx context.Context, userID uint) error
	HasRole(ctx context.Context, userID uint, roleName string) (bool, error)
	HasPermission(ctx context.Context, userID uint, perm string) (bool, error)

	SetPassword(ctx context.Context, userID uint, plain string) error
	CheckPassword(ctx context.Context, userID uint, plain string) (bool, error)
	Authenticate(ctx context.Context, username, plain string) (*models.User, error)

	LoadUser(ctx context.Context, id string) (*models.User, bool)
}

// --- Structs for Input/Output ---
type CreateUserInput struct {
	Username    string `json:"username" validate:"required,max=255" description:"Unique login name"`
	ProfileName string `json:"profile_name" validate:"max=255" description:"Display name"`
	Password    string `json:"password" validate:"required" description:"Plaintext password, stored hashed"`
}

// The userService structure is the implementation of the UserService interface
type userService struct {
	store  *repositories.Store
	hasher password.Hasher
	log    *zap.Logger
}

var _ UserService = (*userService)(nil)

// NewUserService creates a new UserService instance
func NewUserService(store *repositories.Store, hasher password.Hasher, log *zap.Logger) UserService {
	return &userService{store: store, hasher: hasher, log: log.Named("users")}
}

// CreateUser hashes the password before anything is stored.
func (s *userService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	if err := validate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	// Check if username already exists
	_, err := s.store.Users.FindByUsername(ctx, input.Username)
	if err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	user, err := models.NewUser(input.Username, input.ProfileName, input.Password, s.hasher)
	if err != nil {
		return nil, err
	}

	if err := s.store.Users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// GetUserByID returns the user with roles and permissions loaded.
func (s *userService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	user, err := s.store.Users.FindByIDWithPermissions(ctx, userID)
	if err != nil {
		return nil, userLookupError(err, userID)
	}
	return user, nil
}

func (s *userService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.store.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %q", ErrUserNotFound, username)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return s.store.Users.FindAll(ctx, page, pageSize)
}

func (s *userService) DeleteUser(ctx context.Context, userID uint) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, userID)
		}
		return tx.Users.Delete(ctx, user)
	})
}

// SetRole adds the named role to the user. A role that does not exist is
// ignored, and assigning a role twice is a no-op.
func (s *userService) SetRole(ctx context.Context, userID uint, roleName string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, userID)
		}
		role, err := tx.Roles.FindByName(ctx, roleName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Debug("set role: unknown role ignored", zap.Uint("user_id", userID), zap.String("role", roleName))
			return nil
		} else if err != nil {
			return err
		}
		return tx.Users.AppendRole(ctx, user, role)
	})
}

// UnsetRole removes the named role from the user; unknown roles are ignored.
func (s *userService) UnsetRole(ctx context.Context, userID uint, roleName string) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		user, err := tx.Users.FindByID(ctx, userID)
		if err != nil {
			return userLookupError(err, userID)
		}
		role, err := tx.Roles.FindByName(ctx, roleName)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		} else if err != nil {
			return err
		}
		return tx.Users.RemoveRole(ctx, user, role)
	})
}

func (s *userService) ClearRoles(ctx context.Context, userID uint) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return userLookupError(err, userID)
	}
	return s.store.Users.ClearRoles(ctx, user)
}

func (s *userService) HasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return false, userLookupError(err, userID)
	}
	user.Roles, err = s.store.Users.Roles(ctx, user)
	if err != nil {
		return false, err
	}
	return user.HasRole(roleName), nil
}

func (s *userService) HasPermission(ctx context.Context, userID uint, perm string) (bool, error) {
	user, err := s.store.Users.FindByIDWithPermissions(ctx, userID)
	if err != nil {
		return false, userLookupError(err, userID)
	}
	return user.HasPermission(perm), nil
}

func (s *userService) SetPassword(ctx context.Context, userID uint, plain string) error {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return userLookupError(err, userID)
	}
	if err := user.SetPassword(s.hasher, plain); err != nil {
		return err
	}
	return s.store.Users.Update(ctx, user)
}

func (s *userService) CheckPassword(ctx context.Context, userID uint, plain string) (bool, error) {
	user, err := s.store.Users.FindByID(ctx, userID)
	if err != nil {
		return false, userLookupError(err, userID)
	}
	return user.CheckPassword(s.hasher, plain), nil
}

// Authenticate does not reveal whether the username exists.
func (s *userService) Authenticate(ctx context.Context, username, plain string) (*models.User, error) {
	user, err := s.store.Users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(s.hasher, plain) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

// LoadUser resolves a session identifier into a user with roles and
// permissions loaded. Malformed or unknown identifiers yield false; so do
// store failures, which are logged.
func (s *userService) LoadUser(ctx context.Context, id string) (*models.User, bool) {
	userID, err := strconv.ParseUint(id, 10, strconv.IntSize)
	if err != nil || userID == 0 {
		return nil, false
	}
	user, err := s.store.Users.FindByIDWithPermissions(ctx, uint(userID))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.log.Warn("load user failed", zap.String("user_id", id), zap.Error(err))
		}
		return nil, false
	}
	return user, true
}

func userLookupError(err error, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	return err
}
