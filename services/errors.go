package services

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPermissionNotFound  = errors.New("permission not found")
	ErrRoleNotFound        = errors.New("role not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrProjectNotFound     = errors.New("project not found")
	ErrDefaultRoleNotFound = errors.New("default role not found")
	ErrPermissionInUse     = errors.New("cannot delete assigned permission")
	ErrRoleInUse           = errors.New("cannot delete assigned role")
	ErrUsernameTaken       = errors.New("username already exists")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

var validate = validator.New()
