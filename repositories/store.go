package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database handle, so a unit of
// work can span several of them inside a single transaction.
type Store struct {
	db          *gorm.DB
	Permissions PermissionRepository
	Roles       RoleRepository
	Users       UserRepository
	Projects    ProjectRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:          db,
		Permissions: NewPermissionRepository(db),
		Roles:       NewRoleRepository(db),
		Users:       NewUserRepository(db),
		Projects:    NewProjectRepository(db),
	}
}

// Transaction runs fn against a Store bound to one transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// DB exposes the underlying handle for migrations and health checks.
func (s *Store) DB() *gorm.DB {
	return s.db
}
