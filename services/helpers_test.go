package services_test

import (
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"rbac-center/database/dbtest"
	"rbac-center/password"
	"rbac-center/repositories"
	"rbac-center/services"
)

type fixture struct {
	db          *gorm.DB
	store       *repositories.Store
	permissions services.PermissionService
	roles       services.RoleService
	users       services.UserService
	projects    services.ProjectService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	store := repositories.NewStore(db)
	log := zap.NewNop()
	return &fixture{
		db:          db,
		store:       store,
		permissions: services.NewPermissionService(store, "user", log),
		roles:       services.NewRoleService(store, log),
		users:       services.NewUserService(store, password.SHA256{}, log),
		projects:    services.NewProjectService(store),
	}
}
