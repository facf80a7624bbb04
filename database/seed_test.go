package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rbac-center/database"
	"rbac-center/database/dbtest"
	"rbac-center/password"
	"rbac-center/repositories"
	"rbac-center/services"
)

func TestSeed(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewStore(dbtest.New(t))
	log := zap.NewNop()
	perms := services.NewPermissionService(store, "user", log)
	roles := services.NewRoleService(store, log)
	users := services.NewUserService(store, password.SHA256{}, log)

	_, err := perms.Register(ctx, "users.edit", "Edit users", false)
	require.NoError(t, err)

	opts := database.SeedOptions{
		DefaultRole:        "user",
		AdminRole:          "admin",
		DefaultPermissions: []services.PermissionSpec{{Name: "projects.view", Description: "View projects"}},
		AdminUsername:      "root",
		AdminPassword:      "toor",
	}
	require.NoError(t, database.Seed(ctx, opts, perms, roles, users, log))
	// Second run is a no-op.
	require.NoError(t, database.Seed(ctx, opts, perms, roles, users, log))

	userPerms, err := roles.ListPermissions(ctx, "user")
	require.NoError(t, err)
	require.Len(t, userPerms, 1)
	assert.Equal(t, "projects.view", userPerms[0].Name)

	adminRole, err := roles.Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, []string{"projects.view", "users.edit"}, adminRole.PermissionNames())

	admin, err := users.Authenticate(ctx, "root", "toor")
	require.NoError(t, err)
	ok, err := users.HasPermission(ctx, admin.ID, "users.edit")
	require.NoError(t, err)
	assert.True(t, ok)

	_, total, err := users.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSeedWithoutAdminUser(t *testing.T) {
	ctx := context.Background()
	store := repositories.NewStore(dbtest.New(t))
	log := zap.NewNop()
	perms := services.NewPermissionService(store, "user", log)
	roles := services.NewRoleService(store, log)
	users := services.NewUserService(store, password.SHA256{}, log)

	require.NoError(t, database.Seed(ctx, database.SeedOptions{DefaultRole: "user", AdminRole: "admin"}, perms, roles, users, log))

	list, err := roles.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	_, total, err := users.ListUsers(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}
