package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"rbac-center/services"
)

func seedPermissions(t *testing.T, f *fixture, names ...string) {
	t.Helper()
	specs := make([]services.PermissionSpec, 0, len(names))
	for _, n := range names {
		specs = append(specs, services.PermissionSpec{Name: n, Description: n + " permission"})
	}
	require.NoError(t, f.permissions.RegisterMany(context.Background(), specs, false))
}

func TestNewRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedPermissions(t, f, "A", "B")

	role, err := f.roles.NewRole(ctx, "editor", "Editor", "A", "B")
	require.NoError(t, err)
	assert.NotZero(t, role.ID)
	assert.ElementsMatch(t, []string{"A", "B"}, role.PermissionNames())

	ok, err := f.roles.HasPermission(ctx, "editor", "A")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.roles.HasPermission(ctx, "editor", "C")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRoleSkipsUnknownPermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	role, err := f.roles.NewRole(ctx, "admin", "Admin", "X")
	require.NoError(t, err)
	assert.Empty(t, role.Permissions)

	perms, err := f.roles.ListPermissions(ctx, "admin")
	require.NoError(t, err)
	assert.Empty(t, perms)
}

func TestNewRoleDuplicateName(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.NewRole(ctx, "editor", "Editor")
	require.NoError(t, err)

	_, err = f.roles.NewRole(ctx, "editor", "Other editor")
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestEnsureRoleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r1, err := f.roles.EnsureRole(ctx, "user", "User")
	require.NoError(t, err)
	r2, err := f.roles.EnsureRole(ctx, "user", "Renamed")
	require.NoError(t, err)

	assert.Equal(t, r1.ID, r2.ID)
	assert.Equal(t, "User", r2.DisplayName)
}

func TestGrantAndRevokePermissions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedPermissions(t, f, "A", "B")
	_, err := f.roles.NewRole(ctx, "editor", "Editor")
	require.NoError(t, err)

	err = f.roles.GrantPermissions(ctx, "editor", "A", "missing")
	require.ErrorIs(t, err, services.ErrPermissionNotFound)
	perms, err := f.roles.ListPermissions(ctx, "editor")
	require.NoError(t, err)
	assert.Empty(t, perms, "a failed grant attaches nothing")

	require.NoError(t, f.roles.GrantPermissions(ctx, "editor", "A", "B"))
	require.NoError(t, f.roles.GrantPermissions(ctx, "editor", "A"))

	role, err := f.roles.Get(ctx, "editor")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, role.PermissionNames())

	require.NoError(t, f.roles.RevokePermission(ctx, "editor", "A"))
	ok, err := f.roles.HasPermission(ctx, "editor", "A")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, f.roles.GrantPermissions(ctx, "ghost", "A"), services.ErrRoleNotFound)
}

func TestRoleLookupsOnMissingRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.roles.Get(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrRoleNotFound)
	_, err = f.roles.HasPermission(ctx, "ghost", "A")
	assert.ErrorIs(t, err, services.ErrRoleNotFound)
	_, err = f.roles.ListPermissions(ctx, "ghost")
	assert.ErrorIs(t, err, services.ErrRoleNotFound)
}

func TestDeleteRole(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	seedPermissions(t, f, "A")

	_, err := f.roles.NewRole(ctx, "editor", "Editor", "A")
	require.NoError(t, err)
	user, err := f.users.CreateUser(ctx, &services.CreateUserInput{Username: "bob", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, f.users.SetRole(ctx, user.ID, "editor"))

	assert.ErrorIs(t, f.roles.Delete(ctx, "editor"), services.ErrRoleInUse)

	require.NoError(t, f.users.UnsetRole(ctx, user.ID, "editor"))
	require.NoError(t, f.roles.Delete(ctx, "editor"))

	_, err = f.roles.Get(ctx, "editor")
	assert.ErrorIs(t, err, services.ErrRoleNotFound)

	var grants int64
	require.NoError(t, f.db.Table("role_permissions").Count(&grants).Error)
	assert.Zero(t, grants, "role grants are removed with the role")

	// The permission itself survives.
	_, err = f.permissions.Get(ctx, "A")
	assert.NoError(t, err)

	roles, err := f.roles.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, roles)
}
