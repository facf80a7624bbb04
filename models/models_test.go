package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbac-center/password"
)

func TestRoleHasPermission(t *testing.T) {
	r := Role{Name: "editor", Permissions: []Permission{{Name: "A"}, {Name: "B"}}}

	assert.True(t, r.HasPermission("A"))
	assert.True(t, r.HasPermission("B"))
	assert.False(t, r.HasPermission("C"))
	assert.Equal(t, []string{"A", "B"}, r.PermissionNames())

	empty := Role{Name: "nobody"}
	assert.False(t, empty.HasPermission("A"))
}

func TestUserPermissionsThroughRoles(t *testing.T) {
	u := &User{
		Username: "alice",
		Roles: []Role{
			{Name: "viewer", Permissions: []Permission{{Name: "view"}}},
			{Name: "editor", Permissions: []Permission{{Name: "edit"}}},
		},
	}

	assert.True(t, u.HasPermission("view"))
	assert.True(t, u.HasPermission("edit"))
	assert.False(t, u.HasPermission("delete"))
	assert.True(t, u.HasRole("editor"))
	assert.False(t, u.HasRole("admin"))

	u.Roles = nil
	assert.False(t, u.HasPermission("view"))
	assert.False(t, u.HasRole("viewer"))
}

func TestNewUserHashesPassword(t *testing.T) {
	h := password.SHA256{}
	u, err := NewUser("alice", "Alice", "secret", h)
	require.NoError(t, err)

	assert.NotEqual(t, "secret", u.Password)
	assert.True(t, u.CheckPassword(h, "secret"))
	assert.False(t, u.CheckPassword(h, "wrong"))

	require.NoError(t, u.SetPassword(h, "changed"))
	assert.False(t, u.CheckPassword(h, "secret"))
	assert.True(t, u.CheckPassword(h, "changed"))
}

func TestUserSessionIdentity(t *testing.T) {
	u := &User{ID: 42}
	assert.Equal(t, "42", u.GetID())
	assert.True(t, u.IsAuthenticated())
	assert.True(t, u.IsActive())
	assert.False(t, u.IsAnonymous())
}
