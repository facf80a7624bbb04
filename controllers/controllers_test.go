package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rbac-center/auth"
	"rbac-center/controllers"
	"rbac-center/database"
	"rbac-center/database/dbtest"
	"rbac-center/models"
	"rbac-center/password"
	"rbac-center/permsmanager"
	"rbac-center/repositories"
	"rbac-center/services"
)

type api struct {
	container *restful.Container
	svc       controllers.Services
	admin     string
}

func setupAPI(t *testing.T) *api {
	t.Helper()
	ctx := context.Background()
	log := zap.NewNop()
	store := repositories.NewStore(dbtest.New(t))
	svc := controllers.Services{
		Users:       services.NewUserService(store, password.SHA256{}, log),
		Roles:       services.NewRoleService(store, log),
		Permissions: services.NewPermissionService(store, "user", log),
		Projects:    services.NewProjectService(store),
	}

	m := permsmanager.New()
	for _, decls := range controllers.Declarations() {
		require.NoError(t, m.Register(decls))
	}
	m.Init(store)
	_, err := m.CreateAll(ctx)
	require.NoError(t, err)

	var defaults []services.PermissionSpec
	for name, desc := range m.Defaults() {
		defaults = append(defaults, services.PermissionSpec{Name: name, Description: desc})
	}
	require.NoError(t, database.Seed(ctx, database.SeedOptions{
		DefaultRole:        "user",
		AdminRole:          "admin",
		DefaultPermissions: defaults,
		AdminUsername:      "root",
		AdminPassword:      "toor",
	}, svc.Permissions, svc.Roles, svc.Users, log))

	tokens := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, "rbac-center")
	a := &api{container: controllers.NewContainer(svc, tokens, log), svc: svc}
	a.admin = a.login(t, "root", "toor")
	return a
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewBuffer(raw)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.container.ServeHTTP(w, req)
	return w
}

func (a *api) login(t *testing.T, username, pw string) string {
	t.Helper()
	w := a.do(http.MethodPost, "/auth/login", "", auth.LoginCredentials{Username: username, Password: pw})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp auth.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRegisterUser(t *testing.T) {
	a := setupAPI(t)

	t.Run("Success", func(t *testing.T) {
		w := a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "alice", Password: "secret"})
		require.Equal(t, http.StatusCreated, w.Code)
		user := decode[controllers.UserResponse](t, w)
		assert.Equal(t, "alice", user.Username)
		assert.NotContains(t, w.Body.String(), "secret")
	})

	t.Run("Username already exists", func(t *testing.T) {
		w := a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "alice", Password: "x"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("Missing password", func(t *testing.T) {
		w := a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "bob"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUserRoutesArePermissionGated(t *testing.T) {
	a := setupAPI(t)
	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "alice", Password: "secret"}).Code)
	alice := a.login(t, "alice", "secret")

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/users", "", nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/users", alice, nil).Code)

	w := a.do(http.MethodGet, "/users?page=1&page_size=10", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[controllers.PaginatedUsersResponse](t, w)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, "root", page.Users[0].Username)
	assert.Equal(t, []string{"admin"}, page.Users[0].Roles)
}

func TestAssignRoleGrantsAccess(t *testing.T) {
	a := setupAPI(t)
	w := a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "alice", Password: "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	aliceID := decode[controllers.UserResponse](t, w).ID
	alice := a.login(t, "alice", "secret")

	w = a.do(http.MethodPost, "/roles", a.admin, services.CreateRoleInput{
		Name: "viewer", DisplayName: "Viewer", Permissions: []string{controllers.PermUsersView, "no.such.perm"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{controllers.PermUsersView}, decode[controllers.RoleResponse](t, w).Permissions)

	w = a.do(http.MethodPut, fmt.Sprintf("/users/%d/roles/viewer", aliceID), a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"viewer"}, decode[controllers.UserResponse](t, w).Roles)

	// Permissions are read from the store on every request.
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/users", alice, nil).Code)

	w = a.do(http.MethodDelete, fmt.Sprintf("/users/%d/roles/viewer", aliceID), a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/users", alice, nil).Code)
}

func TestUserNotFoundAndBadID(t *testing.T) {
	a := setupAPI(t)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/users/999", a.admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/users/abc", a.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/users/999", a.admin, nil).Code)

	// Ids wider than 32 bits are well formed, just absent.
	if strconv.IntSize == 64 {
		assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/users/5000000000", a.admin, nil).Code)
	}
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/users/99999999999999999999999", a.admin, nil).Code)
}

func TestDeletedUserTokenIsRejected(t *testing.T) {
	a := setupAPI(t)
	w := a.do(http.MethodPost, "/users/register", "", services.CreateUserInput{Username: "alice", Password: "secret"})
	require.Equal(t, http.StatusCreated, w.Code)
	aliceID := decode[controllers.UserResponse](t, w).ID
	alice := a.login(t, "alice", "secret")

	require.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, fmt.Sprintf("/users/%d", aliceID), a.admin, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/projects", alice, nil).Code)
}

func TestRoleRoutes(t *testing.T) {
	a := setupAPI(t)

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/roles", a.admin, services.CreateRoleInput{Name: "editor"}).Code)
	assert.Equal(t, http.StatusConflict, a.do(http.MethodPost, "/roles", a.admin, services.CreateRoleInput{Name: "editor"}).Code)

	w := a.do(http.MethodPut, "/roles/editor/permissions/"+controllers.PermProjectsEdit, a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{controllers.PermProjectsEdit}, decode[controllers.RoleResponse](t, w).Permissions)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodPut, "/roles/editor/permissions/missing", a.admin, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/roles/ghost/permissions", a.admin, nil).Code)

	w = a.do(http.MethodGet, "/roles/editor/permissions", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decode[[]models.Permission](t, w)
	require.Len(t, perms, 1)
	assert.Equal(t, controllers.PermProjectsEdit, perms[0].Name)

	w = a.do(http.MethodDelete, "/roles/editor/permissions/"+controllers.PermProjectsEdit, a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[controllers.RoleResponse](t, w).Permissions)

	// The admin role is still held by root.
	assert.Equal(t, http.StatusConflict, a.do(http.MethodDelete, "/roles/admin", a.admin, nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(http.MethodDelete, "/roles/editor", a.admin, nil).Code)

	w = a.do(http.MethodGet, "/roles", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	roles := decode[[]controllers.RoleResponse](t, w)
	require.Len(t, roles, 2)
	assert.Equal(t, "admin", roles[0].Name)
	assert.Equal(t, "user", roles[1].Name)
	assert.Equal(t, []string{controllers.PermProjectsView}, roles[1].Permissions)
}

func TestPermissionCatalog(t *testing.T) {
	a := setupAPI(t)

	w := a.do(http.MethodGet, "/permissions", a.admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	perms := decode[[]models.Permission](t, w)

	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{
		controllers.PermPermissionsView,
		controllers.PermProjectsEdit,
		controllers.PermProjectsView,
		controllers.PermRolesEdit,
		controllers.PermRolesView,
		controllers.PermUsersEdit,
		controllers.PermUsersView,
	}, names)
}

func TestProjectRoutes(t *testing.T) {
	a := setupAPI(t)
	ctx := context.Background()

	// A freshly registered user gets the default role.
	user, err := a.svc.Users.CreateUser(ctx, &services.CreateUserInput{Username: "carol", Password: "pw"})
	require.NoError(t, err)
	require.NoError(t, a.svc.Users.SetRole(ctx, user.ID, "user"))
	carol := a.login(t, "carol", "pw")

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/projects", carol, services.CreateProjectInput{Name: "p"}).Code)

	w := a.do(http.MethodPost, "/projects", a.admin, services.CreateProjectInput{Name: "alpha"})
	require.Equal(t, http.StatusCreated, w.Code)
	project := decode[models.Project](t, w)

	w = a.do(http.MethodPost, fmt.Sprintf("/projects/%d/releases", project.ID), a.admin, services.CreateReleaseInput{Version: "1.0.0"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodGet, fmt.Sprintf("/projects/%d", project.ID), carol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[models.Project](t, w)
	require.Len(t, got.Releases, 1)
	assert.Equal(t, "1.0.0", got.Releases[0].Version)

	w = a.do(http.MethodGet, "/projects", carol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]models.Project](t, w), 1)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/projects/999", carol, nil).Code)
}

func TestOpenAPIDocument(t *testing.T) {
	a := setupAPI(t)
	w := a.do(http.MethodGet, "/apidocs.json", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/users/register")
	assert.Contains(t, w.Body.String(), "/roles/{name}/permissions")
}
