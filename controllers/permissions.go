package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"rbac-center/auth"
	"rbac-center/models"
	"rbac-center/permsmanager"
	"rbac-center/services"
)

// Permission names guarding the HTTP API.
const (
	PermUsersView       = "users.view"
	PermUsersEdit       = "users.edit"
	PermRolesView       = "roles.view"
	PermRolesEdit       = "roles.edit"
	PermPermissionsView = "permissions.view"
	PermProjectsView    = "projects.view"
	PermProjectsEdit    = "projects.edit"
)

var (
	UserPermissions = permsmanager.Declarations{
		PermUsersView: {Description: "View users and their roles"},
		PermUsersEdit: {Description: "Assign roles and delete users"},
	}
	RolePermissions = permsmanager.Declarations{
		PermRolesView:       {Description: "View roles and their permissions"},
		PermRolesEdit:       {Description: "Create, grant and delete roles"},
		PermPermissionsView: {Description: "View the permission catalog"},
	}
	ProjectPermissions = permsmanager.Declarations{
		PermProjectsView: {Description: "View projects and releases", Default: true},
		PermProjectsEdit: {Description: "Create projects and publish releases"},
	}
)

// Declarations lists every permission batch the HTTP API needs, one per
// controller.
func Declarations() []permsmanager.Declarations {
	return []permsmanager.Declarations{UserPermissions, RolePermissions, ProjectPermissions}
}

// PermissionController exposes the permission catalog read-only.
type PermissionController struct {
	permissionService services.PermissionService
}

func NewPermissionController(permissionService services.PermissionService) *PermissionController {
	return &PermissionController{permissionService: permissionService}
}

// RegisterRoutes sets up the permission routes for a go-restful WebService.
func (ctl *PermissionController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/permissions").Produces(restful.MIME_JSON)

	ws.Route(ws.GET("").Filter(auth.RequirePermission(PermPermissionsView)).To(ctl.listPermissionsHandler).
		Doc("List every known permission").
		Metadata(restfulspec.KeyOpenAPITags, []string{"permissions"}).
		Writes([]models.Permission{}).
		Returns(http.StatusOK, "OK", []models.Permission{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))
}

func (ctl *PermissionController) listPermissionsHandler(request *restful.Request, response *restful.Response) {
	perms, err := ctl.permissionService.List(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, perms, restful.MIME_JSON)
}
