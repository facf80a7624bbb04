package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"rbac-center/auth"
	"rbac-center/models"
	"rbac-center/services"
)

// RoleController manages roles and the permissions granted to them.
type RoleController struct {
	roleService services.RoleService
}

func NewRoleController(roleService services.RoleService) *RoleController {
	return &RoleController{roleService: roleService}
}

// RoleResponse Defines the response structure of a role with its permission names
type RoleResponse struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Permissions []string `json:"permissions"`
}

func mapModelToRoleResponse(role *models.Role) RoleResponse {
	return RoleResponse{Name: role.Name, DisplayName: role.DisplayName, Permissions: role.PermissionNames()}
}

// RegisterRoutes sets up the role-related routes for a go-restful WebService.
func (ctl *RoleController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/roles").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"roles"}

	ws.Route(ws.GET("").Filter(auth.RequirePermission(PermRolesView)).To(ctl.listRolesHandler).
		Doc("List roles with their permissions").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]RoleResponse{}).
		Returns(http.StatusOK, "OK", []RoleResponse{}))

	ws.Route(ws.POST("").Filter(auth.RequirePermission(PermRolesEdit)).To(ctl.createRoleHandler).
		Doc("Create a role; unknown permission names are skipped").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateRoleInput{}).
		Returns(http.StatusCreated, "Role created", RoleResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusConflict, "Role already exists", nil))

	ws.Route(ws.GET("/{name}/permissions").Filter(auth.RequirePermission(PermRolesView)).To(ctl.listPermissionsHandler).
		Doc("List the permissions held by a role").
		Param(ws.PathParameter("name", "Role name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]models.Permission{}).
		Returns(http.StatusOK, "OK", []models.Permission{}).
		Returns(http.StatusNotFound, "Role not found", nil))

	ws.Route(ws.PUT("/{name}/permissions/{perm}").Filter(auth.RequirePermission(PermRolesEdit)).To(ctl.grantHandler).
		Doc("Grant a permission to a role").
		Param(ws.PathParameter("name", "Role name").DataType("string")).
		Param(ws.PathParameter("perm", "Permission name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Granted", RoleResponse{}).
		Returns(http.StatusNotFound, "Role or permission not found", nil))

	ws.Route(ws.DELETE("/{name}/permissions/{perm}").Filter(auth.RequirePermission(PermRolesEdit)).To(ctl.revokeHandler).
		Doc("Revoke a permission from a role").
		Param(ws.PathParameter("name", "Role name").DataType("string")).
		Param(ws.PathParameter("perm", "Permission name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "Revoked", RoleResponse{}).
		Returns(http.StatusNotFound, "Role or permission not found", nil))

	ws.Route(ws.DELETE("/{name}").Filter(auth.RequirePermission(PermRolesEdit)).To(ctl.deleteRoleHandler).
		Doc("Delete a role that no user holds").
		Param(ws.PathParameter("name", "Role name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusNoContent, "Deleted", nil).
		Returns(http.StatusNotFound, "Role not found", nil).
		Returns(http.StatusConflict, "Role still assigned", nil))
}

func (ctl *RoleController) listRolesHandler(request *restful.Request, response *restful.Response) {
	roles, err := ctl.roleService.List(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	out := make([]RoleResponse, len(roles))
	for i := range roles {
		out[i] = mapModelToRoleResponse(&roles[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, out, restful.MIME_JSON)
}

func (ctl *RoleController) createRoleHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateRoleInput)
	if err := request.ReadEntity(input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	role, err := ctl.roleService.NewRole(request.Request.Context(), input.Name, input.DisplayName, input.Permissions...)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, mapModelToRoleResponse(role), restful.MIME_JSON)
}

func (ctl *RoleController) listPermissionsHandler(request *restful.Request, response *restful.Response) {
	perms, err := ctl.roleService.ListPermissions(request.Request.Context(), request.PathParameter("name"))
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, perms, restful.MIME_JSON)
}

func (ctl *RoleController) grantHandler(request *restful.Request, response *restful.Response) {
	ctx := request.Request.Context()
	name := request.PathParameter("name")
	if err := ctl.roleService.GrantPermissions(ctx, name, request.PathParameter("perm")); err != nil {
		handleServiceError(response, err)
		return
	}
	ctl.writeRole(request, response, name)
}

func (ctl *RoleController) revokeHandler(request *restful.Request, response *restful.Response) {
	ctx := request.Request.Context()
	name := request.PathParameter("name")
	if err := ctl.roleService.RevokePermission(ctx, name, request.PathParameter("perm")); err != nil {
		handleServiceError(response, err)
		return
	}
	ctl.writeRole(request, response, name)
}

func (ctl *RoleController) writeRole(request *restful.Request, response *restful.Response, name string) {
	role, err := ctl.roleService.Get(request.Request.Context(), name)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToRoleResponse(role), restful.MIME_JSON)
}

func (ctl *RoleController) deleteRoleHandler(request *restful.Request, response *restful.Response) {
	if err := ctl.roleService.Delete(request.Request.Context(), request.PathParameter("name")); err != nil {
		handleServiceError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
