package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"rbac-center/auth"
	"rbac-center/models"
	"rbac-center/services"
)

// Define the Service interface that the Controller depends on
type UserController struct {
	userService services.UserService
}

// NewUserController creates a new UserController instance
func NewUserController(userService services.UserService) *UserController {
	return &UserController{userService: userService}
}

// UserResponse Defines the response structure of user information
type UserResponse struct {
	ID          uint      `json:"id"`
	Username    string    `json:"username"`
	ProfileName string    `json:"profile_name"`
	Roles       []string  `json:"roles"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PaginatedUsersResponse is one page of users plus the overall total.
type PaginatedUsersResponse struct {
	Users    []UserResponse `json:"users"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

func mapModelToUserResponse(user *models.User) UserResponse {
	roles := make([]string, 0, len(user.Roles))
	for _, r := range user.Roles {
		roles = append(roles, r.Name)
	}
	return UserResponse{
		ID:          user.ID,
		Username:    user.Username,
		ProfileName: user.ProfileName,
		Roles:       roles,
		CreatedAt:   user.CreatedAt,
		UpdatedAt:   user.UpdatedAt,
	}
}

// RegisterRoutes sets up the user-related routes for a go-restful WebService.
func (ctl *UserController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/users").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)

	// Registration is public.
	ws.Route(ws.POST("/register").To(ctl.createUserHandler).
		Doc("Register a new user").
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Reads(services.CreateUserInput{}).
		Returns(http.StatusCreated, "User created successfully", UserResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil).
		Returns(http.StatusConflict, "Username already exists", nil))

	ws.Route(ws.GET("").Filter(auth.RequirePermission(PermUsersView)).To(ctl.listUsersHandler).
		Doc("List users with pagination").
		Param(ws.QueryParameter("page", "Page number (default 1)").DataType("integer").DefaultValue("1")).
		Param(ws.QueryParameter("page_size", "Users per page (default 10)").DataType("integer").DefaultValue("10")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(PaginatedUsersResponse{}).
		Returns(http.StatusOK, "Users listed successfully", PaginatedUsersResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil))

	ws.Route(ws.GET("/{user-id}").Filter(auth.RequirePermission(PermUsersView)).To(ctl.getUserByIDHandler).
		Doc("Get user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Writes(UserResponse{}).
		Returns(http.StatusOK, "User found", UserResponse{}).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.PUT("/{user-id}/roles/{role}").Filter(auth.RequirePermission(PermUsersEdit)).To(ctl.setRoleHandler).
		Doc("Assign a role to a user; unknown roles are ignored").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Param(ws.PathParameter("role", "Role name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusOK, "Role assigned", UserResponse{}).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.DELETE("/{user-id}/roles/{role}").Filter(auth.RequirePermission(PermUsersEdit)).To(ctl.unsetRoleHandler).
		Doc("Remove a role from a user").
		Param(ws.PathParameter("user-id", "Identifier of the user").DataType("integer")).
		Param(ws.PathParameter("role", "Role name").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusOK, "Role removed", UserResponse{}).
		Returns(http.StatusNotFound, "User not found", nil))

	ws.Route(ws.DELETE("/{user-id}").Filter(auth.RequirePermission(PermUsersEdit)).To(ctl.deleteUserHandler).
		Doc("Delete user by ID").
		Param(ws.PathParameter("user-id", "Identifier of the user to delete").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, []string{"users"}).
		Returns(http.StatusNoContent, "User deleted successfully", nil).
		Returns(http.StatusUnauthorized, "Unauthorized", nil).
		Returns(http.StatusForbidden, "Forbidden", nil).
		Returns(http.StatusNotFound, "User not found", nil))
}

// createUserHandler (Handles POST /users/register)
func (ctl *UserController) createUserHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateUserInput)
	if err := request.ReadEntity(input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	user, err := ctl.userService.CreateUser(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, mapModelToUserResponse(user), restful.MIME_JSON)
}

// listUsersHandler (Handles GET /users)
func (ctl *UserController) listUsersHandler(request *restful.Request, response *restful.Response) {
	page, err := strconv.Atoi(request.QueryParameter("page"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(request.QueryParameter("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}

	users, total, err := ctl.userService.ListUsers(request.Request.Context(), page, pageSize)
	if err != nil {
		handleServiceError(response, err)
		return
	}

	userResponses := make([]UserResponse, len(users))
	for i := range users {
		userResponses[i] = mapModelToUserResponse(&users[i])
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, PaginatedUsersResponse{
		Users:    userResponses,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, restful.MIME_JSON)
}

// getUserByIDHandler (Handles GET /users/{user-id})
func (ctl *UserController) getUserByIDHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}
	user, err := ctl.userService.GetUserByID(request.Request.Context(), userID)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(user), restful.MIME_JSON)
}

func (ctl *UserController) setRoleHandler(request *restful.Request, response *restful.Response) {
	ctl.changeRole(request, response, ctl.userService.SetRole)
}

func (ctl *UserController) unsetRoleHandler(request *restful.Request, response *restful.Response) {
	ctl.changeRole(request, response, ctl.userService.UnsetRole)
}

type roleChange func(ctx context.Context, userID uint, roleName string) error

func (ctl *UserController) changeRole(request *restful.Request, response *restful.Response, change roleChange) {
	userID, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}
	ctx := request.Request.Context()
	if err := change(ctx, userID, request.PathParameter("role")); err != nil {
		handleServiceError(response, err)
		return
	}
	user, err := ctl.userService.GetUserByID(ctx, userID)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, mapModelToUserResponse(user), restful.MIME_JSON)
}

// deleteUserHandler (Handles DELETE /users/{user-id})
func (ctl *UserController) deleteUserHandler(request *restful.Request, response *restful.Response) {
	userID, ok := pathID(request, response, "user-id")
	if !ok {
		return
	}
	if err := ctl.userService.DeleteUser(request.Request.Context(), userID); err != nil {
		handleServiceError(response, err)
		return
	}
	response.WriteHeader(http.StatusNoContent)
}
