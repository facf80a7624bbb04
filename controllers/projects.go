package controllers

import (
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"rbac-center/auth"
	"rbac-center/models"
	"rbac-center/services"
)

type ProjectController struct {
	projectService services.ProjectService
}

// NewProjectController creates a new ProjectController instance
func NewProjectController(projectService services.ProjectService) *ProjectController {
	return &ProjectController{projectService: projectService}
}

// RegisterRoutes sets up the project and release routes for a go-restful WebService.
func (ctl *ProjectController) RegisterRoutes(ws *restful.WebService) {
	ws.Path("/projects").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	tags := []string{"projects"}

	ws.Route(ws.GET("").Filter(auth.RequirePermission(PermProjectsView)).To(ctl.listProjectsHandler).
		Doc("List projects").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]models.Project{}).
		Returns(http.StatusOK, "OK", []models.Project{}))

	ws.Route(ws.POST("").Filter(auth.RequirePermission(PermProjectsEdit)).To(ctl.createProjectHandler).
		Doc("Create a project").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateProjectInput{}).
		Returns(http.StatusCreated, "Project created", models.Project{}).
		Returns(http.StatusBadRequest, "Invalid request body", nil))

	ws.Route(ws.GET("/{project-id}").Filter(auth.RequirePermission(PermProjectsView)).To(ctl.getProjectHandler).
		Doc("Get a project with its releases, newest first").
		Param(ws.PathParameter("project-id", "Identifier of the project").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(models.Project{}).
		Returns(http.StatusOK, "OK", models.Project{}).
		Returns(http.StatusNotFound, "Project not found", nil))

	ws.Route(ws.POST("/{project-id}/releases").Filter(auth.RequirePermission(PermProjectsEdit)).To(ctl.addReleaseHandler).
		Doc("Publish a release of a project").
		Param(ws.PathParameter("project-id", "Identifier of the project").DataType("integer")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(services.CreateReleaseInput{}).
		Returns(http.StatusCreated, "Release created", models.Release{}).
		Returns(http.StatusNotFound, "Project not found", nil))
}

func (ctl *ProjectController) listProjectsHandler(request *restful.Request, response *restful.Response) {
	projects, err := ctl.projectService.ListProjects(request.Request.Context())
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, projects, restful.MIME_JSON)
}

func (ctl *ProjectController) createProjectHandler(request *restful.Request, response *restful.Response) {
	input := new(services.CreateProjectInput)
	if err := request.ReadEntity(input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	project, err := ctl.projectService.CreateProject(request.Request.Context(), input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, project, restful.MIME_JSON)
}

func (ctl *ProjectController) getProjectHandler(request *restful.Request, response *restful.Response) {
	projectID, ok := pathID(request, response, "project-id")
	if !ok {
		return
	}
	project, err := ctl.projectService.GetProject(request.Request.Context(), projectID)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusOK, project, restful.MIME_JSON)
}

func (ctl *ProjectController) addReleaseHandler(request *restful.Request, response *restful.Response) {
	projectID, ok := pathID(request, response, "project-id")
	if !ok {
		return
	}
	input := new(services.CreateReleaseInput)
	if err := request.ReadEntity(input); err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	release, err := ctl.projectService.AddRelease(request.Request.Context(), projectID, input)
	if err != nil {
		handleServiceError(response, err)
		return
	}
	_ = response.WriteHeaderAndJson(http.StatusCreated, release, restful.MIME_JSON)
}
