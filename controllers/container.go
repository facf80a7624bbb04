package controllers

import (
	"time"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"

	"rbac-center/auth"
	"rbac-center/services"
)

// Services groups what the HTTP API is built on.
type Services struct {
	Users       services.UserService
	Roles       services.RoleService
	Permissions services.PermissionService
	Projects    services.ProjectService
}

// NewContainer mounts every web service behind the session filter and
// serves the OpenAPI document at /apidocs.json.
func NewContainer(svc Services, tokens *auth.TokenIssuer, logger *zap.Logger) *restful.Container {
	container := restful.NewContainer()
	container.Filter(RequestLogger(logger))
	container.Filter(auth.AuthFilter(tokens, svc.Users))

	container.Add(auth.WebService(svc.Users, tokens))

	routers := []interface{ RegisterRoutes(*restful.WebService) }{
		NewUserController(svc.Users),
		NewRoleController(svc.Roles),
		NewPermissionController(svc.Permissions),
		NewProjectController(svc.Projects),
	}
	for _, r := range routers {
		ws := new(restful.WebService)
		r.RegisterRoutes(ws)
		container.Add(ws)
	}

	container.Add(restfulspec.NewOpenAPIService(restfulspec.Config{
		WebServices: container.RegisteredWebServices(),
		APIPath:     "/apidocs.json",
	}))
	return container
}

// RequestLogger logs every request after it has been handled.
func RequestLogger(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", req.Request.RemoteAddr),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}
