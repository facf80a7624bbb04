package auth

import (
	"errors"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"rbac-center/services"
)

// PrincipalAttribute is the request attribute AuthFilter stores the principal under.
const PrincipalAttribute = "principal"

// AuthFilter resolves the bearer token of every request. Requests without a
// token continue as AnonymousUser; a bad or stale token is rejected.
func AuthFilter(tokens *TokenIssuer, loader SessionLoader) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		principal, err := Resolve(req.Request.Context(), req.HeaderParameter("Authorization"), tokens, loader)
		if err != nil {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": err.Error()}, restful.MIME_JSON)
			return
		}

		req.SetAttribute(PrincipalAttribute, principal)
		req.Request = req.Request.WithContext(NewContext(req.Request.Context(), principal))
		chain.ProcessFilter(req, resp)
	}
}

// RequirePermission rejects anonymous requests with 401 and principals
// lacking perm with 403.
func RequirePermission(perm string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		p := CurrentPrincipal(req)
		if !p.IsAuthenticated() {
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": "Authentication required"}, restful.MIME_JSON)
			return
		}
		if !p.HasPermission(perm) {
			_ = resp.WriteHeaderAndJson(http.StatusForbidden, map[string]string{"message": "Missing permission " + perm}, restful.MIME_JSON)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}

func CurrentPrincipal(req *restful.Request) Principal {
	if p, ok := req.Attribute(PrincipalAttribute).(Principal); ok {
		return p
	}
	return AnonymousUser{}
}

type LoginCredentials struct {
	Username string `json:"username" description:"Username for login"`
	Password string `json:"password" description:"Password for login"`
}

type LoginResponse struct {
	Token   string `json:"token,omitempty"`
	Message string `json:"message,omitempty"`
}

// LoginHandler exchanges credentials for a session token.
func LoginHandler(users Authenticator, tokens *TokenIssuer) restful.RouteFunction {
	return func(request *restful.Request, response *restful.Response) {
		creds := new(LoginCredentials)
		if err := request.ReadEntity(creds); err != nil {
			_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Invalid request body: " + err.Error()}, restful.MIME_JSON)
			return
		}
		if creds.Username == "" || creds.Password == "" {
			_ = response.WriteHeaderAndJson(http.StatusBadRequest, LoginResponse{Message: "Username and password are required"}, restful.MIME_JSON)
			return
		}

		user, err := users.Authenticate(request.Request.Context(), creds.Username, creds.Password)
		if err != nil {
			// Avoid revealing whether the user exists
			status, msg := http.StatusUnauthorized, "Invalid credentials"
			if !errors.Is(err, services.ErrInvalidCredentials) {
				status, msg = http.StatusInternalServerError, "Could not authenticate"
			}
			_ = response.WriteHeaderAndJson(status, LoginResponse{Message: msg}, restful.MIME_JSON)
			return
		}

		token, err := tokens.Issue(user)
		if err != nil {
			_ = response.WriteHeaderAndJson(http.StatusInternalServerError, LoginResponse{Message: "Could not generate token"}, restful.MIME_JSON)
			return
		}
		_ = response.WriteHeaderAndJson(http.StatusOK, LoginResponse{Token: token}, restful.MIME_JSON)
	}
}

// WebService serves POST /auth/login.
func WebService(users Authenticator, tokens *TokenIssuer) *restful.WebService {
	ws := new(restful.WebService)
	ws.Path("/auth").Consumes(restful.MIME_JSON).Produces(restful.MIME_JSON)
	ws.Route(ws.POST("/login").To(LoginHandler(users, tokens)).
		Doc("Exchange credentials for a session token").
		Metadata(restfulspec.KeyOpenAPITags, []string{"auth"}).
		Reads(LoginCredentials{}).
		Returns(http.StatusOK, "Logged in", LoginResponse{}).
		Returns(http.StatusBadRequest, "Invalid request body", LoginResponse{}).
		Returns(http.StatusUnauthorized, "Invalid credentials", LoginResponse{}))
	return ws
}
