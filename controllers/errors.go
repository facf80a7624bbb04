package controllers

import (
	"errors"
	"net/http"
	"strconv"

	restful "github.com/emicklei/go-restful/v3"
	"gorm.io/gorm"

	"rbac-center/services"
)

// handleServiceError translates service errors to HTTP responses.
func handleServiceError(response *restful.Response, err error) {
	statusCode := http.StatusInternalServerError
	message := "An internal error occurred"

	switch {
	case errors.Is(err, services.ErrInvalidInput):
		statusCode, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, services.ErrInvalidCredentials):
		statusCode, message = http.StatusUnauthorized, err.Error()
	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrRoleNotFound),
		errors.Is(err, services.ErrPermissionNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		statusCode, message = http.StatusNotFound, err.Error()
	case errors.Is(err, services.ErrUsernameTaken),
		errors.Is(err, services.ErrRoleInUse),
		errors.Is(err, services.ErrPermissionInUse):
		statusCode, message = http.StatusConflict, err.Error()
	case errors.Is(err, gorm.ErrDuplicatedKey):
		statusCode, message = http.StatusConflict, "Resource already exists"
	}

	_ = response.WriteHeaderAndJson(statusCode, map[string]string{"message": message}, restful.MIME_JSON)
}

func writeMessage(response *restful.Response, statusCode int, message string) {
	_ = response.WriteHeaderAndJson(statusCode, map[string]string{"message": message}, restful.MIME_JSON)
}

// pathID parses a numeric path parameter, writing 400 when it is not one.
func pathID(request *restful.Request, response *restful.Response, name string) (uint, bool) {
	id, err := strconv.ParseUint(request.PathParameter(name), 10, strconv.IntSize)
	if err != nil {
		writeMessage(response, http.StatusBadRequest, "Invalid "+name+" format")
		return 0, false
	}
	return uint(id), true
}
