// Package httperr maps domain errors onto JSON error responses.
package httperr

import (
	"errors"
	"net/http"

	"github.com/docuforge/docuforge/internal/doctemplate"
	"github.com/docuforge/docuforge/internal/document"
	"github.com/docuforge/docuforge/internal/form"
	"github.com/docuforge/docuforge/internal/render"
	"github.com/docuforge/docuforge/internal/users"
	"github.com/docuforge/docuforge/pkg/logger"
	"github.com/gin-gonic/gin"
)

// Status returns the HTTP status and public message for err.
func Status(err error) (int, string) {
	var verrs form.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		return http.StatusUnprocessableEntity, "validation failed"
	case errors.Is(err, doctemplate.ErrNotFound):
		return http.StatusNotFound, "template not found"
	case errors.Is(err, document.ErrNotFound):
		return http.StatusNotFound, "document not found"
	case errors.Is(err, users.ErrNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, render.ErrCompile):
		return http.StatusInternalServerError, "failed to generate document content"
	case errors.Is(err, users.ErrEmailTaken):
		return http.StatusConflict, "email already registered"
	case errors.Is(err, users.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid email or password"
	case errors.Is(err, form.ErrWeakPassword):
		return http.StatusBadRequest, "password must be at least 6 characters"
	case errors.Is(err, form.ErrInvalidEmail):
		return http.StatusBadRequest, "invalid email format"
	case errors.Is(err, document.ErrInvalidStatus):
		return http.StatusBadRequest, "invalid status"
	case errors.Is(err, document.ErrExportDisabled):
		return http.StatusServiceUnavailable, "document export is not configured"
	case errors.Is(err, doctemplate.ErrStore), errors.Is(err, document.ErrStore), errors.Is(err, users.ErrStore):
		return http.StatusBadGateway, "storage backend unavailable, please retry later"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// Abort writes the response for err and stops the handler chain. Server-side
// failures are logged with the request path.
func Abort(c *gin.Context, err error) {
	code, msg := Status(err)
	if code >= http.StatusInternalServerError {
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	body := gin.H{"error": msg}
	var verrs form.ValidationErrors
	if errors.As(err, &verrs) {
		body["fields"] = verrs
	}
	c.AbortWithStatusJSON(code, body)
}
