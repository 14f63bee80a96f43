package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pagesignal/backend/internal/models"
)

type APIResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Field   string      `json:"field,omitempty"`
}

func SuccessResponse(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, code int, message string, err error) {
	response := APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	c.JSON(code, response)
}

// DomainErrorResponse maps the core's error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is a generic 500; the cause is not echoed
// back to the caller.
func DomainErrorResponse(c *gin.Context, err error) {
	var domainErr *models.DomainError
	if !errors.As(err, &domainErr) {
		ErrorResponse(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}

	status := http.StatusInternalServerError
	switch domainErr.Kind {
	case models.ErrKindValidation, models.ErrKindPromptMismatch,
		models.ErrKindDuplicateAnswer, models.ErrKindUnknownOption:
		status = http.StatusBadRequest
	case models.ErrKindNotFound:
		status = http.StatusNotFound
	case models.ErrKindForbidden:
		status = http.StatusForbidden
	case models.ErrKindUnauthenticated:
		status = http.StatusUnauthorized
	case models.ErrKindIntegrityConflict:
		status = http.StatusConflict
	}

	c.JSON(status, APIResponse{
		Success: false,
		Message: string(domainErr.Kind),
		Error:   domainErr.Detail,
		Field:   domainErr.Field,
	})
}
