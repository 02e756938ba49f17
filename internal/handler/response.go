package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"rideshare/internal/auth"
	"rideshare/internal/repository"
	"rideshare/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// AbortWithError writes an error response and stops the handler chain.
func AbortWithError(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, newErrorResponse(code, message))
}

func newErrorResponse(code int, message string) ErrorResponse {
	return ErrorResponse{
		Error:     http.StatusText(code),
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// respondError sends an error response with the appropriate HTTP status code.
// Unexpected errors are recorded on the context for the request logger and
// replaced by a generic message.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	message := err.Error()
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
		message = "internal server error"
	}
	c.JSON(code, newErrorResponse(code, message))
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrRideNotFound),
		errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRideID),
		errors.Is(err, service.ErrInvalidLocation),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidCredentialsInput):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrInvalidRideState),
		errors.Is(err, service.ErrRideConflict),
		errors.Is(err, service.ErrUsernameTaken),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Authentication errors
	case errors.Is(err, service.ErrBadCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized

	// Forbidden/Business rule errors
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
