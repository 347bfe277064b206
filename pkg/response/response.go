package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksred/purchase-orders-api/pkg/apperror"
)

// ErrorResponse is the body of every failed request. Detail repeats the
// message for clients that read a single top-level field.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   *Error `json:"error"`
	Detail  string `json:"detail"`
}

// Error represents an error response
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes
const (
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTooManyRequests    = "RATE_LIMITED"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeDuplicateResource  = "DUPLICATE_RESOURCE"
	ErrCodeBackendUnavailable = "BACKEND_UNAVAILABLE"
)

// Handle writes data on success, or maps the error kind to a status code.
// The underlying error text is always passed through to the client.
func Handle(c *gin.Context, data interface{}, err error) {
	if err == nil {
		Success(c, data)
		return
	}

	switch apperror.KindOf(err) {
	case apperror.KindValidation:
		write(c, http.StatusBadRequest, ErrCodeValidationFailed, err.Error())
	case apperror.KindNotFound:
		NotFound(c, err.Error())
	case apperror.KindConflict:
		Conflict(c, err.Error())
	case apperror.KindBackendUnavailable:
		write(c, http.StatusServiceUnavailable, ErrCodeBackendUnavailable, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// Success sends the payload as the response body
func Success(c *gin.Context, data interface{}) {
	status := http.StatusOK
	if c.Request.Method == http.MethodPost {
		status = http.StatusCreated
	}

	c.JSON(status, data)
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	write(c, http.StatusNotFound, ErrCodeNotFound, message)
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	write(c, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	write(c, http.StatusUnauthorized, ErrCodeUnauthorized, message)
}

// TooManyRequests sends a 429 response
func TooManyRequests(c *gin.Context, message string) {
	write(c, http.StatusTooManyRequests, ErrCodeTooManyRequests, message)
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	write(c, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	write(c, http.StatusConflict, ErrCodeDuplicateResource, message)
}

func write(c *gin.Context, status int, code, message string) {
	c.JSON(status, ErrorResponse{
		Success: false,
		Error: &Error{
			Code:    code,
			Message: message,
		},
		Detail: message,
	})
}
