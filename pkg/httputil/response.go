package httputil

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinicore/clinic-api/pkg/errors"
)

// Response wraps all API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *Error      `json:"error,omitempty"`
}

// Error represents API error
type Error struct {
	Kind    errors.Kind `json:"kind"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// statusFor maps an error kind to its HTTP status indicator. Capacity and
// state-machine rejections all surface as 409 so callers can distinguish
// them from bad input via the kind field.
func statusFor(kind errors.Kind) int {
	switch kind {
	case errors.KindValidation:
		return http.StatusBadRequest
	case errors.KindUnauthorized:
		return http.StatusUnauthorized
	case errors.KindForbidden:
		return http.StatusForbidden
	case errors.KindNotFound:
		return http.StatusNotFound
	case errors.KindSlotFull, errors.KindDuplicateBooking,
		errors.KindIllegalTransition, errors.KindConflict:
		return http.StatusConflict
	case errors.KindBusy:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// RespondWithSuccess sends a success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithCreated sends a success response for newly created resources
func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    data,
	})
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, err error) {
	kind := errors.KindOf(err)
	status := statusFor(kind)

	respErr := &Error{Kind: kind, Message: err.Error()}
	if kind == errors.KindInternal {
		// Never leak internals to the client.
		respErr.Message = "internal server error"
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		respErr.Details = appErr.Details
	}

	_ = c.Error(err)
	c.JSON(status, Response{
		Success: false,
		Error:   respErr,
	})
}
