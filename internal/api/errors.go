package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/corpnet/microblog/internal/service"
)

// errorResponse is the envelope every failed request gets
type errorResponse struct {
	Result       bool   `json:"result"`
	ErrorType    string `json:"error_type"`
	ErrorMessage string `json:"error_message"`
}

// writeError maps expected service outcomes to HTTP statuses. Anything
// unexpected becomes a 500 whose detail stays in the logs, not the
// response.
func writeError(c *gin.Context, logger *zap.Logger, err error) {
	var status int
	var errType string

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		status, errType = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, service.ErrNotFound):
		status, errType = http.StatusNotFound, "not_found"
	case errors.Is(err, service.ErrForbidden):
		status, errType = http.StatusForbidden, "forbidden"
	case errors.Is(err, service.ErrDuplicate):
		status, errType = http.StatusBadRequest, "duplicate"
	case errors.Is(err, service.ErrInvalidAction):
		status, errType = http.StatusBadRequest, "invalid_action"
	default:
		logger.Error("Request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{
			ErrorType:    "internal_error",
			ErrorMessage: "internal server error",
		})
		return
	}

	c.JSON(status, errorResponse{
		ErrorType:    errType,
		ErrorMessage: err.Error(),
	})
}
