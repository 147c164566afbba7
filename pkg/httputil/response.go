package httputil

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/slotbook-api/pkg/errors"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response wraps all API responses
type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{Status: StatusSuccess, Data: data}
}

func NewErrorResponse(message string) *Response {
	return &Response{Status: StatusError, Message: message}
}

// RespondWithSuccess sends a 200 success response
func RespondWithSuccess(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, NewSuccessResponse(data))
}

func RespondWithCreated(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, NewSuccessResponse(data))
}

// RespondWithError maps err onto a status code and aborts the chain.
// Errors that are not an AppError are logged and reported as 500, or as 504
// when the request deadline passed.
func RespondWithError(c *gin.Context, err error) {
	var appErr *errors.AppError
	switch {
	case stderrors.As(err, &appErr):
	case stderrors.Is(err, context.DeadlineExceeded):
		appErr = errors.Timeout(err)
	default:
		appErr = errors.Internal(err)
	}

	status := appErr.StatusCode()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("request_id", c.GetString("request_id")).
			Str("path", c.Request.URL.Path).
			Msg("request failed")
	}

	c.AbortWithStatusJSON(status, NewErrorResponse(appErr.Message))
}

// BindError reports a request body that failed binding or validation.
func BindError(c *gin.Context, err error) {
	RespondWithError(c, errors.Validation(err.Error(), nil))
}
