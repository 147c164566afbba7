package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/slotbook-api/internal/middleware"
	"github.com/jwalitptl/slotbook-api/internal/model"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

// ParseID reads a uuid path parameter, answering 400 when it is malformed.
func ParseID(c *gin.Context, param, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		httputil.RespondWithError(c, apperrors.Validation("invalid "+resource+" ID", err))
		return uuid.Nil, false
	}
	return id, true
}

// Principal returns the authenticated caller, answering 401 when there is none.
func Principal(c *gin.Context) (*model.Principal, bool) {
	principal, ok := middleware.PrincipalFrom(c)
	if !ok {
		httputil.RespondWithError(c, apperrors.Unauthenticated("authentication required", nil))
		return nil, false
	}
	return principal, true
}
