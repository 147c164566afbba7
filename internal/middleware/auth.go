package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/slotbook-api/internal/model"
	apperrors "github.com/jwalitptl/slotbook-api/pkg/errors"
	"github.com/jwalitptl/slotbook-api/pkg/httputil"
)

const ContextPrincipal = "principal"

// TokenValidator resolves a bearer token into the acting principal.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.Principal, error)
}

type AuthMiddleware struct {
	validator TokenValidator
}

func NewAuthMiddleware(validator TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// Authenticate verifies the bearer token and stores the principal in the context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.RespondWithError(c, apperrors.Unauthenticated("missing authorization header", nil))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			httputil.RespondWithError(c, apperrors.Unauthenticated("invalid authorization format", nil))
			return
		}

		principal, err := m.validator.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			httputil.RespondWithError(c, err)
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Next()
	}
}

// RequireRole rejects principals of any other role. It must run after Authenticate.
func (m *AuthMiddleware) RequireRole(role model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := PrincipalFrom(c)
		if !ok {
			httputil.RespondWithError(c, apperrors.Unauthenticated("authentication required", nil))
			return
		}
		if principal.Role != role {
			httputil.RespondWithError(c, apperrors.Unauthorized("this action requires the "+string(role)+" role"))
			return
		}
		c.Next()
	}
}

func PrincipalFrom(c *gin.Context) (*model.Principal, bool) {
	v, ok := c.Get(ContextPrincipal)
	if !ok {
		return nil, false
	}
	principal, ok := v.(*model.Principal)
	return principal, ok && principal != nil
}
