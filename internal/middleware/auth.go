package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/pkg/auth"
)

const ContextAuth = "auth_context"

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error)
}

type ClinicResolver interface {
	Resolve(ctx context.Context, userID uuid.UUID) (model.AuthContext, error)
}

// AuthMiddleware authenticates the bearer token and resolves the caller's
// clinic once per request. Handlers receive the result as an explicit
// AuthContext value; nothing downstream re-reads the token.
type AuthMiddleware struct {
	authSvc    TokenValidator
	sessionSvc ClinicResolver
}

func NewAuthMiddleware(authSvc TokenValidator, sessionSvc ClinicResolver) *AuthMiddleware {
	return &AuthMiddleware{authSvc: authSvc, sessionSvc: sessionSvc}
}

func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthenticated(c, "missing authorization header")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			abortUnauthenticated(c, "invalid authorization format")
			return
		}

		claims, err := m.authSvc.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			abortUnauthenticated(c, "invalid token")
			return
		}

		authCtx, err := m.sessionSvc.Resolve(c.Request.Context(), claims.UserID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"status":  "error",
				"message": "failed to resolve session",
			})
			return
		}

		c.Set(ContextAuth, authCtx)
		c.Next()
	}
}

func abortUnauthenticated(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"status":  "error",
		"code":    "unauthenticated",
		"message": message,
	})
}

// AuthFromContext returns the AuthContext set by Authenticate.
func AuthFromContext(c *gin.Context) (model.AuthContext, bool) {
	v, ok := c.Get(ContextAuth)
	if !ok {
		return model.AuthContext{}, false
	}
	authCtx, ok := v.(model.AuthContext)
	return authCtx, ok
}
