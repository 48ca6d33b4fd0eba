package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/uptrade-api/internal/domain/entity"
	"github.com/oksasatya/uptrade-api/internal/domain/policy"
	"github.com/oksasatya/uptrade-api/pkg/helpers"
	"github.com/oksasatya/uptrade-api/pkg/response"
)

// Gin context keys set by BearerAuth.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
	CtxUserRoleKey  = "userRole"
)

const codeUnauthorized = "auth/unauthorized"

// BearerAuth validates the Authorization: Bearer token and puts the caller identity
// into the Gin context.
func BearerAuth(jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			response.Error(c, http.StatusUnauthorized, codeUnauthorized, "missing bearer token", nil)
			return
		}
		claims, err := jwt.Parse(strings.TrimSpace(token))
		if err != nil || !entity.Role(claims.Role).Valid() {
			response.Error(c, http.StatusUnauthorized, codeUnauthorized, "invalid or expired token", nil)
			return
		}
		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Set(CtxUserRoleKey, claims.Role)
		c.Next()
	}
}

// ActorFrom returns the authenticated caller set by BearerAuth.
func ActorFrom(c *gin.Context) policy.Actor {
	return policy.Actor{
		ID:    c.GetString(CtxUserIDKey),
		Email: c.GetString(CtxUserEmailKey),
		Role:  entity.Role(c.GetString(CtxUserRoleKey)),
	}
}

// RequireRoles rejects callers whose token role is not listed. Use after BearerAuth.
func RequireRoles(roles ...entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := entity.Role(c.GetString(CtxUserRoleKey))
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		response.Error(c, http.StatusForbidden, "auth/forbidden", "insufficient role", nil)
	}
}
