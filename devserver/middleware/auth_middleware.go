package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Ziroworld/ailav-client/devserver/services"
)

// Context keys set by RequireAuth.
const (
	CtxUserID = "user_id"
	CtxEmail  = "email"
	CtxRole   = "role"
)

// RequireAuth validates the bearer access token and stores the caller's
// identity on the gin context.
func RequireAuth(tokens *services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing bearer token"})
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(strings.TrimPrefix(header, "Bearer "), "access")
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		if sub, ok := claims["sub"].(string); ok {
			c.Set(CtxUserID, sub)
		}
		if email, ok := claims["email"].(string); ok {
			c.Set(CtxEmail, email)
		}
		if role, ok := claims["role"].(string); ok {
			c.Set(CtxRole, role)
		}
		c.Next()
	}
}

// RequireRole restricts a route to callers holding the given role.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxRole) != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Insufficient permissions"})
			c.Abort()
			return
		}
		c.Next()
	}
}
