package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ziroworld/ailav-client/devserver/services"
)

// CSRFHeader is the header the client sends its anti-forgery token in.
const CSRFHeader = "X-Csrf-Token"

// RequireCSRF rejects state-changing requests whose CSRF header does
// not carry a token issued by the csrf-token endpoint. Safe methods
// pass through.
func RequireCSRF(csrf *services.CSRFService) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		if !csrf.Valid(c.GetHeader(CSRFHeader)) {
			c.JSON(http.StatusForbidden, gin.H{"error": "CSRF token missing or invalid"})
			c.Abort()
			return
		}
		c.Next()
	}
}
