package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDHeader is the out-of-band identity header. The value is trusted
// as-is; an authenticating gateway in front of this service is expected to
// have verified it.
const UserIDHeader = "X-User-Id"

const identityKey = "user_id"

// CORSMiddleware mirrors the permissive CORS policy of the browser clients
// this service fronts and short-circuits preflight requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-User-Id")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}

		c.Next()
	}
}

// IdentityMiddleware extracts the claimed identity from the request header
// and stashes it in the context. It never rejects: which actions require an
// identity is the engine's call, not the transport's.
func IdentityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, c.GetHeader(UserIDHeader))
		c.Next()
	}
}

// UserID returns the claimed identity extracted by IdentityMiddleware,
// or "" when the header was absent.
func UserID(c *gin.Context) string {
	return c.GetString(identityKey)
}
