package middleware

import (
	apperrors "github.com/TrailParty/trail-party-backend/errors"
	"github.com/gin-gonic/gin"
)

const (
	// UserIDKey is the gin context key holding the authenticated user ID.
	UserIDKey = "user_id"

	// UserIDHeader is set by the upstream session layer after authentication.
	// Session handling itself lives outside this service.
	UserIDHeader = "X-User-ID"
)

// PrincipalMiddleware extracts the authenticated user ID injected by the
// upstream gateway and rejects requests without one.
func PrincipalMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader(UserIDHeader)
		if userID == "" {
			_ = c.Error(apperrors.AuthenticationFailed("missing authenticated user"))
			c.Abort()
			return
		}
		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID from the gin context.
func GetUserID(c *gin.Context) string {
	if v, ok := c.Get(UserIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}
