package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireIdentity reads the verified user id placed in header by the
// upstream identity provider and rejects requests without one.
func RequireIdentity(header string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(header))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing user identity"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the identity stored by RequireIdentity.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
