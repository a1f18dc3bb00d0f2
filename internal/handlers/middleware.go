package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Pratiksha-287/library-management-system/internal/models"
	"github.com/Pratiksha-287/library-management-system/internal/services"
)

const contextUserKey = "currentUser"

// IdentityMiddleware resolves the caller from the X-User-ID header set by the
// upstream auth layer. Requests without a valid, active user are rejected.
func IdentityMiddleware(catalog services.CatalogService) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-ID header"})
			return
		}
		userID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid X-User-ID header"})
			return
		}
		user, err := catalog.GetUser(userID)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unknown user"})
			return
		}
		if !user.IsActive {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user account is inactive"})
			return
		}
		c.Set(contextUserKey, user)
		c.Next()
	}
}

// RequireStaff guards the dashboard group.
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsStaff {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "staff privileges required"})
			return
		}
		c.Next()
	}
}

func currentUser(c *gin.Context) *models.User {
	return c.MustGet(contextUserKey).(*models.User)
}
