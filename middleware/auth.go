package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"driveschool/utils"

	"github.com/gin-gonic/gin"
)

// StudentAuthMiddleware authenticates a student via the externally-issued
// bearer token and sets "studentID" on the context. The identity provider
// is trusted as given; only signature and expiry are checked here, with a
// Redis cache short-circuiting repeat validations.
func StudentAuthMiddleware() gin.HandlerFunc {
	return authMiddleware("studentID", "")
}

// AdminAuthMiddleware authenticates an administrator token (role claim
// "admin") for instructor-management endpoints.
func AdminAuthMiddleware() gin.HandlerFunc {
	return authMiddleware("adminID", "admin")
}

func authMiddleware(ctxKey, requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}

		ctx := context.Background()
		authCache := utils.GetAuthCacheClient()
		computedHash := utils.HashToken(tokenString)
		cacheKey := utils.AuthCachePrefix + requiredRole + ":" + computedHash

		// Cache hit: token already validated recently. A miss or an
		// unavailable cache both fall through to full validation.
		if subject, err := authCache.Get(ctx, cacheKey).Result(); err == nil && subject != "" {
			c.Set(ctxKey, subject)
			c.Next()
			return
		}

		subject, role, err := utils.ExtractIdentityFromToken(tokenString)
		if err != nil || subject == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Insufficient authorization",
				"code":  0,
			})
			return
		}
		if requiredRole != "" && role != requiredRole {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
				"code":  0,
			})
			return
		}

		_ = authCache.Set(ctx, cacheKey, subject, utils.AuthCacheTTL).Err()

		c.Set(ctxKey, subject)
		c.Next()
	}
}

// SetRequestTimeout bounds handler execution, keeping store calls from
// hanging a connection indefinitely.
func SetRequestTimeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}
