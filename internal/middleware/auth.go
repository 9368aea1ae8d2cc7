// Package middleware holds the HTTP-layer cross-cutting concerns: bearer
// auth, per-IP rate limiting, request body size limits, and security
// headers, grounded on the teacher's middleware package.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	authsvc "github.com/imranali-mngmt/secureiduploader/internal/modules/auth/service"
)

// JWTAuth validates the bearer token and additionally rejects it if the
// account's password has changed since the token was issued — the
// teacher's UserStatusCheck equivalent for this domain's "logout
// everywhere on password change" invariant.
func JWTAuth(svc *authsvc.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "authentication required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "malformed authorization header"})
			c.Abort()
			return
		}

		claims, err := svc.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token invalid or expired"})
			c.Abort()
			return
		}

		u, err := svc.FindActiveUser(c.Request.Context(), claims.ID)
		if err != nil || u == nil || !u.Active {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "account no longer exists"})
			c.Abort()
			return
		}
		if claims.IssuedAt != nil && u.PasswordChangedAt.After(claims.IssuedAt.Time) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "token invalidated by a password change"})
			c.Abort()
			return
		}

		c.Set("id", u.ID)
		c.Set("username", u.Username)
		c.Set("role", string(u.Role))
		c.Next()
	}
}

// AdminOnly requires the role set by JWTAuth to be "admin".
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := c.Get("role")
		if role != "admin" {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "message": "admin privileges required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
