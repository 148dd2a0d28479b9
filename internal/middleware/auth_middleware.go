package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/Baaaki/pet-adoption/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// SessionCookie carries the signed session token.
	SessionCookie = "token"

	contextUserID = "user_id"
	contextRole   = "user_role"
)

// TokenVerifier checks a session token without touching the store.
type TokenVerifier interface {
	Verify(token string) (*utils.Claims, error)
}

// AuthMiddleware resolves the caller from the session cookie, or from an
// Authorization bearer header when there is no cookie. A missing or expired
// session is 401, a malformed or tampered one is 400.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Extract token
		tokenString := sessionToken(c)
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}

		// 2. Verify token
		claims, err := verifier.Verify(tokenString)
		if err != nil {
			if errors.Is(err, utils.ErrExpiredToken) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "session expired",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"error": "invalid token",
			})
			return
		}

		// 3. Add identity to context
		c.Set(contextUserID, claims.UserID)
		c.Set(contextRole, claims.Role)

		c.Next()
	}
}

// RequireRole must run after AuthMiddleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		current, ok := CurrentRole(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication required",
			})
			return
		}
		if current != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "this action requires the " + string(role) + " role",
			})
			return
		}
		c.Next()
	}
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(contextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func CurrentRole(c *gin.Context) (models.Role, bool) {
	v, ok := c.Get(contextRole)
	if !ok {
		return "", false
	}
	role, ok := v.(models.Role)
	return role, ok
}

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}

	authHeader := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(authHeader, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
