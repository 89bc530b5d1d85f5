package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"leadhub.backend/internal/domain/entities"
	"leadhub.backend/internal/interfaces/http/response"
	"leadhub.backend/pkg/jwt"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// IdentityKey is the context key for the verified caller
	IdentityKey = "identity"
)

// AuthMiddleware verifies the bearer token and stores the caller's identity
// in the request context
func AuthMiddleware(jwtService *jwt.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader(AuthorizationHeader)
		if authHeader == "" {
			abortUnauthorized(c, "Authorization header is required")
			return
		}
		if !strings.HasPrefix(authHeader, BearerPrefix) {
			abortUnauthorized(c, "Invalid authorization format. Use: Bearer <token>")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, BearerPrefix)
		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			if err == jwt.ErrExpiredToken {
				abortUnauthorized(c, "Token has expired")
				return
			}
			abortUnauthorized(c, "Invalid token")
			return
		}

		c.Set(IdentityKey, &entities.Identity{
			UserID:      claims.UserID,
			Name:        claims.Name,
			Email:       claims.Email,
			Role:        entities.UserRole(claims.Role),
			AffiliateID: claims.AffiliateID,
		})
		c.Next()
	}
}

// RequireRole allows only the listed roles past
func RequireRole(roles ...entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := GetIdentity(c)
		if !ok {
			abortUnauthorized(c, "Authentication required")
			return
		}
		for _, role := range roles {
			if ident.Role == role {
				c.Next()
				return
			}
		}
		response.ErrorWithStatus(c, http.StatusForbidden, "Insufficient permissions")
		c.Abort()
	}
}

// GetIdentity gets the verified caller from the request context
func GetIdentity(c *gin.Context) (*entities.Identity, bool) {
	value, exists := c.Get(IdentityKey)
	if !exists {
		return nil, false
	}
	ident, ok := value.(*entities.Identity)
	return ident, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	response.ErrorWithStatus(c, http.StatusUnauthorized, message)
	c.Abort()
}
