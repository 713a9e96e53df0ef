package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
	"github.com/noah-isme/unitime-api/pkg/response"
)

// ContextUserKey is the gin context key storing JWT claims.
const ContextUserKey = "currentUser"

// TokenValidator turns a bearer token into actor claims.
type TokenValidator interface {
	ValidateToken(token string) (*models.JWTClaims, error)
}

// Actor returns the claims attached by JWT, or nil on unauthenticated routes.
func Actor(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(ContextUserKey)
	if !exists {
		return nil
	}
	claims, _ := value.(*models.JWTClaims)
	return claims
}

// JWT protects routes by requiring a valid access token.
func JWT(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			response.Failure(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}

		scheme, token, found := strings.Cut(header, " ")
		token = strings.TrimSpace(token)
		if !found || !strings.EqualFold(scheme, "Bearer") || token == "" {
			response.Failure(c, appErrors.Clone(appErrors.ErrUnauthorized, "invalid authorization header"))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateToken(token)
		if err != nil {
			response.Failure(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Next()
	}
}
