package service

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/unitime-api/internal/models"
	appErrors "github.com/noah-isme/unitime-api/pkg/errors"
)

// TokenConfig holds the settings for validating access tokens issued by the identity service.
type TokenConfig struct {
	Secret   string
	Issuer   string
	Audience []string
}

// TokenService validates bearer tokens and extracts actor claims.
type TokenService struct {
	config TokenConfig
	parser *jwt.Parser
}

// NewTokenService constructs a TokenService.
func NewTokenService(config TokenConfig) *TokenService {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(config.Issuer))
	}
	for _, aud := range config.Audience {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &TokenService{config: config, parser: jwt.NewParser(opts...)}
}

// ValidateToken verifies the signature and returns the actor claims.
func (s *TokenService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	token, err := s.parser.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.config.Secret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Role == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no role")
	}
	return claims, nil
}
