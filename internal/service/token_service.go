package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/riftstats/pipeline/internal/config"
)

var ErrInvalidToken = errors.New("invalid token")

const tokenAudience = "pipeline"

// TokenService mints and validates the bearer tokens machine callers
// (enrichment triggers, sibling services) present on the API surface. There
// are no end users here, only service principals.
type TokenService struct {
	cfg *config.Config
}

func NewTokenService(cfg *config.Config) *TokenService {
	return &TokenService{cfg: cfg}
}

// GenerateServiceToken mints a token identifying a calling service.
func (s *TokenService) GenerateServiceToken(caller string) (string, error) {
	claims := jwt.MapClaims{
		"sub": caller,
		"aud": tokenAudience,
		"exp": time.Now().Add(time.Duration(s.cfg.JWTExpirationHours) * time.Hour).Unix(),
		"iat": time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken returns the calling service's identity from a valid token.
func (s *TokenService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithAudience(tokenAudience))
	if err != nil {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidToken
	}

	caller, err := claims.GetSubject()
	if err != nil || caller == "" {
		return "", ErrInvalidToken
	}
	return caller, nil
}
