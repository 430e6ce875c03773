// Package auth issues API access tokens in exchange for the configured key.
package auth

import (
	"crypto/subtle"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/stashbox/service/internal/config"
)

const tokenTTL = 24 * time.Hour

// ErrInvalidAPIKey is returned when the presented API key does not match.
var ErrInvalidAPIKey = errors.New("invalid API key")

// Service contains the business logic for token issuance.
type Service struct {
	cfg *config.Config
}

// NewService creates a new auth Service.
func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// IssueToken validates the API key and returns a signed JWT identifying
// the client.
func (s *Service) IssueToken(apiKey, clientID string) (string, error) {
	if subtle.ConstantTimeCompare([]byte(apiKey), []byte(s.cfg.APIKey)) != 1 {
		return "", ErrInvalidAPIKey
	}
	if clientID == "" {
		clientID = "default"
	}

	claims := jwt.MapClaims{
		"sub": clientID,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
