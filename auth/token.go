package auth

import (
	"time"

	"chat-relay/domain"
	"chat-relay/errors"

	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims defines the identity data carried inside the JWT issued by
// the identity provider.
type CustomClaims struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// TokenManager verifies (and, for the provider side and the tests, issues)
// HS256 session credentials. The secret comes from configuration, never
// from source.
type TokenManager struct {
	secret   []byte
	issuer   string
	duration time.Duration
}

func NewTokenManager(secret, issuer string, duration time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), issuer: issuer, duration: duration}
}

// Generate creates a signed JWT for the given identity.
func (t *TokenManager) Generate(identity domain.Identity) (string, error) {
	claims := &CustomClaims{
		UserID: identity.ID,
		Name:   identity.Name,
		Email:  identity.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(t.duration)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    t.issuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify validates signature and expiry and returns the authenticated
// identity. Every connection and privileged request goes through here
// exactly once.
func (t *TokenManager) Verify(tokenString string) (domain.Identity, error) {
	if tokenString == "" {
		return domain.Identity{}, errors.ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		return t.secret, nil
	})
	if err != nil {
		return domain.Identity{}, errors.ErrInvalidToken
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return domain.Identity{}, errors.ErrInvalidToken
	}
	return domain.Identity{ID: claims.UserID, Name: claims.Name, Email: claims.Email}, nil
}
