package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mholloway/pennygate/internal/models"
)

// TokenManager handles session token generation and validation. Tokens
// are stateless: validation is a signature and expiry check against the
// secret, with no lookup of shared state.
type TokenManager struct {
	secret      string
	tokenExpiry time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, tokenExpiry time.Duration) *TokenManager {
	return &TokenManager{
		secret:      secret,
		tokenExpiry: tokenExpiry,
	}
}

// GenerateToken issues a signed session token for a user. The returned
// expiry is what clients should treat as the session end.
func (tm *TokenManager) GenerateToken(uid, name string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(tm.tokenExpiry)

	claims := &models.TokenClaims{
		UID:  uid,
		Name: name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tm.secret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, expires, nil
}

// ValidateToken verifies a token's signature and expiry and returns its
// claims. Expired, malformed or wrongly-signed tokens all come back as
// models.ErrInvalidToken.
func (tm *TokenManager) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	claims := &models.TokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tm.secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidToken, err)
	}

	if !token.Valid {
		return nil, models.ErrInvalidToken
	}

	if claims.UID == "" {
		return nil, fmt.Errorf("%w: missing uid", models.ErrInvalidToken)
	}

	return claims, nil
}
