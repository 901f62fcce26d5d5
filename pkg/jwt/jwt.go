package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidClaim = errors.New("invalid token claims")
)

// HandleClaims carries the opaque session ID inside a signed cookie value.
// The session contents themselves live server-side.
type HandleClaims struct {
	jwt.RegisteredClaims
}

// SessionID returns the session identifier the handle points to
func (c *HandleClaims) SessionID() string {
	return c.ID
}

// TokenManager signs and verifies session handles
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret, issuer string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		issuer: issuer,
		ttl:    ttl,
	}
}

// Sign produces a signed handle for the given session ID
func (tm *TokenManager) Sign(sessionID string, issuedAt time.Time) (string, error) {
	claims := HandleClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Issuer:    tm.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session handle: %w", err)
	}

	return signed, nil
}

// Verify checks the signature and expiry of a handle and returns its claims
func (tm *TokenManager) Verify(handle string) (*HandleClaims, error) {
	token, err := jwt.ParseWithClaims(handle, &HandleClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(tm.issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*HandleClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, ErrInvalidClaim
	}

	return claims, nil
}

// TTL returns the lifetime of a freshly signed handle
func (tm *TokenManager) TTL() time.Duration {
	return tm.ttl
}
