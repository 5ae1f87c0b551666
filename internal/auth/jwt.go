package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/staffdir/staffdir/pkg/errors"
	"github.com/staffdir/staffdir/pkg/middleware"

	"github.com/staffdir/staffdir/internal/domain"
)

// TokenManager issues and validates the access tokens that carry a
// session across HTTP requests.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

type tokenClaims struct {
	SessionID string `json:"sid"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

func NewTokenManager(secret string, expiry time.Duration, issuer string) *TokenManager {
	return &TokenManager{secret: []byte(secret), expiry: expiry, issuer: issuer}
}

// Generate signs an access token for the session.
func (tm *TokenManager) Generate(session *domain.Session) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		SessionID: session.ID,
		Email:     session.Email,
		Role:      string(session.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tm.issuer,
			Subject:   session.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

// Validate parses and verifies an access token.
func (tm *TokenManager) Validate(token string) (*middleware.Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	})
	if err != nil {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.Unauthorized("invalid or expired token")
	}

	return &middleware.Claims{
		SessionID: claims.SessionID,
		Email:     claims.Email,
		Role:      claims.Role,
	}, nil
}
