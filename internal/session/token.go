package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryFromToken читает exp из JWT без проверки подписи: подпись проверяет API,
// здесь нужен только срок жизни записи сессии.
func ExpiryFromToken(token string, fallback time.Time) time.Time {
	if token == "" {
		return fallback
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return fallback
	}
	if claims.ExpiresAt == nil {
		return fallback
	}

	return claims.ExpiresAt.Time
}
