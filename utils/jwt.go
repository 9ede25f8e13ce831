package utils

import (
	"errors"
	"time"

	"ImmichDrop/config"

	"github.com/golang-jwt/jwt/v4"
)

// SessionCookie is the cookie carrying the signed session claims.
const SessionCookie = "drop_session"

// SessionClaims is the signed state kept client-side: the remote access
// token, the logged-in user, and which password-gated invites this
// session has already unlocked.
type SessionClaims struct {
	AccessToken string          `json:"access_token,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	UserEmail   string          `json:"user_email,omitempty"`
	Name        string          `json:"name,omitempty"`
	IsAdmin     bool            `json:"is_admin,omitempty"`
	InviteAuth  map[string]bool `json:"invite_auth,omitempty"`
	jwt.RegisteredClaims
}

// GenerateToken signs claims with the configured session secret.
func GenerateToken(claims *SessionClaims) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(7 * 24 * time.Hour))
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(config.AppConfig.SessionSecret))
}

// VerifyToken parses and validates a session token.
func VerifyToken(tokenStr string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.SessionSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
