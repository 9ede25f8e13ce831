package utils

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ClaimsKey is where middleware stores parsed session claims.
const ClaimsKey = "session_claims"

func sessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookie); err == nil && cookie != "" {
		return cookie
	}
	auth := c.GetHeader("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// Session parses the session cookie when present and never aborts.
func Session() gin.HandlerFunc {
	return func(c *gin.Context) {
		if tok := sessionToken(c); tok != "" {
			if claims, err := VerifyToken(tok); err == nil {
				c.Set(ClaimsKey, claims)
			}
		}
		c.Next()
	}
}

// RequireLogin aborts with 401 unless the request carries a valid
// session with a remote access token.
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || claims.AccessToken == "" {
			Fail(c, http.StatusUnauthorized, "not_authenticated")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetClaims returns the session claims set by Session, or nil.
func GetClaims(c *gin.Context) *SessionClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*SessionClaims)
	return claims
}
