package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// tokenVerifier validates an externally issued bearer token and returns the
// user ID it was minted for. An interface so tests can use a stub instead of
// real signed tokens.
type tokenVerifier interface {
	verifyToken(token string) (string, error)
}

// hs256Verifier verifies HS256-signed JWTs carrying a user_id claim, the
// format the auth service issues.
type hs256Verifier struct {
	secret []byte
}

func (v hs256Verifier) verifyToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		// Reject tokens signed with anything other than HMAC — accepting an
		// attacker-chosen alg like "none" would bypass verification entirely.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("token has no claims")
	}
	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", errors.New("user_id claim missing")
	}
	return userID, nil
}

// authMiddleware validates the Bearer token and sets user_id on the context.
// Runs before any core logic on every /api route except the public ones.
func (h *Handler) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			apiError(c, http.StatusUnauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		userID, err := h.verifier.verifyToken(token)
		if err != nil {
			apiError(c, http.StatusUnauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}
