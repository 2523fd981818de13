// Package auth guards the mutating API endpoints with HMAC-signed bearer
// tokens.
package auth

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// TokenVerifier validates API bearer tokens
type TokenVerifier struct {
	secret []byte
}

// NewTokenVerifier creates a verifier using the API_JWT_SECRET environment
// variable.
func NewTokenVerifier() *TokenVerifier {
	return &TokenVerifier{secret: []byte(os.Getenv("API_JWT_SECRET"))}
}

// IssueToken mints a token for the given subject. Used by operator tooling.
func (v *TokenVerifier) IssueToken(subject string, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// VerifyToken validates a bearer token and returns its subject.
func (v *TokenVerifier) VerifyToken(tokenString string) (string, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to verify token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	subject, _ := claims["sub"].(string)
	if subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return subject, nil
}

// Middleware returns a gin middleware enforcing a valid bearer token. When no
// secret is configured the middleware is a no-op, which keeps local
// development friction-free.
func (v *TokenVerifier) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(v.secret) == 0 {
			c.Next()
			return
		}

		subject, err := v.VerifyToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set("subject", subject)
		c.Next()
	}
}
