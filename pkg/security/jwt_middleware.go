package security

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var (
	jwtSecret     []byte
	jwtSecretOnce sync.Once
)

func secret() []byte {
	jwtSecretOnce.Do(func() {
		if value := os.Getenv("JWT_SECRET"); value != "" {
			jwtSecret = []byte(value)
		}
	})
	return jwtSecret
}

// Enabled reports whether token validation is configured. Terminals without
// JWT_SECRET run on the configured default agent instead.
func Enabled() bool {
	return len(secret()) > 0
}

// JWTMiddleware validates the Bearer token and puts the agent identity into
// the request context. Requests without an Authorization header fall through
// to the configured defaults; a present but invalid token is rejected.
func JWTMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !Enabled() {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return secret(), nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims := token.Claims.(jwt.MapClaims)
		if raw, ok := claims["agentID"].(float64); ok {
			c.Set("agentID", int(raw))
		}
		if tenant, ok := claims["tenant"].(string); ok {
			c.Set("tenant", tenant)
		}
		c.Next()
	}
}

// GenerateJWT issues a token for an agent at a tenant.
func GenerateJWT(agentID int, tenant string) (string, error) {
	if !Enabled() {
		return "", fmt.Errorf("JWT_SECRET environment variable is not set")
	}

	claims := jwt.MapClaims{
		"agentID": agentID,
		"tenant":  tenant,
		"exp":     time.Now().Add(time.Hour * 120).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}
