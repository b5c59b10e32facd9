package middleware

import (
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var secret = []byte(getJWTSecret())

func getJWTSecret() string {
	if val := os.Getenv("JWT_SECRET"); val != "" {
		return val
	}
	return "supersecret" // fallback
}

// GenerateToken issues a signed identity token for a username. Exposed for
// external token issuers and tests.
func GenerateToken(username string) (string, error) {
	claims := jwt.MapClaims{
		"username": username,
		"exp":      time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// Identity resolves the caller's username for history scoping. A valid
// bearer token wins; the X-Username header is the fallback. Anonymous
// callers pass through, handlers that need a username enforce it.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if username := usernameFromToken(c.GetHeader("Authorization")); username != "" {
			c.Set("username", username)
		} else if header := strings.TrimSpace(c.GetHeader("X-Username")); header != "" {
			c.Set("username", header)
		}
		c.Next()
	}
}

func usernameFromToken(authHeader string) string {
	if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
		return ""
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	username, _ := claims["username"].(string)
	return strings.TrimSpace(username)
}

// Username returns the resolved caller identity, if any.
func Username(c *gin.Context) string {
	if v, exists := c.Get("username"); exists {
		if username, ok := v.(string); ok {
			return username
		}
	}
	return ""
}
