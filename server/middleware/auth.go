package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthConfig configures the JWT authentication middleware.
type AuthConfig struct {
	// Enabled toggles authentication. When false, Auth is a pass-through.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Secret is the HMAC signing secret for bearer tokens.
	Secret string `yaml:"secret" mapstructure:"secret"`
	// SkipPaths are URL path prefixes that bypass authentication.
	SkipPaths []string `yaml:"skip_paths" mapstructure:"skip_paths"`
}

// TokenValidator validates a token string and returns its claims.
type TokenValidator func(token string) (jwt.MapClaims, error)

// HMACValidator builds a TokenValidator that verifies HS256 tokens
// signed with secret.
func HMACValidator(secret string) TokenValidator {
	key := []byte(secret)
	return func(tokenString string) (jwt.MapClaims, error) {
		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return key, nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		if err != nil {
			return nil, err
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return nil, fmt.Errorf("unexpected claims type %T", token.Claims)
		}
		return claims, nil
	}
}

// Auth returns a Gin middleware that validates Bearer tokens. Validated
// claims are stored in the Gin context under their claim names.
func Auth(cfg AuthConfig, validate TokenValidator) gin.HandlerFunc {
	if validate == nil {
		validate = HMACValidator(cfg.Secret)
	}
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if strings.HasPrefix(path, skip) {
				c.Next()
				return
			}
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "Authorization header required",
				"status": "failed",
			})
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "Invalid authorization header format",
				"status": "failed",
			})
			return
		}

		claims, err := validate(parts[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":  "Invalid token",
				"status": "failed",
			})
			return
		}

		for key, value := range claims {
			c.Set(key, value)
		}
		c.Next()
	}
}
