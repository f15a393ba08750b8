package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/liveleaper/liveleaper/internal/config"
	"github.com/liveleaper/liveleaper/internal/services/auth"
	"github.com/liveleaper/liveleaper/internal/utils"
)

// AuthMiddleware accepts either the configured API key or a signed bearer
// token. When neither an API key nor a JWT secret is configured the API
// runs open, which is the default for local single-user installs.
func AuthMiddleware(cfg *config.APIConfig, jwtService *auth.JWTService) gin.HandlerFunc {
	open := cfg.APIKey == "" && cfg.JWTSecret == ""

	return func(c *gin.Context) {
		if open {
			c.Next()
			return
		}

		// Check for API key first
		apiKey := c.GetHeader("X-API-Key")
		if cfg.APIKey != "" && apiKey == cfg.APIKey {
			c.Set("auth_method", "api_key")
			c.Next()
			return
		}

		// Check for JWT bearer token
		if jwtService != nil {
			if token := extractToken(c); token != "" {
				claims, err := jwtService.Validate(token)
				if err == nil {
					c.Set("auth_method", "jwt")
					c.Set("token_subject", claims.Subject)
					c.Set("token_jti", claims.ID)
					c.Next()
					return
				}
				utils.LogWarn(c.Request.Context(), "Rejected bearer token", utils.Fields{
					"reason": err.Error(),
				})
			}
		}

		// No valid authentication found
		c.JSON(401, gin.H{
			"error":      utils.NewUnauthorizedError(),
			"request_id": c.GetString("request_id"),
			"timestamp":  time.Now().Format(time.RFC3339),
		})
		c.Abort()
	}
}

// extractToken extracts the JWT token from the Authorization header
func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if bearerToken == "" {
		return ""
	}

	// Remove "Bearer " prefix
	if len(bearerToken) > 7 && strings.ToLower(bearerToken[:7]) == "bearer " {
		return bearerToken[7:]
	}

	return bearerToken
}
