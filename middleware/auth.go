package middleware

import (
	"net/http"
	"strings"

	"hireflow/models"
	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	principalKey = "principal"
	tokenHashKey = "tokenHash"

	// RevokedTokenPrefix keys a revoked token's hash in the cache.
	RevokedTokenPrefix = "auth:revoked:"
)

// JWTAuthMiddleware resolves the bearer token into a models.Principal. When a
// cache client is given, tokens revoked through it are refused.
func JWTAuthMiddleware(cache *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing or invalid Authorization header"})
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		principal, err := utils.PrincipalFromToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		hash := utils.HashToken(tokenString)
		if cache != nil {
			n, err := cache.Exists(c.Request.Context(), RevokedTokenPrefix+hash).Result()
			if err != nil {
				// Revocation list unavailable: fall through on the signature check alone.
				zap.L().Warn("Revocation lookup failed", zap.Error(err))
			} else if n > 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Token revoked"})
				return
			}
		}

		c.Set(principalKey, principal)
		c.Set(tokenHashKey, hash)
		c.Next()
	}
}

// GetPrincipal returns the caller set by JWTAuthMiddleware.
func GetPrincipal(c *gin.Context) (models.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return models.Principal{}, false
	}
	p, ok := v.(models.Principal)
	return p, ok
}

// GetTokenHash returns the hash of the bearer token of the current request.
func GetTokenHash(c *gin.Context) string {
	return c.GetString(tokenHashKey)
}
