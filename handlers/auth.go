package handlers

import (
	"net/http"
	"strings"
	"time"

	"hireflow/middleware"
	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type AuthHandler struct {
	Cache *redis.Client
}

func NewAuthHandler(cache *redis.Client) *AuthHandler {
	return &AuthHandler{Cache: cache}
}

// RevokeTokenHandler blacklists the presented token until it would expire.
func (h *AuthHandler) RevokeTokenHandler(c *gin.Context) {
	if h.Cache == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Token revocation unavailable"})
		return
	}
	tokenString := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	exp, err := utils.TokenExpiry(tokenString)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}
	ttl := time.Until(exp)
	if ttl <= 0 {
		c.JSON(http.StatusOK, gin.H{"message": "Token already expired"})
		return
	}

	key := middleware.RevokedTokenPrefix + middleware.GetTokenHash(c)
	if err := h.Cache.Set(c.Request.Context(), key, "1", ttl).Err(); err != nil {
		getLogger(c).Error("Failed to revoke token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Token revoked"})
}
