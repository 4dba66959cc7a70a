package handlers

import (
	"net/http"
	"time"

	"hireflow/database/repository/deviceRepo"
	"hireflow/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DeviceHandler struct {
	Devices deviceRepo.DeviceRepository
}

func NewDeviceHandler(devices deviceRepo.DeviceRepository) *DeviceHandler {
	return &DeviceHandler{Devices: devices}
}

type fcmTokenRequest struct {
	FCMToken string `json:"fcmToken" binding:"required"`
	Platform string `json:"platform"`
}

// UpdateFCMTokenHandler stores the caller's push token.
func (h *DeviceHandler) UpdateFCMTokenHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req fcmTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	token := models.DeviceToken{
		UserID:    p.ID,
		Role:      p.Role,
		FCMToken:  req.FCMToken,
		Platform:  req.Platform,
		UpdatedAt: time.Now(),
	}
	if err := h.Devices.Upsert(c.Request.Context(), token); err != nil {
		getLogger(c).Error("Failed to store FCM token", zap.String("userID", p.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update FCM token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "FCM token updated"})
}
