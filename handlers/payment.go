package handlers

import (
	"errors"
	"io"
	"net/http"

	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxWebhookBody caps the callback payload read into memory.
const maxWebhookBody = int64(65536)

// retryableCodes are coded failures that a later delivery can succeed past.
var retryableCodes = map[string]bool{
	"version_conflict": true,
	"unavailable":      true,
}

type PaymentHandler struct {
	Gateway WebhookGateway
	Events  PaymentEventHandler
}

func NewPaymentHandler(gateway WebhookGateway, events PaymentEventHandler) *PaymentHandler {
	return &PaymentHandler{Gateway: gateway, Events: events}
}

// StripeWebhookHandler verifies a Stripe callback and applies it. Domain
// rejections are acknowledged so the gateway stops retrying. A lost write
// race or an unavailable store answers 503 and anything else 500, so both
// are retried.
func (h *PaymentHandler) StripeWebhookHandler(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to read request body"})
		return
	}

	ev, err := h.Gateway.ParseEvent(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		logger.Warn("Rejected webhook", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid webhook signature or payload"})
		return
	}
	if ev == nil {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	if err := h.Events.Handle(c.Request.Context(), *ev); err != nil {
		var coded utils.CodedError
		if errors.As(err, &coded) && retryableCodes[coded.Code()] {
			logger.Warn("Payment event deferred",
				zap.String("bookingID", ev.BookingID),
				zap.String("code", coded.Code()),
				zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Payment event could not be applied, retry later"})
			return
		}
		if errors.As(err, &coded) {
			logger.Warn("Payment event not applied",
				zap.String("bookingID", ev.BookingID),
				zap.String("code", coded.Code()),
				zap.Error(err))
			c.JSON(http.StatusOK, gin.H{"received": true, "applied": false, "code": coded.Code()})
			return
		}
		utils.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true, "applied": true})
}
