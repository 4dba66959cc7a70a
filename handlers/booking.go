package handlers

import (
	"net/http"

	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Bookings BookingService
}

func NewBookingHandler(bookings BookingService) *BookingHandler {
	return &BookingHandler{Bookings: bookings}
}

type codeRequest struct {
	Code string `json:"code" binding:"required"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type ratingRequest struct {
	Rating int `json:"rating" binding:"required"`
}

func (h *BookingHandler) ListBookingsHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	bookings, err := h.Bookings.List(c.Request.Context(), p)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ConfirmBookingHandler moves a pending booking to confirmed and issues the
// start code to the employer.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := h.Bookings.Confirm(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// StartBookingHandler checks the start code read out by the employer.
func (h *BookingHandler) StartBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	b, err := h.Bookings.Start(c.Request.Context(), p, c.Param("id"), req.Code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// CompleteBookingHandler checks the end code and releases escrow.
func (h *BookingHandler) CompleteBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	b, err := h.Bookings.Complete(c.Request.Context(), p, c.Param("id"), req.Code)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Info("Booking completed", zap.String("bookingID", b.ID))
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req cancelRequest
	if !bindOptional(c, &req) {
		return
	}
	b, err := h.Bookings.Cancel(c.Request.Context(), p, c.Param("id"), req.Reason)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) SubmitRatingHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req ratingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	b, err := h.Bookings.SubmitRating(c.Request.Context(), p, c.Param("id"), req.Rating)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ReissueOTPHandler hands the employer a fresh code for the current phase.
func (h *BookingHandler) ReissueOTPHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	code, err := h.Bookings.ReissueOTP(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code})
}
