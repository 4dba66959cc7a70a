package handlers

import (
	"net/http"

	"hireflow/services/booking"
	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EscrowHandler exposes the ledger. Access follows the booking: a caller
// who cannot read the booking cannot read its account.
type EscrowHandler struct {
	Bookings BookingService
	Escrow   EscrowService
}

func NewEscrowHandler(bookings BookingService, escrow EscrowService) *EscrowHandler {
	return &EscrowHandler{Bookings: bookings, Escrow: escrow}
}

type notesRequest struct {
	Notes string `json:"notes"`
}

type resolveRequest struct {
	Outcome booking.DisputeOutcome `json:"outcome" binding:"required"`
	Notes   string                 `json:"notes"`
}

// authorize writes the error response itself and reports whether to go on.
func (h *EscrowHandler) authorize(c *gin.Context) (string, bool) {
	p, ok := principal(c)
	if !ok {
		return "", false
	}
	bookingID := c.Param("bookingId")
	if _, err := h.Bookings.Get(c.Request.Context(), p, bookingID); err != nil {
		utils.RespondError(c, err)
		return "", false
	}
	return bookingID, true
}

func (h *EscrowHandler) GetEscrowHandler(c *gin.Context) {
	bookingID, ok := h.authorize(c)
	if !ok {
		return
	}
	acc, err := h.Escrow.Get(c.Request.Context(), bookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, acc)
}

// GetPayoutHandler returns the commission, GST and net payout breakdown.
func (h *EscrowHandler) GetPayoutHandler(c *gin.Context) {
	bookingID, ok := h.authorize(c)
	if !ok {
		return
	}
	calc, err := h.Escrow.Payout(c.Request.Context(), bookingID)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, calc)
}

func (h *EscrowHandler) RaiseDisputeHandler(c *gin.Context) {
	bookingID, ok := h.authorize(c)
	if !ok {
		return
	}
	var req notesRequest
	if !bindOptional(c, &req) {
		return
	}
	acc, err := h.Escrow.RaiseDispute(c.Request.Context(), bookingID, req.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Warn("Escrow disputed", zap.String("bookingID", bookingID))
	c.JSON(http.StatusOK, acc)
}

// ApproveReleaseHandler records admin approval as release evidence.
func (h *EscrowHandler) ApproveReleaseHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	b, err := h.Bookings.ApproveRelease(c.Request.Context(), p, c.Param("bookingId"))
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// ForceReleaseHandler settles a disputed account. Notes are mandatory.
func (h *EscrowHandler) ForceReleaseHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req notesRequest
	if !bindOptional(c, &req) {
		return
	}
	acc, err := h.Escrow.ForceRelease(c.Request.Context(), p, c.Param("bookingId"), req.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Warn("Escrow force-released",
		zap.String("bookingID", acc.BookingID),
		zap.String("adminID", p.ID))
	c.JSON(http.StatusOK, acc)
}

// ResolveDisputeHandler closes a disputed booking by releasing or refunding
// its escrow.
func (h *EscrowHandler) ResolveDisputeHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	var req resolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}
	b, err := h.Bookings.ResolveDispute(c.Request.Context(), p, c.Param("bookingId"), req.Outcome, req.Notes)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	getLogger(c).Warn("Dispute resolved",
		zap.String("bookingID", b.ID),
		zap.String("adminID", p.ID),
		zap.String("outcome", string(req.Outcome)))
	c.JSON(http.StatusOK, b)
}
