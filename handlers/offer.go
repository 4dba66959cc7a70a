package handlers

import (
	"net/http"
	"strconv"

	"hireflow/models"
	"hireflow/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const defaultHistoryLimit = 20

type OfferHandler struct {
	Offers OfferService
}

func NewOfferHandler(offers OfferService) *OfferHandler {
	return &OfferHandler{Offers: offers}
}

type announceRequest struct {
	ServiceRef    string               `json:"serviceRef" binding:"required"`
	Budget        int64                `json:"budget" binding:"required"`
	FreelancerID  string               `json:"freelancerId" binding:"required"`
	Schedule      models.Schedule      `json:"schedule"`
	PaymentMethod models.PaymentMethod `json:"paymentMethod"`
}

// AnnounceOfferHandler publishes an instant offer from the calling employer.
func (h *OfferHandler) AnnounceOfferHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	if p.Role != models.RoleEmployer {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only employers can announce offers"})
		return
	}

	var req announceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	offer, err := h.Offers.Announce(c.Request.Context(), models.BookingOffer{
		ServiceRef:    req.ServiceRef,
		Budget:        req.Budget,
		FreelancerID:  req.FreelancerID,
		EmployerID:    p.ID,
		Schedule:      req.Schedule,
		PaymentMethod: req.PaymentMethod,
	})
	if err != nil {
		utils.RespondError(c, err)
		return
	}

	getLogger(c).Info("Offer announced",
		zap.String("offerID", offer.ID),
		zap.String("freelancerID", offer.FreelancerID))
	c.JSON(http.StatusCreated, gin.H{"offer": offer})
}

type decideRequest struct {
	Outcome models.OfferOutcome `json:"outcome" binding:"required"`
}

// DecideOfferHandler records the freelancer's accept or reject.
func (h *OfferHandler) DecideOfferHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req decideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	res, err := h.Offers.Decide(c.Request.Context(), p, c.Param("id"), req.Outcome)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// PendingOfferHandler returns the caller's open offer, if any.
func (h *OfferHandler) PendingOfferHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}
	offer, found := h.Offers.Pending(p.ID)
	if !found {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, gin.H{"offer": offer})
}

// OfferHistoryHandler lists resolved offers. Admins may pass freelancerId.
func (h *OfferHandler) OfferHistoryHandler(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	freelancerID := p.ID
	if q := c.Query("freelancerId"); q != "" && q != p.ID {
		if !p.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Cannot read another freelancer's history"})
			return
		}
		freelancerID = q
	}

	limit := int64(defaultHistoryLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}

	records, err := h.Offers.History(c.Request.Context(), freelancerID, limit)
	if err != nil {
		utils.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}
