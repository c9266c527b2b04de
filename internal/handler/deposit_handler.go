package handler

import (
	"net/http"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type DepositHandler struct {
	deposits *service.DepositService
}

func NewDepositHandler(deposits *service.DepositService) *DepositHandler {
	return &DepositHandler{deposits: deposits}
}

// Capture settles part of the deposit against the guest after a dispute.
func (h *DepositHandler) Capture(c *gin.Context) {
	var req struct {
		ReservationID uint   `json:"reservation_id" binding:"required"`
		AmountCents   int64  `json:"amount_cents" binding:"required,min=1"`
		Reason        string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outcome, err := h.deposits.Capture(c.Request.Context(), req.ReservationID, req.AmountCents, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// Release cancels the deposit authorization. Idempotent.
func (h *DepositHandler) Release(c *gin.Context) {
	var req struct {
		ReservationID uint `json:"reservation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	outcome, err := h.deposits.Release(c.Request.Context(), req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcome)
}
