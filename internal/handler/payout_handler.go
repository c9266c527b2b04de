package handler

import (
	"net/http"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type PayoutHandler struct {
	payouts *service.PayoutService
}

func NewPayoutHandler(payouts *service.PayoutService) *PayoutHandler {
	return &PayoutHandler{payouts: payouts}
}

// Dispatch pays out the payee's full owed balance.
func (h *PayoutHandler) Dispatch(c *gin.Context) {
	var req struct {
		PayeeID uint `json:"payee_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.payouts.Payout(c.Request.Context(), req.PayeeID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
