package handler

import (
	"net/http"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type SettlementHandler struct {
	settler *service.SettlementService
}

func NewSettlementHandler(settler *service.SettlementService) *SettlementHandler {
	return &SettlementHandler{settler: settler}
}

// Settle runs the settlement for one reservation. Idempotent: re-posting
// returns the already-created transfer refs.
func (h *SettlementHandler) Settle(c *gin.Context) {
	var req struct {
		ReservationID uint `json:"reservation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	result, err := h.settler.Settle(c.Request.Context(), req.ReservationID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"transfers": result,
	})
}
