package handler

import (
	"net/http"
	"time"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type SweepHandler struct {
	sweeper *service.SweepService
}

func NewSweepHandler(sweeper *service.SweepService) *SweepHandler {
	return &SweepHandler{sweeper: sweeper}
}

// Run settles every reservation due at the cutoff (default: now). Called by
// the scheduler; re-running for the same cutoff is safe.
func (h *SweepHandler) Run(c *gin.Context) {
	var req struct {
		CutoffDate string `json:"cutoff_date"`
	}
	_ = c.ShouldBindJSON(&req)
	cutoff := time.Now()
	if req.CutoffDate != "" {
		parsed, err := time.Parse("2006-01-02", req.CutoffDate)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cutoff_date, want YYYY-MM-DD"})
			return
		}
		cutoff = parsed
	}
	outcomes, err := h.sweeper.SweepDue(c.Request.Context(), cutoff)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"cutoff":   cutoff.Format("2006-01-02"),
		"count":    len(outcomes),
		"outcomes": outcomes,
	})
}
