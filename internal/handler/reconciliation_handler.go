package handler

import (
	"log"
	"net/http"
	"strconv"

	"subly/internal/middleware"
	"subly/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReconciliationHandler struct {
	recon *repository.ReconciliationRepository
}

func NewReconciliationHandler(recon *repository.ReconciliationRepository) *ReconciliationHandler {
	return &ReconciliationHandler{recon: recon}
}

// List returns the open operator queue.
func (h *ReconciliationHandler) List(c *gin.Context) {
	tasks, err := h.recon.ListOpen()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// Resolve closes a task after manual review.
func (h *ReconciliationHandler) Resolve(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid task id"})
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	_ = c.ShouldBindJSON(&req)
	done, err := h.recon.Resolve(uint(id), req.Note)
	if err != nil {
		respondError(c, err)
		return
	}
	if !done {
		c.JSON(http.StatusConflict, gin.H{"error": "task not found or already resolved"})
		return
	}
	log.Printf("[Recon] task=%d resolved by operator=%d", id, middleware.GetOperatorID(c))
	c.JSON(http.StatusOK, gin.H{"resolved": true})
}
