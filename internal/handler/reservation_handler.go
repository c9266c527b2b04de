package handler

import (
	"net/http"
	"strconv"
	"time"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type ReservationHandler struct {
	reservations *service.ReservationService
}

func NewReservationHandler(reservations *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

func reservationID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid reservation id"})
		return 0, false
	}
	return uint(id), true
}

func (h *ReservationHandler) Create(c *gin.Context) {
	var req struct {
		ListingID    uint   `json:"listing_id" binding:"required"`
		GuestID      uint   `json:"guest_id" binding:"required"`
		TenantID     uint   `json:"tenant_id" binding:"required"`
		ProprietorID uint   `json:"proprietor_id" binding:"required"`
		StartDate    string `json:"start_date" binding:"required"`
		EndDate      string `json:"end_date" binding:"required"`
		TotalCents   int64  `json:"total_cents" binding:"required,min=0"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_date, want YYYY-MM-DD"})
		return
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_date, want YYYY-MM-DD"})
		return
	}
	res, err := h.reservations.Create(c.Request.Context(), service.CreateReservationInput{
		ListingID:    req.ListingID,
		GuestID:      req.GuestID,
		TenantID:     req.TenantID,
		ProprietorID: req.ProprietorID,
		StartDate:    start,
		EndDate:      end,
		TotalCents:   req.TotalCents,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *ReservationHandler) Get(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.reservations.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) Confirm(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	var req struct {
		PaymentInstrument string `json:"payment_instrument" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.reservations.Confirm(c.Request.Context(), id, req.PaymentInstrument)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ReservationHandler) Cancel(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	result, err := h.reservations.Cancel(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *ReservationHandler) MarkReady(c *gin.Context) {
	id, ok := reservationID(c)
	if !ok {
		return
	}
	res, err := h.reservations.MarkReady(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
