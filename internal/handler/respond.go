package handler

import (
	"log"
	"net/http"

	"subly/internal/domain"

	"github.com/gin-gonic/gin"
)

// respondError maps the error taxonomy onto HTTP. Callers always receive a
// kind + code + human-readable reason; internal details stay in the logs.
func respondError(c *gin.Context, err error) {
	de, ok := domain.AsError(err)
	if !ok {
		log.Printf("[HTTP] %s %s req=%s internal error: %v", c.Request.Method, c.Request.URL.Path, c.GetString("request_id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	status := http.StatusInternalServerError
	switch de.Kind {
	case domain.KindValidation:
		status = http.StatusBadRequest
		if de.Code == "not_found" {
			status = http.StatusNotFound
		}
	case domain.KindStateConflict:
		status = http.StatusConflict
	case domain.KindExternalProcessor:
		status = http.StatusBadGateway
	case domain.KindPartialSettlement, domain.KindReconciliationRequired:
		status = http.StatusInternalServerError
	}
	body := gin.H{"error": de.Message, "kind": de.Kind, "code": de.Code}
	if de.ReservationID != 0 {
		body["reservation_id"] = de.ReservationID
	}
	if de.PayeeID != 0 {
		body["payee_id"] = de.PayeeID
	}
	if de.ProcessorRef != "" {
		body["processor_ref"] = de.ProcessorRef
	}
	c.JSON(status, body)
}
