package handler

import (
	"crypto/subtle"
	"log"
	"net/http"

	"subly/config"
	"subly/internal/repository"
	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

// processorEvent is the processor's webhook envelope. Only the event types
// this system reacts to are modeled; everything else is acknowledged and
// dropped.
type processorEvent struct {
	Type       string `json:"type"` // hold.expired, account.updated
	HoldRef    string `json:"hold_ref"`
	AccountRef string `json:"account_ref"`
}

type ProcessorWebhookHandler struct {
	cfg      *config.Config
	deposits *service.DepositService
	accounts *service.AccountService
	holds    *repository.DepositRepository
}

func NewProcessorWebhookHandler(
	cfg *config.Config,
	deposits *service.DepositService,
	accounts *service.AccountService,
	holds *repository.DepositRepository,
) *ProcessorWebhookHandler {
	return &ProcessorWebhookHandler{cfg: cfg, deposits: deposits, accounts: accounts, holds: holds}
}

// Handle processes processor notifications. Webhook deliveries are
// at-least-once; every branch tolerates duplicates.
func (h *ProcessorWebhookHandler) Handle(c *gin.Context) {
	secret := h.cfg.Processor.WebhookSecret
	got := c.GetHeader("X-Processor-Signature")
	if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
		return
	}
	var event processorEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	switch event.Type {
	case "hold.expired":
		hold, err := h.holds.GetByProcessorRef(event.HoldRef)
		if err != nil {
			log.Printf("[Webhook] hold.expired for unknown ref %s", event.HoldRef)
			break
		}
		if err := h.deposits.MarkExpired(hold.ReservationID); err != nil {
			log.Printf("[Webhook] hold.expired reservation=%d: %v", hold.ReservationID, err)
		}
	case "account.updated":
		if err := h.accounts.RefreshFromProcessor(c.Request.Context(), event.AccountRef); err != nil {
			log.Printf("[Webhook] account.updated %s: %v", event.AccountRef, err)
		}
	default:
		log.Printf("[Webhook] ignoring event type %q", event.Type)
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
