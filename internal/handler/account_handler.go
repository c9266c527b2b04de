package handler

import (
	"net/http"
	"strconv"

	"subly/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accounts *service.AccountService
}

func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

func payeeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("payee_id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payee id"})
		return 0, false
	}
	return uint(id), true
}

// Status returns live transfer eligibility and outstanding requirements.
func (h *AccountHandler) Status(c *gin.Context) {
	id, ok := payeeID(c)
	if !ok {
		return
	}
	elig, err := h.accounts.CheckEligibility(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, elig)
}

func (h *AccountHandler) OnboardingLink(c *gin.Context) {
	h.link(c, true)
}

func (h *AccountHandler) UpdateLink(c *gin.Context) {
	h.link(c, false)
}

func (h *AccountHandler) link(c *gin.Context, onboarding bool) {
	id, ok := payeeID(c)
	if !ok {
		return
	}
	var req struct {
		Email string `json:"email"`
	}
	_ = c.ShouldBindJSON(&req)
	var url string
	var err error
	if onboarding {
		url, err = h.accounts.OnboardingLink(c.Request.Context(), id, req.Email)
	} else {
		url, err = h.accounts.UpdateLink(c.Request.Context(), id, req.Email)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
