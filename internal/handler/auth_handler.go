package handler

import (
	"net/http"

	"subly/config"
	"subly/internal/auth"
	"subly/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	cfg       *config.Config
	operators *repository.OperatorRepository
}

func NewAuthHandler(cfg *config.Config, operators *repository.OperatorRepository) *AuthHandler {
	return &AuthHandler{cfg: cfg, operators: operators}
}

// Login authenticates a back-office operator and issues JWTs.
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	op, err := h.operators.GetByEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(op.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	access, err := auth.GenerateAccessToken(&h.cfg.JWT, op.ID, op.Email, op.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	refresh, err := auth.GenerateRefreshToken(&h.cfg.JWT, op.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token":  access,
		"refresh_token": refresh,
		"operator": gin.H{
			"id":    op.ID,
			"email": op.Email,
			"role":  op.Role,
		},
	})
}
