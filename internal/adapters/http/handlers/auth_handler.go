package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Haleralex/coinvault/internal/adapters/http/common"
	"github.com/Haleralex/coinvault/internal/adapters/http/middleware"
	"github.com/Haleralex/coinvault/internal/application/dtos"
)

// ============================================
// Service Interface
// ============================================

// AuthService - интерфейс сервиса аутентификации для HTTP слоя.
type AuthService interface {
	Register(ctx context.Context, cmd dtos.RegisterCommand) (*dtos.TokenResponse, error)
	Login(ctx context.Context, cmd dtos.LoginCommand) (*dtos.TokenResponse, error)
	CurrentAccount(ctx context.Context, accountID uuid.UUID) (*dtos.AccountOut, error)
}

// ============================================
// Auth Handler
// ============================================

// AuthHandler обрабатывает регистрацию и вход.
type AuthHandler struct {
	service AuthService
}

// NewAuthHandler создаёт новый AuthHandler.
func NewAuthHandler(service AuthService) *AuthHandler {
	return &AuthHandler{service: service}
}

// ============================================
// Request DTOs
// ============================================

// RegisterRequest - запрос на регистрацию аккаунта.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

// LoginRequest - запрос на вход.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ============================================
// Handlers
// ============================================

// Register обрабатывает POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !BindJSON(c, &req) {
		return
	}

	token, err := h.service.Register(c.Request.Context(), dtos.RegisterCommand{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, token)
}

// Login обрабатывает POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	token, err := h.service.Login(c.Request.Context(), dtos.LoginCommand{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, token)
}

// Me обрабатывает GET /auth/me. Требует авторизации.
func (h *AuthHandler) Me(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		common.Error(c, http.StatusUnauthorized, common.ErrCodeUnauthorized, "authentication required")
		return
	}

	account, err := h.service.CurrentAccount(c.Request.Context(), accountID)
	if err != nil {
		common.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}
