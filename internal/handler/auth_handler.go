package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/safespace-api/internal/middleware"
	"github.com/yourusername/safespace-api/internal/service"
)

// AuthHandler обрабатывает запросы двухэтапной аутентификации
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler создает новый обработчик аутентификации
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Структуры запросов и ответов

// LoginRequest представляет запрос на вход
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Password string `json:"password" binding:"required"`
}

// ResendCodeRequest представляет запрос на повторную отправку кода
type ResendCodeRequest struct {
	Username string `json:"username" binding:"required"`
}

// VerifyRequest представляет запрос на подтверждение кода
type VerifyRequest struct {
	Username string `json:"username" binding:"required"`
	Code     string `json:"code" binding:"required,len=6"`
}

// AuthResponse структура для ответа с данными учетной записи и токеном
type AuthResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int         `json:"expires_in"`
	Account   interface{} `json:"account"`
}

// Login обрабатывает первый этап входа: проверку учетных данных и отправку кода
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	if err := h.authService.Login(c.Request.Context(), req.Username, req.Password); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent to your email"})
}

// ResendCode обрабатывает запрос на повторную отправку кода
func (h *AuthHandler) ResendCode(c *gin.Context) {
	var req ResendCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	if err := h.authService.ResendCode(c.Request.Context(), req.Username); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent to your email"})
}

// Verify обрабатывает второй этап входа: погашение кода и выдачу токена
func (h *AuthHandler) Verify(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	token, account, err := h.authService.VerifyCode(c.Request.Context(), req.Username, req.Code)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[AuthHandler] Учетная запись ID=%d (%s) прошла верификацию", account.ID, account.Username)

	c.JSON(http.StatusOK, AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(h.authService.TokenExpiry().Seconds()),
		Account:   account,
	})
}

// Logout завершает сессию: сбрасывает верификацию и отзывает выданные токены
func (h *AuthHandler) Logout(c *gin.Context) {
	accountID, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return
	}

	if err := h.authService.Logout(accountID.(uint)); err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[AuthHandler] Учетная запись ID=%v вышла из системы", accountID)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}
