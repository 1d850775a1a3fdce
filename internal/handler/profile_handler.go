package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/safespace-api/internal/middleware"
	"github.com/yourusername/safespace-api/internal/service"
)

// ProfileHandler обрабатывает запросы к профилю администратора
type ProfileHandler struct {
	accountService *service.AccountService
}

// NewProfileHandler создает новый обработчик профиля
func NewProfileHandler(accountService *service.AccountService) *ProfileHandler {
	return &ProfileHandler{
		accountService: accountService,
	}
}

// UpdateProfileRequest представляет запрос на изменение профиля
type UpdateProfileRequest struct {
	FullName string `json:"full_name" binding:"omitempty,max=100"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// ChangePasswordRequest представляет запрос на смену пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8"`
}

// Get возвращает профиль текущей учетной записи
func (h *ProfileHandler) Get(c *gin.Context) {
	accountID, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return
	}

	account, err := h.accountService.GetByID(accountID.(uint))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// Update изменяет отображаемые поля профиля
func (h *ProfileHandler) Update(c *gin.Context) {
	accountID, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	account, err := h.accountService.UpdateProfile(accountID.(uint), req.FullName, req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, account)
}

// ChangePassword проверяет текущий пароль и устанавливает новый
func (h *ProfileHandler) ChangePassword(c *gin.Context) {
	accountID, exists := c.Get(middleware.ContextAccountIDKey)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	if err := h.accountService.ChangePassword(accountID.(uint), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
