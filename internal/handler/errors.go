package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
	"github.com/yourusername/safespace-api/internal/service"
)

// respondError отображает ошибки сервисного слоя в HTTP-ответы со стабильными
// error_type. Текст ответа не раскрывает внутренних деталей; полная ошибка
// уходит в серверный лог.
func respondError(c *gin.Context, err error) {
	log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)

	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid username or password", "error_type": "invalid_credentials"})
	case errors.Is(err, service.ErrInvalidVerificationCode):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid verification code", "error_type": "invalid_verification_code"})
	case errors.Is(err, service.ErrVerificationExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification code has expired", "error_type": "verification_expired"})
	case errors.Is(err, service.ErrCodeDeliveryFailed):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code", "error_type": "code_delivery_failed"})
	case errors.Is(err, apperrors.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
	case errors.Is(err, apperrors.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "unauthorized"})
	case errors.Is(err, apperrors.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden", "error_type": "forbidden"})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Resource not found", "error_type": "not_found"})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Conflict", "error_type": "conflict"})
	case errors.Is(err, apperrors.ErrDependency):
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upstream dependency failure", "error_type": "dependency_failure"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error", "error_type": "internal_server_error"})
	}
}
