package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/safespace-api/internal/domain/repository"
	"github.com/yourusername/safespace-api/pkg/auth"
)

// Ключи контекста Gin, выставляемые после успешной аутентификации
const (
	ContextAccountIDKey    = "account_id"
	ContextUsernameKey     = "username"
	ContextRoleKey         = "role"
	ContextTokenVersionKey = "token_version"
)

// AuthMiddleware обеспечивает аутентификацию для защищенных маршрутов
type AuthMiddleware struct {
	jwtService  *auth.JWTService
	accountRepo repository.AccountRepository
}

// NewAuthMiddleware создает новый middleware аутентификации
func NewAuthMiddleware(jwtService *auth.JWTService, accountRepo repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:  jwtService,
		accountRepo: accountRepo,
	}
}

// RequireAuth проверяет подпись и срок действия токена
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header format must be Bearer {token}", "error_type": "token_format"})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ParseToken(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		c.Set(ContextAccountIDKey, claims.AccountID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Set(ContextRoleKey, claims.Role)
		c.Set(ContextTokenVersionKey, claims.TokenVersion)

		c.Next()
	}
}

// RequireVerifiedAdmin пускает дальше только административные учетные записи.
// Помимо валидности подписи проверяется живое состояние записи: флаг verified
// и совпадение token_version (logout инкрементирует версию, поэтому
// неистекший токен после выхода здесь отвергается).
func (m *AuthMiddleware) RequireVerifiedAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID, exists := c.Get(ContextAccountIDKey)
		tokenVersion, hasVersion := c.Get(ContextTokenVersionKey)
		if !exists || !hasVersion {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		account, err := m.accountRepo.GetByID(accountID.(uint))
		if err != nil {
			log.Printf("[AuthMiddleware] Не удалось загрузить учетную запись ID=%v: %v", accountID, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		if !account.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin rights required"})
			c.Abort()
			return
		}
		if !account.Verified || account.TokenVersion != tokenVersion.(int) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Session is no longer valid", "error_type": "session_revoked"})
			c.Abort()
			return
		}

		c.Next()
	}
}
