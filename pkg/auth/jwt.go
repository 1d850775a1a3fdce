package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// JWTCustomClaims содержит пользовательские поля для токена
type JWTCustomClaims struct {
	AccountID uint   `json:"account_id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	// TokenVersion сверяется с текущим значением учетной записи:
	// logout инкрементирует версию и делает токен недействительным.
	TokenVersion int `json:"token_version"`
	jwt.RegisteredClaims
}

// JWTService предоставляет методы для работы с JWT.
// Ключ подписи — конфигурация уровня процесса, загружается один раз при старте
// и не изменяется.
type JWTService struct {
	secret []byte
	expiry time.Duration
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expiry time.Duration) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required for JWTService")
	}
	if expiry <= 0 {
		expiry = 2 * time.Hour
	}
	return &JWTService{
		secret: []byte(secret),
		expiry: expiry,
	}, nil
}

// GenerateToken создает подписанный токен для верифицированной учетной записи
func (s *JWTService) GenerateToken(account *entity.Account) (string, error) {
	now := time.Now()
	claims := &JWTCustomClaims{
		AccountID:    account.ID,
		Username:     account.Username,
		Role:         account.Role,
		TokenVersion: account.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "safespace-api",
			Subject:   fmt.Sprintf("%d", account.ID),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ParseToken проверяет подпись и срок действия токена и возвращает claims
func (s *JWTService) ParseToken(tokenString string) (*JWTCustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: token expired", apperrors.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: invalid token", apperrors.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*JWTCustomClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: invalid token claims", apperrors.ErrUnauthorized)
	}
	return claims, nil
}

// Expiry возвращает срок действия выдаваемых токенов
func (s *JWTService) Expiry() time.Duration {
	return s.expiry
}
