package service

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
	"github.com/yourusername/safespace-api/pkg/auth"
)

// AuthService реализует двухэтапный вход: проверка учетных данных, затем
// одноразовый код на email. Токен сессии выдается только после подтверждения кода.
type AuthService struct {
	accountRepo  repository.AccountRepository
	emailService EmailService
	jwtService   *auth.JWTService
	codeTTL      time.Duration
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	accountRepo repository.AccountRepository,
	emailService EmailService,
	jwtService *auth.JWTService,
	codeTTL time.Duration,
) (*AuthService, error) {
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	if jwtService == nil {
		return nil, fmt.Errorf("jwt service is required")
	}
	if codeTTL <= 0 {
		codeTTL = 15 * time.Minute
	}
	return &AuthService{
		accountRepo:  accountRepo,
		emailService: emailService,
		jwtService:   jwtService,
		codeTTL:      codeTTL,
	}, nil
}

// Authenticate проверяет пару имя/пароль. Неизвестное имя и неверный пароль
// неразличимы для вызывающего: в обоих случаях возвращается ErrInvalidCredentials.
func (s *AuthService) Authenticate(username, password string) (*entity.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.GetByUsername(username)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if !account.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	return account, nil
}

// Login проверяет учетные данные и отправляет одноразовый код. Код сначала
// сохраняется, затем отправляется: сбой отправки не отменяет уже выданный код.
func (s *AuthService) Login(ctx context.Context, username, password string) error {
	account, err := s.Authenticate(username, password)
	if err != nil {
		return err
	}
	return s.issueCode(ctx, account)
}

// ResendCode выдает новый код взамен прежнего. Повторная отправка возможна
// только когда вход уже начат: для учетной записи без непогашенного кода
// возвращается та же общая ошибка, что и при неверных учетных данных.
func (s *AuthService) ResendCode(ctx context.Context, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("%w: username is required", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.GetByUsername(username)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return ErrInvalidCredentials
		}
		return fmt.Errorf("failed to look up account: %w", err)
	}
	if account.VerificationCode == nil {
		return ErrInvalidCredentials
	}

	return s.issueCode(ctx, account)
}

// issueCode генерирует код, сохраняет его (замещая прежний) и отправляет письмо.
func (s *AuthService) issueCode(ctx context.Context, account *entity.Account) error {
	code, err := generateVerificationCode()
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	expiresAt := time.Now().Add(s.codeTTL)
	if err := s.accountRepo.SetVerificationCode(account.ID, code, expiresAt); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	idempotencyKey := fmt.Sprintf("login-code:%d:%d", account.ID, expiresAt.Unix())
	if err := s.emailService.SendVerificationCode(ctx, account.Email, code, idempotencyKey); err != nil {
		log.Printf("[AuthService] Не удалось отправить код для account_id=%d: %v", account.ID, err)
		return fmt.Errorf("%w: %v", ErrCodeDeliveryFailed, err)
	}

	return nil
}

// VerifyCode погашает одноразовый код и выдает токен сессии. Неверный код
// не погашает сохраненный: клиент может повторить ввод, пока код не истек.
func (s *AuthService) VerifyCode(ctx context.Context, username, code string) (string, *entity.Account, error) {
	username = strings.TrimSpace(username)
	code = strings.TrimSpace(code)
	if username == "" || code == "" {
		return "", nil, fmt.Errorf("%w: username and code are required", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.GetByUsername(username)
	if err != nil {
		if err == apperrors.ErrNotFound {
			return "", nil, ErrInvalidVerificationCode
		}
		return "", nil, fmt.Errorf("failed to look up account: %w", err)
	}

	if account.VerificationCode == nil {
		return "", nil, ErrInvalidVerificationCode
	}
	if subtle.ConstantTimeCompare([]byte(*account.VerificationCode), []byte(code)) != 1 {
		return "", nil, ErrInvalidVerificationCode
	}

	now := time.Now()
	if account.VerificationExpiresAt != nil && now.After(*account.VerificationExpiresAt) {
		return "", nil, ErrVerificationExpired
	}

	// Атомарное погашение предъявленного кода: при гонке двух запросов с одним
	// кодом, как и при замещении кода повторной выдачей между чтением и
	// погашением, обновление затронет ноль строк.
	if err := s.accountRepo.ConsumeVerificationCode(account.ID, code, now); err != nil {
		if err == apperrors.ErrNotFound {
			return "", nil, ErrInvalidVerificationCode
		}
		return "", nil, fmt.Errorf("failed to consume verification code: %w", err)
	}

	account.Verified = true
	account.VerificationCode = nil
	account.EmailVerifiedAt = &now

	token, err := s.jwtService.GenerateToken(account)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, account, nil
}

// Logout сбрасывает верификацию и инкрементирует token_version: все выданные
// ранее токены перестают проходить проверку живого состояния.
func (s *AuthService) Logout(accountID uint) error {
	if err := s.accountRepo.ResetVerification(accountID); err != nil {
		return fmt.Errorf("failed to reset verification: %w", err)
	}
	return nil
}

// TokenExpiry возвращает срок действия выдаваемых токенов
func (s *AuthService) TokenExpiry() time.Duration {
	return s.jwtService.Expiry()
}

// generateVerificationCode возвращает криптографически случайный код
// в диапазоне [100000, 999999].
func generateVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
