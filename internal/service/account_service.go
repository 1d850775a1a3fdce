package service

import (
	"fmt"
	"strings"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// AccountService реализует операции над профилем учетной записи
type AccountService struct {
	accountRepo repository.AccountRepository
}

// NewAccountService создает новый сервис учетных записей
func NewAccountService(accountRepo repository.AccountRepository) (*AccountService, error) {
	if accountRepo == nil {
		return nil, fmt.Errorf("account repository is required")
	}
	return &AccountService{accountRepo: accountRepo}, nil
}

// GetByID возвращает учетную запись по идентификатору
func (s *AccountService) GetByID(id uint) (*entity.Account, error) {
	return s.accountRepo.GetByID(id)
}

// UpdateProfile изменяет отображаемые поля профиля. Имя входа, роль и
// состояние верификации через профиль не изменяются.
func (s *AccountService) UpdateProfile(accountID uint, fullName, email string) (*entity.Account, error) {
	updates := make(map[string]interface{})
	if trimmed := strings.TrimSpace(fullName); trimmed != "" {
		updates["full_name"] = trimmed
	}
	if trimmed := strings.TrimSpace(email); trimmed != "" {
		updates["email"] = trimmed
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}

	if err := s.accountRepo.UpdateProfile(accountID, updates); err != nil {
		return nil, err
	}
	return s.accountRepo.GetByID(accountID)
}

// ChangePassword проверяет текущий пароль и устанавливает новый
func (s *AccountService) ChangePassword(accountID uint, currentPassword, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	account, err := s.accountRepo.GetByID(accountID)
	if err != nil {
		return err
	}
	if !account.CheckPassword(currentPassword) {
		return ErrInvalidCredentials
	}

	return s.accountRepo.UpdatePassword(accountID, newPassword)
}
