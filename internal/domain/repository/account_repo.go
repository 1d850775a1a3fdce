package repository

import (
	"time"

	"github.com/yourusername/safespace-api/internal/domain/entity"
)

// AccountRepository определяет методы для работы с учетными записями
type AccountRepository interface {
	Create(account *entity.Account) error
	GetByID(id uint) (*entity.Account, error)
	GetByUsername(username string) (*entity.Account, error)
	GetByEmail(email string) (*entity.Account, error)
	UpdateProfile(accountID uint, updates map[string]interface{}) error
	UpdatePassword(accountID uint, newPassword string) error

	// SetVerificationCode сохраняет новый одноразовый код, одновременно сбрасывая
	// флаг verified. Прежний код при этом замещается.
	SetVerificationCode(accountID uint, code string, expiresAt time.Time) error

	// ConsumeVerificationCode атомарно очищает код, выставляет verified=true и
	// проставляет email_verified_at. Гасится только тот код, который предъявил
	// клиент: если к этому моменту код был замещен повторной выдачей, запись
	// не затрагивается и возвращается ErrNotFound.
	ConsumeVerificationCode(accountID uint, code string, verifiedAt time.Time) error

	// ResetVerification выполняется при logout: сбрасывает verified и
	// email_verified_at, очищает код и инкрементирует token_version.
	ResetVerification(accountID uint) error
}
