package postgres

import (
	"errors"
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// AccountRepo реализует repository.AccountRepository
type AccountRepo struct {
	db *gorm.DB
}

// NewAccountRepo создает новый репозиторий учетных записей
func NewAccountRepo(db *gorm.DB) *AccountRepo {
	return &AccountRepo{db: db}
}

// Create создает новую учетную запись
func (r *AccountRepo) Create(account *entity.Account) error {
	return r.db.Create(account).Error
}

// GetByID возвращает учетную запись по ID
func (r *AccountRepo) GetByID(id uint) (*entity.Account, error) {
	var account entity.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByUsername возвращает учетную запись по имени пользователя
func (r *AccountRepo) GetByUsername(username string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.Where("username = ?", username).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// GetByEmail возвращает учетную запись по email
func (r *AccountRepo) GetByEmail(email string) (*entity.Account, error) {
	var account entity.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &account, nil
}

// UpdateProfile обновляет профиль учетной записи без изменения пароля
func (r *AccountRepo) UpdateProfile(accountID uint, updates map[string]interface{}) error {
	// Пароль и состояние верификации через этот метод не меняются
	delete(updates, "password")
	delete(updates, "verification_code")
	delete(updates, "verified")

	updates["updated_at"] = time.Now()

	return r.db.Model(&entity.Account{}).Where("id = ?", accountID).Updates(updates).Error
}

// UpdatePassword безопасно обновляет пароль учетной записи.
// Хеширует пароль здесь и использует прямой SQL-запрос, чтобы обойти хук
// BeforeSave и предотвратить двойное хеширование.
func (r *AccountRepo) UpdatePassword(accountID uint, newPassword string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[AccountRepo.UpdatePassword] Ошибка при хешировании пароля: %v", err)
		return err
	}

	result := r.db.Exec(
		"UPDATE accounts SET password = ?, updated_at = ? WHERE id = ?",
		string(hashedPassword),
		time.Now(),
		accountID,
	)
	if result.Error != nil {
		log.Printf("[AccountRepo.UpdatePassword] Ошибка при обновлении пароля для ID=%d: %v", accountID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetVerificationCode сохраняет новый одноразовый код и сбрасывает verified.
// Прежний код (если был) замещается этим обновлением.
func (r *AccountRepo) SetVerificationCode(accountID uint, code string, expiresAt time.Time) error {
	result := r.db.Model(&entity.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"verification_code":       code,
			"verification_expires_at": expiresAt,
			"verified":                false,
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ConsumeVerificationCode очищает код и выставляет verified=true одним запросом.
// Сравнение с предъявленным кодом в WHERE гарантирует, что код гасится ровно
// один раз и что замещенный повторной выдачей код не погасит новый.
func (r *AccountRepo) ConsumeVerificationCode(accountID uint, code string, verifiedAt time.Time) error {
	result := r.db.Model(&entity.Account{}).
		Where("id = ? AND verification_code = ?", accountID, code).
		Updates(map[string]interface{}{
			"verification_code":       nil,
			"verification_expires_at": nil,
			"verified":                true,
			"email_verified_at":       verifiedAt,
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ResetVerification выполняется при logout: сбрасывает состояние верификации
// и инкрементирует token_version, инвалидируя выданные токены.
func (r *AccountRepo) ResetVerification(accountID uint) error {
	result := r.db.Model(&entity.Account{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"verified":                false,
			"verification_code":       nil,
			"verification_expires_at": nil,
			"email_verified_at":       nil,
			"token_version":           gorm.Expr("token_version + 1"),
			"updated_at":              time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
