package entity

import (
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли учетных записей
const (
	RoleUser          = "user"
	RoleSchoolAdmin   = "school_admin"
	RolePlatformAdmin = "platform_admin"
)

// Account представляет учетную запись в системе
type Account struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email    string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	FullName string `gorm:"size:100;not null;default:''" json:"full_name"`
	Role     string `gorm:"size:20;not null;default:'user'" json:"role"` // user, school_admin, platform_admin

	// Состояние двухэтапной верификации. Ненулевой VerificationCode
	// всегда означает Verified=false.
	Verified              bool       `gorm:"not null;default:false" json:"-"`
	VerificationCode      *string    `gorm:"size:6" json:"-"`
	VerificationExpiresAt *time.Time `gorm:"type:timestamp" json:"-"`
	EmailVerifiedAt       *time.Time `gorm:"type:timestamp" json:"email_verified_at,omitempty"`

	// TokenVersion инкрементируется при logout и инвалидирует выданные ранее токены.
	TokenVersion int `gorm:"not null;default:0" json:"-"`

	SchoolEmisNo *string `gorm:"size:20" json:"school_emis_no,omitempty"` // только для school_admin

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Account) TableName() string {
	return "accounts"
}

// IsAdmin возвращает true для административных ролей
func (a *Account) IsAdmin() bool {
	return a.Role == RoleSchoolAdmin || a.Role == RolePlatformAdmin
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (a *Account) BeforeSave(tx *gorm.DB) error {
	// Хешируем пароль только если он:
	// 1. Не пустой
	// 2. Не является уже bcrypt-хешем (начинается с "$2a$", "$2b$" или "$2y$")
	if len(a.Password) > 0 && !strings.HasPrefix(a.Password, "$2a$") &&
		!strings.HasPrefix(a.Password, "$2b$") && !strings.HasPrefix(a.Password, "$2y$") {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.DefaultCost)
		if err != nil {
			log.Printf("[Account.BeforeSave] Ошибка при хешировании пароля для username=%s: %v", a.Username, err)
			return err
		}
		a.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (a *Account) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(a.Password), []byte(password))
	return err == nil
}

// HasActiveCode возвращает true, если для учетной записи есть непогашенный код,
// срок действия которого еще не истек.
func (a *Account) HasActiveCode(now time.Time) bool {
	if a.VerificationCode == nil {
		return false
	}
	if a.VerificationExpiresAt != nil && now.After(*a.VerificationExpiresAt) {
		return false
	}
	return true
}
