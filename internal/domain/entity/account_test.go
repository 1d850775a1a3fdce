package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// BeforeSave не использует tx напрямую, но сигнатура требует его
var mockTx *gorm.DB = nil

func TestAccount_BeforeSave_HashesPassword(t *testing.T) {
	plainPassword := "mySecretPassword123"
	account := &Account{
		Username: "admin",
		Email:    "admin@school.example",
		Password: plainPassword,
	}

	err := account.BeforeSave(mockTx)

	require.NoError(t, err)
	assert.NotEqual(t, plainPassword, account.Password, "Пароль должен быть изменён после хеширования")

	err = bcrypt.CompareHashAndPassword([]byte(account.Password), []byte(plainPassword))
	assert.NoError(t, err, "Хеш должен соответствовать исходному паролю")
}

func TestAccount_BeforeSave_SkipsAlreadyHashedPassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	account := &Account{Username: "admin", Password: string(hashed)}
	require.NoError(t, account.BeforeSave(mockTx))

	// Повторное сохранение не должно перехешировать хеш
	assert.Equal(t, string(hashed), account.Password)
}

func TestAccount_CheckPassword(t *testing.T) {
	account := &Account{Username: "admin", Password: "secret-password"}
	require.NoError(t, account.BeforeSave(mockTx))

	assert.True(t, account.CheckPassword("secret-password"))
	assert.False(t, account.CheckPassword("wrong-password"))
	assert.False(t, account.CheckPassword(""))
}

func TestAccount_IsAdmin(t *testing.T) {
	assert.True(t, (&Account{Role: RoleSchoolAdmin}).IsAdmin())
	assert.True(t, (&Account{Role: RolePlatformAdmin}).IsAdmin())
	assert.False(t, (&Account{Role: RoleUser}).IsAdmin())
	assert.False(t, (&Account{}).IsAdmin())
}

func TestAccount_HasActiveCode(t *testing.T) {
	now := time.Now()
	code := "123456"
	future := now.Add(10 * time.Minute)
	past := now.Add(-10 * time.Minute)

	tests := []struct {
		name     string
		account  Account
		expected bool
	}{
		{"нет кода", Account{}, false},
		{"код без срока", Account{VerificationCode: &code}, true},
		{"код действует", Account{VerificationCode: &code, VerificationExpiresAt: &future}, true},
		{"код истек", Account{VerificationCode: &code, VerificationExpiresAt: &past}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.account.HasActiveCode(now))
		})
	}
}
