package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/pkg/auth"
)

// stubAccountRepo отдает одну фиксированную учетную запись, изображая живое
// состояние хранилища на момент проверки
type stubAccountRepo struct {
	account *entity.Account
	err     error
}

func (s *stubAccountRepo) Create(*entity.Account) error { return nil }

func (s *stubAccountRepo) GetByID(uint) (*entity.Account, error) {
	return s.account, s.err
}

func (s *stubAccountRepo) GetByUsername(string) (*entity.Account, error) {
	return s.account, s.err
}

func (s *stubAccountRepo) GetByEmail(string) (*entity.Account, error) {
	return s.account, s.err
}

func (s *stubAccountRepo) UpdateProfile(uint, map[string]interface{}) error { return nil }

func (s *stubAccountRepo) UpdatePassword(uint, string) error { return nil }

func (s *stubAccountRepo) SetVerificationCode(uint, string, time.Time) error { return nil }

func (s *stubAccountRepo) ConsumeVerificationCode(uint, string, time.Time) error { return nil }

func (s *stubAccountRepo) ResetVerification(uint) error { return nil }

func newAdminRouter(t *testing.T, repo *stubAccountRepo) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	jwtService, err := auth.NewJWTService("test-secret", time.Hour)
	require.NoError(t, err)

	m := NewAuthMiddleware(jwtService, repo)

	router := gin.New()
	admin := router.Group("/admin", m.RequireAuth(), m.RequireVerifiedAdmin())
	admin.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	return router, jwtService
}

func adminGet(router *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/ping", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	router.ServeHTTP(w, req)
	return w
}

func verifiedAdmin() *entity.Account {
	return &entity.Account{
		ID:       7,
		Username: "admin",
		Role:     entity.RoleSchoolAdmin,
		Verified: true,
	}
}

func TestRequireVerifiedAdmin_AllowsVerifiedAdmin(t *testing.T) {
	account := verifiedAdmin()
	router, jwtService := newAdminRouter(t, &stubAccountRepo{account: account})

	token, err := jwtService.GenerateToken(account)
	require.NoError(t, err)

	w := adminGet(router, token)
	assert.Equal(t, http.StatusOK, w.Code)
}

// Logout инкрементирует token_version: непросроченный токен с прежней версией
// отвергается проверкой живого состояния
func TestRequireVerifiedAdmin_RejectsTokenIssuedBeforeLogout(t *testing.T) {
	account := verifiedAdmin()
	router, jwtService := newAdminRouter(t, &stubAccountRepo{account: account})

	token, err := jwtService.GenerateToken(account)
	require.NoError(t, err)

	// После выхода учетная запись хранит новую версию, verified сброшен
	account.TokenVersion = 1
	account.Verified = false

	w := adminGet(router, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "session_revoked", resp["error_type"])
}

// Несовпадение версии отвергается и при выставленном verified: оба условия
// проверяются независимо
func TestRequireVerifiedAdmin_RejectsStaleTokenVersion(t *testing.T) {
	account := verifiedAdmin()
	router, jwtService := newAdminRouter(t, &stubAccountRepo{account: account})

	token, err := jwtService.GenerateToken(account)
	require.NoError(t, err)

	account.TokenVersion = 3

	w := adminGet(router, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireVerifiedAdmin_RejectsUnverifiedAccount(t *testing.T) {
	account := verifiedAdmin()
	account.Verified = false
	router, jwtService := newAdminRouter(t, &stubAccountRepo{account: account})

	token, err := jwtService.GenerateToken(account)
	require.NoError(t, err)

	w := adminGet(router, token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireVerifiedAdmin_RejectsNonAdminRole(t *testing.T) {
	account := verifiedAdmin()
	account.Role = entity.RoleUser
	router, jwtService := newAdminRouter(t, &stubAccountRepo{account: account})

	token, err := jwtService.GenerateToken(account)
	require.NoError(t, err)

	w := adminGet(router, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireAuth_RejectsMissingAndMalformedToken(t *testing.T) {
	router, _ := newAdminRouter(t, &stubAccountRepo{account: verifiedAdmin()})

	w := adminGet(router, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = adminGet(router, "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
