package service

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// ============================================================================
// Фейковые реализации для тестирования ReportService.
// Для сценариев с конкуренцией и фоновой отправкой писем фейки с каналами
// и мьютексами надежнее моков.
// ============================================================================

// memReportRepo — потокобезопасное in-memory хранилище обращений
type memReportRepo struct {
	mu     sync.Mutex
	byCase map[string]*entity.Report
	nextID uint

	// failCreates заставляет первые N вставок вернуть ErrDuplicateCaseNumber
	failCreates int
}

func newMemReportRepo() *memReportRepo {
	return &memReportRepo{byCase: make(map[string]*entity.Report)}
}

func (r *memReportRepo) Create(report *entity.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failCreates > 0 {
		r.failCreates--
		return repository.ErrDuplicateCaseNumber
	}
	if _, exists := r.byCase[report.CaseNumber]; exists {
		return repository.ErrDuplicateCaseNumber
	}

	r.nextID++
	report.ID = r.nextID
	report.CreatedAt = time.Now()
	stored := *report
	r.byCase[report.CaseNumber] = &stored
	return nil
}

func (r *memReportRepo) GetByID(id uint) (*entity.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.byCase {
		if report.ID == id {
			found := *report
			return &found, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memReportRepo) GetByCaseNumber(caseNumber string) (*entity.Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if report, ok := r.byCase[caseNumber]; ok {
		found := *report
		return &found, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *memReportRepo) GetDetailByCaseNumber(caseNumber string) (*repository.ReportDetail, error) {
	report, err := r.GetByCaseNumber(caseNumber)
	if err != nil {
		return nil, err
	}
	return &repository.ReportDetail{Report: *report}, nil
}

func (r *memReportRepo) CountByCategory(categoryID uint) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, report := range r.byCase {
		if report.CategoryID == categoryID {
			count++
		}
	}
	return count, nil
}

func (r *memReportRepo) List() ([]repository.ReportDetail, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	details := make([]repository.ReportDetail, 0, len(r.byCase))
	for _, report := range r.byCase {
		details = append(details, repository.ReportDetail{Report: *report})
	}
	return details, nil
}

func (r *memReportRepo) UpdateByCaseNumber(caseNumber string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	report, ok := r.byCase[caseNumber]
	if !ok {
		return apperrors.ErrNotFound
	}
	if status, ok := updates["status"].(string); ok {
		report.Status = status
	}
	if reason, ok := updates["reason"].(string); ok {
		report.Reason = reason
	}
	if description, ok := updates["description"].(string); ok {
		report.Description = description
	}
	return nil
}

func (r *memReportRepo) UpdateStatus(id uint, status, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, report := range r.byCase {
		if report.ID == id {
			report.Status = status
			report.Reason = reason
			return nil
		}
	}
	return apperrors.ErrNotFound
}

// fakeCategoryRepo отдает фиксированную таксономию
type fakeCategoryRepo struct {
	categories map[uint]entity.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[uint]entity.Category{
		1: {ID: 1, Name: "Bullying", Code: "BU"},
		2: {ID: 2, Name: "Substance Abuse", Code: "SB"},
		9: {ID: 9, Name: "Uncoded"},
	}}
}

func (r *fakeCategoryRepo) List() ([]entity.Category, error) {
	result := make([]entity.Category, 0, len(r.categories))
	for _, c := range r.categories {
		result = append(result, c)
	}
	return result, nil
}

func (r *fakeCategoryRepo) GetByID(id uint) (*entity.Category, error) {
	if c, ok := r.categories[id]; ok {
		return &c, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeCategoryRepo) ListSubcategories(categoryID uint) ([]entity.Subcategory, error) {
	return []entity.Subcategory{{ID: 1, CategoryID: categoryID, Name: "Sub"}}, nil
}

// stubEmailService сигнализирует об отправках через канал
type stubEmailService struct {
	confirmErr error
	sent       chan string
}

func newStubEmailService() *stubEmailService {
	return &stubEmailService{sent: make(chan string, 64)}
}

func (s *stubEmailService) SendVerificationCode(ctx context.Context, toEmail, code, idempotencyKey string) error {
	return nil
}

func (s *stubEmailService) SendReportConfirmation(ctx context.Context, toEmail, fullName, caseNumber string) error {
	s.sent <- caseNumber
	return s.confirmErr
}

func (s *stubEmailService) SendStatusUpdate(ctx context.Context, toEmail, fullName, caseNumber, status, reason string) error {
	s.sent <- caseNumber + ":" + status
	return s.confirmErr
}

func newTestReportService(t *testing.T, reportRepo repository.ReportRepository, emailService EmailService) *ReportService {
	t.Helper()
	svc, err := NewReportService(reportRepo, newFakeCategoryRepo(), emailService)
	require.NoError(t, err)
	return svc
}

func validInput() *CreateReportInput {
	return &CreateReportInput{
		CategoryID:    1,
		Description:   "A student was bullied after class",
		ReporterEmail: "reporter@example.com",
		FullName:      "Jane Doe",
	}
}

// ============================================================================
// Формат номера обращения
// ============================================================================

func TestFormatCaseNumber(t *testing.T) {
	now := time.Date(2026, time.March, 7, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "CASE-BU00040703", FormatCaseNumber("BU", 4, now))
	assert.Equal(t, "CASE-XX12340703", FormatCaseNumber("XX", 1234, now))

	// Порядковый номер шире четырех цифр не усекается
	assert.Equal(t, "CASE-SB100000703", FormatCaseNumber("SB", 10000, now))
}

// ============================================================================
// Создание обращений
// ============================================================================

func TestCreateReport_AssignsSequentialCaseNumber(t *testing.T) {
	repo := newMemReportRepo()
	emailService := newStubEmailService()
	svc := newTestReportService(t, repo, emailService)

	first, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)
	second, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)

	now := time.Now()
	assert.Equal(t, FormatCaseNumber("BU", 1, now), first.CaseNumber)
	assert.Equal(t, FormatCaseNumber("BU", 2, now), second.CaseNumber)
	assert.Equal(t, entity.StatusPending, first.Status)
}

func TestCreateReport_FallbackPrefixForUnknownCategory(t *testing.T) {
	repo := newMemReportRepo()
	svc := newTestReportService(t, repo, newStubEmailService())

	input := validInput()
	input.CategoryID = 77 // нет в справочнике

	report, err := svc.CreateReport(context.Background(), input)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CASE-XX\d{8}$`), report.CaseNumber)
}

func TestCreateReport_FallbackPrefixForCategoryWithoutCode(t *testing.T) {
	repo := newMemReportRepo()
	svc := newTestReportService(t, repo, newStubEmailService())

	input := validInput()
	input.CategoryID = 9 // категория без кода

	report, err := svc.CreateReport(context.Background(), input)
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^CASE-XX\d{8}$`), report.CaseNumber)
}

func TestCreateReport_Validation(t *testing.T) {
	svc := newTestReportService(t, newMemReportRepo(), newStubEmailService())

	tests := []struct {
		name   string
		modify func(*CreateReportInput)
	}{
		{"без категории", func(in *CreateReportInput) { in.CategoryID = 0 }},
		{"без описания", func(in *CreateReportInput) { in.Description = "   " }},
		{"не анонимно и без email", func(in *CreateReportInput) { in.ReporterEmail = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := validInput()
			tt.modify(input)
			_, err := svc.CreateReport(context.Background(), input)
			assert.ErrorIs(t, err, apperrors.ErrValidation)
		})
	}
}

func TestCreateReport_AnonymousWithoutEmail(t *testing.T) {
	svc := newTestReportService(t, newMemReportRepo(), newStubEmailService())

	input := validInput()
	input.IsAnonymous = true
	input.ReporterEmail = ""

	report, err := svc.CreateReport(context.Background(), input)
	require.NoError(t, err)
	assert.NotEmpty(t, report.CaseNumber)
}

// ============================================================================
// Повторы при конфликте номера
// ============================================================================

func TestCreateReport_RetriesOnDuplicateCaseNumber(t *testing.T) {
	repo := newMemReportRepo()
	repo.failCreates = 2
	svc := newTestReportService(t, repo, newStubEmailService())

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEmpty(t, report.CaseNumber)
}

func TestCreateReport_ConflictWhenRetriesExhausted(t *testing.T) {
	repo := newMemReportRepo()
	// Последовательные попытки и запасная случайная — все с конфликтом
	repo.failCreates = caseNumberMaxRetries + 1
	svc := newTestReportService(t, repo, newStubEmailService())

	_, err := svc.CreateReport(context.Background(), validInput())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

// Конкурентные вставки в одну категорию получают различные номера
func TestCreateReport_ConcurrentCreatesGetDistinctCaseNumbers(t *testing.T) {
	repo := newMemReportRepo()
	svc := newTestReportService(t, repo, newStubEmailService())

	const n = 20
	var wg sync.WaitGroup
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.CreateReport(context.Background(), validInput()); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("неожиданная ошибка конкурентного создания: %v", err)
	}

	reports, err := repo.List()
	require.NoError(t, err)
	require.Len(t, reports, n)

	seen := make(map[string]bool, n)
	for _, r := range reports {
		assert.False(t, seen[r.CaseNumber], "дублирующийся номер: %s", r.CaseNumber)
		seen[r.CaseNumber] = true
	}
}

// ============================================================================
// Фоновая отправка писем
// ============================================================================

func TestCreateReport_SendsConfirmationInBackground(t *testing.T) {
	repo := newMemReportRepo()
	emailService := newStubEmailService()
	svc := newTestReportService(t, repo, emailService)

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)

	select {
	case caseNumber := <-emailService.sent:
		assert.Equal(t, report.CaseNumber, caseNumber)
	case <-time.After(2 * time.Second):
		t.Fatal("подтверждение не было отправлено")
	}
}

// Сбой отправки подтверждения не влияет на результат создания
func TestCreateReport_EmailFailureNotSurfaced(t *testing.T) {
	repo := newMemReportRepo()
	emailService := newStubEmailService()
	emailService.confirmErr = fmt.Errorf("provider unavailable")
	svc := newTestReportService(t, repo, emailService)

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)

	// Письмо пытались отправить, но ошибка осталась в логе
	select {
	case <-emailService.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("подтверждение не было отправлено")
	}

	stored, err := repo.GetByCaseNumber(report.CaseNumber)
	require.NoError(t, err)
	assert.Equal(t, report.CaseNumber, stored.CaseNumber)
}

func TestCreateReport_NoConfirmationForAnonymous(t *testing.T) {
	repo := newMemReportRepo()
	emailService := newStubEmailService()
	svc := newTestReportService(t, repo, emailService)

	input := validInput()
	input.IsAnonymous = true

	_, err := svc.CreateReport(context.Background(), input)
	require.NoError(t, err)

	select {
	case caseNumber := <-emailService.sent:
		t.Fatalf("анонимное обращение не должно порождать письмо: %s", caseNumber)
	case <-time.After(200 * time.Millisecond):
	}
}

// ============================================================================
// Сопровождение обращений
// ============================================================================

func TestCaseNumberExists(t *testing.T) {
	repo := newMemReportRepo()
	svc := newTestReportService(t, repo, newStubEmailService())

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)

	exists, err := svc.CaseNumberExists(report.CaseNumber)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.CaseNumberExists("CASE-XX00000000")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestUpdateByCaseNumber_RejectsInvalidStatus(t *testing.T) {
	repo := newMemReportRepo()
	svc := newTestReportService(t, repo, newStubEmailService())

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)

	_, err = svc.UpdateByCaseNumber(report.CaseNumber, map[string]interface{}{"status": "Archived"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestUpdateByCaseNumber_UnknownCase(t *testing.T) {
	svc := newTestReportService(t, newMemReportRepo(), newStubEmailService())

	_, err := svc.UpdateByCaseNumber("CASE-XX00000000", map[string]interface{}{"status": entity.StatusResolved})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateStatus_NotifiesReporter(t *testing.T) {
	repo := newMemReportRepo()
	emailService := newStubEmailService()
	svc := newTestReportService(t, repo, emailService)

	report, err := svc.CreateReport(context.Background(), validInput())
	require.NoError(t, err)
	<-emailService.sent // подтверждение создания

	updated, err := svc.UpdateStatus(report.ID, entity.StatusResolved, "Case closed")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusResolved, updated.Status)

	select {
	case msg := <-emailService.sent:
		assert.Equal(t, report.CaseNumber+":"+entity.StatusResolved, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("уведомление о статусе не было отправлено")
	}
}

func TestUpdateStatus_RejectsInvalidStatus(t *testing.T) {
	svc := newTestReportService(t, newMemReportRepo(), newStubEmailService())

	_, err := svc.UpdateStatus(1, "Bogus", "")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
