package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"math/big"
	"strings"
	"time"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// Предельное число попыток получить свободный case_number при гонке
const caseNumberMaxRetries = 5

// Префикс для категорий, у которых не задан собственный код
const fallbackCategoryCode = "XX"

// CreateReportInput — данные нового обращения после прохождения санитизации
type CreateReportInput struct {
	CategoryID    uint   `json:"category_id"`
	SubcategoryID uint   `json:"subcategory_id"`
	Description   string `json:"description"`
	ReporterEmail string `json:"reporter_email"`
	PhoneNumber   string `json:"phone_number"`
	FullName      string `json:"full_name"`
	Age           int    `json:"age"`
	Location      string `json:"location"`
	SchoolName    string `json:"school_name"`
	IsAnonymous   bool   `json:"is_anonymous"`
}

// ReportService реализует прием и сопровождение обращений
type ReportService struct {
	reportRepo   repository.ReportRepository
	categoryRepo repository.CategoryRepository
	emailService EmailService
}

// NewReportService создает новый сервис обращений
func NewReportService(
	reportRepo repository.ReportRepository,
	categoryRepo repository.CategoryRepository,
	emailService EmailService,
) (*ReportService, error) {
	if reportRepo == nil {
		return nil, fmt.Errorf("report repository is required")
	}
	if categoryRepo == nil {
		return nil, fmt.Errorf("category repository is required")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required")
	}
	return &ReportService{
		reportRepo:   reportRepo,
		categoryRepo: categoryRepo,
		emailService: emailService,
	}, nil
}

// CreateReport сохраняет обращение, присваивая ему уникальный case_number.
// Номер строится из кода категории, порядкового номера внутри категории и
// дня/месяца создания; при конфликте уникальности номер пересчитывается.
func (s *ReportService) CreateReport(ctx context.Context, input *CreateReportInput) (*entity.Report, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: empty request", apperrors.ErrValidation)
	}
	if input.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category_id is required", apperrors.ErrValidation)
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, fmt.Errorf("%w: description is required", apperrors.ErrValidation)
	}
	if !input.IsAnonymous && strings.TrimSpace(input.ReporterEmail) == "" {
		return nil, fmt.Errorf("%w: reporter_email is required for non-anonymous reports", apperrors.ErrValidation)
	}

	prefix := s.categoryCode(input.CategoryID)

	report := &entity.Report{
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		Description:   input.Description,
		ReporterEmail: strings.TrimSpace(input.ReporterEmail),
		PhoneNumber:   input.PhoneNumber,
		FullName:      input.FullName,
		Age:           input.Age,
		Location:      input.Location,
		SchoolName:    input.SchoolName,
		IsAnonymous:   input.IsAnonymous,
		Status:        entity.StatusPending,
	}

	now := time.Now()
	for attempt := 0; attempt < caseNumberMaxRetries; attempt++ {
		count, err := s.reportRepo.CountByCategory(input.CategoryID)
		if err != nil {
			return nil, fmt.Errorf("failed to count reports: %w", err)
		}

		report.ID = 0
		report.CaseNumber = FormatCaseNumber(prefix, count+1, now)

		err = s.reportRepo.Create(report)
		if err == nil {
			s.notifyReportCreated(report)
			return report, nil
		}
		if !errors.Is(err, repository.ErrDuplicateCaseNumber) {
			return nil, fmt.Errorf("failed to create report: %w", err)
		}

		// Параллельная вставка успела занять этот номер: пересчитываем
		log.Printf("[ReportService] case_number %s занят, попытка %d", report.CaseNumber, attempt+1)
	}

	// Последовательные номера исчерпаны гонкой: одна попытка со случайным суффиксом
	randomNumber, err := randomCaseNumber(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to generate case number: %w", err)
	}
	report.ID = 0
	report.CaseNumber = randomNumber
	if err := s.reportRepo.Create(report); err != nil {
		if errors.Is(err, repository.ErrDuplicateCaseNumber) {
			return nil, fmt.Errorf("%w: could not allocate a unique case number", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create report: %w", err)
	}

	s.notifyReportCreated(report)
	return report, nil
}

// categoryCode возвращает двухбуквенный код категории или fallback
func (s *ReportService) categoryCode(categoryID uint) string {
	category, err := s.categoryRepo.GetByID(categoryID)
	if err != nil || strings.TrimSpace(category.Code) == "" {
		return fallbackCategoryCode
	}
	return strings.ToUpper(strings.TrimSpace(category.Code))
}

// notifyReportCreated отправляет письмо-подтверждение в фоне. Сбой отправки
// не влияет на результат создания обращения.
func (s *ReportService) notifyReportCreated(report *entity.Report) {
	if report.IsAnonymous || report.ReporterEmail == "" {
		return
	}

	email := report.ReporterEmail
	fullName := report.FullName
	caseNumber := report.CaseNumber

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.emailService.SendReportConfirmation(ctx, email, fullName, caseNumber); err != nil {
			log.Printf("[ReportService] Не удалось отправить подтверждение для %s: %v", caseNumber, err)
		}
	}()
}

// FormatCaseNumber строит номер вида CASE-<код><порядковый номер><день><месяц>
func FormatCaseNumber(prefix string, seq int64, now time.Time) string {
	return fmt.Sprintf("CASE-%s%04d%02d%02d", prefix, seq, now.Day(), int(now.Month()))
}

// randomCaseNumber — запасная схема со случайными шестью цифрами
func randomCaseNumber(prefix string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CASE-%s%06d", prefix, n.Int64()), nil
}

// CaseNumberExists проверяет, существует ли обращение с данным номером
func (s *ReportService) CaseNumberExists(caseNumber string) (bool, error) {
	_, err := s.reportRepo.GetByCaseNumber(caseNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetByCaseNumber возвращает обращение с именами категории и подкатегории
func (s *ReportService) GetByCaseNumber(caseNumber string) (*repository.ReportDetail, error) {
	return s.reportRepo.GetDetailByCaseNumber(caseNumber)
}

// List возвращает все обращения для административного интерфейса
func (s *ReportService) List() ([]repository.ReportDetail, error) {
	return s.reportRepo.List()
}

// ListAbuseTypes возвращает таксономию категорий
func (s *ReportService) ListAbuseTypes() ([]entity.Category, error) {
	return s.categoryRepo.List()
}

// ListSubtypes возвращает подкатегории заданной категории
func (s *ReportService) ListSubtypes(categoryID uint) ([]entity.Subcategory, error) {
	if _, err := s.categoryRepo.GetByID(categoryID); err != nil {
		return nil, err
	}
	return s.categoryRepo.ListSubcategories(categoryID)
}

// UpdateByCaseNumber изменяет поля обращения. Номер обращения неизменяем,
// репозиторий отбрасывает его из набора обновлений.
func (s *ReportService) UpdateByCaseNumber(caseNumber string, updates map[string]interface{}) (*repository.ReportDetail, error) {
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrValidation)
	}
	if status, ok := updates["status"].(string); ok && !entity.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperrors.ErrValidation, status)
	}

	if _, err := s.reportRepo.GetByCaseNumber(caseNumber); err != nil {
		return nil, err
	}
	if err := s.reportRepo.UpdateByCaseNumber(caseNumber, updates); err != nil {
		return nil, err
	}
	return s.reportRepo.GetDetailByCaseNumber(caseNumber)
}

// UpdateStatus изменяет статус обращения и уведомляет заявителя
func (s *ReportService) UpdateStatus(id uint, status, reason string) (*entity.Report, error) {
	if !entity.IsValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status %q", apperrors.ErrValidation, status)
	}

	report, err := s.reportRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if err := s.reportRepo.UpdateStatus(id, status, reason); err != nil {
		return nil, err
	}
	report.Status = status
	report.Reason = reason

	if !report.IsAnonymous && report.ReporterEmail != "" {
		email := report.ReporterEmail
		fullName := report.FullName
		caseNumber := report.CaseNumber

		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := s.emailService.SendStatusUpdate(ctx, email, fullName, caseNumber, status, reason); err != nil {
				log.Printf("[ReportService] Не удалось отправить уведомление о статусе для %s: %v", caseNumber, err)
			}
		}()
	}

	return report, nil
}
