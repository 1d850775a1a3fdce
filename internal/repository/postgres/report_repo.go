package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// Код ошибки PostgreSQL "unique_violation"
const pgUniqueViolation = "23505"

// ReportRepo реализует repository.ReportRepository
type ReportRepo struct {
	db *gorm.DB
}

// NewReportRepo создает новый репозиторий обращений
func NewReportRepo(db *gorm.DB) *ReportRepo {
	return &ReportRepo{db: db}
}

// Create сохраняет обращение. Конфликт уникальности case_number транслируется
// в repository.ErrDuplicateCaseNumber, чтобы сервис мог повторить генерацию.
func (r *ReportRepo) Create(report *entity.Report) error {
	err := r.db.Create(report).Error
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return repository.ErrDuplicateCaseNumber
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return repository.ErrDuplicateCaseNumber
		}
		return fmt.Errorf("failed to create report: %w", err)
	}
	return nil
}

// GetByID возвращает обращение по ID
func (r *ReportRepo) GetByID(id uint) (*entity.Report, error) {
	var report entity.Report
	err := r.db.First(&report, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// GetByCaseNumber возвращает обращение по номеру дела
func (r *ReportRepo) GetByCaseNumber(caseNumber string) (*entity.Report, error) {
	var report entity.Report
	err := r.db.Where("case_number = ?", caseNumber).First(&report).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

// GetDetailByCaseNumber возвращает обращение с именами категории и подкатегории
func (r *ReportRepo) GetDetailByCaseNumber(caseNumber string) (*repository.ReportDetail, error) {
	var detail repository.ReportDetail
	err := r.db.Model(&entity.Report{}).
		Select("reports.*, categories.name AS category_name, subcategories.name AS subcategory_name").
		Joins("LEFT JOIN categories ON reports.category_id = categories.id").
		Joins("LEFT JOIN subcategories ON reports.subcategory_id = subcategories.id").
		Where("reports.case_number = ?", caseNumber).
		First(&detail).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &detail, nil
}

// CountByCategory возвращает число обращений в категории
func (r *ReportRepo) CountByCategory(categoryID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.Report{}).
		Where("category_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

// List возвращает все обращения с именами категорий, новые первыми
func (r *ReportRepo) List() ([]repository.ReportDetail, error) {
	var details []repository.ReportDetail
	err := r.db.Model(&entity.Report{}).
		Select("reports.*, categories.name AS category_name, subcategories.name AS subcategory_name").
		Joins("LEFT JOIN categories ON reports.category_id = categories.id").
		Joins("LEFT JOIN subcategories ON reports.subcategory_id = subcategories.id").
		Order("reports.created_at DESC").
		Find(&details).Error
	return details, err
}

// UpdateByCaseNumber обновляет поля обращения по номеру дела.
// Сам case_number иммутабелен и через updates не меняется.
func (r *ReportRepo) UpdateByCaseNumber(caseNumber string, updates map[string]interface{}) error {
	delete(updates, "case_number")
	updates["updated_at"] = time.Now()

	result := r.db.Model(&entity.Report{}).
		Where("case_number = ?", caseNumber).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdateStatus обновляет статус и причину по ID обращения
func (r *ReportRepo) UpdateStatus(id uint, status, reason string) error {
	result := r.db.Model(&entity.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"reason":     reason,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
