package repository

import (
	"errors"

	"github.com/yourusername/safespace-api/internal/domain/entity"
)

// ErrDuplicateCaseNumber возвращается при нарушении уникальности case_number.
// Сервис по этой ошибке заново вычисляет счетчик и повторяет вставку.
var ErrDuplicateCaseNumber = errors.New("duplicate case number")

// ReportDetail — строка списка обращений с именами категории и подкатегории
type ReportDetail struct {
	entity.Report
	CategoryName    string `json:"abuse_type"`
	SubcategoryName string `json:"subtype"`
}

// ReportRepository определяет методы для работы с обращениями
type ReportRepository interface {
	// Create сохраняет обращение; при конфликте case_number возвращает
	// ErrDuplicateCaseNumber.
	Create(report *entity.Report) error
	GetByID(id uint) (*entity.Report, error)
	GetByCaseNumber(caseNumber string) (*entity.Report, error)
	GetDetailByCaseNumber(caseNumber string) (*ReportDetail, error)
	// CountByCategory возвращает число сохраненных обращений в категории.
	CountByCategory(categoryID uint) (int64, error)
	List() ([]ReportDetail, error)
	UpdateByCaseNumber(caseNumber string, updates map[string]interface{}) error
	UpdateStatus(id uint, status, reason string) error
}
