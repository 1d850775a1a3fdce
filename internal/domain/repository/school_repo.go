package repository

import "github.com/yourusername/safespace-api/internal/domain/entity"

// SchoolRepository определяет методы для поиска школ
type SchoolRepository interface {
	// Search выполняет поиск по названию, не более limit записей.
	Search(query string, limit int) ([]entity.School, error)
}
