package repository

import "github.com/yourusername/safespace-api/internal/domain/entity"

// CategoryRepository определяет методы для работы с таксономией происшествий
type CategoryRepository interface {
	List() ([]entity.Category, error)
	GetByID(id uint) (*entity.Category, error)
	ListSubcategories(categoryID uint) ([]entity.Subcategory, error)
}
