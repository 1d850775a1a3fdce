package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// CategoryRepo реализует repository.CategoryRepository
type CategoryRepo struct {
	db *gorm.DB
}

// NewCategoryRepo создает новый репозиторий таксономии
func NewCategoryRepo(db *gorm.DB) *CategoryRepo {
	return &CategoryRepo{db: db}
}

// List возвращает все категории
func (r *CategoryRepo) List() ([]entity.Category, error) {
	var categories []entity.Category
	err := r.db.Order("id").Find(&categories).Error
	return categories, err
}

// GetByID возвращает категорию по ID
func (r *CategoryRepo) GetByID(id uint) (*entity.Category, error) {
	var category entity.Category
	err := r.db.First(&category, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &category, nil
}

// ListSubcategories возвращает подкатегории указанной категории
func (r *CategoryRepo) ListSubcategories(categoryID uint) ([]entity.Subcategory, error) {
	var subcategories []entity.Subcategory
	err := r.db.Where("category_id = ?", categoryID).Order("id").Find(&subcategories).Error
	return subcategories, err
}
