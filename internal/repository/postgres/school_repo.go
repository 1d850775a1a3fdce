package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/safespace-api/internal/domain/entity"
)

// SchoolRepo реализует repository.SchoolRepository
type SchoolRepo struct {
	db *gorm.DB
}

// NewSchoolRepo создает новый репозиторий школ
func NewSchoolRepo(db *gorm.DB) *SchoolRepo {
	return &SchoolRepo{db: db}
}

// Search выполняет поиск школ по фрагменту названия
func (r *SchoolRepo) Search(query string, limit int) ([]entity.School, error) {
	var schools []entity.School
	err := r.db.
		Where("name ILIKE ?", "%"+query+"%").
		Order("name ASC").
		Limit(limit).
		Find(&schools).Error
	return schools, err
}
