package service

import (
	"fmt"
	"strings"

	"github.com/yourusername/safespace-api/internal/domain/entity"
	"github.com/yourusername/safespace-api/internal/domain/repository"
	apperrors "github.com/yourusername/safespace-api/internal/pkg/errors"
)

// Верхняя граница выдачи поиска школ
const schoolSearchLimit = 10

// SchoolService реализует поиск школ по справочнику
type SchoolService struct {
	schoolRepo repository.SchoolRepository
}

// NewSchoolService создает новый сервис справочника школ
func NewSchoolService(schoolRepo repository.SchoolRepository) (*SchoolService, error) {
	if schoolRepo == nil {
		return nil, fmt.Errorf("school repository is required")
	}
	return &SchoolService{schoolRepo: schoolRepo}, nil
}

// Search возвращает школы, название которых содержит подстроку запроса
func (s *SchoolService) Search(query string) ([]entity.School, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return nil, fmt.Errorf("%w: query must be at least 2 characters", apperrors.ErrValidation)
	}
	return s.schoolRepo.Search(query, schoolSearchLimit)
}
