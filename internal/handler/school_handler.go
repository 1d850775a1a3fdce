package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/safespace-api/internal/service"
)

// SchoolHandler обрабатывает запросы к справочнику школ
type SchoolHandler struct {
	schoolService *service.SchoolService
}

// NewSchoolHandler создает новый обработчик справочника школ
func NewSchoolHandler(schoolService *service.SchoolService) *SchoolHandler {
	return &SchoolHandler{
		schoolService: schoolService,
	}
}

// Search возвращает школы по подстроке названия
func (h *SchoolHandler) Search(c *gin.Context) {
	query := c.Query("q")

	schools, err := h.schoolService.Search(query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, schools)
}
