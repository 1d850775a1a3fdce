package handler

import (
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/safespace-api/internal/service"
)

// Поля обращения, которые администратор может изменять через PUT
var updatableReportFields = map[string]bool{
	"description":    true,
	"status":         true,
	"reason":         true,
	"location":       true,
	"school_name":    true,
	"phone_number":   true,
	"full_name":      true,
	"age":            true,
	"subcategory_id": true,
}

// ReportHandler обрабатывает запросы, связанные с обращениями
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler создает новый обработчик обращений
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
	}
}

// UpdateStatusRequest представляет запрос на смену статуса
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason" binding:"omitempty"`
}

// Create принимает новое обращение и возвращает присвоенный case_number
func (h *ReportHandler) Create(c *gin.Context) {
	var input service.CreateReportInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	report, err := h.reportService.CreateReport(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[ReportHandler] Создано обращение %s (category_id=%d)", report.CaseNumber, report.CategoryID)

	c.JSON(http.StatusCreated, gin.H{
		"message":     "Report submitted successfully",
		"case_number": report.CaseNumber,
	})
}

// CheckCaseNumber сообщает, существует ли обращение с данным номером
func (h *ReportHandler) CheckCaseNumber(c *gin.Context) {
	caseNumber := c.Param("case_number")

	exists, err := h.reportService.CaseNumberExists(caseNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// GetByCaseNumber возвращает обращение по его номеру
func (h *ReportHandler) GetByCaseNumber(c *gin.Context) {
	caseNumber := c.Param("case_number")

	detail, err := h.reportService.GetByCaseNumber(caseNumber)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListAbuseTypes возвращает список категорий происшествий
func (h *ReportHandler) ListAbuseTypes(c *gin.Context) {
	categories, err := h.reportService.ListAbuseTypes()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, categories)
}

// ListSubtypes возвращает подкатегории заданной категории
func (h *ReportHandler) ListSubtypes(c *gin.Context) {
	categoryID, err := strconv.ParseUint(c.Param("category_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID", "error_type": "validation_error"})
		return
	}

	subtypes, err := h.reportService.ListSubtypes(uint(categoryID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, subtypes)
}

// List возвращает все обращения для административного интерфейса
func (h *ReportHandler) List(c *gin.Context) {
	reports, err := h.reportService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

// Update изменяет поля обращения по его номеру. Поля вне разрешенного
// набора игнорируются; case_number неизменяем.
func (h *ReportHandler) Update(c *gin.Context) {
	caseNumber := c.Param("case_number")

	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	updates := make(map[string]interface{})
	for key, value := range body {
		if updatableReportFields[key] {
			updates[key] = value
		}
	}

	detail, err := h.reportService.UpdateByCaseNumber(caseNumber, updates)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// UpdateStatus изменяет статус обращения и уведомляет заявителя
func (h *ReportHandler) UpdateStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid report ID", "error_type": "validation_error"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_type": "validation_error"})
		return
	}

	report, err := h.reportService.UpdateStatus(uint(id), req.Status, req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	log.Printf("[ReportHandler] Обращение %s переведено в статус %s", report.CaseNumber, report.Status)
	c.JSON(http.StatusOK, report)
}

// Export выгружает все обращения в файл XLSX
func (h *ReportHandler) Export(c *gin.Context) {
	reports, err := h.reportService.List()
	if err != nil {
		respondError(c, err)
		return
	}

	filename := fmt.Sprintf("reports_%s", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s.xlsx\"", filename))

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Reports"
	f.SetSheetName("Sheet1", sheetName)

	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		log.Printf("[ReportHandler] Ошибка создания StreamWriter: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel file"})
		return
	}

	// Заголовки
	headers := []interface{}{"Case Number", "Category", "Subcategory", "Status", "Description",
		"Reporter", "Email", "Phone", "Age", "Location", "School", "Anonymous", "Created At"}
	if err := sw.SetRow("A1", headers); err != nil {
		log.Printf("[ReportHandler] Ошибка записи заголовков: %v", err)
	}

	// Данные
	for i, r := range reports {
		rowNum := i + 2
		cell := fmt.Sprintf("A%d", rowNum)

		anonymous := "No"
		reporter := sanitizeForExcel(r.FullName)
		email := sanitizeForExcel(r.ReporterEmail)
		phone := sanitizeForExcel(r.PhoneNumber)
		if r.IsAnonymous {
			anonymous = "Yes"
			reporter, email, phone = "", "", ""
		}

		row := []interface{}{
			r.CaseNumber,
			sanitizeForExcel(r.CategoryName),
			sanitizeForExcel(r.SubcategoryName),
			r.Status,
			sanitizeForExcel(r.Description),
			reporter,
			email,
			phone,
			r.Age,
			sanitizeForExcel(r.Location),
			sanitizeForExcel(r.SchoolName),
			anonymous,
			r.CreatedAt.Format(time.RFC3339),
		}
		if err := sw.SetRow(cell, row); err != nil {
			log.Printf("[ReportHandler] Ошибка записи строки %d: %v", rowNum, err)
		}
	}

	if err := sw.Flush(); err != nil {
		log.Printf("[ReportHandler] Ошибка при Flush: %v", err)
	}

	if err := f.Write(c.Writer); err != nil {
		log.Printf("[ReportHandler] Ошибка записи Excel в response: %v", err)
	}
}

// sanitizeForExcel экранирует данные для защиты от formula injection в Excel/CSV
func sanitizeForExcel(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}
