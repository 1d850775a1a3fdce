package entity

import "time"

// Статусы обращений
const (
	StatusPending  = "Pending"
	StatusInReview = "InReview"
	StatusResolved = "Resolved"
	StatusRejected = "Rejected"
)

// Report представляет обращение о происшествии
type Report struct {
	ID            uint   `gorm:"primaryKey" json:"id"`
	CategoryID    uint   `gorm:"not null;index" json:"category_id"`
	SubcategoryID uint   `gorm:"index" json:"subcategory_id"`
	Description   string `gorm:"type:text;not null" json:"description"`

	ReporterEmail string `gorm:"size:100" json:"reporter_email"`
	PhoneNumber   string `gorm:"size:30" json:"phone_number"`
	FullName      string `gorm:"size:100" json:"full_name"`
	Age           int    `json:"age"`
	Location      string `gorm:"size:255" json:"location"`
	SchoolName    string `gorm:"size:255" json:"school_name"`
	IsAnonymous   bool   `gorm:"not null;default:false" json:"is_anonymous"`

	// CaseNumber назначается один раз при создании и не изменяется.
	CaseNumber string `gorm:"size:20;not null;uniqueIndex" json:"case_number"`
	Status     string `gorm:"size:20;not null;default:'Pending'" json:"status"` // Pending, InReview, Resolved, Rejected
	Reason     string `gorm:"type:text" json:"reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Report) TableName() string {
	return "reports"
}

// IsValidStatus проверяет, входит ли статус в допустимый набор
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusInReview, StatusResolved, StatusRejected:
		return true
	default:
		return false
	}
}
