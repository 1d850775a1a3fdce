package entity

// School представляет школу из государственного реестра
type School struct {
	EmisNo   string `gorm:"primaryKey;size:20" json:"id"`
	Name     string `gorm:"size:255;not null;index" json:"school_name"`
	Province string `gorm:"size:100" json:"province"`
}

// TableName определяет имя таблицы для GORM
func (School) TableName() string {
	return "schools"
}
