package entity

// Category представляет тип происшествия (буллинг, кибербуллинг и т.д.)
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:100;not null" json:"type_name"`
	// Code — короткий префикс, используемый при генерации номера дела (BU, SB, ...).
	Code string `gorm:"size:2;not null" json:"code"`
}

// TableName определяет имя таблицы для GORM
func (Category) TableName() string {
	return "categories"
}

// Subcategory уточняет тип происшествия внутри категории
type Subcategory struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	CategoryID uint   `gorm:"not null;index" json:"category_id"`
	Name       string `gorm:"size:100;not null" json:"sub_type_name"`
}

// TableName определяет имя таблицы для GORM
func (Subcategory) TableName() string {
	return "subcategories"
}
