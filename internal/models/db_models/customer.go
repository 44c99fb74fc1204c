package db_models

type Customer struct {
	BaseModel
	Document string `gorm:"uniqueIndex;size:20;not null"` // digits only
	Name     string
	Email    string
	Phone    string // digits only
}
