package models

// Patient holds the contact details shown on an order.
type Patient struct {
	BaseModel
	Name  string `gorm:"size:100" json:"name"`
	Phone string `gorm:"size:20;index" json:"phone"`
}
