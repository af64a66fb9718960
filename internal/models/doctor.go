package models

// Department groups doctors; appointments are filterable by it.
type Department struct {
	BaseModel
	Name string `gorm:"size:100;uniqueIndex" json:"name"`
}

// Doctor represents a consulting doctor.
type Doctor struct {
	BaseModel
	Name            string   `gorm:"size:100" json:"name"`
	Specialization  string   `gorm:"size:100" json:"specialization"`
	ConsultationFee *float64 `gorm:"type:decimal(10,2)" json:"consultationFee,omitempty"`
	DepartmentID    uint     `gorm:"index" json:"departmentId"`

	Department Department `gorm:"foreignKey:DepartmentID" json:"-"`
}
