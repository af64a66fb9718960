package models

import "time"

// Payment is a sub-record of an Appointment. The backend is system of
// record; the appointment's own paymentStatus field can lag behind
// these rows, which is why display status is always derived.
type Payment struct {
	BaseModel
	AppointmentID    uint          `gorm:"index;not null" json:"appointmentId"`
	Status           PaymentStatus `gorm:"size:20" json:"status"`
	Amount           *float64      `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
	Method           string        `gorm:"size:30" json:"method,omitempty"`
	IsOnline         bool          `gorm:"default:false" json:"isOnline"`
	GatewayPaymentID *string       `gorm:"size:100" json:"gatewayPaymentId,omitempty"`
	RefundedAt       *time.Time    `json:"refundedAt,omitempty"`
}
