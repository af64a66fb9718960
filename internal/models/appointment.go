package models

import (
	"time"
)

// AppointmentStatus is the raw backend status of an appointment.
// CHECKED_IN and NO_SHOW are shown to users under the IN_QUEUE and
// SKIPPED aliases; the stored value is always the raw one.
type AppointmentStatus string

const (
	StatusPending    AppointmentStatus = "PENDING"
	StatusConfirmed  AppointmentStatus = "CONFIRMED"
	StatusCheckedIn  AppointmentStatus = "CHECKED_IN"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

// PaymentStatus covers both an appointment's own payment field and the
// status of individual Payment records.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentInitiated PaymentStatus = "INITIATED"
	PaymentSuccess   PaymentStatus = "SUCCESS"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
	PaymentPartial   PaymentStatus = "PARTIAL"
	PaymentCancelled PaymentStatus = "CANCELLED"

	// PaymentPaid is a legacy synonym of SUCCESS still emitted by the
	// booking flow; it is normalized to SUCCESS on read.
	PaymentPaid PaymentStatus = "PAID"
)

// PaymentOption is how the patient chose to pay at booking time.
type PaymentOption string

const (
	PayAtHospital PaymentOption = "PAY_AT_HOSPITAL"
	PayOnline     PaymentOption = "PAY_ONLINE"
)

// BillingInfo carries the legacy nested billing fields some booking
// records still have. Only consulted as a reconciliation fallback.
type BillingInfo struct {
	Status PaymentStatus `gorm:"size:20" json:"status,omitempty"`
	Amount *float64      `gorm:"type:decimal(10,2)" json:"amount,omitempty"`
}

// Appointment is the order record mutated by the admin workflow.
// It is created by the booking flow and never deleted here.
type Appointment struct {
	BaseModel
	Date          time.Time         `gorm:"index" json:"date"`
	TimeSlot      string            `gorm:"size:50" json:"timeSlot"`
	DoctorID      uint              `gorm:"index" json:"doctorId"`
	DepartmentID  uint              `gorm:"index" json:"departmentId"`
	PatientID     uint              `gorm:"index" json:"patientId"`
	QueuePosition *int              `json:"queuePosition,omitempty"`
	TokenNumber   *int              `json:"tokenNumber,omitempty"`
	Status        AppointmentStatus `gorm:"size:20;default:'PENDING';index" json:"status"`

	PaymentStatus PaymentStatus `gorm:"size:20" json:"paymentStatus,omitempty"`
	PaymentAmount *float64      `gorm:"type:decimal(10,2)" json:"paymentAmount,omitempty"`
	PaymentOption PaymentOption `gorm:"size:30" json:"paymentOption,omitempty"`
	Billing       BillingInfo   `gorm:"embedded;embeddedPrefix:billing_" json:"billing,omitempty"`

	// Relations
	Payments   []Payment  `gorm:"foreignKey:AppointmentID" json:"payments,omitempty"`
	Patient    *Patient   `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Doctor     *Doctor    `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Department Department `gorm:"foreignKey:DepartmentID" json:"-"`
}

// DateOnly strips the time-of-day portion of the appointment date.
// Queue events are scoped by (doctorId, dateOnly).
func (a *Appointment) DateOnly() string {
	return a.Date.Format("2006-01-02")
}
