package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hospital-admin-server/internal/models"
)

// ErrAppointmentNotFound is returned when an id resolves to no row.
var ErrAppointmentNotFound = errors.New("appointment not found")

// ListFilter carries the query parameters of the orders list.
type ListFilter struct {
	Page          int
	Limit         int
	Search        string
	Status        models.AppointmentStatus
	DoctorID      uint
	DepartmentID  uint
	From          *time.Time
	To            *time.Time
	IncludeFuture bool
}

// IAppointmentRepository is the store the workflow service runs on.
type IAppointmentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Appointment, error)
	List(ctx context.Context, filter ListFilter) ([]models.Appointment, int64, error)
	ListDoctorQueue(ctx context.Context, doctorID uint, day time.Time) ([]models.Appointment, error)
	SetStatus(ctx context.Context, id uint, s models.AppointmentStatus) error
	AssignToken(ctx context.Context, id uint) (tokenNumber int, status models.AppointmentStatus, err error)
	SetPayment(ctx context.Context, id uint, s models.PaymentStatus, amount *float64) error
}

// AppointmentRepository implements IAppointmentRepository on gorm.
type AppointmentRepository struct {
	db *gorm.DB
}

// NewAppointmentRepository creates a new AppointmentRepository.
func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

// GetByID loads an appointment with its payments and relations.
func (r *AppointmentRepository) GetByID(ctx context.Context, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Payments").
		Preload("Patient").
		Preload("Doctor").
		First(&appt, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return &appt, nil
}

// List returns one page of appointments matching the filter plus the
// unpaginated total.
func (r *AppointmentRepository) List(ctx context.Context, filter ListFilter) ([]models.Appointment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Appointment{})

	if filter.Status != "" {
		query = query.Where("appointments.status = ?", filter.Status)
	}
	if filter.DoctorID != 0 {
		query = query.Where("appointments.doctor_id = ?", filter.DoctorID)
	}
	if filter.DepartmentID != 0 {
		query = query.Where("appointments.department_id = ?", filter.DepartmentID)
	}
	if filter.From != nil {
		query = query.Where("appointments.date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("appointments.date < ?", filter.To.AddDate(0, 0, 1))
	}
	if !filter.IncludeFuture {
		startOfTomorrow := time.Now().Truncate(24 * time.Hour).AddDate(0, 0, 1)
		query = query.Where("appointments.date < ?", startOfTomorrow)
	}
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.
			Joins("LEFT JOIN patients ON patients.id = appointments.patient_id").
			Where("patients.name LIKE ? OR patients.phone LIKE ? OR appointments.token_number = ?",
				like, like, filter.Search)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = 10
	}

	var appointments []models.Appointment
	err := query.
		Preload("Payments").
		Preload("Patient").
		Preload("Doctor").
		Order("appointments.date DESC, appointments.id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}

	return appointments, total, nil
}

// ListDoctorQueue returns the tokened appointments of one doctor's
// day, in queue order. This is what the live queue board renders.
func (r *AppointmentRepository) ListDoctorQueue(ctx context.Context, doctorID uint, day time.Time) ([]models.Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	var appointments []models.Appointment
	err := r.db.WithContext(ctx).
		Preload("Patient").
		Where("doctor_id = ? AND date >= ? AND date < ? AND token_number IS NOT NULL", doctorID, start, end).
		Where("status IN ?", []models.AppointmentStatus{models.StatusCheckedIn, models.StatusInProgress}).
		Order("queue_position ASC, token_number ASC").
		Find(&appointments).Error
	return appointments, err
}

// SetStatus persists a status change.
func (r *AppointmentRepository) SetStatus(ctx context.Context, id uint, s models.AppointmentStatus) error {
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("status", s)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

// AssignToken allocates the next token number for the appointment's
// (doctor, day) sequence inside one transaction. Issuing a token moves
// a CONFIRMED appointment into the queue; the stored status is
// returned as authoritative.
func (r *AppointmentRepository) AssignToken(ctx context.Context, id uint) (int, models.AppointmentStatus, error) {
	var tokenNumber int
	var finalStatus models.AppointmentStatus

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var appt models.Appointment
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&appt, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAppointmentNotFound
			}
			return err
		}

		if appt.TokenNumber != nil {
			// Token already issued; idempotent re-issue returns it.
			tokenNumber = *appt.TokenNumber
			finalStatus = appt.Status
			return nil
		}

		start := time.Date(appt.Date.Year(), appt.Date.Month(), appt.Date.Day(), 0, 0, 0, 0, appt.Date.Location())
		end := start.AddDate(0, 0, 1)

		var maxToken int
		err := tx.Model(&models.Appointment{}).
			Where("doctor_id = ? AND date >= ? AND date < ?", appt.DoctorID, start, end).
			Select("COALESCE(MAX(token_number), 0)").
			Scan(&maxToken).Error
		if err != nil {
			return err
		}

		tokenNumber = maxToken + 1
		finalStatus = appt.Status
		if appt.Status == models.StatusConfirmed {
			finalStatus = models.StatusCheckedIn
		}

		return tx.Model(&appt).Updates(map[string]interface{}{
			"token_number":   tokenNumber,
			"queue_position": tokenNumber,
			"status":         finalStatus,
		}).Error
	})
	if err != nil {
		return 0, "", err
	}
	return tokenNumber, finalStatus, nil
}

// SetPayment persists the appointment-level payment fields.
func (r *AppointmentRepository) SetPayment(ctx context.Context, id uint, s models.PaymentStatus, amount *float64) error {
	updates := map[string]interface{}{"payment_status": s}
	if amount != nil {
		updates["payment_amount"] = *amount
	}
	result := r.db.WithContext(ctx).
		Model(&models.Appointment{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}
