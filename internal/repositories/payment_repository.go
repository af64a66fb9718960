package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"hospital-admin-server/internal/models"
)

// ErrPaymentNotFound is returned when a payment id resolves to no row.
var ErrPaymentNotFound = errors.New("payment not found")

// IPaymentRepository persists payment sub-records.
type IPaymentRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Payment, error)
	Create(ctx context.Context, payment *models.Payment) error
	MarkRefunded(ctx context.Context, id uint, refundedAt time.Time) error
}

// PaymentRepository implements IPaymentRepository on gorm.
type PaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new PaymentRepository.
func NewPaymentRepository(db *gorm.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// GetByID loads one payment row.
func (r *PaymentRepository) GetByID(ctx context.Context, id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.WithContext(ctx).First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return &payment, nil
}

// Create inserts a payment row (cash settlements recorded at the desk).
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

// MarkRefunded flips a payment to REFUNDED with its refund timestamp.
func (r *PaymentRepository) MarkRefunded(ctx context.Context, id uint, refundedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.Payment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":      models.PaymentRefunded,
			"refunded_at": refundedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}
