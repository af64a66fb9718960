package billing

import (
	"hospital-admin-server/internal/models"
)

// Reconciliation of an appointment's payment view. The appointment's
// own paymentStatus field can be stale relative to its Payment rows,
// so a single effective status and amount are always derived instead
// of trusting any one field.

// EffectiveStatus derives the one payment status shown for an
// appointment. Precedence, highest first: any REFUNDED payment row,
// the appointment's own field (with the legacy PAID value normalized
// to SUCCESS), the first payment row, the nested billing field, and
// finally PENDING.
func EffectiveStatus(a *models.Appointment) models.PaymentStatus {
	for _, p := range a.Payments {
		if p.Status == models.PaymentRefunded {
			return models.PaymentRefunded
		}
	}

	if a.PaymentStatus == models.PaymentPaid {
		return models.PaymentSuccess
	}
	if a.PaymentStatus != "" {
		return a.PaymentStatus
	}
	if len(a.Payments) > 0 && a.Payments[0].Status != "" {
		return a.Payments[0].Status
	}
	if a.Billing.Status != "" {
		return a.Billing.Status
	}
	return models.PaymentPending
}

// EffectiveAmount derives the amount an appointment settles at.
// Precedence: the appointment's paymentAmount, the first payment row's
// amount, the nested billing amount, the doctor's consultation fee.
// ok is false when none of the sources carry a value.
func EffectiveAmount(a *models.Appointment) (float64, bool) {
	if a.PaymentAmount != nil {
		return *a.PaymentAmount, true
	}
	if len(a.Payments) > 0 && a.Payments[0].Amount != nil {
		return *a.Payments[0].Amount, true
	}
	if a.Billing.Amount != nil {
		return *a.Billing.Amount, true
	}
	if a.Doctor != nil && a.Doctor.ConsultationFee != nil {
		return *a.Doctor.ConsultationFee, true
	}
	return 0, false
}

// IsRefundEligible reports whether a payment can be refunded through
// the gateway. The status and refundedAt checks are both kept: a
// partial update could set one without the other.
func IsRefundEligible(p *models.Payment) bool {
	return p.Status == models.PaymentSuccess &&
		p.Status != models.PaymentRefunded &&
		p.IsOnline &&
		p.GatewayPaymentID != nil &&
		p.RefundedAt == nil
}

// FindRefundEligible returns the first refund-eligible payment of an
// appointment, or nil when there is none.
func FindRefundEligible(a *models.Appointment) *models.Payment {
	for i := range a.Payments {
		if IsRefundEligible(&a.Payments[i]) {
			return &a.Payments[i]
		}
	}
	return nil
}
