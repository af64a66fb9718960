package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"hospital-admin-server/internal/billing"
	"hospital-admin-server/internal/logging"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/repositories"
	"hospital-admin-server/internal/status"
)

// OrderServiceError is a typed sentinel for workflow failures the
// handler maps to user-visible messages.
type OrderServiceError string

func (e OrderServiceError) Error() string { return string(e) }

const (
	ErrUnknownStatus     OrderServiceError = "unknown appointment status"
	ErrIllegalTransition OrderServiceError = "status transition not allowed"
	ErrActionInFlight    OrderServiceError = "another action is already in progress for this appointment"
	ErrNotPayAtHospital  OrderServiceError = "appointment is not payable at the hospital desk"
	ErrAlreadyPaid       OrderServiceError = "appointment is already paid"
	ErrAmountUnknown     OrderServiceError = "payable amount could not be determined"
	ErrNoEligiblePayment OrderServiceError = "no eligible payment found"
	ErrRefundNotAllowed  OrderServiceError = "refund is only available for cancelled appointments"
)

// RefundDeclinedError is a logical gateway failure: the request went
// through but the gateway said no. Never treated as success and never
// mutates local state.
type RefundDeclinedError struct {
	Code    string
	Message string
}

func (e *RefundDeclinedError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "refund declined by gateway"
}

// PartialCheckInError reports a check-in whose confirm step succeeded
// but whose token step failed. The confirmed status stands; no
// compensating rollback is synthesized.
type PartialCheckInError struct {
	Appointment *models.Appointment
	Err         error
}

func (e *PartialCheckInError) Error() string {
	return fmt.Sprintf("appointment confirmed but token generation failed: %v", e.Err)
}

func (e *PartialCheckInError) Unwrap() error { return e.Err }

// OrderDetail is an appointment together with its derived view: the
// legal next statuses and the reconciled payment status/amount.
type OrderDetail struct {
	Appointment     *models.Appointment  `json:"appointment"`
	DisplayStatus   string               `json:"displayStatus"`
	AllowedStatuses []string             `json:"allowedStatuses"`
	PaymentStatus   models.PaymentStatus `json:"effectivePaymentStatus"`
	PaymentAmount   *float64             `json:"effectiveAmount,omitempty"`
}

// OrderService drives the appointment workflow: status transitions,
// token issue, check-in, cash settlement and refunds. Every successful
// mutation ends the same way: the record is reloaded from the store as
// the authoritative copy and a queue-refresh event is emitted.
type OrderService struct {
	appointments repositories.IAppointmentRepository
	payments     repositories.IPaymentRepository
	gateway      RefundGateway
	notifier     QueueNotifier

	mu       sync.Mutex
	inFlight map[uint]struct{}
}

// NewOrderService creates a new OrderService.
func NewOrderService(
	appointments repositories.IAppointmentRepository,
	payments repositories.IPaymentRepository,
	gateway RefundGateway,
	notifier QueueNotifier,
) *OrderService {
	return &OrderService{
		appointments: appointments,
		payments:     payments,
		gateway:      gateway,
		notifier:     notifier,
		inFlight:     make(map[uint]struct{}),
	}
}

// acquire takes the per-appointment mutation guard. Independent
// actions on the same record are rejected rather than interleaved.
func (s *OrderService) acquire(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[id]; busy {
		return ErrActionInFlight
	}
	s.inFlight[id] = struct{}{}
	return nil
}

func (s *OrderService) release(id uint) {
	s.mu.Lock()
	delete(s.inFlight, id)
	s.mu.Unlock()
}

// finish reloads the mutated record and emits the queue-refresh event
// scoped to (doctorId, dateOnly). Emit failure is logged, not surfaced.
func (s *OrderService) finish(ctx context.Context, id uint) (*models.Appointment, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	event := QueueEvent{DoctorID: appt.DoctorID, Date: appt.DateOnly()}
	if err := s.notifier.Emit(ctx, EventRefreshQueue, event); err != nil {
		logging.Log.Warn("queue refresh emit failed",
			zap.Uint("appointmentId", id),
			zap.Uint("doctorId", event.DoctorID),
			zap.String("date", event.Date),
			zap.Error(err))
	}

	return appt, nil
}

// Get returns the detail view of one appointment.
func (s *OrderService) Get(ctx context.Context, id uint) (*OrderDetail, error) {
	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return detailOf(appt), nil
}

// List returns one page of appointments with the unpaginated total.
func (s *OrderService) List(ctx context.Context, filter repositories.ListFilter) ([]OrderDetail, int64, error) {
	appointments, total, err := s.appointments.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	details := make([]OrderDetail, len(appointments))
	for i := range appointments {
		details[i] = *detailOf(&appointments[i])
	}
	return details, total, nil
}

func detailOf(appt *models.Appointment) *OrderDetail {
	detail := &OrderDetail{
		Appointment:     appt,
		DisplayStatus:   status.Display(appt.Status),
		AllowedStatuses: status.AllowedNextDisplay(appt.Status),
		PaymentStatus:   billing.EffectiveStatus(appt),
	}
	if amount, ok := billing.EffectiveAmount(appt); ok {
		detail.PaymentAmount = &amount
	}
	return detail
}

// UpdateStatus applies one transition of the status graph. The target
// may arrive as a raw value or a display alias; illegal and unknown
// targets are rejected before any write.
func (s *OrderService) UpdateStatus(ctx context.Context, id uint, target string) (*models.Appointment, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	return s.updateStatusLocked(ctx, id, target)
}

func (s *OrderService) updateStatusLocked(ctx context.Context, id uint, target string) (*models.Appointment, error) {
	raw, ok := status.Normalize(target)
	if !ok {
		return nil, ErrUnknownStatus
	}

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !status.CanTransition(appt.Status, raw) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, status.Display(appt.Status), status.Display(raw))
	}

	if err := s.appointments.SetStatus(ctx, id, raw); err != nil {
		return nil, err
	}

	logging.Log.Info("appointment status updated",
		zap.Uint("appointmentId", id),
		zap.String("from", string(appt.Status)),
		zap.String("to", string(raw)))

	return s.finish(ctx, id)
}

// GenerateToken assigns the next queue token for the appointment's
// doctor and day. The stored status after assignment is authoritative;
// issuing a token moves a CONFIRMED appointment into the queue.
func (s *OrderService) GenerateToken(ctx context.Context, id uint) (*models.Appointment, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	return s.generateTokenLocked(ctx, id)
}

func (s *OrderService) generateTokenLocked(ctx context.Context, id uint) (*models.Appointment, error) {
	tokenNumber, newStatus, err := s.appointments.AssignToken(ctx, id)
	if err != nil {
		return nil, err
	}

	logging.Log.Info("queue token issued",
		zap.Uint("appointmentId", id),
		zap.Int("tokenNumber", tokenNumber),
		zap.String("status", string(newStatus)))

	return s.finish(ctx, id)
}

// CheckIn performs the compound desk action: confirm, then issue a
// token, strictly in that order. A confirm failure stops the sequence
// before any token call. A token failure after a successful confirm
// leaves the confirmed status standing and is reported as a
// PartialCheckInError; rolling back would invent semantics the
// booking backend does not define.
func (s *OrderService) CheckIn(ctx context.Context, id uint) (*models.Appointment, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.Status != models.StatusConfirmed {
		confirmed, err := s.updateStatusLocked(ctx, id, string(models.StatusConfirmed))
		if err != nil {
			return nil, err
		}
		appt = confirmed
	}

	tokened, err := s.generateTokenLocked(ctx, id)
	if err != nil {
		return nil, &PartialCheckInError{Appointment: appt, Err: err}
	}
	return tokened, nil
}

// MarkPaid settles a pay-at-hospital appointment in cash at the
// reconciled effective amount. Only callable while the effective
// payment status is not yet SUCCESS.
func (s *OrderService) MarkPaid(ctx context.Context, id uint, amount *float64) (*models.Appointment, error) {
	if err := s.acquire(id); err != nil {
		return nil, err
	}
	defer s.release(id)

	appt, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if appt.PaymentOption != models.PayAtHospital {
		return nil, ErrNotPayAtHospital
	}
	if billing.EffectiveStatus(appt) == models.PaymentSuccess {
		return nil, ErrAlreadyPaid
	}

	settleAmount := amount
	if settleAmount == nil {
		effective, ok := billing.EffectiveAmount(appt)
		if !ok {
			return nil, ErrAmountUnknown
		}
		settleAmount = &effective
	}

	payment := &models.Payment{
		AppointmentID: id,
		Status:        models.PaymentSuccess,
		Amount:        settleAmount,
		Method:        "CASH",
		IsOnline:      false,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, err
	}
	if err := s.appointments.SetPayment(ctx, id, models.PaymentSuccess, settleAmount); err != nil {
		return nil, err
	}

	logging.Log.Info("appointment settled in cash",
		zap.Uint("appointmentId", id),
		zap.Float64("amount", *settleAmount))

	return s.finish(ctx, id)
}

// Refund refunds one online payment through the gateway. Only offered
// for cancelled appointments, and only when the named payment passes
// the refund-eligibility predicate; both checks happen before any
// gateway call. A gateway decline surfaces as RefundDeclinedError and
// leaves all records untouched.
func (s *OrderService) Refund(ctx context.Context, paymentID uint, reason string) (*models.Appointment, error) {
	payment, err := s.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}

	if err := s.acquire(payment.AppointmentID); err != nil {
		return nil, err
	}
	defer s.release(payment.AppointmentID)

	appt, err := s.appointments.GetByID(ctx, payment.AppointmentID)
	if err != nil {
		return nil, err
	}

	if appt.Status != models.StatusCancelled {
		return nil, ErrRefundNotAllowed
	}
	if !billing.IsRefundEligible(payment) {
		return nil, ErrNoEligiblePayment
	}

	amount := payment.Amount
	if amount == nil {
		effective, ok := billing.EffectiveAmount(appt)
		if !ok {
			return nil, ErrAmountUnknown
		}
		amount = &effective
	}

	result, err := s.gateway.Refund(ctx, *payment.GatewayPaymentID, *amount, reason)
	if err != nil {
		return nil, fmt.Errorf("refund gateway: %w", err)
	}
	if !result.Success {
		return nil, &RefundDeclinedError{Code: result.Error, Message: result.Message}
	}

	refundedAt := time.Now()
	if result.RefundedAt != nil {
		refundedAt = *result.RefundedAt
	}

	if err := s.payments.MarkRefunded(ctx, paymentID, refundedAt); err != nil {
		return nil, err
	}
	if err := s.appointments.SetPayment(ctx, payment.AppointmentID, models.PaymentRefunded, nil); err != nil {
		return nil, err
	}

	logging.Log.Info("payment refunded",
		zap.Uint("paymentId", paymentID),
		zap.Uint("appointmentId", payment.AppointmentID),
		zap.Float64("amount", *amount))

	return s.finish(ctx, payment.AppointmentID)
}
