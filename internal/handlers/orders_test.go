package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/repositories"
	"hospital-admin-server/internal/services"
)

type stubAppointmentRepo struct {
	appointments map[uint]*models.Appointment
	lastFilter   repositories.ListFilter
	listed       []models.Appointment
	total        int64
}

func (s *stubAppointmentRepo) GetByID(_ context.Context, id uint) (*models.Appointment, error) {
	appt, ok := s.appointments[id]
	if !ok {
		return nil, repositories.ErrAppointmentNotFound
	}
	copied := *appt
	return &copied, nil
}

func (s *stubAppointmentRepo) List(_ context.Context, filter repositories.ListFilter) ([]models.Appointment, int64, error) {
	s.lastFilter = filter
	return s.listed, s.total, nil
}

func (s *stubAppointmentRepo) ListDoctorQueue(context.Context, uint, time.Time) ([]models.Appointment, error) {
	return nil, nil
}

func (s *stubAppointmentRepo) SetStatus(_ context.Context, id uint, st models.AppointmentStatus) error {
	appt, ok := s.appointments[id]
	if !ok {
		return repositories.ErrAppointmentNotFound
	}
	appt.Status = st
	return nil
}

func (s *stubAppointmentRepo) AssignToken(_ context.Context, id uint) (int, models.AppointmentStatus, error) {
	appt, ok := s.appointments[id]
	if !ok {
		return 0, "", repositories.ErrAppointmentNotFound
	}
	token := 1
	appt.TokenNumber = &token
	appt.Status = models.StatusCheckedIn
	return token, appt.Status, nil
}

func (s *stubAppointmentRepo) SetPayment(_ context.Context, id uint, st models.PaymentStatus, amount *float64) error {
	appt, ok := s.appointments[id]
	if !ok {
		return repositories.ErrAppointmentNotFound
	}
	appt.PaymentStatus = st
	appt.PaymentAmount = amount
	return nil
}

type stubPaymentRepo struct{}

func (stubPaymentRepo) GetByID(context.Context, uint) (*models.Payment, error) {
	return nil, repositories.ErrPaymentNotFound
}
func (stubPaymentRepo) Create(context.Context, *models.Payment) error      { return nil }
func (stubPaymentRepo) MarkRefunded(context.Context, uint, time.Time) error { return nil }

func newOrdersRouter(repo *stubAppointmentRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)

	service := services.NewOrderService(repo, stubPaymentRepo{}, nil, services.NewInMemoryNotifier())
	handler := NewOrderHandler(service)

	router := gin.New()
	router.GET("/orders", handler.ListOrders)
	router.GET("/orders/:id", handler.GetOrder)
	router.PATCH("/orders/:id/update-status", handler.UpdateOrderStatus)
	return router
}

func doRequest(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestListOrdersEnvelope(t *testing.T) {
	repo := &stubAppointmentRepo{
		listed: []models.Appointment{
			{BaseModel: models.BaseModel{ID: 1}, Status: models.StatusPending},
			{BaseModel: models.BaseModel{ID: 2}, Status: models.StatusConfirmed},
		},
		total: 27,
	}
	router := newOrdersRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/orders?type=appointments&page=3&limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Status  int               `json:"status"`
		Message string            `json:"message"`
		Data    []json.RawMessage `json:"data"`
		Total   int64             `json:"total"`
		Page    int               `json:"page"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Len(t, body.Data, 2)
	assert.Equal(t, int64(27), body.Total)
	assert.Equal(t, 3, body.Page)

	assert.Equal(t, 3, repo.lastFilter.Page)
	assert.Equal(t, 2, repo.lastFilter.Limit)
}

func TestListOrdersNormalizesStatusFilter(t *testing.T) {
	repo := &stubAppointmentRepo{}
	router := newOrdersRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/orders?status=IN_QUEUE", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusCheckedIn, repo.lastFilter.Status)

	rec = doRequest(t, router, http.MethodGet, "/orders?status=NOT_A_STATUS", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOrdersRejectsOtherTypes(t *testing.T) {
	router := newOrdersRouter(&stubAppointmentRepo{})

	rec := doRequest(t, router, http.MethodGet, "/orders?type=lab-reports", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetOrderDetail(t *testing.T) {
	fee := 350.0
	repo := &stubAppointmentRepo{appointments: map[uint]*models.Appointment{
		5: {
			BaseModel:     models.BaseModel{ID: 5},
			Status:        models.StatusCheckedIn,
			PaymentStatus: models.PaymentSuccess,
			PaymentAmount: &fee,
		},
	}}
	router := newOrdersRouter(repo)

	rec := doRequest(t, router, http.MethodGet, "/orders/5", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			DisplayStatus   string   `json:"displayStatus"`
			AllowedStatuses []string `json:"allowedStatuses"`
			PaymentStatus   string   `json:"effectivePaymentStatus"`
			PaymentAmount   *float64 `json:"effectiveAmount"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "IN_QUEUE", body.Data.DisplayStatus)
	assert.Equal(t, []string{"IN_PROGRESS", "COMPLETED", "CANCELLED", "SKIPPED"}, body.Data.AllowedStatuses)
	assert.Equal(t, "SUCCESS", body.Data.PaymentStatus)
	require.NotNil(t, body.Data.PaymentAmount)
	assert.Equal(t, 350.0, *body.Data.PaymentAmount)
}

func TestGetOrderNotFound(t *testing.T) {
	router := newOrdersRouter(&stubAppointmentRepo{})

	rec := doRequest(t, router, http.MethodGet, "/orders/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateOrderStatus(t *testing.T) {
	repo := &stubAppointmentRepo{appointments: map[uint]*models.Appointment{
		8: {BaseModel: models.BaseModel{ID: 8}, Status: models.StatusPending},
	}}
	router := newOrdersRouter(repo)

	rec := doRequest(t, router, http.MethodPatch, "/orders/8/update-status", `{"status":"CONFIRMED"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.StatusConfirmed, repo.appointments[8].Status)

	// Backward transitions come back as conflicts and leave the row alone.
	rec = doRequest(t, router, http.MethodPatch, "/orders/8/update-status", `{"status":"PENDING"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, models.StatusConfirmed, repo.appointments[8].Status)

	rec = doRequest(t, router, http.MethodPatch, "/orders/8/update-status", `{"status":"TELEPORTED"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
