package handlers

import (
	"github.com/gin-gonic/gin"

	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"
)

// AppointmentHandler handles token issue and the compound check-in.
type AppointmentHandler struct {
	Service *services.OrderService
}

// NewAppointmentHandler creates a new AppointmentHandler.
func NewAppointmentHandler(service *services.OrderService) *AppointmentHandler {
	return &AppointmentHandler{Service: service}
}

// GenerateTokenRequest represents the request body for token issue.
type GenerateTokenRequest struct {
	AppointmentID uint `json:"appointmentId" binding:"required"`
}

// GenerateToken handles POST /appointments/generate-token. Token
// assignment can change the stored status; the response carries both
// and the stored values are authoritative.
func (h *AppointmentHandler) GenerateToken(c *gin.Context) {
	var req GenerateTokenRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.GenerateToken(c.Request.Context(), req.AppointmentID)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Token generated successfully", gin.H{
		"tokenNumber": appt.TokenNumber,
		"status":      appt.Status,
	})
}

// CheckIn handles POST /appointments/:id/check-in: confirm the
// appointment, then issue its queue token, strictly in that order.
func (h *AppointmentHandler) CheckIn(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	appt, err := h.Service.CheckIn(c.Request.Context(), id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Patient checked in successfully", appt)
}
