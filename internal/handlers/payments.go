package handlers

import (
	"github.com/gin-gonic/gin"

	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"
)

// PaymentHandler handles desk settlement and gateway refunds.
type PaymentHandler struct {
	Service *services.OrderService
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.OrderService) *PaymentHandler {
	return &PaymentHandler{Service: service}
}

// MarkPaidRequest represents the request body for settling a
// pay-at-hospital appointment in cash.
type MarkPaidRequest struct {
	OrderType string   `json:"orderType" binding:"required,oneof=APPOINTMENT"`
	OrderID   uint     `json:"orderId" binding:"required"`
	Amount    *float64 `json:"amount"`
	Method    string   `json:"method" binding:"required,oneof=CASH"`
	Status    string   `json:"status" binding:"required,oneof=SUCCESS"`
}

// MarkPaid handles POST /payments/mark-paid.
func (h *PaymentHandler) MarkPaid(c *gin.Context) {
	var req MarkPaidRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.MarkPaid(c.Request.Context(), req.OrderID, req.Amount)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Payment recorded successfully", appt)
}

// RefundRequest represents the request body for a gateway refund.
type RefundRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Refund handles POST /ccavenue/refund/:paymentId.
func (h *PaymentHandler) Refund(c *gin.Context) {
	paymentID, ok := parseID(c, "paymentId")
	if !ok {
		return
	}

	var req RefundRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.Refund(c.Request.Context(), paymentID, req.Reason)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Payment refunded successfully", appt)
}
