package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"hospital-admin-server/internal/repositories"
	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/status"
	"hospital-admin-server/internal/utils"
)

// OrderHandler handles the appointment order list and status workflow.
type OrderHandler struct {
	Service *services.OrderService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(service *services.OrderService) *OrderHandler {
	return &OrderHandler{Service: service}
}

// parseListFilter reads the orders list query parameters. Status
// filters may arrive as display aliases and are normalized to raw
// values before they reach the store.
func parseListFilter(c *gin.Context) (repositories.ListFilter, bool) {
	filter := repositories.ListFilter{
		Page:  1,
		Limit: 10,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "10")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	filter.Search = c.Query("search")

	if raw := c.Query("status"); raw != "" {
		normalized, ok := status.Normalize(raw)
		if !ok {
			utils.BadRequest(c, "Unknown status filter: "+raw)
			return filter, false
		}
		filter.Status = normalized
	}
	if doctorID, err := strconv.ParseUint(c.Query("doctorId"), 10, 64); err == nil {
		filter.DoctorID = uint(doctorID)
	}
	if departmentID, err := strconv.ParseUint(c.Query("departmentId"), 10, 64); err == nil {
		filter.DepartmentID = uint(departmentID)
	}
	if from := c.Query("from"); from != "" {
		t, err := time.ParseInLocation("2006-01-02", from, time.Local)
		if err != nil {
			utils.BadRequest(c, "Invalid 'from' date, expected YYYY-MM-DD")
			return filter, false
		}
		filter.From = &t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.ParseInLocation("2006-01-02", to, time.Local)
		if err != nil {
			utils.BadRequest(c, "Invalid 'to' date, expected YYYY-MM-DD")
			return filter, false
		}
		filter.To = &t
	}
	filter.IncludeFuture = c.Query("includeFuture") == "true"

	return filter, true
}

// ListOrders handles GET /orders?type=appointments.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	if orderType := c.DefaultQuery("type", "appointments"); orderType != "appointments" {
		utils.BadRequest(c, "Unsupported order type: "+orderType)
		return
	}

	filter, ok := parseListFilter(c)
	if !ok {
		return
	}

	orders, total, err := h.Service.List(c.Request.Context(), filter)
	if err != nil {
		utils.InternalServerError(c, "Failed to fetch orders: "+err.Error())
		return
	}

	utils.Paginated(c, "Orders fetched successfully", orders, total, filter.Page)
}

// GetOrder handles GET /orders/:id.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	detail, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Order fetched successfully", detail)
}

// UpdateOrderStatusRequest represents the request body for a status
// transition. The status may be a raw value or a display alias.
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles POST and PATCH /orders/:id/update-status.
// Both verbs carry the same semantics; the PATCH form is what the
// check-in flow's confirm step uses.
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateOrderStatusRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	appt, err := h.Service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		respondWorkflowError(c, err)
		return
	}

	utils.Success(c, "Order status updated successfully", appt)
}

// parseID reads an integer id path parameter.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		utils.BadRequest(c, "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}

// respondWorkflowError maps workflow errors onto the response
// envelope. No failure here is fatal; the caller can retry or close
// the detail view.
func respondWorkflowError(c *gin.Context, err error) {
	var declined *services.RefundDeclinedError
	var partial *services.PartialCheckInError

	switch {
	case errors.Is(err, repositories.ErrAppointmentNotFound),
		errors.Is(err, repositories.ErrPaymentNotFound):
		utils.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUnknownStatus),
		errors.Is(err, services.ErrNotPayAtHospital),
		errors.Is(err, services.ErrAlreadyPaid),
		errors.Is(err, services.ErrAmountUnknown),
		errors.Is(err, services.ErrRefundNotAllowed):
		utils.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrNoEligiblePayment):
		utils.BadRequest(c, "No eligible payment found")
	case errors.Is(err, services.ErrIllegalTransition),
		errors.Is(err, services.ErrActionInFlight):
		utils.Error(c, http.StatusConflict, err.Error())
	case errors.As(err, &declined):
		// Logical gateway failure: HTTP exchange succeeded, refund did
		// not. Surfaced verbatim, nothing was mutated.
		utils.BadRequest(c, declined.Error())
	case errors.As(err, &partial):
		c.JSON(http.StatusBadGateway, utils.ResponseData{
			Status:  http.StatusBadGateway,
			Message: "Check-in partially completed",
			Data:    partial.Appointment,
			Error:   partial.Error(),
		})
	default:
		utils.InternalServerError(c, err.Error())
	}
}
