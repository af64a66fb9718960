package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"hospital-admin-server/internal/services"
	"hospital-admin-server/internal/utils"
)

// QueueHandler serves the live queue board snapshots.
type QueueHandler struct {
	Board *services.QueueBoard
}

// NewQueueHandler creates a new QueueHandler.
func NewQueueHandler(board *services.QueueBoard) *QueueHandler {
	return &QueueHandler{Board: board}
}

// GetDoctorQueue handles GET /queues/:doctorId?date=YYYY-MM-DD.
// Defaults to today when no date is given.
func (h *QueueHandler) GetDoctorQueue(c *gin.Context) {
	doctorID, ok := parseID(c, "doctorId")
	if !ok {
		return
	}

	date := c.DefaultQuery("date", time.Now().Format("2006-01-02"))

	snapshot, err := h.Board.Snapshot(c.Request.Context(), doctorID, date)
	if err != nil {
		utils.BadRequest(c, "Failed to load queue: "+err.Error())
		return
	}

	utils.Success(c, "Queue fetched successfully", snapshot)
}
