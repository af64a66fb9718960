package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/handlers"
	"hospital-admin-server/internal/middleware"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/services"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, orderService *services.OrderService, board *services.QueueBoard) {
	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService)
	appointmentHandler := handlers.NewAppointmentHandler(orderService)
	paymentHandler := handlers.NewPaymentHandler(orderService)
	queueHandler := handlers.NewQueueHandler(board)
	catalogHandler := handlers.NewCatalogHandler(db)

	// Authenticated routes
	private := router.Group("/api/v1")
	private.Use(middleware.AuthMiddleware(cfg)) // Apply JWT authentication middleware
	{
		// Orders list + status workflow
		orderRoutes := private.Group("/orders")
		{
			orderRoutes.GET("", orderHandler.ListOrders)
			orderRoutes.GET("/:id", orderHandler.GetOrder)

			// The standalone action uses POST; the check-in flow's
			// confirm step uses PATCH on the same resource. Both verbs
			// are kept.
			orderRoutes.POST("/:id/update-status", orderHandler.UpdateOrderStatus)
			orderRoutes.PATCH("/:id/update-status", orderHandler.UpdateOrderStatus)
		}

		// Token issue and compound check-in
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("/generate-token", appointmentHandler.GenerateToken)
			appointmentRoutes.POST("/:id/check-in", appointmentHandler.CheckIn)
		}

		// Desk settlement and gateway refunds: financial actions are
		// restricted to admins.
		paymentRoutes := private.Group("")
		paymentRoutes.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			paymentRoutes.POST("/payments/mark-paid", paymentHandler.MarkPaid)
			paymentRoutes.POST("/ccavenue/refund/:paymentId", paymentHandler.Refund)
		}

		// Live doctor queue board
		private.GET("/queues/:doctorId", queueHandler.GetDoctorQueue)

		// Reference data for the list filters
		private.GET("/doctors", catalogHandler.GetDoctors)
		private.GET("/departments", catalogHandler.GetDepartments)
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
