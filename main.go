package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"hospital-admin-server/internal/config"
	"hospital-admin-server/internal/logging"
	"hospital-admin-server/internal/models"
	"hospital-admin-server/internal/repositories"
	"hospital-admin-server/internal/routes"
	"hospital-admin-server/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using system environment")
	}

	// Initialize configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	// Initialize logging
	if err := logging.Init(cfg.Environment); err != nil {
		log.Fatalf("Error initializing logger: %v", err)
	}
	defer logging.Sync()

	// Initialize database connection
	db, err := models.InitDB(models.DatabaseConfig{DSN: cfg.Database.DSN})
	if err != nil {
		logging.Log.Fatal("Error connecting to database", zap.Error(err))
	}

	// Initialize the queue notifier channel
	notifier, err := services.NewRedisNotifier(cfg.Redis.URL)
	if err != nil {
		logging.Log.Fatal("Error connecting to redis", zap.Error(err))
	}
	defer notifier.Close()

	// Wire the workflow service and the live queue board
	appointmentRepo := repositories.NewAppointmentRepository(db)
	paymentRepo := repositories.NewPaymentRepository(db)
	gateway := services.NewCCAvenueService(cfg.CCAvenue)
	orderService := services.NewOrderService(appointmentRepo, paymentRepo, gateway, notifier)

	board := services.NewQueueBoard(appointmentRepo, notifier)
	board.Start()

	// Initialize Gin router
	router := gin.Default()

	// Configure CORS
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{cfg.Origin}
	corsConfig.AllowCredentials = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	router.Use(cors.New(corsConfig))

	// Set up routes
	routes.SetupRoutes(router, db, cfg, orderService, board)

	// Start server
	serverAddr := fmt.Sprintf(":%s", cfg.Port)
	logging.Log.Info("Server starting", zap.String("port", cfg.Port))
	if err := router.Run(serverAddr); err != nil {
		logging.Log.Fatal("Failed to start server", zap.Error(err))
	}
}
