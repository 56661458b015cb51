package main

import (
	"context"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/barakat-platform/kitchen-orders-api/config"
	"github.com/barakat-platform/kitchen-orders-api/controllers"
	"github.com/barakat-platform/kitchen-orders-api/middleware"
	"github.com/barakat-platform/kitchen-orders-api/models"
	"github.com/barakat-platform/kitchen-orders-api/services"
)

func main() {
	log.Println("Starting Kitchen Orders API server...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	if err := config.ConnectDatabase(); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(
		&models.Kitchen{},
		&models.Order{},
		&models.OrderItem{},
		&models.BuyerProfile{},
		&models.Payment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Payment proof storage is optional; without a bucket, upload endpoints
	// report the storage as unavailable
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitProofStorage(); err != nil {
			log.Fatalf("Failed to initialize proof storage: %v", err)
		}
		log.Println("Proof storage initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, payment proof uploads disabled")
	}

	// Wire core services and load the kitchen registry snapshot
	app := services.InitApp(db, cfg)

	// Staff notification runs off the polling loop, not off the write path
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go app.Reconciler.Run(ctx)

	// Initialize Gin router
	router := gin.Default()

	// CORS middleware
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", controllers.HealthCheck)

		// Buyer-facing endpoints
		v1.POST("/orders", controllers.CreateOrder)
		v1.POST("/orders/:id/proof", controllers.UploadProof)
		v1.GET("/kitchens", controllers.ListKitchens)

		// Staff endpoints require a validated token
		staff := v1.Group("")
		staff.Use(middleware.EnsureValidToken(cfg))
		{
			staff.GET("/orders/:id", controllers.GetOrder)
			staff.POST("/orders/:id/decision", controllers.Decide)
			staff.POST("/orders/:id/eta", controllers.ChooseEta)
			staff.POST("/orders/:id/no-courier", controllers.DeclineCourier)
			staff.POST("/orders/:id/courier/retry", controllers.RetryCourier)
			staff.POST("/kitchens/:id/settlements", middleware.RequireKitchenAccess(), controllers.Settle)
			staff.GET("/kitchens/:id/dashboard", middleware.RequireKitchenAccess(), controllers.Dashboard)
			staff.POST("/registry/reload", controllers.ReloadRegistry)
		}
	}

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
