package main

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/maintenix/maintenix-api/config"
	"github.com/maintenix/maintenix-api/controllers"
	"github.com/maintenix/maintenix-api/middleware"
	"github.com/maintenix/maintenix-api/models"
	"github.com/maintenix/maintenix-api/services"
)

func main() {
	// Basic logging
	log.Println("Starting Maintenix API server...")

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
		&models.Company{},
		&models.Cycle{},
		&models.MaintenanceRecord{},
		&models.Technician{},
		&models.PasswordResetToken{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed successfully")

	// Initialize the export artifact store when a bucket is configured
	if cfg.AWSS3Bucket != "" {
		if _, err := services.InitS3Service(); err != nil {
			log.Fatalf("Failed to initialize S3 service: %v", err)
		}
		log.Println("Export artifact store initialized")
	} else {
		log.Println("AWS_S3_BUCKET not set, exports will stream directly")
	}

	// Initialize the mail service when SendGrid is configured
	if cfg.SendGridAPIKey != "" {
		if _, err := services.InitMailService(); err != nil {
			log.Fatalf("Failed to initialize mail service: %v", err)
		}
	} else {
		log.Println("SENDGRID_API_KEY not set, password recovery mail disabled")
	}

	router := setupRouter()

	// Start server
	port := ":" + cfg.Port
	log.Printf("Server is running on http://localhost%s", port)
	if err := router.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// setupRouter builds the Gin engine with all routes and middleware
func setupRouter() *gin.Engine {
	router := gin.Default()
	router.Use(cors.Default())

	v1 := router.Group("/api/v1")
	{
		// Health check endpoint
		v1.GET("/health", healthCheck)

		// Database status endpoint
		v1.GET("/database/status", databaseStatus)

		// Public auth endpoints
		v1.POST("/auth/login", controllers.Login)
		v1.POST("/auth/recover", controllers.Recover)
		v1.POST("/auth/recover/confirm", controllers.RecoverConfirm)
		v1.GET("/companies", controllers.ListCompanies) // login company selector

		// Authenticated endpoints
		auth := v1.Group("", middleware.RequireAuth())
		{
			auth.GET("/auth/me", controllers.GetMyProfile)
			auth.GET("/cycles/active", controllers.GetActiveCycle)

			auth.POST("/records", controllers.CreateRecord)
			auth.GET("/records", controllers.ListRecords)
			auth.GET("/records/recent", controllers.RecentRecords)
			auth.GET("/records/:id", controllers.GetRecord)
			auth.PUT("/records/:id", controllers.UpdateRecord)

			auth.GET("/reports/summary", controllers.GetSummary)
			auth.GET("/reports/sites", controllers.GetSites)

			// Admin-only endpoints
			admin := auth.Group("", middleware.RequireAdmin())
			{
				admin.POST("/auth/register", controllers.Register)
				admin.POST("/companies", controllers.CreateCompany)
				admin.GET("/companies/:id/cycles", controllers.ListCycles)
				admin.POST("/cycles", controllers.OpenCycle)
				admin.GET("/cycles/:id", controllers.GetCycle)
				admin.PUT("/cycles/:id", controllers.UpdateCycle)
				admin.POST("/cycles/:id/close", controllers.CloseCycle)
				admin.POST("/cycles/:id/reassign", controllers.ReassignRecords)
				admin.DELETE("/records/:id", controllers.DeleteRecord)
				admin.GET("/exports/records", controllers.ExportRecords)
			}
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Maintenix API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func databaseStatus(c *gin.Context) {
	db := config.GetDB()

	// Get the underlying SQL database to check connection
	sqlDB, err := db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.Ping(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	// Get list of tables
	var tables []string
	if err := db.Raw("SELECT tablename FROM pg_tables WHERE schemaname = 'public'").Scan(&tables).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
