package main

import (
	"fmt"
	"log"
	"os"

	"pillr/internal/auth"
	"pillr/internal/config"
	"pillr/internal/database"
	"pillr/internal/handlers"
	"pillr/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables from .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration:", err)
	}

	// Initialize database
	if err := database.InitDB(); err != nil {
		log.Fatal("Failed to initialize database:", err)
	}

	// Initialize session token encryption
	if err := auth.InitCrypto(); err != nil {
		log.Fatal("Failed to initialize crypto:", err)
	}

	// Initialize Google OAuth
	if err := auth.InitOAuth(); err != nil {
		log.Fatal("Failed to initialize OAuth:", err)
	}

	// Initialize Google Maps client for the pharmacy locator
	if err := services.InitMapsClient(); err != nil {
		log.Fatal("Failed to initialize Maps client:", err)
	}

	db := database.GetDB()

	smsProvider, err := services.NewSMSProvider(cfg.SMS)
	if err != nil {
		log.Fatal("Failed to initialize SMS provider:", err)
	}

	imageService, err := services.NewImageService()
	if err != nil {
		log.Fatal("Failed to initialize image service:", err)
	}

	emailService := services.NewEmailService()
	searchService := services.NewSearchService(db)
	adherenceService := services.NewAdherenceService(db)
	labelService := services.NewDrugLabelService(cfg.DrugLabelURL)
	reminderService := services.NewReminderService(db, smsProvider, cfg.Reminder)
	summaryService := services.NewSummaryService(db, adherenceService, emailService)

	// Background reminder sweep and weekly digest
	worker := services.NewReminderWorker(reminderService, cfg.Reminder.SweepInterval)
	if err := worker.ScheduleWeeklySummaries(summaryService); err != nil {
		log.Fatal("Failed to schedule weekly summaries:", err)
	}
	if err := worker.Start(); err != nil {
		log.Fatal("Failed to start reminder worker:", err)
	}
	defer worker.Stop()

	// Initialize Gin router
	router := gin.Default()

	// Configure trusted proxies
	router.SetTrustedProxies([]string{"127.0.0.1"})

	// Configure CORS for the frontend
	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:5173"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{frontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	// Basic routes
	router.GET("/", handlers.HomeHandler)
	router.GET("/health", handlers.HealthHandler)

	// Auth routes (no session required)
	router.GET("/auth/login", handlers.LoginHandler)
	router.GET("/auth/callback", handlers.GoogleCallbackHandler)

	// External reminder trigger, authenticated by bearer secret
	router.POST("/internal/reminders/run", handlers.RunRemindersHandler(reminderService, cfg.Reminder.TriggerSecret))

	// Dispenser routes, authenticated by device JWT
	device := router.Group("/device")
	device.Use(auth.DeviceAuthMiddleware())
	{
		device.POST("/doses", handlers.IngestDeviceDoseEvent)
	}

	// Protected routes (session required)
	protected := router.Group("")
	protected.Use(auth.AuthMiddleware())
	{
		protected.GET("/auth/logout", handlers.LogoutHandler)
		protected.GET("/auth/me", handlers.GetCurrentUser)
		protected.GET("/dashboard", handlers.DashboardHandler)
		protected.GET("/create-profile", handlers.CreateProfilePageHandler)

		// Accounts
		protected.POST("/accounts", handlers.CreateAccount)
		protected.GET("/accounts/:username", handlers.GetAccount)
		protected.PUT("/accounts/:username", handlers.UpdateAccount)
		protected.POST("/accounts/:username/avatar", handlers.UploadAvatarHandler(imageService))

		// Medications
		protected.POST("/medications", handlers.CreateMedication)
		protected.GET("/medications", handlers.GetMedicationsHandler(searchService))
		protected.PUT("/medications/:medication_id", handlers.UpdateMedication)
		protected.DELETE("/medications/:medication_id", handlers.DeleteMedication)
		protected.GET("/medications/labels", handlers.LookupDrugLabelHandler(labelService))
		protected.POST("/medications/:medication_id/label", handlers.AttachDrugLabelHandler(labelService))

		// Weekly schedule
		protected.POST("/schedule", handlers.CreateScheduleEvent)
		protected.GET("/schedule", handlers.GetSchedule)
		protected.PUT("/schedule/:event_id", handlers.UpdateScheduleEvent)
		protected.DELETE("/schedule/:event_id", handlers.DeleteScheduleEvent)

		// Dose logs and adherence
		protected.POST("/schedule/:event_id/doses", handlers.LogDose)
		protected.GET("/doses", handlers.GetDoseLogs)
		protected.GET("/adherence", handlers.GetAdherenceHandler(adherenceService))

		// Care links
		protected.POST("/links/code", handlers.GenerateConnectionCodeHandler(emailService))
		protected.POST("/links/redeem", handlers.RedeemConnectionCodeHandler(emailService))
		protected.GET("/links", handlers.GetCareLinks)
		protected.DELETE("/links/:link_id", handlers.DeleteCareLink)

		// Dispenser pairing
		protected.POST("/device/token", handlers.IssueDeviceToken)

		// Pharmacies
		protected.GET("/pharmacies", handlers.SearchPharmacies)
		protected.GET("/pharmacies/:place_id", handlers.GetPharmacy)

		// Notifications
		protected.GET("/notifications", handlers.GetNotifications)
		protected.PUT("/notifications/:notification_id/read", handlers.MarkNotificationRead)
		protected.POST("/notifications/read-all", handlers.MarkAllNotificationsRead)
	}

	// Start the server
	fmt.Printf("Server starting on port %s...\n", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
