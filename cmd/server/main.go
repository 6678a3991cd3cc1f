package main

import (
	"context"
	"errors"
	"fitsight/coaching-app/internal/ai"
	"fitsight/coaching-app/internal/api"
	"fitsight/coaching-app/internal/config"
	"fitsight/coaching-app/internal/notify"
	"fitsight/coaching-app/internal/repository/mongo"
	"fitsight/coaching-app/internal/scheduler"
	"fitsight/coaching-app/internal/service"
	"fitsight/coaching-app/internal/storage"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// @title Coaching App API
// @version 1.0
// @description API for coach/client progress tracking, trend insights, and reminders.
// @contact.name API Support
// @contact.email support@example.com
// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	log.Println("Starting Coaching App Server...")

	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}
	log.Println("Configuration loaded.")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Println("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Printf("ERROR: Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Println("Database connection established.")

	// --- Ensure Indexes ---
	log.Println("Ensuring database indexes...")
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureGoalIndexes(ctx, appDB.Collection("goals"))
		mongo.EnsureEventIndexes(ctx, appDB.Collection("progress_events"))
		mongo.EnsureScheduleIndexes(ctx, appDB.Collection("schedule_items"), appDB.Collection("wellness_plans"))
		mongo.EnsureReminderIndexes(ctx, appDB.Collection("reminder_settings"), appDB.Collection("sent_reminders"))
		mongo.EnsurePushSubscriptionIndexes(ctx, appDB.Collection("push_subscriptions"))
		log.Println("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	log.Println("Initializing file storage service...")
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Repositories ---
	log.Println("Initializing repositories...")
	userRepo := mongo.NewMongoUserRepository(appDB)
	goalRepo := mongo.NewMongoGoalRepository(appDB)
	eventRepo := mongo.NewMongoEventRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	settingsRepo := mongo.NewMongoReminderSettingsRepository(appDB)
	sentRepo := mongo.NewMongoSentReminderRepository(appDB)
	pushRepo := mongo.NewMongoPushSubscriptionRepository(appDB)

	// --- Initialize Services ---
	log.Println("Initializing services...")
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	progressService := service.NewProgressService(userRepo, goalRepo, scheduleRepo)
	chatClient := ai.NewChatClient(cfg.AI)
	insightService := service.NewInsightService(eventRepo, chatClient)
	dispatcher := notify.NewPushDispatcher(cfg.Push, pushRepo)
	reminderService := service.NewReminderService(userRepo, goalRepo, eventRepo, scheduleRepo, settingsRepo, sentRepo, pushRepo, dispatcher)
	eventService := service.NewEventService(eventRepo, userRepo, scheduleRepo, progressService)
	coachService := service.NewCoachService(userRepo, goalRepo, scheduleRepo, progressService, fileStorage)
	clientService := service.NewClientService(goalRepo, scheduleRepo, pushRepo, progressService, fileStorage)

	// --- Reminder Scheduler ---
	var reminderScheduler *scheduler.ReminderScheduler
	if cfg.Reminders.Enabled {
		reminderScheduler = scheduler.NewReminderScheduler(reminderService, cfg.Reminders.SweepInterval)
		reminderScheduler.Start()
	} else {
		log.Println("Reminder scheduler disabled by configuration.")
	}

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	log.Println("Setting up API routes...")
	api.SetupRoutes(router, cfg.JWT.Secret, authService, coachService, clientService, eventService, insightService, reminderService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Printf("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if reminderScheduler != nil {
		reminderScheduler.Stop()
	}

	// The context is used to inform the server it has 5 seconds to finish
	// the requests it is currently handling
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting.")
}
