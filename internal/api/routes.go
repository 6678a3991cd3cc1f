package api

import (
	"fitsight/coaching-app/internal/domain" // Needed for RoleMiddleware
	"fitsight/coaching-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	coachService service.CoachService,
	clientService service.ClientService,
	eventService service.EventService,
	insightService service.InsightService,
	reminderService service.ReminderService,
) {

	authHandler := NewAuthHandler(authService)
	coachHandler := NewCoachHandler(coachService, insightService, reminderService)
	clientHandler := NewClientHandler(clientService, eventService, insightService, reminderService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			// Roster
			coachGroup.POST("/clients", coachHandler.AddClientByEmail)
			coachGroup.GET("/clients", coachHandler.GetManagedClients)

			// Goals
			coachGroup.POST("/goals", coachHandler.CreateGoal)
			coachGroup.PUT("/goals/:goalId", coachHandler.UpdateGoal)
			coachGroup.DELETE("/goals/:goalId", coachHandler.DeleteGoal)
			coachGroup.GET("/clients/:clientId/goals", coachHandler.GetClientGoals)

			// Plans and schedule
			coachGroup.POST("/plans", coachHandler.CreatePlan)
			coachGroup.GET("/clients/:clientId/plans", coachHandler.GetClientPlans)
			coachGroup.POST("/schedule", coachHandler.CreateScheduleItem)
			coachGroup.GET("/clients/:clientId/schedule", coachHandler.GetClientSchedule)

			// Progress and insights
			coachGroup.GET("/clients/:clientId/progress", coachHandler.GetClientProgress)
			coachGroup.GET("/clients/:clientId/insights", coachHandler.GetClientInsights)
			coachGroup.POST("/recalculate", coachHandler.RecalculateAllClients)

			// Reminders and reports
			coachGroup.POST("/clients/:clientId/reminders/trigger", coachHandler.TriggerRemindersNow)
			coachGroup.GET("/clients/:clientId/reports/download", coachHandler.GetReportDownloadURL)
		}

		// --- Client Routes ---
		clientGroup := protected.Group("/client")
		clientGroup.Use(RoleMiddleware(domain.RoleClient))
		{
			clientGroup.GET("/progress", clientHandler.GetMyProgress)
			clientGroup.GET("/goals", clientHandler.GetMyGoals)
			clientGroup.GET("/insights", clientHandler.GetMyInsights)

			clientGroup.GET("/schedule", clientHandler.GetMySchedule)
			clientGroup.PATCH("/schedule/:itemId/complete", clientHandler.CompleteScheduleItem)

			clientGroup.POST("/events", clientHandler.LogEvent)
			clientGroup.GET("/events", clientHandler.ListEvents)

			clientGroup.GET("/reminders/settings", clientHandler.GetReminderSettings)
			clientGroup.PUT("/reminders/settings", clientHandler.UpdateReminderSettings)
			clientGroup.POST("/push-subscriptions", clientHandler.RegisterPushSubscription)

			clientGroup.POST("/checkins/photo-upload-url", clientHandler.RequestCheckInPhotoUploadURL)
		}
	}
}
