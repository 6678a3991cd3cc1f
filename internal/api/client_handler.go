// internal/api/client_handler.go
package api

import (
	"errors"
	"net/http"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ClientHandler struct {
	clientService   service.ClientService
	eventService    service.EventService
	insightService  service.InsightService
	reminderService service.ReminderService
}

func NewClientHandler(
	clientService service.ClientService,
	eventService service.EventService,
	insightService service.InsightService,
	reminderService service.ReminderService,
) *ClientHandler {
	return &ClientHandler{
		clientService:   clientService,
		eventService:    eventService,
		insightService:  insightService,
		reminderService: reminderService,
	}
}

// --- DTOs ---

type LogEventRequest struct {
	EventType     domain.EventType         `json:"eventType" binding:"required,oneof=nutrition workout weight checkin"`
	DateForMetric *time.Time               `json:"dateForMetric"`
	Nutrition     *domain.NutritionPayload `json:"nutrition,omitempty"`
	Workout       *domain.WorkoutPayload   `json:"workout,omitempty"`
	Weight        *domain.WeightPayload    `json:"weight,omitempty"`
	CheckIn       *domain.CheckInPayload   `json:"checkin,omitempty"`
}

type CompleteItemRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

type PushSubscriptionRequest struct {
	Endpoint  string `json:"endpoint" binding:"required"`
	Auth      string `json:"auth"`
	P256DH    string `json:"p256dh"`
	UserAgent string `json:"userAgent"`
}

type ReminderSettingsRequest struct {
	RemindersEnabled           bool `json:"remindersEnabled"`
	GoalRemindersEnabled       bool `json:"goalRemindersEnabled"`
	PlanRemindersEnabled       bool `json:"planRemindersEnabled"`
	InactivityRemindersEnabled bool `json:"inactivityRemindersEnabled"`
	InactivityThresholdDays    int  `json:"inactivityThresholdDays" binding:"required,min=1"`
	QuietHoursStart            int  `json:"quietHoursStart" binding:"min=0,max=23"`
	QuietHoursEnd              int  `json:"quietHoursEnd" binding:"min=0,max=23"`
	MaxRemindersPerDay         int  `json:"maxRemindersPerDay" binding:"required,min=1"`
}

type UploadURLRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

// clientIDFromContext extracts and parses the authenticated client's ID.
func clientIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify client from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// parseScheduleRange reads the optional from/to query params. Defaults to the
// seven days starting now.
func parseScheduleRange(c *gin.Context) (time.Time, time.Time, bool) {
	from := time.Now().UTC().Truncate(24 * time.Hour)
	to := from.AddDate(0, 0, 7)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'from' timestamp, expected RFC3339.")
			return time.Time{}, time.Time{}, false
		}
		from = parsed
		to = from.AddDate(0, 0, 7)
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid 'to' timestamp, expected RFC3339.")
			return time.Time{}, time.Time{}, false
		}
		to = parsed
	}
	if !to.After(from) {
		abortWithError(c, http.StatusBadRequest, "'to' must be after 'from'.")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// --- Handler Methods ---

// GetMyProgress godoc
// @Summary Get my progress breakdown
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.ProgressBreakdown
// @Router /client/progress [get]
func (h *ClientHandler) GetMyProgress(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	breakdown, err := h.clientService.GetMyProgress(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute progress.")
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// GetMyGoals godoc
// @Summary List my goals
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Goal
// @Router /client/goals [get]
func (h *ClientHandler) GetMyGoals(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	goals, err := h.clientService.GetMyGoals(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list goals.")
		return
	}
	c.JSON(http.StatusOK, goals)
}

// GetMySchedule godoc
// @Summary List my schedule items in a date range
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param from query string false "Range start (RFC3339), defaults to today"
// @Param to query string false "Range end (RFC3339), defaults to from+7d"
// @Success 200 {array} domain.WeeklyScheduleItem
// @Router /client/schedule [get]
func (h *ClientHandler) GetMySchedule(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}
	from, to, ok := parseScheduleRange(c)
	if !ok {
		return
	}

	items, err := h.clientService.GetMySchedule(c.Request.Context(), clientID, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list schedule.")
		return
	}
	c.JSON(http.StatusOK, items)
}

// CompleteScheduleItem godoc
// @Summary Mark one of my schedule items complete or incomplete
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param itemId path string true "Schedule item ID"
// @Param body body CompleteItemRequest true "Completion flag"
// @Success 200 {object} gin.H
// @Router /client/schedule/{itemId}/complete [patch]
func (h *ClientHandler) CompleteScheduleItem(c *gin.Context) {
	var req CompleteItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}
	itemID, ok := parseObjectIDParam(c, "itemId")
	if !ok {
		return
	}

	err := h.eventService.CompleteScheduleItem(c.Request.Context(), clientID, itemID, *req.Completed)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrScheduleItemNotFound):
			abortWithError(c, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrScheduleItemNotOwned):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			abortWithError(c, http.StatusInternalServerError, "Failed to update schedule item.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"completed": *req.Completed})
}

// LogEvent godoc
// @Summary Log an activity event (meal, workout, weight, or check-in)
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param event body LogEventRequest true "Event payload"
// @Success 201 {object} domain.ProgressEvent
// @Router /client/events [post]
func (h *ClientHandler) LogEvent(c *gin.Context) {
	var req LogEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	event := &domain.ProgressEvent{
		EventType: req.EventType,
		Nutrition: req.Nutrition,
		Workout:   req.Workout,
		Weight:    req.Weight,
		CheckIn:   req.CheckIn,
	}
	if req.DateForMetric != nil {
		event.DateForMetric = req.DateForMetric.UTC()
	} else {
		event.DateForMetric = time.Now().UTC()
	}

	created, err := h.eventService.LogEvent(c.Request.Context(), clientID, event)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidEventPayload) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to log event.")
		}
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListEvents godoc
// @Summary List my events of one type in a date range
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Param type query string true "Event type" Enums(nutrition, workout, weight, checkin)
// @Param from query string false "Range start (RFC3339)"
// @Param to query string false "Range end (RFC3339)"
// @Success 200 {array} domain.ProgressEvent
// @Router /client/events [get]
func (h *ClientHandler) ListEvents(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	eventType := domain.EventType(c.Query("type"))
	switch eventType {
	case domain.EventNutrition, domain.EventWorkout, domain.EventWeight, domain.EventCheckIn:
	default:
		abortWithError(c, http.StatusBadRequest, "Unknown or missing event type.")
		return
	}
	from, to, ok := parseScheduleRange(c)
	if !ok {
		return
	}

	events, err := h.eventService.ListEvents(c.Request.Context(), clientID, eventType, from, to)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to list events.")
		return
	}
	c.JSON(http.StatusOK, events)
}

// GetMyInsights godoc
// @Summary Get my trend insights
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.ClientInsights
// @Router /client/insights [get]
func (h *ClientHandler) GetMyInsights(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	insights, err := h.insightService.GetClientInsights(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute insights.")
		return
	}
	c.JSON(http.StatusOK, insights)
}

// GetReminderSettings godoc
// @Summary Get my reminder settings
// @Tags Client
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.ClientReminderSettings
// @Router /client/reminders/settings [get]
func (h *ClientHandler) GetReminderSettings(c *gin.Context) {
	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	settings, err := h.reminderService.GetSettings(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to load reminder settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// UpdateReminderSettings godoc
// @Summary Update my reminder settings
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param settings body ReminderSettingsRequest true "Reminder settings"
// @Success 200 {object} domain.ClientReminderSettings
// @Router /client/reminders/settings [put]
func (h *ClientHandler) UpdateReminderSettings(c *gin.Context) {
	var req ReminderSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	settings := &domain.ClientReminderSettings{
		ClientID:                   clientID,
		RemindersEnabled:           req.RemindersEnabled,
		GoalRemindersEnabled:       req.GoalRemindersEnabled,
		PlanRemindersEnabled:       req.PlanRemindersEnabled,
		InactivityRemindersEnabled: req.InactivityRemindersEnabled,
		InactivityThresholdDays:    req.InactivityThresholdDays,
		QuietHoursStart:            req.QuietHoursStart,
		QuietHoursEnd:              req.QuietHoursEnd,
		MaxRemindersPerDay:         req.MaxRemindersPerDay,
	}
	if err := h.reminderService.UpdateSettings(c.Request.Context(), settings); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update reminder settings.")
		return
	}
	c.JSON(http.StatusOK, settings)
}

// RegisterPushSubscription godoc
// @Summary Register a push endpoint for this device
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body PushSubscriptionRequest true "Push endpoint"
// @Success 201 {object} domain.PushSubscription
// @Router /client/push-subscriptions [post]
func (h *ClientHandler) RegisterPushSubscription(c *gin.Context) {
	var req PushSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	sub := &domain.PushSubscription{
		Endpoint:  req.Endpoint,
		Auth:      req.Auth,
		P256DH:    req.P256DH,
		UserAgent: req.UserAgent,
	}
	created, err := h.clientService.RegisterPushSubscription(c.Request.Context(), clientID, sub)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to register push subscription.")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// RequestCheckInPhotoUploadURL godoc
// @Summary Get a presigned URL for a check-in photo upload
// @Tags Client
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UploadURLRequest true "Image content type"
// @Success 200 {object} service.UploadURLResponse
// @Router /client/checkins/photo-upload-url [post]
func (h *ClientHandler) RequestCheckInPhotoUploadURL(c *gin.Context) {
	var req UploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	clientID, ok := clientIDFromContext(c)
	if !ok {
		return
	}

	resp, err := h.clientService.RequestCheckInPhotoUploadURL(c.Request.Context(), clientID, req.ContentType)
	if err != nil {
		if errors.Is(err, service.ErrUploadURLError) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			abortWithError(c, http.StatusBadRequest, err.Error())
		}
		return
	}
	c.JSON(http.StatusOK, resp)
}
