// internal/api/coach_handler.go
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

type CoachHandler struct {
	coachService    service.CoachService
	insightService  service.InsightService
	reminderService service.ReminderService
}

func NewCoachHandler(
	coachService service.CoachService,
	insightService service.InsightService,
	reminderService service.ReminderService,
) *CoachHandler {
	return &CoachHandler{
		coachService:    coachService,
		insightService:  insightService,
		reminderService: reminderService,
	}
}

// --- DTOs ---

type AddClientRequest struct {
	ClientEmail string `json:"clientEmail" binding:"required,email"`
}

type CreateGoalRequest struct {
	ClientID      string     `json:"clientId" binding:"required"`
	Title         string     `json:"title" binding:"required"`
	GoalType      string     `json:"goalType" binding:"required"`
	Scope         string     `json:"scope" binding:"omitempty,oneof=long_term weekly"`
	BaselineValue *float64   `json:"baselineValue"`
	CurrentValue  *float64   `json:"currentValue"`
	TargetValue   *float64   `json:"targetValue"`
	Unit          string     `json:"unit"`
	Deadline      *time.Time `json:"deadline"`
}

type UpdateGoalRequest struct {
	Title         string     `json:"title" binding:"required"`
	GoalType      string     `json:"goalType" binding:"required"`
	Scope         string     `json:"scope" binding:"omitempty,oneof=long_term weekly"`
	Status        string     `json:"status" binding:"omitempty,oneof=active completed abandoned"`
	BaselineValue *float64   `json:"baselineValue"`
	CurrentValue  *float64   `json:"currentValue"`
	TargetValue   *float64   `json:"targetValue"`
	Unit          string     `json:"unit"`
	Deadline      *time.Time `json:"deadline"`
}

type CreatePlanRequest struct {
	ClientID    string     `json:"clientId" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	IsActive    bool       `json:"isActive"`
}

type CreateScheduleItemRequest struct {
	ClientID    string    `json:"clientId" binding:"required"`
	PlanID      string    `json:"planId"`
	Title       string    `json:"title" binding:"required"`
	Category    string    `json:"category"`
	ScheduledOn time.Time `json:"scheduledOn" binding:"required"`
	Notes       string    `json:"notes"`
}

// coachIDFromContext extracts and parses the authenticated coach's ID.
func coachIDFromContext(c *gin.Context) (primitive.ObjectID, bool) {
	idStr, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Unable to identify coach from token.")
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid coach ID format in token.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func parseObjectIDParam(c *gin.Context, name string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// mapCoachServiceError maps the common coach-service errors to HTTP codes.
func mapCoachServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, service.ErrClientNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrClientNotRole), errors.Is(err, service.ErrClientAlreadyAssigned), errors.Is(err, service.ErrClientNotManaged):
		abortWithError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrGoalNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrGoalAccessDenied):
		abortWithError(c, http.StatusForbidden, err.Error())
	default:
		abortWithError(c, http.StatusInternalServerError, fallback)
	}
}

// --- Handler Methods ---

// AddClientByEmail godoc
// @Summary Add a client to the coach's roster by email
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param clientRequest body AddClientRequest true "Client's email"
// @Success 200 {object} UserResponse
// @Router /coach/clients [post]
func (h *CoachHandler) AddClientByEmail(c *gin.Context) {
	var req AddClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	client, err := h.coachService.AddClientByEmail(c.Request.Context(), coachID, req.ClientEmail)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to add client.")
		return
	}

	c.JSON(http.StatusOK, MapUserToResponse(client))
}

// GetManagedClients godoc
// @Summary Get the coach's managed clients
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {array} UserResponse
// @Router /coach/clients [get]
func (h *CoachHandler) GetManagedClients(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	clients, err := h.coachService.GetManagedClients(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve managed clients.")
		return
	}

	resp := make([]UserResponse, 0, len(clients))
	for i := range clients {
		resp = append(resp, MapUserToResponse(&clients[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// CreateGoal godoc
// @Summary Create a goal for a managed client
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goal body CreateGoalRequest true "Goal definition"
// @Success 201 {object} domain.Goal
// @Router /coach/goals [post]
func (h *CoachHandler) CreateGoal(c *gin.Context) {
	var req CreateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	goal := &domain.Goal{
		ClientID:      clientID,
		Title:         req.Title,
		GoalType:      req.GoalType,
		Scope:         domain.GoalScope(req.Scope),
		BaselineValue: req.BaselineValue,
		CurrentValue:  req.CurrentValue,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
		Deadline:      req.Deadline,
	}

	created, err := h.coachService.CreateGoal(c.Request.Context(), coachID, goal)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to create goal.")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// UpdateGoal godoc
// @Summary Update a goal
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Param goal body UpdateGoalRequest true "Goal fields"
// @Success 200 {object} domain.Goal
// @Router /coach/goals/{goalId} [put]
func (h *CoachHandler) UpdateGoal(c *gin.Context) {
	var req UpdateGoalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	goalID, ok := parseObjectIDParam(c, "goalId")
	if !ok {
		return
	}

	goal := &domain.Goal{
		ID:            goalID,
		Title:         req.Title,
		GoalType:      req.GoalType,
		Scope:         domain.GoalScope(req.Scope),
		Status:        domain.GoalStatus(req.Status),
		BaselineValue: req.BaselineValue,
		CurrentValue:  req.CurrentValue,
		TargetValue:   req.TargetValue,
		Unit:          req.Unit,
		Deadline:      req.Deadline,
	}
	if goal.Status == "" {
		goal.Status = domain.GoalActive
	}

	updated, err := h.coachService.UpdateGoal(c.Request.Context(), coachID, goal)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to update goal.")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteGoal godoc
// @Summary Delete a goal
// @Tags Coach
// @Security BearerAuth
// @Param goalId path string true "Goal ID"
// @Success 204
// @Router /coach/goals/{goalId} [delete]
func (h *CoachHandler) DeleteGoal(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	goalID, ok := parseObjectIDParam(c, "goalId")
	if !ok {
		return
	}

	if err := h.coachService.DeleteGoal(c.Request.Context(), coachID, goalID); err != nil {
		mapCoachServiceError(c, err, "Failed to delete goal.")
		return
	}
	c.Status(http.StatusNoContent)
}

// GetClientGoals godoc
// @Summary List a managed client's goals
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {array} domain.Goal
// @Router /coach/clients/{clientId}/goals [get]
func (h *CoachHandler) GetClientGoals(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	goals, err := h.coachService.GetClientGoals(c.Request.Context(), coachID, clientID)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to list goals.")
		return
	}
	c.JSON(http.StatusOK, goals)
}

// CreatePlan godoc
// @Summary Create a wellness plan for a managed client
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param plan body CreatePlanRequest true "Plan definition"
// @Success 201 {object} domain.WellnessPlan
// @Router /coach/plans [post]
func (h *CoachHandler) CreatePlan(c *gin.Context) {
	var req CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	plan := &domain.WellnessPlan{
		ClientID:    clientID,
		Name:        req.Name,
		Description: req.Description,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		IsActive:    req.IsActive,
	}

	created, err := h.coachService.CreatePlan(c.Request.Context(), coachID, plan)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to create plan.")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// CreateScheduleItem godoc
// @Summary Plan a dated task for a managed client
// @Tags Coach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param item body CreateScheduleItemRequest true "Schedule item"
// @Success 201 {object} domain.WeeklyScheduleItem
// @Router /coach/schedule [post]
func (h *CoachHandler) CreateScheduleItem(c *gin.Context) {
	var req CreateScheduleItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, err := primitive.ObjectIDFromHex(req.ClientID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid client ID format.")
		return
	}

	item := &domain.WeeklyScheduleItem{
		ClientID:    clientID,
		Title:       req.Title,
		Category:    req.Category,
		ScheduledOn: req.ScheduledOn,
		Notes:       req.Notes,
	}
	if req.PlanID != "" {
		planID, err := primitive.ObjectIDFromHex(req.PlanID)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid plan ID format.")
			return
		}
		item.PlanID = &planID
	}

	created, err := h.coachService.CreateScheduleItem(c.Request.Context(), coachID, item)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to create schedule item.")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetClientPlans godoc
// @Summary List a managed client's wellness plans
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {array} domain.WellnessPlan
// @Router /coach/clients/{clientId}/plans [get]
func (h *CoachHandler) GetClientPlans(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	plans, err := h.coachService.GetClientPlans(c.Request.Context(), coachID, clientID)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to list plans.")
		return
	}
	c.JSON(http.StatusOK, plans)
}

// GetClientSchedule godoc
// @Summary List a managed client's schedule items in a date range
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param from query string false "Range start (RFC3339), defaults to now"
// @Param to query string false "Range end (RFC3339), defaults to from+7d"
// @Success 200 {array} domain.WeeklyScheduleItem
// @Router /coach/clients/{clientId}/schedule [get]
func (h *CoachHandler) GetClientSchedule(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}
	from, to, ok := parseScheduleRange(c)
	if !ok {
		return
	}

	items, err := h.coachService.GetClientSchedule(c.Request.Context(), coachID, clientID, from, to)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to list schedule.")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetClientProgress godoc
// @Summary Get a managed client's progress breakdown
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} domain.ProgressBreakdown
// @Router /coach/clients/{clientId}/progress [get]
func (h *CoachHandler) GetClientProgress(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	breakdown, err := h.coachService.GetClientProgress(c.Request.Context(), coachID, clientID)
	if err != nil {
		mapCoachServiceError(c, err, "Failed to compute client progress.")
		return
	}
	c.JSON(http.StatusOK, breakdown)
}

// GetClientInsights godoc
// @Summary Get a managed client's trend insights
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} service.ClientInsights
// @Router /coach/clients/{clientId}/insights [get]
func (h *CoachHandler) GetClientInsights(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	// Reuse the managed-client check via the progress path's service.
	if _, err := h.coachService.GetClientGoals(c.Request.Context(), coachID, clientID); err != nil {
		mapCoachServiceError(c, err, "Failed to verify client.")
		return
	}

	insights, err := h.insightService.GetClientInsights(c.Request.Context(), clientID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to compute insights.")
		return
	}
	c.JSON(http.StatusOK, insights)
}

// RecalculateAllClients godoc
// @Summary Recalculate progress for the coach's whole roster
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Success 200 {object} gin.H
// @Router /coach/recalculate [post]
func (h *CoachHandler) RecalculateAllClients(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}

	updated, err := h.coachService.RecalculateAllClients(c.Request.Context(), coachID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to recalculate clients.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": updated})
}

// TriggerRemindersNow godoc
// @Summary Run a reminder pass for one client immediately
// @Description Bypasses quiet hours; per-type daily dedup and the daily cap still apply.
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Success 200 {object} gin.H
// @Router /coach/clients/{clientId}/reminders/trigger [post]
func (h *CoachHandler) TriggerRemindersNow(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	// Managed-client check before poking the reminder pipeline.
	if _, err := h.coachService.GetClientGoals(c.Request.Context(), coachID, clientID); err != nil {
		mapCoachServiceError(c, err, "Failed to verify client.")
		return
	}

	sent, err := h.reminderService.ProcessClient(c.Request.Context(), clientID, true)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to process reminders.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sent": sent})
}

// GetReportDownloadURL godoc
// @Summary Get a temporary download URL for an exported report
// @Tags Coach
// @Produce json
// @Security BearerAuth
// @Param clientId path string true "Client ID"
// @Param key query string true "Report object key"
// @Success 200 {object} gin.H
// @Router /coach/clients/{clientId}/reports/download [get]
func (h *CoachHandler) GetReportDownloadURL(c *gin.Context) {
	coachID, ok := coachIDFromContext(c)
	if !ok {
		return
	}
	clientID, ok := parseObjectIDParam(c, "clientId")
	if !ok {
		return
	}

	url, err := h.coachService.GenerateReportDownloadURL(c.Request.Context(), coachID, clientID, c.Query("key"))
	if err != nil {
		if errors.Is(err, service.ErrReportURLError) {
			abortWithError(c, http.StatusInternalServerError, err.Error())
		} else {
			mapCoachServiceError(c, err, "Failed to generate download URL.")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"downloadUrl": url})
}
