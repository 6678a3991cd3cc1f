package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ReminderType identifies one reminder flavor. A client receives at most one
// reminder of each type per calendar day (the dedup key is clientId + type +
// day).
type ReminderType string

const (
	ReminderGoalWeight         ReminderType = "goal_weight"
	ReminderGoalWorkout        ReminderType = "goal_workout"
	ReminderGoalNutrition      ReminderType = "goal_nutrition"
	ReminderGoalGeneral        ReminderType = "goal_general"
	ReminderPlanToday          ReminderType = "plan_today"
	ReminderInactivityMeals    ReminderType = "inactivity_meals"
	ReminderInactivityWorkouts ReminderType = "inactivity_workouts"
	ReminderInactivityCheckIn  ReminderType = "inactivity_checkin"
)

// ReminderCategory groups reminder types for settings toggles and reporting.
type ReminderCategory string

const (
	CategoryGoal       ReminderCategory = "goal"
	CategoryPlan       ReminderCategory = "plan"
	CategoryInactivity ReminderCategory = "inactivity"
)

// GoalReminderType maps a goal's goalType string to the reminder type used
// for nudges about it. Unknown types fall through to goal_general.
func GoalReminderType(goalType string) ReminderType {
	switch goalType {
	case "weight", "lose_weight", "maintain_weight":
		return ReminderGoalWeight
	case "workout", "fitness", "improve_fitness_endurance", "gain_muscle_strength":
		return ReminderGoalWorkout
	case "nutrition", "eat_healthier", "calories":
		return ReminderGoalNutrition
	default:
		return ReminderGoalGeneral
	}
}

// ClientReminderSettings holds the per-client reminder configuration surface.
// One document per client, lazily created with ReminderDefaults on the first
// reminder pass and updated by the coach afterwards.
type ClientReminderSettings struct {
	ID                        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID                  primitive.ObjectID `bson:"clientId" json:"clientId"`
	RemindersEnabled          bool               `bson:"remindersEnabled" json:"remindersEnabled"`
	GoalRemindersEnabled      bool               `bson:"goalRemindersEnabled" json:"goalRemindersEnabled"`
	PlanRemindersEnabled      bool               `bson:"planRemindersEnabled" json:"planRemindersEnabled"`
	InactivityRemindersEnabled bool              `bson:"inactivityRemindersEnabled" json:"inactivityRemindersEnabled"`
	InactivityThresholdDays   int                `bson:"inactivityThresholdDays" json:"inactivityThresholdDays"`
	QuietHoursStart           int                `bson:"quietHoursStart" json:"quietHoursStart"` // Hour of day, 0-23
	QuietHoursEnd             int                `bson:"quietHoursEnd" json:"quietHoursEnd"`     // Hour of day, 0-23
	MaxRemindersPerDay        int                `bson:"maxRemindersPerDay" json:"maxRemindersPerDay"`
	UpdatedAt                 time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ReminderSettingsDefaults carries the documented default configuration.
// Centralized here so every lazy-materialization site uses the same values.
type ReminderSettingsDefaults struct {
	InactivityThresholdDays int
	QuietHoursStart         int
	QuietHoursEnd           int
	MaxRemindersPerDay      int
}

// ReminderDefaults: inactivity threshold 2 days, quiet hours 21:00-08:00,
// at most 3 reminders per client per day.
var ReminderDefaults = ReminderSettingsDefaults{
	InactivityThresholdDays: 2,
	QuietHoursStart:         21,
	QuietHoursEnd:           8,
	MaxRemindersPerDay:      3,
}

// NewDefaultReminderSettings builds the settings document lazily created for
// a client that has none yet.
func NewDefaultReminderSettings(clientID primitive.ObjectID) *ClientReminderSettings {
	return &ClientReminderSettings{
		ClientID:                   clientID,
		RemindersEnabled:           true,
		GoalRemindersEnabled:       true,
		PlanRemindersEnabled:       true,
		InactivityRemindersEnabled: true,
		InactivityThresholdDays:    ReminderDefaults.InactivityThresholdDays,
		QuietHoursStart:            ReminderDefaults.QuietHoursStart,
		QuietHoursEnd:              ReminderDefaults.QuietHoursEnd,
		MaxRemindersPerDay:         ReminderDefaults.MaxRemindersPerDay,
	}
}

// InQuietHours reports whether t (client local time) falls inside the quiet
// window. A window whose start hour is greater than its end hour wraps past
// midnight (the default 21-8 window does). Start == end disables the window.
func (s *ClientReminderSettings) InQuietHours(t time.Time) bool {
	start, end := s.QuietHoursStart, s.QuietHoursEnd
	if start == end {
		return false
	}
	h := t.Hour()
	if start < end {
		return h >= start && h < end
	}
	return h >= start || h < end
}

// SentReminder is an immutable log row recording one successfully dispatched
// reminder. Written only after dispatch succeeds; used purely for per-day
// per-type deduplication and daily-count enforcement.
type SentReminder struct {
	ID            primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID  `bson:"clientId" json:"clientId"`
	ReminderType  ReminderType        `bson:"reminderType" json:"reminderType"`
	Category      ReminderCategory    `bson:"category" json:"category"`
	SentDate      string              `bson:"sentDate" json:"sentDate"` // Calendar day, "2006-01-02"
	RelatedGoalID *primitive.ObjectID `bson:"relatedGoalId,omitempty" json:"relatedGoalId,omitempty"`
	RelatedPlanID *primitive.ObjectID `bson:"relatedPlanId,omitempty" json:"relatedPlanId,omitempty"`
	CreatedAt     time.Time           `bson:"createdAt" json:"createdAt"`
}

// DayKey formats a time as the calendar-day string used in SentReminder rows.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// PushSubscription registers one push endpoint for a client device. Clients
// with at least one subscription are swept by the reminder scheduler; a
// subscription reported expired by the gateway is removed.
type PushSubscription struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Endpoint  string             `bson:"endpoint" json:"endpoint"`
	Auth      string             `bson:"auth,omitempty" json:"-"`
	P256DH    string             `bson:"p256dh,omitempty" json:"-"`
	UserAgent string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
