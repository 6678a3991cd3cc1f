package domain

import (
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType tags the payload variant carried by a ProgressEvent.
type EventType string

const (
	EventNutrition EventType = "nutrition"
	EventWorkout   EventType = "workout"
	EventWeight    EventType = "weight"
	EventCheckIn   EventType = "checkin"
)

var ErrInvalidEventPayload = errors.New("event payload does not match its event type")

// ProgressEvent is an immutable, append-only record of one observed activity
// instance (a logged meal, a workout, a weigh-in, a mood check-in).
// Exactly one payload field is set, matching EventType; ingestion validates
// this before the event is persisted. Events are never mutated except by
// coach correction and never deleted except by explicit coach action.
type ProgressEvent struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	EventType     EventType          `bson:"eventType" json:"eventType"`
	DateForMetric time.Time          `bson:"dateForMetric" json:"dateForMetric"` // The day this observation belongs to (not when it was entered)
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`

	Nutrition *NutritionPayload `bson:"nutrition,omitempty" json:"nutrition,omitempty"`
	Workout   *WorkoutPayload   `bson:"workout,omitempty" json:"workout,omitempty"`
	Weight    *WeightPayload    `bson:"weight,omitempty" json:"weight,omitempty"`
	CheckIn   *CheckInPayload   `bson:"checkin,omitempty" json:"checkin,omitempty"`
}

// NutritionPayload records one meal or a daily nutrition total.
type NutritionPayload struct {
	Calories float64 `bson:"calories" json:"calories"`
	Protein  float64 `bson:"protein" json:"protein"`
	Carbs    float64 `bson:"carbs,omitempty" json:"carbs,omitempty"`
	Fat      float64 `bson:"fat,omitempty" json:"fat,omitempty"`
	Note     string  `bson:"note,omitempty" json:"note,omitempty"`
}

// WorkoutPayload records one training session.
type WorkoutPayload struct {
	WorkoutType     string  `bson:"workoutType" json:"workoutType"` // e.g. "strength", "cardio"
	DurationMinutes int     `bson:"durationMinutes" json:"durationMinutes"`
	Intensity       string  `bson:"intensity,omitempty" json:"intensity,omitempty"`
	CaloriesBurned  float64 `bson:"caloriesBurned,omitempty" json:"caloriesBurned,omitempty"`
}

// WeightPayload records a standalone weigh-in.
type WeightPayload struct {
	WeightKg float64 `bson:"weightKg" json:"weightKg"`
}

// CheckInPayload records a periodic body/mood check-in.
type CheckInPayload struct {
	WeightKg   float64 `bson:"weightKg,omitempty" json:"weightKg,omitempty"`
	BodyFatPct float64 `bson:"bodyFatPct,omitempty" json:"bodyFatPct,omitempty"`
	Mood       string  `bson:"mood,omitempty" json:"mood,omitempty"`
	Energy     int     `bson:"energy,omitempty" json:"energy,omitempty"` // 1-10 self-report
	PhotoKey   string  `bson:"photoKey,omitempty" json:"photoKey,omitempty"`
}

// Validate checks that exactly the payload matching EventType is present and
// minimally well-formed. Called at the ingestion boundary.
func (e *ProgressEvent) Validate() error {
	set := 0
	if e.Nutrition != nil {
		set++
	}
	if e.Workout != nil {
		set++
	}
	if e.Weight != nil {
		set++
	}
	if e.CheckIn != nil {
		set++
	}
	if set != 1 {
		return ErrInvalidEventPayload
	}

	switch e.EventType {
	case EventNutrition:
		if e.Nutrition == nil || e.Nutrition.Calories < 0 || e.Nutrition.Protein < 0 {
			return ErrInvalidEventPayload
		}
	case EventWorkout:
		if e.Workout == nil || e.Workout.WorkoutType == "" || e.Workout.DurationMinutes < 0 {
			return ErrInvalidEventPayload
		}
	case EventWeight:
		if e.Weight == nil || e.Weight.WeightKg <= 0 {
			return ErrInvalidEventPayload
		}
	case EventCheckIn:
		if e.CheckIn == nil {
			return ErrInvalidEventPayload
		}
	default:
		return ErrInvalidEventPayload
	}
	return nil
}
