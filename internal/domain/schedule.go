package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WeeklyScheduleItem represents one planned task for a specific date within a
// client's weekly plan, e.g. "Day 3: Upper Body" or "Meal prep Sunday".
// Created by the coach (or the plan builder); the client toggles completion.
type WeeklyScheduleItem struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID  `bson:"clientId" json:"clientId"`
	CoachID     primitive.ObjectID  `bson:"coachId" json:"coachId"` // Denormalized for easier query/auth
	PlanID      *primitive.ObjectID `bson:"planId,omitempty" json:"planId,omitempty"`
	Title       string              `bson:"title" json:"title"`
	Category    string              `bson:"category,omitempty" json:"category,omitempty"` // e.g. "workout", "nutrition"
	ScheduledOn time.Time           `bson:"scheduledOn" json:"scheduledOn"`               // Day granularity
	Notes       string              `bson:"notes,omitempty" json:"notes,omitempty"`
	Completed   bool                `bson:"completed" json:"completed"`
	CompletedAt *time.Time          `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// WellnessPlan groups schedule items into a named plan assigned to a client,
// e.g. "Phase 1: Base Building". The active plan feeds plan reminders.
type WellnessPlan struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	Name        string             `bson:"name" json:"name"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	StartDate   *time.Time         `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"` // Is this the currently active plan for the client?
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
