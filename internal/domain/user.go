package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RoleCoach  Role = "coach"
	RoleClient Role = "client"
)

// User represents a user in the system (either a Coach or a Client).
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`    // Should be unique
	PasswordHash string             `bson:"passwordHash" json:"-"` // Never expose this via JSON
	Role         Role               `bson:"role" json:"role"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`

	// --- Coach-specific ---
	// Stores ObjectIDs of Clients managed by this Coach.
	ClientIDs []primitive.ObjectID `bson:"clientIds,omitempty" json:"clientIds,omitempty"`

	// --- Client-specific ---
	// Stores the ObjectID of the Coach managing this Client.
	CoachID *primitive.ObjectID `bson:"coachId,omitempty" json:"coachId,omitempty"`

	// LastActiveAt is touched whenever the client logs an activity event.
	// Drives the activity-recency component of the composite score and the
	// inactivity reminder checks.
	LastActiveAt *time.Time `bson:"lastActiveAt,omitempty" json:"lastActiveAt,omitempty"`

	// Cached progress breakdown, recomputed by the progress service after
	// every triggering event. Last write wins; recalculation is idempotent
	// for an unchanged input snapshot.
	ProgressScore    int `bson:"progressScore" json:"progressScore"`
	GoalProgress     int `bson:"goalProgress" json:"goalProgress"`
	WeeklyProgress   int `bson:"weeklyProgress" json:"weeklyProgress"`
	ActivityProgress int `bson:"activityProgress" json:"activityProgress"`
}

func (u *User) IsCoach() bool {
	return u.Role == RoleCoach
}

func (u *User) IsClient() bool {
	return u.Role == RoleClient
}
