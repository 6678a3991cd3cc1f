package domain

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// GoalScope distinguishes long-term goals (which feed the composite score)
// from weekly goals (which only feed the weekly plan view).
type GoalScope string

const (
	ScopeLongTerm GoalScope = "long_term"
	ScopeWeekly   GoalScope = "weekly"
)

// GoalStatus type for goal lifecycle
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Goal represents a measurable target a coach sets for a client,
// e.g. "lose weight from 80kg to 60kg" or "run 20km per week".
type Goal struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID      primitive.ObjectID `bson:"clientId" json:"clientId"`
	CoachID       primitive.ObjectID `bson:"coachId" json:"coachId"` // Denormalized for easier queries/auth
	Title         string             `bson:"title" json:"title"`
	GoalType      string             `bson:"goalType" json:"goalType"` // e.g. "lose_weight", "gain_muscle_strength", "eat_healthier"
	Scope         GoalScope          `bson:"scope" json:"scope"`
	Status        GoalStatus         `bson:"status" json:"status"`
	BaselineValue *float64           `bson:"baselineValue,omitempty" json:"baselineValue,omitempty"`
	CurrentValue  *float64           `bson:"currentValue,omitempty" json:"currentValue,omitempty"`
	TargetValue   *float64           `bson:"targetValue,omitempty" json:"targetValue,omitempty"`
	Unit          string             `bson:"unit,omitempty" json:"unit,omitempty"`
	Deadline      *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// ProgressPercent computes how far the goal has moved from baseline toward
// target as a percentage clamped to [0,100].
//
// With a baseline the ratio is signed: (current-baseline)/(target-baseline),
// so "lose weight" goals (target below baseline) progress as the value drops.
// Without a baseline it degrades to current/target. A zero denominator
// contributes 0 rather than dividing; missing values are treated as 0.
func (g *Goal) ProgressPercent() float64 {
	current := valueOrZero(g.CurrentValue)
	target := valueOrZero(g.TargetValue)

	var pct float64
	if g.BaselineValue != nil {
		baseline := *g.BaselineValue
		denom := target - baseline
		if denom == 0 {
			return 0
		}
		pct = (current - baseline) / denom * 100
	} else {
		if target == 0 {
			return 0
		}
		pct = current / target * 100
	}

	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return clampPercent(pct)
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
