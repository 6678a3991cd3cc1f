package repository

import (
	"context"
	"time"

	"fitsight/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	AddClientIDToCoach(ctx context.Context, coachID, clientID primitive.ObjectID) error
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	SetCoachForClient(ctx context.Context, clientID, coachID primitive.ObjectID) error
	// TouchLastActive records client activity; used by event ingestion.
	TouchLastActive(ctx context.Context, clientID primitive.ObjectID, at time.Time) error
	// UpdateProgress persists the cached progress breakdown onto the client.
	UpdateProgress(ctx context.Context, clientID primitive.ObjectID, breakdown domain.ProgressBreakdown) error
}

// GoalRepository defines the interface for interacting with goal data.
type GoalRepository interface {
	Create(ctx context.Context, goal *domain.Goal) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Goal, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error)
	GetActiveByScope(ctx context.Context, clientID primitive.ObjectID, scope domain.GoalScope) ([]domain.Goal, error)
	Update(ctx context.Context, goal *domain.Goal) error
	Delete(ctx context.Context, id, coachID primitive.ObjectID) error // Ensure coach owns the goal
}

// EventRepository defines the interface for the append-only progress event log.
type EventRepository interface {
	Create(ctx context.Context, event *domain.ProgressEvent) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.ProgressEvent, error)
	// ListByTypeInRange returns a client's events of one type with
	// dateForMetric in [from, to), sorted ascending by dateForMetric.
	ListByTypeInRange(ctx context.Context, clientID primitive.ObjectID, eventType domain.EventType, from, to time.Time) ([]domain.ProgressEvent, error)
	// Delete is reserved for explicit coach correction only.
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ScheduleRepository defines the interface for weekly schedule items and plans.
type ScheduleRepository interface {
	CreateItem(ctx context.Context, item *domain.WeeklyScheduleItem) (primitive.ObjectID, error)
	GetItemByID(ctx context.Context, id primitive.ObjectID) (*domain.WeeklyScheduleItem, error)
	// ListItemsInRange returns a client's items with scheduledOn in [from, to).
	ListItemsInRange(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error)
	SetItemCompleted(ctx context.Context, itemID, clientID primitive.ObjectID, completed bool, at time.Time) error
	CreatePlan(ctx context.Context, plan *domain.WellnessPlan) (primitive.ObjectID, error)
	GetActivePlan(ctx context.Context, clientID primitive.ObjectID) (*domain.WellnessPlan, error)
	GetPlansByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.WellnessPlan, error)
}

// ReminderSettingsRepository manages the per-client reminder configuration.
type ReminderSettingsRepository interface {
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientReminderSettings, error)
	Create(ctx context.Context, settings *domain.ClientReminderSettings) (primitive.ObjectID, error)
	Update(ctx context.Context, settings *domain.ClientReminderSettings) error
}

// SentReminderRepository manages the immutable dispatch ledger used for
// per-day deduplication and daily-count enforcement.
type SentReminderRepository interface {
	Create(ctx context.Context, reminder *domain.SentReminder) (primitive.ObjectID, error)
	CountSentOn(ctx context.Context, clientID primitive.ObjectID, day string) (int64, error)
	ExistsSentOn(ctx context.Context, clientID primitive.ObjectID, reminderType domain.ReminderType, day string) (bool, error)
	ListSentOn(ctx context.Context, clientID primitive.ObjectID, day string) ([]domain.SentReminder, error)
}

// PushSubscriptionRepository manages push endpoint registrations.
type PushSubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.PushSubscription) (primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.PushSubscription, error)
	// ListSubscribedClientIDs returns the distinct client ids holding at
	// least one subscription; the scheduler sweeps exactly these.
	ListSubscribedClientIDs(ctx context.Context) ([]primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}
