package notify

import (
	"context"

	"fitsight/coaching-app/internal/domain"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification is what the reminder core hands to the dispatch boundary.
// The core decides what to send and whether; transport is the dispatcher's
// problem.
type Notification struct {
	ClientID     primitive.ObjectID  `json:"clientId"`
	Title        string              `json:"title"`
	Message      string              `json:"message"`
	ReminderType domain.ReminderType `json:"reminderType"`
}

// Dispatcher delivers a notification to a client. A nil return means the
// notification reached at least one of the client's devices; only then may
// the caller record the reminder as sent.
type Dispatcher interface {
	Dispatch(ctx context.Context, n Notification) error
}
