package service

import (
	"context"
	"errors"
	"log"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrScheduleItemNotFound = errors.New("schedule item not found")
	ErrScheduleItemNotOwned = errors.New("schedule item does not belong to this client")
)

// --- Service Interface ---

// EventService is the ingestion boundary for client activity: it validates
// typed payloads, appends the immutable event, stamps the client's activity
// time, and fires the best-effort progress recalculation.
type EventService interface {
	LogEvent(ctx context.Context, clientID primitive.ObjectID, event *domain.ProgressEvent) (*domain.ProgressEvent, error)
	ListEvents(ctx context.Context, clientID primitive.ObjectID, eventType domain.EventType, from, to time.Time) ([]domain.ProgressEvent, error)

	// CompleteScheduleItem toggles completion on a client's own schedule
	// item and triggers recalculation. A recalculation failure never fails
	// the toggle.
	CompleteScheduleItem(ctx context.Context, clientID, itemID primitive.ObjectID, completed bool) error
}

// --- Service Implementation ---

// eventService implements the EventService interface.
type eventService struct {
	eventRepo    repository.EventRepository
	userRepo     repository.UserRepository
	scheduleRepo repository.ScheduleRepository
	progress     ProgressService
	now          func() time.Time
}

// NewEventService creates a new instance of eventService.
func NewEventService(
	eventRepo repository.EventRepository,
	userRepo repository.UserRepository,
	scheduleRepo repository.ScheduleRepository,
	progress ProgressService,
) EventService {
	return &eventService{
		eventRepo:    eventRepo,
		userRepo:     userRepo,
		scheduleRepo: scheduleRepo,
		progress:     progress,
		now:          time.Now,
	}
}

// LogEvent validates and appends one activity event.
func (s *eventService) LogEvent(ctx context.Context, clientID primitive.ObjectID, event *domain.ProgressEvent) (*domain.ProgressEvent, error) {
	if clientID == primitive.NilObjectID || event == nil {
		return nil, errors.New("client ID and event are required")
	}

	event.ClientID = clientID
	if err := event.Validate(); err != nil {
		return nil, err
	}

	id, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, err
	}
	event.ID = id

	// Activity bookkeeping is best effort; the logged event already
	// succeeded from the client's point of view.
	if err := s.userRepo.TouchLastActive(ctx, clientID, s.now().UTC()); err != nil {
		log.Printf("WARN: failed to touch lastActiveAt for client %s: %v", clientID.Hex(), err)
	}
	s.progress.RecalculateAsync(clientID)

	return event, nil
}

// ListEvents returns a client's events of one type within [from, to).
func (s *eventService) ListEvents(ctx context.Context, clientID primitive.ObjectID, eventType domain.EventType, from, to time.Time) ([]domain.ProgressEvent, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	return s.eventRepo.ListByTypeInRange(ctx, clientID, eventType, from, to)
}

// CompleteScheduleItem toggles a schedule item owned by the client.
func (s *eventService) CompleteScheduleItem(ctx context.Context, clientID, itemID primitive.ObjectID, completed bool) error {
	if clientID == primitive.NilObjectID || itemID == primitive.NilObjectID {
		return errors.New("client ID and item ID are required")
	}

	item, err := s.scheduleRepo.GetItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleItemNotFound
		}
		return err
	}
	if item.ClientID != clientID {
		return ErrScheduleItemNotOwned
	}

	if err := s.scheduleRepo.SetItemCompleted(ctx, itemID, clientID, completed, s.now().UTC()); err != nil {
		return err
	}

	if completed {
		if err := s.userRepo.TouchLastActive(ctx, clientID, s.now().UTC()); err != nil {
			log.Printf("WARN: failed to touch lastActiveAt for client %s: %v", clientID.Hex(), err)
		}
	}
	s.progress.RecalculateAsync(clientID)
	return nil
}
