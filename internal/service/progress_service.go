package service

import (
	"context"
	"errors"
	"log"
	"math"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientUserNotFound = errors.New("client user not found")
)

// Composite score weights. These are fixed design constants; client and coach
// UIs assume the 50/30/20 split, so they must not drift.
const (
	goalWeight     = 0.5
	weeklyWeight   = 0.3
	activityWeight = 0.2
)

// activityDecayPerDay is how many points the activity component loses for
// each full day without a logged event. Same-day activity scores 100.
const activityDecayPerDay = 15

// recalcTimeout bounds a background recalculation triggered by an event.
const recalcTimeout = 10 * time.Second

// --- Service Interface ---

// ProgressService computes and caches the composite progress breakdown for
// clients.
type ProgressService interface {
	// Recalculate computes a fresh breakdown for the client, persists it onto
	// the user record, and returns it. A persistence failure is logged but
	// the computed breakdown is still returned; the next triggering event
	// retries the write.
	Recalculate(ctx context.Context, clientID primitive.ObjectID) (domain.ProgressBreakdown, error)

	// RecalculateAsync triggers a recalculation without blocking the caller.
	// Failures are logged, never propagated: a logged workout must succeed
	// even if the progress write fails.
	RecalculateAsync(clientID primitive.ObjectID)

	// RecalculateAll recomputes every client on the coach's roster and
	// returns how many clients were updated. Per-client failures are logged
	// and skipped.
	RecalculateAll(ctx context.Context, coachID primitive.ObjectID) (int, error)
}

// --- Service Implementation ---

// progressService implements the ProgressService interface.
type progressService struct {
	userRepo     repository.UserRepository
	goalRepo     repository.GoalRepository
	scheduleRepo repository.ScheduleRepository
	now          func() time.Time
}

// NewProgressService creates a new instance of progressService.
func NewProgressService(
	userRepo repository.UserRepository,
	goalRepo repository.GoalRepository,
	scheduleRepo repository.ScheduleRepository,
) ProgressService {
	return &progressService{
		userRepo:     userRepo,
		goalRepo:     goalRepo,
		scheduleRepo: scheduleRepo,
		now:          time.Now,
	}
}

// Recalculate computes and persists the client's progress breakdown.
func (s *progressService) Recalculate(ctx context.Context, clientID primitive.ObjectID) (domain.ProgressBreakdown, error) {
	if clientID == primitive.NilObjectID {
		return domain.ProgressBreakdown{}, errors.New("client ID is required")
	}

	user, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ProgressBreakdown{}, ErrClientUserNotFound
		}
		return domain.ProgressBreakdown{}, err
	}

	goalProgress, err := s.goalComponent(ctx, clientID)
	if err != nil {
		return domain.ProgressBreakdown{}, err
	}

	weeklyProgress, err := s.weeklyComponent(ctx, clientID)
	if err != nil {
		return domain.ProgressBreakdown{}, err
	}

	activityProgress := s.activityComponent(user.LastActiveAt)

	composite := goalWeight*goalProgress + weeklyWeight*weeklyProgress + activityWeight*activityProgress
	breakdown := domain.ProgressBreakdown{
		CompositeScore:   int(math.Round(clampScore(composite))),
		GoalProgress:     int(math.Round(goalProgress)),
		WeeklyProgress:   int(math.Round(weeklyProgress)),
		ActivityProgress: int(math.Round(activityProgress)),
	}

	// Best effort: a failed write is retried by the next triggering event.
	if err := s.userRepo.UpdateProgress(ctx, clientID, breakdown); err != nil {
		log.Printf("WARN: failed to persist progress for client %s: %v", clientID.Hex(), err)
	}

	return breakdown, nil
}

// RecalculateAsync runs Recalculate in the background with its own timeout.
func (s *progressService) RecalculateAsync(clientID primitive.ObjectID) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recalcTimeout)
		defer cancel()
		if _, err := s.Recalculate(ctx, clientID); err != nil {
			log.Printf("WARN: background progress recalculation for client %s failed: %v", clientID.Hex(), err)
		}
	}()
}

// RecalculateAll sweeps the coach's roster.
func (s *progressService) RecalculateAll(ctx context.Context, coachID primitive.ObjectID) (int, error) {
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return 0, err
	}

	updated := 0
	for _, client := range clients {
		if _, err := s.Recalculate(ctx, client.ID); err != nil {
			log.Printf("WARN: bulk recalculation skipped client %s: %v", client.ID.Hex(), err)
			continue
		}
		updated++
	}
	return updated, nil
}

// goalComponent is the arithmetic mean of per-goal clamped percentages over
// the client's active long-term goals, or 0 with none. Weekly-scope goals
// feed the plan view only.
func (s *progressService) goalComponent(ctx context.Context, clientID primitive.ObjectID) (float64, error) {
	goals, err := s.goalRepo.GetActiveByScope(ctx, clientID, domain.ScopeLongTerm)
	if err != nil {
		return 0, err
	}
	if len(goals) == 0 {
		return 0, nil
	}

	var sum float64
	for i := range goals {
		sum += goals[i].ProgressPercent()
	}
	return sum / float64(len(goals)), nil
}

// weeklyComponent is the fraction of this week's schedule items marked
// completed, scaled to 0-100. A week with no planned items scores 0: an
// empty plan gives no completion signal.
func (s *progressService) weeklyComponent(ctx context.Context, clientID primitive.ObjectID) (float64, error) {
	weekStart := startOfWeek(s.now().UTC())
	weekEnd := weekStart.AddDate(0, 0, 7)

	items, err := s.scheduleRepo.ListItemsInRange(ctx, clientID, weekStart, weekEnd)
	if err != nil {
		return 0, err
	}
	if len(items) == 0 {
		return 0, nil
	}

	completed := 0
	for i := range items {
		if items[i].Completed {
			completed++
		}
	}
	return float64(completed) / float64(len(items)) * 100, nil
}

// activityComponent scores activity recency: 100 for same-day activity,
// decaying by activityDecayPerDay for each full day of inactivity. A client
// who has never logged anything scores 0.
func (s *progressService) activityComponent(lastActiveAt *time.Time) float64 {
	if lastActiveAt == nil {
		return 0
	}
	days := int(s.now().UTC().Sub(lastActiveAt.UTC()).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return clampScore(100 - float64(days*activityDecayPerDay))
}

// startOfWeek returns Monday 00:00 UTC of the week containing t.
func startOfWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
