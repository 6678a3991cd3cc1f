package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/notify"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// inactivityLookbackDays bounds how far back the per-signal last-activity
// check reads events.
const inactivityLookbackDays = 30

// --- Service Interface ---

// ReminderService generates and dispatches the bounded set of daily
// reminders for clients. Invariants it owns: at most one reminder of a type
// per client per calendar day, and never more than the client's daily cap.
type ReminderService interface {
	// ProcessClient runs one reminder pass for a client and returns how many
	// reminders were dispatched. bypassQuietHours is used by the manual
	// trigger; dedup and the daily cap still apply.
	ProcessClient(ctx context.Context, clientID primitive.ObjectID, bypassQuietHours bool) (int, error)

	// RunSweep processes every client holding at least one push
	// subscription, sequentially. Per-client failures are logged and do not
	// stop the sweep.
	RunSweep(ctx context.Context) error

	// GetSettings returns the client's reminder settings, lazily creating
	// them with the documented defaults.
	GetSettings(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientReminderSettings, error)

	// UpdateSettings replaces the client's reminder configuration.
	UpdateSettings(ctx context.Context, settings *domain.ClientReminderSettings) error
}

// reminderCandidate is one eligible reminder before the cap is applied.
type reminderCandidate struct {
	reminderType  domain.ReminderType
	category      domain.ReminderCategory
	title         string
	message       string
	relatedGoalID *primitive.ObjectID
	relatedPlanID *primitive.ObjectID
}

// --- Service Implementation ---

// reminderService implements the ReminderService interface.
type reminderService struct {
	userRepo     repository.UserRepository
	goalRepo     repository.GoalRepository
	eventRepo    repository.EventRepository
	scheduleRepo repository.ScheduleRepository
	settingsRepo repository.ReminderSettingsRepository
	sentRepo     repository.SentReminderRepository
	pushRepo     repository.PushSubscriptionRepository
	dispatcher   notify.Dispatcher
	now          func() time.Time

	// Serializes the read-sentReminders/decide/write sequence per client so
	// two overlapping ticks cannot both pass the dedup check.
	mu          sync.Mutex
	clientLocks map[primitive.ObjectID]*sync.Mutex
}

// NewReminderService creates a new instance of reminderService.
func NewReminderService(
	userRepo repository.UserRepository,
	goalRepo repository.GoalRepository,
	eventRepo repository.EventRepository,
	scheduleRepo repository.ScheduleRepository,
	settingsRepo repository.ReminderSettingsRepository,
	sentRepo repository.SentReminderRepository,
	pushRepo repository.PushSubscriptionRepository,
	dispatcher notify.Dispatcher,
) ReminderService {
	return &reminderService{
		userRepo:     userRepo,
		goalRepo:     goalRepo,
		eventRepo:    eventRepo,
		scheduleRepo: scheduleRepo,
		settingsRepo: settingsRepo,
		sentRepo:     sentRepo,
		pushRepo:     pushRepo,
		dispatcher:   dispatcher,
		now:          time.Now,
		clientLocks:  make(map[primitive.ObjectID]*sync.Mutex),
	}
}

func (s *reminderService) lockClient(clientID primitive.ObjectID) func() {
	s.mu.Lock()
	l, ok := s.clientLocks[clientID]
	if !ok {
		l = &sync.Mutex{}
		s.clientLocks[clientID] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RunSweep processes all push-subscribed clients sequentially.
func (s *reminderService) RunSweep(ctx context.Context) error {
	clientIDs, err := s.pushRepo.ListSubscribedClientIDs(ctx)
	if err != nil {
		return err
	}

	for _, clientID := range clientIDs {
		if _, err := s.ProcessClient(ctx, clientID, false); err != nil {
			log.Printf("WARN: reminder pass for client %s failed: %v", clientID.Hex(), err)
		}
	}
	return nil
}

// ProcessClient runs one reminder pass for a single client.
func (s *reminderService) ProcessClient(ctx context.Context, clientID primitive.ObjectID, bypassQuietHours bool) (int, error) {
	if clientID == primitive.NilObjectID {
		return 0, errors.New("client ID is required")
	}

	unlock := s.lockClient(clientID)
	defer unlock()

	settings, err := s.GetSettings(ctx, clientID)
	if err != nil {
		return 0, err
	}

	if !settings.RemindersEnabled {
		log.Printf("reminders disabled for client %s, skipping", clientID.Hex())
		return 0, nil
	}

	now := s.now()
	if !bypassQuietHours && settings.InQuietHours(now) {
		log.Printf("client %s is in quiet hours, skipping", clientID.Hex())
		return 0, nil
	}

	day := domain.DayKey(now)
	alreadySent, err := s.sentRepo.CountSentOn(ctx, clientID, day)
	if err != nil {
		return 0, err
	}
	slots := settings.MaxRemindersPerDay - int(alreadySent)
	if slots <= 0 {
		log.Printf("client %s reached the daily reminder cap, skipping", clientID.Hex())
		return 0, nil
	}

	candidates, err := s.generateCandidates(ctx, clientID, settings, now, day)
	if err != nil {
		return 0, err
	}
	if len(candidates) > slots {
		candidates = candidates[:slots]
	}

	sent := 0
	for _, c := range candidates {
		n := notify.Notification{
			ClientID:     clientID,
			Title:        c.title,
			Message:      c.message,
			ReminderType: c.reminderType,
		}
		if err := s.dispatcher.Dispatch(ctx, n); err != nil {
			// No SentReminder row: a failed dispatch must stay eligible for
			// the next tick.
			log.Printf("WARN: dispatch of %s to client %s failed: %v", c.reminderType, clientID.Hex(), err)
			continue
		}

		row := &domain.SentReminder{
			ClientID:      clientID,
			ReminderType:  c.reminderType,
			Category:      c.category,
			SentDate:      day,
			RelatedGoalID: c.relatedGoalID,
			RelatedPlanID: c.relatedPlanID,
		}
		if _, err := s.sentRepo.Create(ctx, row); err != nil {
			log.Printf("WARN: failed to record sent reminder %s for client %s: %v", c.reminderType, clientID.Hex(), err)
		}
		sent++
	}
	return sent, nil
}

// generateCandidates builds the deduplicated candidate pool in priority
// order: inactivity signals first, then goal nudges, then plan nudges.
func (s *reminderService) generateCandidates(ctx context.Context, clientID primitive.ObjectID, settings *domain.ClientReminderSettings, now time.Time, day string) ([]reminderCandidate, error) {
	var pool []reminderCandidate
	seen := make(map[domain.ReminderType]bool)

	appendUnique := func(c reminderCandidate) error {
		if seen[c.reminderType] {
			return nil
		}
		sent, err := s.sentRepo.ExistsSentOn(ctx, clientID, c.reminderType, day)
		if err != nil {
			return err
		}
		if sent {
			return nil
		}
		seen[c.reminderType] = true
		pool = append(pool, c)
		return nil
	}

	if settings.InactivityRemindersEnabled {
		inactivity, err := s.inactivityCandidates(ctx, clientID, settings, now)
		if err != nil {
			return nil, err
		}
		for _, c := range inactivity {
			if err := appendUnique(c); err != nil {
				return nil, err
			}
		}
	}

	if settings.GoalRemindersEnabled {
		goalCandidates, err := s.goalCandidates(ctx, clientID)
		if err != nil {
			return nil, err
		}
		for _, c := range goalCandidates {
			if err := appendUnique(c); err != nil {
				return nil, err
			}
		}
	}

	if settings.PlanRemindersEnabled {
		planCandidate, err := s.planCandidate(ctx, clientID, now)
		if err != nil {
			return nil, err
		}
		if planCandidate != nil {
			if err := appendUnique(*planCandidate); err != nil {
				return nil, err
			}
		}
	}

	return pool, nil
}

// inactivityCandidates evaluates the three inactivity signals independently.
// Meals and workouts fall back to the client's overall lastActiveAt when no
// event of that type exists; check-ins require prior check-in history and
// use a threshold one day more lenient than the other signals.
func (s *reminderService) inactivityCandidates(ctx context.Context, clientID primitive.ObjectID, settings *domain.ClientReminderSettings, now time.Time) ([]reminderCandidate, error) {
	user, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	threshold := settings.InactivityThresholdDays
	var out []reminderCandidate

	mealDays, mealKnown, err := s.daysSinceLastEvent(ctx, clientID, domain.EventNutrition, now, user.LastActiveAt)
	if err != nil {
		return nil, err
	}
	if mealKnown && mealDays >= threshold {
		out = append(out, reminderCandidate{
			reminderType: domain.ReminderInactivityMeals,
			category:     domain.CategoryInactivity,
			title:        "Missing your meals",
			message:      fmt.Sprintf("No meals logged for %d days. A quick log keeps your coach in the loop.", mealDays),
		})
	}

	workoutDays, workoutKnown, err := s.daysSinceLastEvent(ctx, clientID, domain.EventWorkout, now, user.LastActiveAt)
	if err != nil {
		return nil, err
	}
	if workoutKnown && workoutDays >= threshold {
		out = append(out, reminderCandidate{
			reminderType: domain.ReminderInactivityWorkouts,
			category:     domain.CategoryInactivity,
			title:        "Time to move",
			message:      fmt.Sprintf("No workouts logged for %d days. Even a short session counts.", workoutDays),
		})
	}

	// Check-ins use threshold+1 and never fall back to lastActiveAt: a
	// client who has never checked in is not "behind" on check-ins.
	checkinDays, checkinKnown, err := s.daysSinceLastEvent(ctx, clientID, domain.EventCheckIn, now, nil)
	if err != nil {
		return nil, err
	}
	if checkinKnown && checkinDays >= threshold+1 {
		out = append(out, reminderCandidate{
			reminderType: domain.ReminderInactivityCheckIn,
			category:     domain.CategoryInactivity,
			title:        "Check-in due",
			message:      fmt.Sprintf("Your last check-in was %d days ago. How are you feeling?", checkinDays),
		})
	}

	return out, nil
}

// daysSinceLastEvent returns full days since the client's newest event of
// the given type, falling back to fallbackLastActive when no event exists in
// the lookback window. known is false when neither source is available.
func (s *reminderService) daysSinceLastEvent(ctx context.Context, clientID primitive.ObjectID, eventType domain.EventType, now time.Time, fallbackLastActive *time.Time) (days int, known bool, err error) {
	from := now.AddDate(0, 0, -inactivityLookbackDays)
	to := now.AddDate(0, 0, 1)

	events, err := s.eventRepo.ListByTypeInRange(ctx, clientID, eventType, from, to)
	if err != nil {
		return 0, false, err
	}

	var last time.Time
	if len(events) > 0 {
		last = events[len(events)-1].DateForMetric
	} else if fallbackLastActive != nil {
		last = *fallbackLastActive
	} else {
		return 0, false, nil
	}

	d := int(now.UTC().Sub(last.UTC()).Hours() / 24)
	if d < 0 {
		d = 0
	}
	return d, true, nil
}

// goalCandidates produces one nudge per active long-term goal, typed by the
// goal's category. Duplicate types collapse in the pool.
func (s *reminderService) goalCandidates(ctx context.Context, clientID primitive.ObjectID) ([]reminderCandidate, error) {
	goals, err := s.goalRepo.GetActiveByScope(ctx, clientID, domain.ScopeLongTerm)
	if err != nil {
		return nil, err
	}

	out := make([]reminderCandidate, 0, len(goals))
	for i := range goals {
		goal := goals[i]
		goalID := goal.ID
		out = append(out, reminderCandidate{
			reminderType:  domain.GoalReminderType(goal.GoalType),
			category:      domain.CategoryGoal,
			title:         "Goal check",
			message:       fmt.Sprintf("You're at %.0f%% of \"%s\". Small steps today keep it moving.", goal.ProgressPercent(), goal.Title),
			relatedGoalID: &goalID,
		})
	}
	return out, nil
}

// planCandidate produces one nudge when the client's active plan has
// incomplete items scheduled for today.
func (s *reminderService) planCandidate(ctx context.Context, clientID primitive.ObjectID, now time.Time) (*reminderCandidate, error) {
	plan, err := s.scheduleRepo.GetActivePlan(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	dayStart := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)
	items, err := s.scheduleRepo.ListItemsInRange(ctx, clientID, dayStart, dayStart.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	remaining := 0
	for i := range items {
		if !items[i].Completed {
			remaining++
		}
	}
	if remaining == 0 {
		return nil, nil
	}

	planID := plan.ID
	return &reminderCandidate{
		reminderType:  domain.ReminderPlanToday,
		category:      domain.CategoryPlan,
		title:         "Today's plan",
		message:       fmt.Sprintf("%d item(s) left on \"%s\" today.", remaining, plan.Name),
		relatedPlanID: &planID,
	}, nil
}

// GetSettings returns the client's settings, lazily creating the defaults
// document on first use.
func (s *reminderService) GetSettings(ctx context.Context, clientID primitive.ObjectID) (*domain.ClientReminderSettings, error) {
	settings, err := s.settingsRepo.GetByClientID(ctx, clientID)
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	settings = domain.NewDefaultReminderSettings(clientID)
	if _, createErr := s.settingsRepo.Create(ctx, settings); createErr != nil {
		// Another pass may have created them concurrently; fall back to the
		// in-memory defaults for this pass either way.
		log.Printf("WARN: failed to materialize reminder settings for client %s: %v", clientID.Hex(), createErr)
	}
	return settings, nil
}

// UpdateSettings replaces the client's reminder configuration.
func (s *reminderService) UpdateSettings(ctx context.Context, settings *domain.ClientReminderSettings) error {
	if settings == nil || settings.ClientID == primitive.NilObjectID {
		return errors.New("settings with a client ID are required")
	}
	if settings.MaxRemindersPerDay < 0 {
		return errors.New("maxRemindersPerDay cannot be negative")
	}
	if settings.QuietHoursStart < 0 || settings.QuietHoursStart > 23 ||
		settings.QuietHoursEnd < 0 || settings.QuietHoursEnd > 23 {
		return errors.New("quiet hours must be hours of day (0-23)")
	}

	err := s.settingsRepo.Update(ctx, settings)
	if errors.Is(err, repository.ErrNotFound) {
		_, createErr := s.settingsRepo.Create(ctx, settings)
		return createErr
	}
	return err
}
