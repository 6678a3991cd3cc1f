package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type reminderFixture struct {
	svc          *reminderService
	userRepo     *fakeUserRepo
	goalRepo     *fakeGoalRepo
	eventRepo    *fakeEventRepo
	scheduleRepo *fakeScheduleRepo
	settingsRepo *fakeSettingsRepo
	sentRepo     *fakeSentRepo
	pushRepo     *fakePushRepo
	dispatcher   *fakeDispatcher
	clientID     primitive.ObjectID
	now          time.Time
}

func newReminderFixture(t *testing.T) *reminderFixture {
	t.Helper()

	f := &reminderFixture{
		userRepo:     newFakeUserRepo(),
		goalRepo:     &fakeGoalRepo{},
		eventRepo:    &fakeEventRepo{},
		scheduleRepo: &fakeScheduleRepo{},
		settingsRepo: newFakeSettingsRepo(),
		sentRepo:     &fakeSentRepo{},
		pushRepo:     &fakePushRepo{},
		dispatcher:   &fakeDispatcher{},
		// Midday, well outside the default quiet hours.
		now: time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC),
	}

	client := &domain.User{Role: domain.RoleClient, Email: "client@example.com"}
	f.userRepo.add(client)
	f.clientID = client.ID

	f.svc = NewReminderService(
		f.userRepo, f.goalRepo, f.eventRepo, f.scheduleRepo,
		f.settingsRepo, f.sentRepo, f.pushRepo, f.dispatcher,
	).(*reminderService)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *reminderFixture) logEvent(eventType domain.EventType, daysAgo int) {
	e := &domain.ProgressEvent{
		ClientID:      f.clientID,
		EventType:     eventType,
		DateForMetric: f.now.AddDate(0, 0, -daysAgo),
	}
	switch eventType {
	case domain.EventNutrition:
		e.Nutrition = &domain.NutritionPayload{Calories: 600, Protein: 35}
	case domain.EventWorkout:
		e.Workout = &domain.WorkoutPayload{WorkoutType: "strength", DurationMinutes: 40}
	case domain.EventWeight:
		e.Weight = &domain.WeightPayload{WeightKg: 80}
	case domain.EventCheckIn:
		e.CheckIn = &domain.CheckInPayload{WeightKg: 80}
	}
	f.eventRepo.Create(context.Background(), e)
}

func TestProcessClientInactivityScenario(t *testing.T) {
	// Client inactive for 5 days with no check-in history: the meal and
	// workout signals fire, the check-in signal does not.
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.ElementsMatch(t,
		[]domain.ReminderType{domain.ReminderInactivityMeals, domain.ReminderInactivityWorkouts},
		f.dispatcher.sentTypes())
}

func TestProcessClientCheckInSignalNeedsHistory(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	// With a check-in 5 days ago, the check-in signal fires too
	// (threshold 2 + 1 = 3 days).
	f.logEvent(domain.EventCheckIn, 5)

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent)
	assert.Contains(t, f.dispatcher.sentTypes(), domain.ReminderInactivityCheckIn)
}

func TestProcessClientRecentActivitySilent(t *testing.T) {
	f := newReminderFixture(t)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, f.now))
	f.logEvent(domain.EventNutrition, 0)
	f.logEvent(domain.EventWorkout, 1)

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.dispatcher.sent)
}

func TestProcessClientDedupAcrossTicks(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	first, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	// Same day, second tick: both types already sent.
	second, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, second)
	assert.Len(t, f.dispatcher.sent, 2)

	// Next day the same signals are eligible again.
	f.now = f.now.AddDate(0, 0, 1)
	third, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, third)
}

func TestProcessClientDailyCap(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))
	f.logEvent(domain.EventCheckIn, 6)

	// Two distinct goal nudges on top of three inactivity signals.
	base, target := 80.0, 60.0
	current := 75.0
	f.goalRepo.Create(context.Background(), &domain.Goal{
		ClientID: f.clientID, Title: "Lose weight", GoalType: "lose_weight",
		Scope: domain.ScopeLongTerm, Status: domain.GoalActive,
		BaselineValue: &base, CurrentValue: &current, TargetValue: &target,
	})
	f.goalRepo.Create(context.Background(), &domain.Goal{
		ClientID: f.clientID, Title: "Eat better", GoalType: "eat_healthier",
		Scope: domain.ScopeLongTerm, Status: domain.GoalActive,
	})

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 3, sent, "daily cap limits the first pass")

	// Inactivity signals outrank goal nudges in the pool.
	assert.ElementsMatch(t,
		[]domain.ReminderType{
			domain.ReminderInactivityMeals,
			domain.ReminderInactivityWorkouts,
			domain.ReminderInactivityCheckIn,
		},
		f.dispatcher.sentTypes())

	// The cap also holds across ticks on the same day.
	sent, err = f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Len(t, f.dispatcher.sent, 3)
}

func TestProcessClientGoalTypeDedup(t *testing.T) {
	f := newReminderFixture(t)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, f.now))

	// Two weight goals collapse into a single goal_weight nudge.
	f.goalRepo.Create(context.Background(), &domain.Goal{
		ClientID: f.clientID, Title: "Cut to 75", GoalType: "lose_weight",
		Scope: domain.ScopeLongTerm, Status: domain.GoalActive,
	})
	f.goalRepo.Create(context.Background(), &domain.Goal{
		ClientID: f.clientID, Title: "Hold at 75", GoalType: "maintain_weight",
		Scope: domain.ScopeLongTerm, Status: domain.GoalActive,
	})

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []domain.ReminderType{domain.ReminderGoalWeight}, f.dispatcher.sentTypes())
}

func TestProcessClientQuietHours(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	// 23:00 falls inside the default 21-8 window.
	f.now = time.Date(2026, 9, 1, 23, 0, 0, 0, time.UTC)

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.dispatcher.sent)

	// A manual trigger bypasses quiet hours but nothing else.
	sent, err = f.svc.ProcessClient(context.Background(), f.clientID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
}

func TestProcessClientRemindersDisabled(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	settings := domain.NewDefaultReminderSettings(f.clientID)
	settings.RemindersEnabled = false
	_, err := f.settingsRepo.Create(context.Background(), settings)
	require.NoError(t, err)

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestProcessClientDispatchFailureStaysEligible(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	// First pass: every dispatch fails. No SentReminder rows may be written.
	f.dispatcher.failFn = func(notify.Notification) error {
		return errors.New("gateway unavailable")
	}
	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
	assert.Empty(t, f.sentRepo.rows)

	// Second pass same day: the gateway recovered, both signals go out.
	f.dispatcher.failFn = nil
	sent, err = f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.sentRepo.rows, 2)
}

func TestProcessClientPlanReminder(t *testing.T) {
	f := newReminderFixture(t)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, f.now))

	f.scheduleRepo.CreatePlan(context.Background(), &domain.WellnessPlan{
		ClientID: f.clientID, Name: "Phase 1", IsActive: true,
	})
	today := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	f.scheduleRepo.CreateItem(context.Background(), &domain.WeeklyScheduleItem{
		ClientID: f.clientID, Title: "Upper body", ScheduledOn: today,
	})
	f.scheduleRepo.CreateItem(context.Background(), &domain.WeeklyScheduleItem{
		ClientID: f.clientID, Title: "Meal prep", ScheduledOn: today, Completed: true,
	})

	sent, err := f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, sent)
	assert.Equal(t, []domain.ReminderType{domain.ReminderPlanToday}, f.dispatcher.sentTypes())

	// With everything done there is nothing to nudge the next day.
	require.NoError(t, f.scheduleRepo.SetItemCompleted(context.Background(), f.scheduleRepo.items[0].ID, f.clientID, true, f.now))
	f.now = f.now.AddDate(0, 0, 1)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, f.now))
	sent, err = f.svc.ProcessClient(context.Background(), f.clientID, false)
	require.NoError(t, err)
	assert.Zero(t, sent)
}

func TestGetSettingsLazilyCreatesDefaults(t *testing.T) {
	f := newReminderFixture(t)

	settings, err := f.svc.GetSettings(context.Background(), f.clientID)
	require.NoError(t, err)
	assert.Equal(t, domain.ReminderDefaults.MaxRemindersPerDay, settings.MaxRemindersPerDay)
	assert.Equal(t, 1, f.settingsRepo.creates)

	// Second read returns the stored document without another create.
	_, err = f.svc.GetSettings(context.Background(), f.clientID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.settingsRepo.creates)
}

func TestUpdateSettingsValidation(t *testing.T) {
	f := newReminderFixture(t)

	err := f.svc.UpdateSettings(context.Background(), nil)
	assert.Error(t, err)

	bad := domain.NewDefaultReminderSettings(f.clientID)
	bad.QuietHoursStart = 25
	assert.Error(t, f.svc.UpdateSettings(context.Background(), bad))

	good := domain.NewDefaultReminderSettings(f.clientID)
	good.MaxRemindersPerDay = 1
	require.NoError(t, f.svc.UpdateSettings(context.Background(), good))

	stored, err := f.settingsRepo.GetByClientID(context.Background(), f.clientID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.MaxRemindersPerDay)
}

func TestRunSweepOnlyTouchesSubscribedClients(t *testing.T) {
	f := newReminderFixture(t)
	lastActive := f.now.AddDate(0, 0, -5)
	require.NoError(t, f.userRepo.TouchLastActive(context.Background(), f.clientID, lastActive))

	// An unsubscribed inactive client exists too.
	other := &domain.User{Role: domain.RoleClient, LastActiveAt: &lastActive}
	f.userRepo.add(other)

	f.pushRepo.Create(context.Background(), &domain.PushSubscription{
		ClientID: f.clientID, Endpoint: "https://push.example.com/abc",
	})

	require.NoError(t, f.svc.RunSweep(context.Background()))
	assert.Len(t, f.dispatcher.sent, 2)
	for _, n := range f.dispatcher.sent {
		assert.Equal(t, f.clientID, n.ClientID)
	}
}
