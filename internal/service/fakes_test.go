package service

import (
	"context"
	"sync"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/notify"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests. They implement just
// enough behavior for the code paths under test; unsupported methods return
// repository.ErrNotFound or no-op.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]*domain.User

	progressWrites []domain.ProgressBreakdown
	touched        []time.Time
	failProgress   bool
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[primitive.ObjectID]*domain.User{}}
}

func (r *fakeUserRepo) add(u *domain.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u.ID == primitive.NilObjectID {
		u.ID = primitive.NewObjectID()
	}
	r.users[u.ID] = u
}

func (r *fakeUserRepo) Create(_ context.Context, user *domain.User) (primitive.ObjectID, error) {
	r.add(user)
	return user.ID, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) AddClientIDToCoach(_ context.Context, coachID, clientID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if coach, ok := r.users[coachID]; ok {
		coach.ClientIDs = append(coach.ClientIDs, clientID)
	}
	return nil
}

func (r *fakeUserRepo) GetClientsByCoachID(_ context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.User
	for _, u := range r.users {
		if u.CoachID != nil && *u.CoachID == coachID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) SetCoachForClient(_ context.Context, clientID, coachID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if client, ok := r.users[clientID]; ok {
		client.CoachID = &coachID
	}
	return nil
}

func (r *fakeUserRepo) TouchLastActive(_ context.Context, clientID primitive.ObjectID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.touched = append(r.touched, at)
	if client, ok := r.users[clientID]; ok {
		client.LastActiveAt = &at
	}
	return nil
}

func (r *fakeUserRepo) UpdateProgress(_ context.Context, clientID primitive.ObjectID, breakdown domain.ProgressBreakdown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failProgress {
		return repository.ErrUpdateFailed
	}
	r.progressWrites = append(r.progressWrites, breakdown)
	if client, ok := r.users[clientID]; ok {
		client.ProgressScore = breakdown.CompositeScore
		client.GoalProgress = breakdown.GoalProgress
		client.WeeklyProgress = breakdown.WeeklyProgress
		client.ActivityProgress = breakdown.ActivityProgress
	}
	return nil
}

type fakeGoalRepo struct {
	mu    sync.Mutex
	goals []domain.Goal
}

func (r *fakeGoalRepo) Create(_ context.Context, goal *domain.Goal) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if goal.ID == primitive.NilObjectID {
		goal.ID = primitive.NewObjectID()
	}
	r.goals = append(r.goals, *goal)
	return goal.ID, nil
}

func (r *fakeGoalRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.goals {
		if r.goals[i].ID == id {
			g := r.goals[i]
			return &g, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeGoalRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Goal
	for i := range r.goals {
		if r.goals[i].ClientID == clientID {
			out = append(out, r.goals[i])
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) GetActiveByScope(_ context.Context, clientID primitive.ObjectID, scope domain.GoalScope) ([]domain.Goal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Goal
	for i := range r.goals {
		g := r.goals[i]
		if g.ClientID == clientID && g.Scope == scope && g.Status == domain.GoalActive {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGoalRepo) Update(_ context.Context, goal *domain.Goal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.goals {
		if r.goals[i].ID == goal.ID {
			r.goals[i] = *goal
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeGoalRepo) Delete(_ context.Context, id, coachID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.goals {
		if r.goals[i].ID == id && r.goals[i].CoachID == coachID {
			r.goals = append(r.goals[:i], r.goals[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeEventRepo struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (r *fakeEventRepo) Create(_ context.Context, event *domain.ProgressEvent) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if event.ID == primitive.NilObjectID {
		event.ID = primitive.NewObjectID()
	}
	r.events = append(r.events, *event)
	return event.ID, nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, id primitive.ObjectID) (*domain.ProgressEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			e := r.events[i]
			return &e, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeEventRepo) ListByTypeInRange(_ context.Context, clientID primitive.ObjectID, eventType domain.EventType, from, to time.Time) ([]domain.ProgressEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ProgressEvent
	for i := range r.events {
		e := r.events[i]
		if e.ClientID != clientID || e.EventType != eventType {
			continue
		}
		if e.DateForMetric.Before(from) || !e.DateForMetric.Before(to) {
			continue
		}
		out = append(out, e)
	}
	// Insertion order in tests is already date-ascending.
	return out, nil
}

func (r *fakeEventRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.events {
		if r.events[i].ID == id {
			r.events = append(r.events[:i], r.events[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeScheduleRepo struct {
	mu    sync.Mutex
	items []domain.WeeklyScheduleItem
	plans []domain.WellnessPlan
}

func (r *fakeScheduleRepo) CreateItem(_ context.Context, item *domain.WeeklyScheduleItem) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if item.ID == primitive.NilObjectID {
		item.ID = primitive.NewObjectID()
	}
	r.items = append(r.items, *item)
	return item.ID, nil
}

func (r *fakeScheduleRepo) GetItemByID(_ context.Context, id primitive.ObjectID) (*domain.WeeklyScheduleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == id {
			item := r.items[i]
			return &item, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeScheduleRepo) ListItemsInRange(_ context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WeeklyScheduleItem
	for i := range r.items {
		item := r.items[i]
		if item.ClientID != clientID {
			continue
		}
		if item.ScheduledOn.Before(from) || !item.ScheduledOn.Before(to) {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *fakeScheduleRepo) SetItemCompleted(_ context.Context, itemID, clientID primitive.ObjectID, completed bool, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.items {
		if r.items[i].ID == itemID && r.items[i].ClientID == clientID {
			r.items[i].Completed = completed
			if completed {
				r.items[i].CompletedAt = &at
			} else {
				r.items[i].CompletedAt = nil
			}
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeScheduleRepo) CreatePlan(_ context.Context, plan *domain.WellnessPlan) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if plan.ID == primitive.NilObjectID {
		plan.ID = primitive.NewObjectID()
	}
	r.plans = append(r.plans, *plan)
	return plan.ID, nil
}

func (r *fakeScheduleRepo) GetActivePlan(_ context.Context, clientID primitive.ObjectID) (*domain.WellnessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.plans {
		if r.plans[i].ClientID == clientID && r.plans[i].IsActive {
			p := r.plans[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeScheduleRepo) GetPlansByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.WellnessPlan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.WellnessPlan
	for i := range r.plans {
		if r.plans[i].ClientID == clientID {
			out = append(out, r.plans[i])
		}
	}
	return out, nil
}

type fakeSettingsRepo struct {
	mu       sync.Mutex
	settings map[primitive.ObjectID]*domain.ClientReminderSettings
	creates  int
}

func newFakeSettingsRepo() *fakeSettingsRepo {
	return &fakeSettingsRepo{settings: map[primitive.ObjectID]*domain.ClientReminderSettings{}}
}

func (r *fakeSettingsRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) (*domain.ClientReminderSettings, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.settings[clientID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *s
	return &copied, nil
}

func (r *fakeSettingsRepo) Create(_ context.Context, settings *domain.ClientReminderSettings) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if settings.ID == primitive.NilObjectID {
		settings.ID = primitive.NewObjectID()
	}
	copied := *settings
	r.settings[settings.ClientID] = &copied
	r.creates++
	return settings.ID, nil
}

func (r *fakeSettingsRepo) Update(_ context.Context, settings *domain.ClientReminderSettings) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.settings[settings.ClientID]; !ok {
		return repository.ErrNotFound
	}
	copied := *settings
	r.settings[settings.ClientID] = &copied
	return nil
}

type fakeSentRepo struct {
	mu   sync.Mutex
	rows []domain.SentReminder
}

func (r *fakeSentRepo) Create(_ context.Context, reminder *domain.SentReminder) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reminder.ID == primitive.NilObjectID {
		reminder.ID = primitive.NewObjectID()
	}
	r.rows = append(r.rows, *reminder)
	return reminder.ID, nil
}

func (r *fakeSentRepo) CountSentOn(_ context.Context, clientID primitive.ObjectID, day string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for i := range r.rows {
		if r.rows[i].ClientID == clientID && r.rows[i].SentDate == day {
			n++
		}
	}
	return n, nil
}

func (r *fakeSentRepo) ExistsSentOn(_ context.Context, clientID primitive.ObjectID, reminderType domain.ReminderType, day string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.rows {
		if r.rows[i].ClientID == clientID && r.rows[i].ReminderType == reminderType && r.rows[i].SentDate == day {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeSentRepo) ListSentOn(_ context.Context, clientID primitive.ObjectID, day string) ([]domain.SentReminder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.SentReminder
	for i := range r.rows {
		if r.rows[i].ClientID == clientID && r.rows[i].SentDate == day {
			out = append(out, r.rows[i])
		}
	}
	return out, nil
}

type fakePushRepo struct {
	mu   sync.Mutex
	subs []domain.PushSubscription
}

func (r *fakePushRepo) Create(_ context.Context, sub *domain.PushSubscription) (primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sub.ID == primitive.NilObjectID {
		sub.ID = primitive.NewObjectID()
	}
	r.subs = append(r.subs, *sub)
	return sub.ID, nil
}

func (r *fakePushRepo) GetByClientID(_ context.Context, clientID primitive.ObjectID) ([]domain.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.PushSubscription
	for i := range r.subs {
		if r.subs[i].ClientID == clientID {
			out = append(out, r.subs[i])
		}
	}
	return out, nil
}

func (r *fakePushRepo) ListSubscribedClientIDs(_ context.Context) ([]primitive.ObjectID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := map[primitive.ObjectID]bool{}
	var out []primitive.ObjectID
	for i := range r.subs {
		if !seen[r.subs[i].ClientID] {
			seen[r.subs[i].ClientID] = true
			out = append(out, r.subs[i].ClientID)
		}
	}
	return out, nil
}

func (r *fakePushRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subs {
		if r.subs[i].ID == id {
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// fakeDispatcher records dispatched notifications and can be told to fail.
type fakeDispatcher struct {
	mu     sync.Mutex
	sent   []notify.Notification
	failFn func(n notify.Notification) error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, n notify.Notification) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFn != nil {
		if err := d.failFn(n); err != nil {
			return err
		}
	}
	d.sent = append(d.sent, n)
	return nil
}

func (d *fakeDispatcher) sentTypes() []domain.ReminderType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]domain.ReminderType, 0, len(d.sent))
	for _, n := range d.sent {
		out = append(out, n.ReminderType)
	}
	return out
}
