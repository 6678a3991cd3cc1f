package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"
	"fitsight/coaching-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound        = errors.New("client user not found")
	ErrClientNotRole         = errors.New("user found but is not a client")
	ErrClientAlreadyAssigned = errors.New("client is already assigned to a coach")
	ErrClientNotManaged      = errors.New("client is not managed by this coach")
	ErrGoalNotFound          = errors.New("goal not found")
	ErrGoalAccessDenied      = errors.New("access denied to modify this goal")
	ErrReportURLError        = errors.New("failed to generate report download URL")
)

// --- Service Interface ---

// CoachService covers the coach-facing operations: roster management, goal
// and plan authoring, and the bulk/manual triggers for recalculation and
// reminders.
type CoachService interface {
	// Client Management
	AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error)
	GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)

	// Goal Management
	CreateGoal(ctx context.Context, coachID primitive.ObjectID, goal *domain.Goal) (*domain.Goal, error)
	UpdateGoal(ctx context.Context, coachID primitive.ObjectID, goal *domain.Goal) (*domain.Goal, error)
	DeleteGoal(ctx context.Context, coachID, goalID primitive.ObjectID) error
	GetClientGoals(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.Goal, error)

	// Plan / Schedule Management
	CreatePlan(ctx context.Context, coachID primitive.ObjectID, plan *domain.WellnessPlan) (*domain.WellnessPlan, error)
	GetClientPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.WellnessPlan, error)
	CreateScheduleItem(ctx context.Context, coachID primitive.ObjectID, item *domain.WeeklyScheduleItem) (*domain.WeeklyScheduleItem, error)
	GetClientSchedule(ctx context.Context, coachID, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error)

	// Progress
	GetClientProgress(ctx context.Context, coachID, clientID primitive.ObjectID) (domain.ProgressBreakdown, error)
	RecalculateAllClients(ctx context.Context, coachID primitive.ObjectID) (int, error)

	// GenerateReportDownloadURL returns a temporary URL for a previously
	// exported progress report object.
	GenerateReportDownloadURL(ctx context.Context, coachID, clientID primitive.ObjectID, reportKey string) (string, error)
}

// --- Service Implementation ---

// coachService implements the CoachService interface.
type coachService struct {
	userRepo     repository.UserRepository
	goalRepo     repository.GoalRepository
	scheduleRepo repository.ScheduleRepository
	progress     ProgressService
	fileStorage  storage.FileStorage
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	goalRepo repository.GoalRepository,
	scheduleRepo repository.ScheduleRepository,
	progress ProgressService,
	fileStorage storage.FileStorage,
) CoachService {
	return &coachService{
		userRepo:     userRepo,
		goalRepo:     goalRepo,
		scheduleRepo: scheduleRepo,
		progress:     progress,
		fileStorage:  fileStorage,
	}
}

// === Client Management ===

// AddClientByEmail finds a client by email and assigns them to the coach.
func (s *coachService) AddClientByEmail(ctx context.Context, coachID primitive.ObjectID, clientEmail string) (*domain.User, error) {
	if coachID == primitive.NilObjectID || clientEmail == "" {
		return nil, errors.New("coach ID and client email are required")
	}

	client, err := s.userRepo.GetByEmail(ctx, clientEmail)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}

	if client.Role != domain.RoleClient {
		return nil, ErrClientNotRole
	}

	if client.CoachID != nil && *client.CoachID != primitive.NilObjectID {
		if *client.CoachID == coachID {
			// Already managed by this coach.
			return client, nil
		}
		return nil, ErrClientAlreadyAssigned
	}

	if err := s.userRepo.AddClientIDToCoach(ctx, coachID, client.ID); err != nil {
		return nil, err
	}
	if err := s.userRepo.SetCoachForClient(ctx, client.ID, coachID); err != nil {
		return nil, err
	}

	client.CoachID = &coachID
	return client, nil
}

// GetManagedClients retrieves the list of clients managed by the coach.
func (s *coachService) GetManagedClients(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	if coachID == primitive.NilObjectID {
		return nil, errors.New("coach ID is required")
	}
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}
	for i := range clients {
		clients[i].PasswordHash = ""
	}
	return clients, nil
}

// verifyManaged checks the client exists and belongs to the coach.
func (s *coachService) verifyManaged(ctx context.Context, coachID, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrClientNotRole
	}
	if client.CoachID == nil || *client.CoachID != coachID {
		return nil, ErrClientNotManaged
	}
	return client, nil
}

// === Goal Management ===

// CreateGoal creates a goal for a managed client and triggers recalculation.
func (s *coachService) CreateGoal(ctx context.Context, coachID primitive.ObjectID, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil {
		return nil, errors.New("goal is required")
	}
	if _, err := s.verifyManaged(ctx, coachID, goal.ClientID); err != nil {
		return nil, err
	}

	goal.CoachID = coachID
	id, err := s.goalRepo.Create(ctx, goal)
	if err != nil {
		return nil, err
	}
	goal.ID = id

	s.progress.RecalculateAsync(goal.ClientID)
	return goal, nil
}

// UpdateGoal updates a goal owned by the coach and triggers recalculation.
func (s *coachService) UpdateGoal(ctx context.Context, coachID primitive.ObjectID, goal *domain.Goal) (*domain.Goal, error) {
	if goal == nil || goal.ID == primitive.NilObjectID {
		return nil, errors.New("goal with an ID is required")
	}

	existing, err := s.goalRepo.GetByID(ctx, goal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrGoalNotFound
		}
		return nil, err
	}
	if existing.CoachID != coachID {
		return nil, ErrGoalAccessDenied
	}

	// Ownership fields are immutable on update.
	goal.ClientID = existing.ClientID
	goal.CoachID = existing.CoachID

	if err := s.goalRepo.Update(ctx, goal); err != nil {
		return nil, err
	}

	s.progress.RecalculateAsync(goal.ClientID)
	return goal, nil
}

// DeleteGoal removes a goal owned by the coach and triggers recalculation.
func (s *coachService) DeleteGoal(ctx context.Context, coachID, goalID primitive.ObjectID) error {
	goal, err := s.goalRepo.GetByID(ctx, goalID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGoalNotFound
		}
		return err
	}

	if err := s.goalRepo.Delete(ctx, goalID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrGoalAccessDenied
		}
		return err
	}

	s.progress.RecalculateAsync(goal.ClientID)
	return nil
}

// GetClientGoals lists a managed client's goals.
func (s *coachService) GetClientGoals(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.Goal, error) {
	if _, err := s.verifyManaged(ctx, coachID, clientID); err != nil {
		return nil, err
	}
	return s.goalRepo.GetByClientID(ctx, clientID)
}

// === Plan / Schedule Management ===

// CreatePlan creates a wellness plan for a managed client.
func (s *coachService) CreatePlan(ctx context.Context, coachID primitive.ObjectID, plan *domain.WellnessPlan) (*domain.WellnessPlan, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}
	if _, err := s.verifyManaged(ctx, coachID, plan.ClientID); err != nil {
		return nil, err
	}

	plan.CoachID = coachID
	id, err := s.scheduleRepo.CreatePlan(ctx, plan)
	if err != nil {
		return nil, err
	}
	plan.ID = id
	return plan, nil
}

// GetClientPlans lists a managed client's plans.
func (s *coachService) GetClientPlans(ctx context.Context, coachID, clientID primitive.ObjectID) ([]domain.WellnessPlan, error) {
	if _, err := s.verifyManaged(ctx, coachID, clientID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.GetPlansByClientID(ctx, clientID)
}

// CreateScheduleItem plans one dated task for a managed client.
func (s *coachService) CreateScheduleItem(ctx context.Context, coachID primitive.ObjectID, item *domain.WeeklyScheduleItem) (*domain.WeeklyScheduleItem, error) {
	if item == nil {
		return nil, errors.New("schedule item is required")
	}
	if _, err := s.verifyManaged(ctx, coachID, item.ClientID); err != nil {
		return nil, err
	}

	item.CoachID = coachID
	id, err := s.scheduleRepo.CreateItem(ctx, item)
	if err != nil {
		return nil, err
	}
	item.ID = id

	s.progress.RecalculateAsync(item.ClientID)
	return item, nil
}

// GetClientSchedule lists a managed client's schedule items in [from, to).
func (s *coachService) GetClientSchedule(ctx context.Context, coachID, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error) {
	if _, err := s.verifyManaged(ctx, coachID, clientID); err != nil {
		return nil, err
	}
	return s.scheduleRepo.ListItemsInRange(ctx, clientID, from, to)
}

// === Progress ===

// GetClientProgress returns a fresh breakdown for a managed client.
func (s *coachService) GetClientProgress(ctx context.Context, coachID, clientID primitive.ObjectID) (domain.ProgressBreakdown, error) {
	if _, err := s.verifyManaged(ctx, coachID, clientID); err != nil {
		return domain.ProgressBreakdown{}, err
	}
	return s.progress.Recalculate(ctx, clientID)
}

// RecalculateAllClients recomputes the coach's whole roster.
func (s *coachService) RecalculateAllClients(ctx context.Context, coachID primitive.ObjectID) (int, error) {
	if coachID == primitive.NilObjectID {
		return 0, errors.New("coach ID is required")
	}
	return s.progress.RecalculateAll(ctx, coachID)
}

// GenerateReportDownloadURL presigns a download for an exported report.
func (s *coachService) GenerateReportDownloadURL(ctx context.Context, coachID, clientID primitive.ObjectID, reportKey string) (string, error) {
	if _, err := s.verifyManaged(ctx, coachID, clientID); err != nil {
		return "", err
	}
	// Reports live under a per-client prefix; refuse keys outside it.
	expectedPrefix := path.Join("reports", clientID.Hex()) + "/"
	if reportKey == "" || len(reportKey) <= len(expectedPrefix) || reportKey[:len(expectedPrefix)] != expectedPrefix {
		return "", fmt.Errorf("invalid report key for client %s", clientID.Hex())
	}

	url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, reportKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return "", ErrReportURLError
	}
	return url, nil
}

// NewReportObjectKey builds the object key for a new report export.
func NewReportObjectKey(clientID primitive.ObjectID) string {
	return path.Join("reports", clientID.Hex(), fmt.Sprintf("%s.pdf", uuid.NewString()))
}
