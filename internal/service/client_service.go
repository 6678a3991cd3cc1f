package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"
	"fitsight/coaching-app/internal/storage"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrUploadURLError = errors.New("failed to generate upload URL")
)

// UploadURLResponse structure for returning URL and object key
type UploadURLResponse struct {
	UploadURL string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"` // The key the client reports back on the check-in payload
}

// --- Service Interface ---

// ClientService covers the client-facing read surface plus the client's own
// settings and device registration.
type ClientService interface {
	GetMyProgress(ctx context.Context, clientID primitive.ObjectID) (domain.ProgressBreakdown, error)
	GetMyGoals(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error)
	GetMySchedule(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error)

	RegisterPushSubscription(ctx context.Context, clientID primitive.ObjectID, sub *domain.PushSubscription) (*domain.PushSubscription, error)

	// RequestCheckInPhotoUploadURL presigns a direct upload for a check-in
	// photo; the returned object key goes onto the check-in payload.
	RequestCheckInPhotoUploadURL(ctx context.Context, clientID primitive.ObjectID, contentType string) (*UploadURLResponse, error)
}

// --- Service Implementation ---

// clientService implements the ClientService interface.
type clientService struct {
	goalRepo     repository.GoalRepository
	scheduleRepo repository.ScheduleRepository
	pushRepo     repository.PushSubscriptionRepository
	progress     ProgressService
	fileStorage  storage.FileStorage
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	goalRepo repository.GoalRepository,
	scheduleRepo repository.ScheduleRepository,
	pushRepo repository.PushSubscriptionRepository,
	progress ProgressService,
	fileStorage storage.FileStorage,
) ClientService {
	return &clientService{
		goalRepo:     goalRepo,
		scheduleRepo: scheduleRepo,
		pushRepo:     pushRepo,
		progress:     progress,
		fileStorage:  fileStorage,
	}
}

// GetMyProgress computes a fresh breakdown for the client.
func (s *clientService) GetMyProgress(ctx context.Context, clientID primitive.ObjectID) (domain.ProgressBreakdown, error) {
	return s.progress.Recalculate(ctx, clientID)
}

// GetMyGoals lists the client's goals.
func (s *clientService) GetMyGoals(ctx context.Context, clientID primitive.ObjectID) ([]domain.Goal, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	return s.goalRepo.GetByClientID(ctx, clientID)
}

// GetMySchedule lists the client's schedule items in [from, to).
func (s *clientService) GetMySchedule(ctx context.Context, clientID primitive.ObjectID, from, to time.Time) ([]domain.WeeklyScheduleItem, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	return s.scheduleRepo.ListItemsInRange(ctx, clientID, from, to)
}

// RegisterPushSubscription stores a push endpoint for the client's device.
func (s *clientService) RegisterPushSubscription(ctx context.Context, clientID primitive.ObjectID, sub *domain.PushSubscription) (*domain.PushSubscription, error) {
	if clientID == primitive.NilObjectID || sub == nil || sub.Endpoint == "" {
		return nil, errors.New("client ID and subscription endpoint are required")
	}

	sub.ClientID = clientID
	id, err := s.pushRepo.Create(ctx, sub)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	return sub, nil
}

// RequestCheckInPhotoUploadURL generates a presigned PUT URL for a photo.
func (s *clientService) RequestCheckInPhotoUploadURL(ctx context.Context, clientID primitive.ObjectID, contentType string) (*UploadURLResponse, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}
	if contentType == "" || !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return nil, errors.New("invalid or missing image content type")
	}

	uniqueID := uuid.NewString()
	fileExtension := ""
	parts := strings.Split(contentType, "/")
	if len(parts) == 2 {
		fileExtension = parts[1]
	}
	objectKey := path.Join("checkins", clientID.Hex(), fmt.Sprintf("%s.%s", uniqueID, fileExtension))

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, ErrUploadURLError
	}

	return &UploadURLResponse{
		UploadURL: uploadURL,
		ObjectKey: objectKey,
	}, nil
}
