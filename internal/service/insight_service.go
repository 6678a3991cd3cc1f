package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"fitsight/coaching-app/internal/ai"
	"fitsight/coaching-app/internal/domain"
	"fitsight/coaching-app/internal/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// insightLookbackDays is how far back the insight endpoint reads events.
const insightLookbackDays = 30

const summarySystemPrompt = "You are a supportive fitness coach assistant. " +
	"Summarize the client's trends in two or three encouraging sentences. " +
	"Do not invent numbers that are not in the input."

// ClientInsights bundles the trend verdicts for one client with a
// natural-language summary.
type ClientInsights struct {
	Verdicts []domain.TrendVerdict `json:"verdicts"`
	Summary  string                `json:"summary"`
}

// --- Service Interface ---

// InsightService produces trend verdicts and summaries for a client.
type InsightService interface {
	GetClientInsights(ctx context.Context, clientID primitive.ObjectID) (*ClientInsights, error)
}

// --- Service Implementation ---

// insightService implements the InsightService interface.
type insightService struct {
	eventRepo repository.EventRepository
	chat      ai.ChatClient
	now       func() time.Time
}

// NewInsightService creates a new instance of insightService.
func NewInsightService(eventRepo repository.EventRepository, chat ai.ChatClient) InsightService {
	return &insightService{
		eventRepo: eventRepo,
		chat:      chat,
		now:       time.Now,
	}
}

// GetClientInsights analyzes the client's recent nutrition, workout, and
// check-in series and attaches a summary. Categories without enough data
// simply produce no verdict; they never error.
func (s *insightService) GetClientInsights(ctx context.Context, clientID primitive.ObjectID) (*ClientInsights, error) {
	if clientID == primitive.NilObjectID {
		return nil, errors.New("client ID is required")
	}

	now := s.now().UTC()
	from := now.AddDate(0, 0, -insightLookbackDays)
	to := now.AddDate(0, 0, 1)

	verdicts := make([]domain.TrendVerdict, 0, 3)

	nutrition, err := s.eventRepo.ListByTypeInRange(ctx, clientID, domain.EventNutrition, from, to)
	if err != nil {
		return nil, err
	}
	if v := AnalyzeNutritionTrend(nutrition); v != nil {
		verdicts = append(verdicts, *v)
	}

	workouts, err := s.eventRepo.ListByTypeInRange(ctx, clientID, domain.EventWorkout, from, to)
	if err != nil {
		return nil, err
	}
	if v := AnalyzeWorkoutTrend(workouts, now); v != nil {
		verdicts = append(verdicts, *v)
	}

	checkins, err := s.eventRepo.ListByTypeInRange(ctx, clientID, domain.EventCheckIn, from, to)
	if err != nil {
		return nil, err
	}
	if v := AnalyzeBodyTrend(checkins); v != nil {
		verdicts = append(verdicts, *v)
	}

	return &ClientInsights{
		Verdicts: verdicts,
		Summary:  s.summarize(ctx, verdicts),
	}, nil
}

// summarize asks the chat client for a natural-language summary and falls
// back to the deterministic rule-based text on any failure. The fallback is
// the contract: an insight response never fails because the external call
// did.
func (s *insightService) summarize(ctx context.Context, verdicts []domain.TrendVerdict) string {
	fallback := RuleBasedSummary(verdicts)
	if s.chat == nil || len(verdicts) == 0 {
		return fallback
	}

	var b strings.Builder
	for _, v := range verdicts {
		fmt.Fprintf(&b, "- %s: %s. %s\n", v.Category, v.Trend, v.Description)
	}

	summary, err := s.chat.Chat(ctx, summarySystemPrompt, b.String())
	if err != nil {
		if !errors.Is(err, ai.ErrDisabled) {
			log.Printf("WARN: insight summary call failed, using rule-based text: %v", err)
		}
		return fallback
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return fallback
	}
	return summary
}

// RuleBasedSummary builds a deterministic summary from the verdicts alone.
// It needs no network access and is the guaranteed floor for insight text.
func RuleBasedSummary(verdicts []domain.TrendVerdict) string {
	if len(verdicts) == 0 {
		return "Not enough logged data yet to spot trends. Keep logging meals, workouts, and check-ins."
	}

	parts := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		switch v.Trend {
		case domain.TrendImproving:
			parts = append(parts, fmt.Sprintf("%s is improving", categoryLabel(v.Category)))
		case domain.TrendDeclining:
			parts = append(parts, fmt.Sprintf("%s is slipping", categoryLabel(v.Category)))
		case domain.TrendPlateau:
			parts = append(parts, fmt.Sprintf("%s has plateaued", categoryLabel(v.Category)))
		default:
			parts = append(parts, fmt.Sprintf("%s is steady", categoryLabel(v.Category)))
		}
	}
	return strings.Join(parts, "; ") + "."
}

func categoryLabel(c domain.TrendCategory) string {
	switch c {
	case domain.TrendNutrition:
		return "Nutrition"
	case domain.TrendActivity:
		return "Training activity"
	case domain.TrendBody:
		return "Body composition"
	default:
		return string(c)
	}
}
