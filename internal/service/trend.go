package service

import (
	"fmt"
	"math"
	"time"

	"fitsight/coaching-app/internal/domain"
)

// Trend analysis compares a "recent" window (last up to 7 entries) against an
// "earlier" window (up to 7 entries before that) of a date-sorted series.
// Confidence values are fixed per rule branch; they are compatibility
// constants, not computed statistics.
const (
	trendWindowSize = 7

	proteinChangeThreshold = 10.0 // percent
	calorieChangeThreshold = 15.0 // percent

	confNutritionShift      = 0.8
	confNutritionCalorie    = 0.6
	confNutritionConsistent = 0.7
	confInsufficientHistory = 0.3

	confWorkoutImproving = 0.8
	confWorkoutStable    = 0.6
	confWorkoutDeclining = 0.7

	confBodyPlateau  = 0.7
	confBodyFatLoss  = 0.8
	confBodyLeanGain = 0.6
	confBodyStable   = 0.5
)

// AnalyzeNutritionTrend classifies a client's nutrition series. The input
// must be sorted ascending by date; fewer than 2 entries yields no verdict.
func AnalyzeNutritionTrend(events []domain.ProgressEvent) *domain.TrendVerdict {
	if len(events) < 2 {
		return nil
	}

	recent, earlier := splitWindows(events)
	recentProtein, recentCalories := nutritionAverages(recent)
	earlierProtein, earlierCalories := nutritionAverages(earlier)

	// A zero earlier average means that metric has no usable baseline; its
	// trend contribution is skipped rather than divided.
	proteinChange, proteinOK := percentChange(recentProtein, earlierProtein)
	calorieChange, calorieOK := percentChange(recentCalories, earlierCalories)

	if !proteinOK && !calorieOK {
		return &domain.TrendVerdict{
			Category:    domain.TrendNutrition,
			Trend:       domain.TrendStable,
			Confidence:  confInsufficientHistory,
			Description: "Not enough earlier nutrition history for a comparison yet.",
		}
	}

	if proteinOK && math.Abs(proteinChange) > proteinChangeThreshold {
		if proteinChange > 0 {
			return &domain.TrendVerdict{
				Category:       domain.TrendNutrition,
				Trend:          domain.TrendImproving,
				Confidence:     confNutritionShift,
				Description:    fmt.Sprintf("Protein intake is up %.0f%% versus the previous period.", proteinChange),
				Recommendation: "Keep protein at this level to support your training.",
			}
		}
		return &domain.TrendVerdict{
			Category:       domain.TrendNutrition,
			Trend:          domain.TrendDeclining,
			Confidence:     confNutritionShift,
			Description:    fmt.Sprintf("Protein intake is down %.0f%% versus the previous period.", math.Abs(proteinChange)),
			Recommendation: "Add a protein source to one meal per day.",
		}
	}

	if calorieOK && math.Abs(calorieChange) > calorieChangeThreshold {
		direction := "up"
		if calorieChange < 0 {
			direction = "down"
		}
		return &domain.TrendVerdict{
			Category:    domain.TrendNutrition,
			Trend:       domain.TrendStable,
			Confidence:  confNutritionCalorie,
			Description: fmt.Sprintf("Protein is steady while calories moved %s %.0f%%.", direction, math.Abs(calorieChange)),
		}
	}

	return &domain.TrendVerdict{
		Category:    domain.TrendNutrition,
		Trend:       domain.TrendStable,
		Confidence:  confNutritionConsistent,
		Description: "Nutrition has been consistent over both periods.",
	}
}

// AnalyzeWorkoutTrend classifies training activity by the number of workouts
// in the trailing 7 days of now. Fewer than 2 entries overall yields no
// verdict.
func AnalyzeWorkoutTrend(events []domain.ProgressEvent, now time.Time) *domain.TrendVerdict {
	if len(events) < 2 {
		return nil
	}

	weekAgo := now.AddDate(0, 0, -7)
	count := 0
	for i := range events {
		d := events[i].DateForMetric
		if !d.Before(weekAgo) && !d.After(now) {
			count++
		}
	}

	switch {
	case count >= 4:
		return &domain.TrendVerdict{
			Category:       domain.TrendActivity,
			Trend:          domain.TrendImproving,
			Confidence:     confWorkoutImproving,
			Description:    fmt.Sprintf("%d workouts logged in the last 7 days.", count),
			Recommendation: "Great frequency. Watch recovery on back-to-back days.",
		}
	case count >= 2:
		return &domain.TrendVerdict{
			Category:    domain.TrendActivity,
			Trend:       domain.TrendStable,
			Confidence:  confWorkoutStable,
			Description: fmt.Sprintf("%d workouts logged in the last 7 days.", count),
		}
	default:
		return &domain.TrendVerdict{
			Category:       domain.TrendActivity,
			Trend:          domain.TrendDeclining,
			Confidence:     confWorkoutDeclining,
			Description:    fmt.Sprintf("Only %d workout(s) logged in the last 7 days.", count),
			Recommendation: "Schedule two short sessions this week to rebuild the habit.",
		}
	}
}

// AnalyzeBodyTrend classifies body composition from the two most recent
// check-ins. Fewer than 2 check-ins yields no verdict.
func AnalyzeBodyTrend(events []domain.ProgressEvent) *domain.TrendVerdict {
	checkins := make([]*domain.CheckInPayload, 0, len(events))
	for i := range events {
		if events[i].CheckIn != nil {
			checkins = append(checkins, events[i].CheckIn)
		}
	}
	if len(checkins) < 2 {
		return nil
	}

	prev := checkins[len(checkins)-2]
	latest := checkins[len(checkins)-1]
	deltaWeight := latest.WeightKg - prev.WeightKg
	deltaBodyFat := latest.BodyFatPct - prev.BodyFatPct

	switch {
	case math.Abs(deltaWeight) < 1 && math.Abs(deltaBodyFat) < 1:
		return &domain.TrendVerdict{
			Category:       domain.TrendBody,
			Trend:          domain.TrendPlateau,
			Confidence:     confBodyPlateau,
			Description:    "Weight and body fat are holding steady between check-ins.",
			Recommendation: "Consider adjusting calories or training volume to break the plateau.",
		}
	case deltaBodyFat < -1:
		return &domain.TrendVerdict{
			Category:    domain.TrendBody,
			Trend:       domain.TrendImproving,
			Confidence:  confBodyFatLoss,
			Description: fmt.Sprintf("Body fat dropped %.1f points since the last check-in.", math.Abs(deltaBodyFat)),
		}
	case deltaWeight > 2 && deltaBodyFat < 0.5:
		return &domain.TrendVerdict{
			Category:    domain.TrendBody,
			Trend:       domain.TrendImproving,
			Confidence:  confBodyLeanGain,
			Description: fmt.Sprintf("Weight is up %.1fkg with body fat flat: likely lean mass.", deltaWeight),
		}
	default:
		return &domain.TrendVerdict{
			Category:    domain.TrendBody,
			Trend:       domain.TrendStable,
			Confidence:  confBodyStable,
			Description: "Body composition changed only slightly between check-ins.",
		}
	}
}

// splitWindows slices a date-sorted series into the recent window (last up
// to trendWindowSize entries) and the earlier window (up to trendWindowSize
// entries before that).
func splitWindows(events []domain.ProgressEvent) (recent, earlier []domain.ProgressEvent) {
	n := len(events)
	recentStart := n - trendWindowSize
	if recentStart < 0 {
		recentStart = 0
	}
	recent = events[recentStart:]

	earlierStart := recentStart - trendWindowSize
	if earlierStart < 0 {
		earlierStart = 0
	}
	earlier = events[earlierStart:recentStart]
	return recent, earlier
}

// nutritionAverages computes mean protein and calories over a window,
// ignoring events without a nutrition payload. An empty window averages 0.
func nutritionAverages(events []domain.ProgressEvent) (protein, calories float64) {
	count := 0
	for i := range events {
		if events[i].Nutrition == nil {
			continue
		}
		protein += events[i].Nutrition.Protein
		calories += events[i].Nutrition.Calories
		count++
	}
	if count == 0 {
		return 0, 0
	}
	return protein / float64(count), calories / float64(count)
}

// percentChange returns (recent-earlier)/earlier*100, reporting ok=false
// when the earlier average is zero so callers skip the metric instead of
// dividing by zero.
func percentChange(recent, earlier float64) (float64, bool) {
	if earlier == 0 {
		return 0, false
	}
	return (recent - earlier) / earlier * 100, true
}
