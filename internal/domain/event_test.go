package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressEventValidate(t *testing.T) {
	t.Run("valid nutrition event", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventNutrition,
			Nutrition: &NutritionPayload{Calories: 650, Protein: 40},
		}
		require.NoError(t, e.Validate())
	})

	t.Run("valid workout event", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventWorkout,
			Workout:   &WorkoutPayload{WorkoutType: "strength", DurationMinutes: 45},
		}
		require.NoError(t, e.Validate())
	})

	t.Run("payload type mismatch rejected", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventWorkout,
			Nutrition: &NutritionPayload{Calories: 650, Protein: 40},
		}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})

	t.Run("no payload rejected", func(t *testing.T) {
		e := ProgressEvent{EventType: EventWeight}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})

	t.Run("two payloads rejected", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventNutrition,
			Nutrition: &NutritionPayload{Calories: 650, Protein: 40},
			Weight:    &WeightPayload{WeightKg: 80},
		}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})

	t.Run("unknown event type rejected", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventType("sleep"),
			Weight:    &WeightPayload{WeightKg: 80},
		}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})

	t.Run("negative nutrition values rejected", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventNutrition,
			Nutrition: &NutritionPayload{Calories: -10, Protein: 40},
		}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})

	t.Run("non-positive weight rejected", func(t *testing.T) {
		e := ProgressEvent{
			EventType: EventWeight,
			Weight:    &WeightPayload{WeightKg: 0},
		}
		assert.ErrorIs(t, e.Validate(), ErrInvalidEventPayload)
	})
}
