package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestInQuietHours(t *testing.T) {
	at := func(hour int) time.Time {
		return time.Date(2026, 9, 1, hour, 30, 0, 0, time.UTC)
	}

	t.Run("default window wraps midnight", func(t *testing.T) {
		s := ClientReminderSettings{QuietHoursStart: 21, QuietHoursEnd: 8}

		assert.True(t, s.InQuietHours(at(21)))
		assert.True(t, s.InQuietHours(at(23)))
		assert.True(t, s.InQuietHours(at(0)))
		assert.True(t, s.InQuietHours(at(7)))
		assert.False(t, s.InQuietHours(at(8)))
		assert.False(t, s.InQuietHours(at(12)))
		assert.False(t, s.InQuietHours(at(20)))
	})

	t.Run("non wrapping window", func(t *testing.T) {
		s := ClientReminderSettings{QuietHoursStart: 13, QuietHoursEnd: 15}

		assert.False(t, s.InQuietHours(at(12)))
		assert.True(t, s.InQuietHours(at(13)))
		assert.True(t, s.InQuietHours(at(14)))
		assert.False(t, s.InQuietHours(at(15)))
	})

	t.Run("start equals end disables the window", func(t *testing.T) {
		s := ClientReminderSettings{QuietHoursStart: 9, QuietHoursEnd: 9}

		for hour := 0; hour < 24; hour++ {
			assert.False(t, s.InQuietHours(at(hour)), "hour %d", hour)
		}
	})
}

func TestGoalReminderType(t *testing.T) {
	assert.Equal(t, ReminderGoalWeight, GoalReminderType("lose_weight"))
	assert.Equal(t, ReminderGoalWorkout, GoalReminderType("gain_muscle_strength"))
	assert.Equal(t, ReminderGoalNutrition, GoalReminderType("eat_healthier"))
	assert.Equal(t, ReminderGoalGeneral, GoalReminderType("learn_to_juggle"))
}

func TestNewDefaultReminderSettings(t *testing.T) {
	clientID := primitive.NewObjectID()
	s := NewDefaultReminderSettings(clientID)

	assert.Equal(t, clientID, s.ClientID)
	assert.True(t, s.RemindersEnabled)
	assert.True(t, s.GoalRemindersEnabled)
	assert.True(t, s.PlanRemindersEnabled)
	assert.True(t, s.InactivityRemindersEnabled)
	assert.Equal(t, 2, s.InactivityThresholdDays)
	assert.Equal(t, 21, s.QuietHoursStart)
	assert.Equal(t, 8, s.QuietHoursEnd)
	assert.Equal(t, 3, s.MaxRemindersPerDay)
}

func TestDayKey(t *testing.T) {
	assert.Equal(t, "2026-09-01", DayKey(time.Date(2026, 9, 1, 23, 59, 0, 0, time.UTC)))
}
