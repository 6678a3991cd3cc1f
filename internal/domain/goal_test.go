package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func fptr(v float64) *float64 { return &v }

func TestGoalProgressPercent(t *testing.T) {
	tests := []struct {
		name     string
		goal     Goal
		expected float64
	}{
		{
			name: "weight loss partway",
			goal: Goal{
				BaselineValue: fptr(80),
				CurrentValue:  fptr(70),
				TargetValue:   fptr(60),
			},
			expected: 50,
		},
		{
			name: "gain goal partway",
			goal: Goal{
				BaselineValue: fptr(0),
				CurrentValue:  fptr(15),
				TargetValue:   fptr(20),
			},
			expected: 75,
		},
		{
			name: "target reached exactly",
			goal: Goal{
				BaselineValue: fptr(80),
				CurrentValue:  fptr(60),
				TargetValue:   fptr(60),
			},
			expected: 100,
		},
		{
			name: "overshoot clamps to 100",
			goal: Goal{
				BaselineValue: fptr(80),
				CurrentValue:  fptr(55),
				TargetValue:   fptr(60),
			},
			expected: 100,
		},
		{
			name: "moving backwards clamps to 0",
			goal: Goal{
				BaselineValue: fptr(80),
				CurrentValue:  fptr(85),
				TargetValue:   fptr(60),
			},
			expected: 0,
		},
		{
			name: "target equals baseline yields 0 not a division",
			goal: Goal{
				BaselineValue: fptr(70),
				CurrentValue:  fptr(70),
				TargetValue:   fptr(70),
			},
			expected: 0,
		},
		{
			name: "no baseline degrades to current over target",
			goal: Goal{
				CurrentValue: fptr(12),
				TargetValue:  fptr(20),
			},
			expected: 60,
		},
		{
			name: "no baseline and zero target yields 0",
			goal: Goal{
				CurrentValue: fptr(12),
				TargetValue:  fptr(0),
			},
			expected: 0,
		},
		{
			name: "all zero values yields 0 not NaN",
			goal: Goal{
				BaselineValue: fptr(0),
				CurrentValue:  fptr(0),
				TargetValue:   fptr(0),
			},
			expected: 0,
		},
		{
			name:     "all values missing yields 0",
			goal:     Goal{},
			expected: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.expected, tc.goal.ProgressPercent(), 0.0001)
		})
	}
}
