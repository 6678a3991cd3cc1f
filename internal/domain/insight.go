package domain

// TrendDirection classifies how a client's recent data compares to the
// preceding window.
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
	TrendPlateau   TrendDirection = "plateau"
)

// TrendCategory names the data series a verdict was computed over.
type TrendCategory string

const (
	TrendNutrition TrendCategory = "nutrition"
	TrendActivity  TrendCategory = "activity"
	TrendBody      TrendCategory = "body_composition"
)

// TrendVerdict is the structured result of a trend analysis over one
// category of client data. Confidence is a fixed per-rule constant, not a
// computed statistic.
type TrendVerdict struct {
	Category       TrendCategory  `json:"category"`
	Trend          TrendDirection `json:"trend"`
	Confidence     float64        `json:"confidence"` // 0-1
	Description    string         `json:"description"`
	Recommendation string         `json:"recommendation,omitempty"`
}

// ProgressBreakdown is the composite score plus its three components, as
// served to the API layer for a client progress endpoint.
type ProgressBreakdown struct {
	CompositeScore   int `json:"compositeScore"`
	GoalProgress     int `json:"goalProgress"`
	WeeklyProgress   int `json:"weeklyProgress"`
	ActivityProgress int `json:"activityProgress"`
}
