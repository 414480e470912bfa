package health

import "time"

// Trend describes score movement relative to the previous calculation.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// Component names. The composite score is built from exactly these five.
const (
	ComponentAdoption     = "adoption"
	ComponentEngagement   = "engagement"
	ComponentRelationship = "relationship"
	ComponentSupport      = "support"
	ComponentCommercial   = "commercial"
)

// Component weights. These sum to 1.0 and are part of the public contract:
// alert thresholds downstream are calibrated against the composite scale
// they produce.
const (
	WeightAdoption     = 0.30
	WeightEngagement   = 0.25
	WeightRelationship = 0.15
	WeightSupport      = 0.15
	WeightCommercial   = 0.15
)

// Grade bucket thresholds.
const (
	GradeAMin = 80
	GradeBMin = 65
	GradeCMin = 50
	GradeDMin = 35
)

// Trend band: a score delta within ±TrendBand counts as stable.
const TrendBand = 2

// Component is one weighted sub-score of an account's health.
type Component struct {
	Name          string    `json:"name"`
	Score         float64   `json:"score"`
	Weight        float64   `json:"weight"`
	WeightedScore float64   `json:"weighted_score"`
	Trend         Trend     `json:"trend"`
	DataPoints    int       `json:"data_points"`
	LastUpdated   time.Time `json:"last_updated"`
}

// AccountHealth is the composite health rating for one account.
type AccountHealth struct {
	AccountID    string               `json:"account_id"`
	Score        int                  `json:"score"`
	Grade        string               `json:"grade"`
	Trend        Trend                `json:"trend"`
	ScoreChange  int                  `json:"score_change"`
	Components   map[string]Component `json:"components"`
	Confidence   int                  `json:"confidence"`
	CalculatedAt time.Time            `json:"calculated_at"`
}

// GradeFor maps a composite score to its letter grade.
func GradeFor(score int) string {
	switch {
	case score >= GradeAMin:
		return "A"
	case score >= GradeBMin:
		return "B"
	case score >= GradeCMin:
		return "C"
	case score >= GradeDMin:
		return "D"
	default:
		return "F"
	}
}
