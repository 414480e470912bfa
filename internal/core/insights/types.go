package insights

// Type classifies what kind of observation an insight is.
type Type string

const (
	TypeTrend          Type = "trend"
	TypeAnomaly        Type = "anomaly"
	TypePrediction     Type = "prediction"
	TypeRecommendation Type = "recommendation"
	TypeBenchmark      Type = "benchmark"
)

// Severity ranks insights for display.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityWarning:  1,
	SeverityInfo:     2,
}

// Rank returns the sort position of a severity, critical first.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// Category names the account dimension an insight is about.
type Category string

const (
	CategoryUsage      Category = "usage"
	CategoryHealth     Category = "health"
	CategoryCommercial Category = "commercial"
	CategoryEngagement Category = "engagement"
	CategoryRisk       Category = "risk"
)

// Insight is one narrative observation derived from account data. Insights
// are generated fresh per request and never persisted.
type Insight struct {
	ID              string   `json:"id"`
	AccountID       string   `json:"account_id,omitempty"`
	Type            Type     `json:"type"`
	Severity        Severity `json:"severity"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Evidence        []string `json:"evidence"`
	SuggestedAction string   `json:"suggested_action,omitempty"`
	Confidence      int      `json:"confidence"`
	Category        Category `json:"category"`
	Metric          string   `json:"metric,omitempty"`
	Value           float64  `json:"value,omitempty"`
	PreviousValue   float64  `json:"previous_value,omitempty"`
	ChangePercent   float64  `json:"change_percent,omitempty"`
}

// Impact tags how a churn factor moves the prediction.
type Impact string

const (
	ImpactPositive Impact = "positive"
	ImpactNegative Impact = "negative"
	ImpactNeutral  Impact = "neutral"
)

// ChurnFactor is one signal that contributed to a churn prediction.
type ChurnFactor struct {
	Name   string  `json:"name"`
	Impact Impact  `json:"impact"`
	Weight float64 `json:"weight"`
}

// RiskLevel buckets a churn probability.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ChurnPrediction is the churn-risk output for one account.
type ChurnPrediction struct {
	AccountID          string        `json:"account_id"`
	Probability        float64       `json:"probability"`
	RiskLevel          RiskLevel     `json:"risk_level"`
	Factors            []ChurnFactor `json:"factors"`
	RecommendedActions []string      `json:"recommended_actions"`
}
