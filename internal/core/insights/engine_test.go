package insights

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
)

func testSnapshot() *account.Snapshot {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &account.Snapshot{
		ID:         "acct-ins",
		Name:       "Globex",
		Onboarding: account.OnboardingLive,
		Usage: account.UsageMetrics{
			ItemCount:     50,
			ActiveUsers:   4,
			TotalUsers:    6,
			TotalActivity: 120,
		},
		Commercial: account.CommercialMetrics{
			ARR:           12000,
			PaymentStatus: account.PaymentCurrent,
		},
		CreatedAt: asOf.AddDate(0, -4, 0),
		AsOf:      asOf,
	}
}

func findInsight(list []Insight, slug string, accountID string) *Insight {
	id := insightID(accountID, slug)
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func TestAccountInsights_EightWeekGrowthTrend(t *testing.T) {
	// Activity growing 20% week over week for 8 weeks yields a trend
	// insight with changePercent well above 20.
	snap := testSnapshot()
	timeline := make([]float64, 8)
	v := 100.0
	for i := range timeline {
		timeline[i] = v
		v *= 1.20
	}
	snap.Usage.WeeklyActivity = timeline

	list := NewEngine().AccountInsights(snap, nil)
	ins := findInsight(list, "usage-trend-up", snap.ID)
	require.NotNil(t, ins)
	assert.Equal(t, TypeTrend, ins.Type)
	assert.GreaterOrEqual(t, ins.ChangePercent, 20.0)
}

func TestAccountInsights_AnomalyDrop(t *testing.T) {
	snap := testSnapshot()
	snap.Usage.WeeklyActivity = []float64{100, 100, 100, 30, 30, 30}

	list := NewEngine().AccountInsights(snap, nil)
	ins := findInsight(list, "activity-anomaly-drop", snap.ID)
	require.NotNil(t, ins)
	assert.Equal(t, TypeAnomaly, ins.Type)
	assert.Equal(t, SeverityWarning, ins.Severity)
	assert.NotEmpty(t, ins.SuggestedAction)
}

func TestAccountInsights_SortedBySeverity(t *testing.T) {
	// Overdue payment (critical) plus a growth trend (info): critical
	// must come first regardless of rule evaluation order.
	snap := testSnapshot()
	snap.Usage.WeeklyActivity = []float64{10, 10, 20, 20}
	snap.Commercial.PaymentStatus = account.PaymentOverdue
	snap.Commercial.OverdueAmount = 900

	list := NewEngine().AccountInsights(snap, nil)
	require.GreaterOrEqual(t, len(list), 2)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Severity.Rank(), list[i].Severity.Rank())
	}
	assert.Equal(t, SeverityCritical, list[0].Severity)
}

func TestAccountInsights_HealthDeclining(t *testing.T) {
	snap := testSnapshot()
	h := &health.AccountHealth{Score: 55, Trend: health.TrendDeclining, ScoreChange: -8}

	list := NewEngine().AccountInsights(snap, h)
	ins := findInsight(list, "health-declining", snap.ID)
	require.NotNil(t, ins)
	assert.Equal(t, 55.0, ins.Value)
	assert.Equal(t, 63.0, ins.PreviousValue)

	// Without a health input the rule is skipped, not errored.
	list = NewEngine().AccountInsights(snap, nil)
	assert.Nil(t, findInsight(list, "health-declining", snap.ID))
}

func TestAccountInsights_OnboardingStalled(t *testing.T) {
	snap := testSnapshot()
	snap.Onboarding = account.OnboardingKickoff
	snap.Usage.ItemCount = 1
	snap.CreatedAt = snap.AsOf.AddDate(0, 0, -12)

	list := NewEngine().AccountInsights(snap, nil)
	require.NotNil(t, findInsight(list, "onboarding-stalled", snap.ID))
}

func TestAccountInsights_LowFeatureAdoption(t *testing.T) {
	snap := testSnapshot()
	snap.Usage.FeatureAdoption = map[string]float64{"items": 90, "kanban": 10, "orders": 5}

	list := NewEngine().AccountInsights(snap, nil)
	ins := findInsight(list, "low-feature-adoption", snap.ID)
	require.NotNil(t, ins)
	assert.Contains(t, ins.Evidence[0], "kanban")
	assert.Contains(t, ins.Evidence[0], "orders")
}

func TestAccountInsights_ExpansionPrediction(t *testing.T) {
	snap := testSnapshot()
	snap.Commercial.ExpansionPotential = account.ExpansionHigh

	list := NewEngine().AccountInsights(snap, nil)
	require.NotNil(t, findInsight(list, "expansion-prediction", snap.ID))
}

func TestAccountInsights_RenewalRecommendation(t *testing.T) {
	snap := testSnapshot()
	renewal := snap.AsOf.AddDate(0, 0, 30)
	snap.Commercial.RenewalDate = &renewal

	list := NewEngine().AccountInsights(snap, nil)
	ins := findInsight(list, "renewal-recommendation", snap.ID)
	require.NotNil(t, ins)
	assert.Equal(t, 30.0, ins.Value)
}

func TestAccountInsights_QuietAccountMayBeEmpty(t *testing.T) {
	list := NewEngine().AccountInsights(testSnapshot(), nil)
	assert.Empty(t, list)
}

func TestAccountInsights_Deterministic(t *testing.T) {
	snap := testSnapshot()
	snap.Usage.WeeklyActivity = []float64{10, 10, 20, 20}
	eng := NewEngine()
	assert.Equal(t, eng.AccountInsights(snap, nil), eng.AccountInsights(snap, nil))
}
