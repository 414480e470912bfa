package insights

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

func intPtr(v int) *int { return &v }

func testPortfolio() []account.Summary {
	return []account.Summary{
		{ID: "a1", Name: "Acme", ARR: 12000, HealthScore: 85, HealthTrend: "improving", Onboarding: account.OnboardingLive, AgeDays: 300, ItemCount: 200, ActiveUsers: 10},
		{ID: "a2", Name: "Globex", ARR: 24000, HealthScore: 45, HealthTrend: "declining", CriticalAlertCount: 2, Onboarding: account.OnboardingLive, AgeDays: 200, ItemCount: 80},
		{ID: "a3", Name: "Initech", ARR: 8000, HealthScore: 38, HealthTrend: "declining", CriticalAlertCount: 1, Onboarding: account.OnboardingLive, AgeDays: 150, ItemCount: 40},
		{ID: "a4", Name: "Umbrella", ARR: 30000, HealthScore: 72, HealthTrend: "stable", Onboarding: account.OnboardingLive, AgeDays: 400, ItemCount: 500, ActiveUsers: 25, ExpansionPotential: account.ExpansionHigh},
		{ID: "a5", Name: "Hooli", ARR: 15000, HealthScore: 66, HealthTrend: "improving", Onboarding: account.OnboardingLive, AgeDays: 250, ItemCount: 150},
	}
}

func findPortfolioInsight(list []Insight, slug string) *Insight {
	id := insightID("portfolio", slug)
	for i := range list {
		if list[i].ID == id {
			return &list[i]
		}
	}
	return nil
}

func TestPortfolioInsights_AtRiskAccounts(t *testing.T) {
	// Two of five accounts have sub-50 health plus open critical alerts.
	list := NewEngine().PortfolioInsights(testPortfolio())

	ins := findPortfolioInsight(list, "at-risk-accounts")
	require.NotNil(t, ins)
	assert.Equal(t, 2.0, ins.Value)
	// Globex 24000 + Initech 8000.
	assert.Contains(t, ins.Evidence[1], "32000.00")
	assert.Equal(t, SeverityWarning, ins.Severity)
}

func TestPortfolioInsights_RevenueAtRisk(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	ins := findPortfolioInsight(list, "revenue-at-risk")
	require.NotNil(t, ins)
	// 32000 of 89000 total is ~36%.
	assert.InDelta(t, 36.0, ins.Value, 0.5)
	assert.Equal(t, SeverityWarning, ins.Severity)
}

func TestPortfolioInsights_TopDecileBenchmark(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	ins := findPortfolioInsight(list, "top-decile-benchmark")
	require.NotNil(t, ins)
	assert.Equal(t, 85.0, ins.Value)
}

func TestPortfolioInsights_BenchmarkSkippedBelowMinN(t *testing.T) {
	small := testPortfolio()[:4]
	list := NewEngine().PortfolioInsights(small)
	assert.Nil(t, findPortfolioInsight(list, "top-decile-benchmark"))
	assert.Nil(t, findPortfolioInsight(list, "health-distribution"))
}

func TestPortfolioInsights_HealthDistribution(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	ins := findPortfolioInsight(list, "health-distribution")
	require.NotNil(t, ins)
	assert.Equal(t, "A: 1, B: 2, C: 0, D: 2, F: 0", ins.Description)
}

func TestPortfolioInsights_RenewalWave(t *testing.T) {
	eng := NewEngine()

	// Two qualifying renewals are below the minimum for the rule.
	portfolio := testPortfolio()
	portfolio[0].DaysToRenewal = intPtr(30)
	portfolio[1].DaysToRenewal = intPtr(60)
	assert.Nil(t, findPortfolioInsight(eng.PortfolioInsights(portfolio), "renewal-wave"))

	portfolio[2].DaysToRenewal = intPtr(85)
	ins := findPortfolioInsight(eng.PortfolioInsights(portfolio), "renewal-wave")
	require.NotNil(t, ins)
	// Acme 12000 + Globex 24000 + Initech 8000.
	assert.Equal(t, 44000.0, ins.Value)
}

func TestPortfolioInsights_StalledOnboardings(t *testing.T) {
	portfolio := testPortfolio()
	portfolio[2].Onboarding = account.OnboardingSigned
	portfolio[2].ItemCount = 2

	list := NewEngine().PortfolioInsights(portfolio)
	ins := findPortfolioInsight(list, "stalled-onboardings")
	require.NotNil(t, ins)
	assert.Equal(t, 1.0, ins.Value)
}

func TestPortfolioInsights_ExpansionCandidates(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	ins := findPortfolioInsight(list, "expansion-candidates")
	require.NotNil(t, ins)
	assert.Equal(t, 1.0, ins.Value) // Umbrella
}

func TestPortfolioInsights_TrendSplit(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	ins := findPortfolioInsight(list, "trend-split")
	require.NotNil(t, ins)
	assert.Contains(t, ins.Description, "2 accounts improving")
	assert.Contains(t, ins.Description, "2 declining")
	assert.Equal(t, SeverityInfo, ins.Severity)
}

func TestPortfolioInsights_EmptyInput(t *testing.T) {
	assert.Nil(t, NewEngine().PortfolioInsights(nil))
	assert.Nil(t, NewEngine().PortfolioInsights([]account.Summary{}))
}

func TestPortfolioInsights_SortedBySeverity(t *testing.T) {
	list := NewEngine().PortfolioInsights(testPortfolio())
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Severity.Rank(), list[i].Severity.Rank())
	}
}
