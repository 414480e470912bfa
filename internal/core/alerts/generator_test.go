package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
)

func baseSnapshot() *account.Snapshot {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &account.Snapshot{
		ID:         "acct-1",
		Name:       "Acme",
		Stage:      account.StageAdoption,
		Onboarding: account.OnboardingLive,
		Usage: account.UsageMetrics{
			ItemCount:             120,
			ActiveUsers:           5,
			TotalUsers:            8,
			DaysSinceLastActivity: 1,
			TotalActivity:         200,
			WeeklyActivity:        []float64{40, 42, 45, 44},
		},
		Commercial: account.CommercialMetrics{
			ARR:           24000,
			PaymentStatus: account.PaymentCurrent,
		},
		CreatedAt: asOf.AddDate(0, -6, 0),
		AsOf:      asOf,
	}
}

func findAlert(alerts []Alert, typ Type) *Alert {
	for i := range alerts {
		if alerts[i].Type == typ {
			return &alerts[i]
		}
	}
	return nil
}

func TestGenerate_Idempotent(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Usage.DaysSinceLastActivity = 20

	first := gen.Generate(snap, nil)
	second := gen.Generate(snap, nil)
	require.Equal(t, first, second)
	require.NotEmpty(t, first)
	for i := range first {
		assert.Equal(t, first[i].ID, second[i].ID)
		assert.Equal(t, first[i].Severity, second[i].Severity)
	}
}

func TestGenerate_NilSnapshot(t *testing.T) {
	assert.Nil(t, NewGenerator().Generate(nil, nil))
}

func TestChurnRisk_ThresholdCrossing(t *testing.T) {
	gen := NewGenerator()

	snap := baseSnapshot()
	snap.Usage.DaysSinceLastActivity = 10
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeChurnRisk))

	snap.Usage.DaysSinceLastActivity = 20
	a := findAlert(gen.Generate(snap, nil), TypeChurnRisk)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Equal(t, CategoryRisk, a.Category)
	assert.Contains(t, a.Evidence[0], "20")

	snap.Usage.DaysSinceLastActivity = 35
	a = findAlert(gen.Generate(snap, nil), TypeChurnRisk)
	require.NotNil(t, a)
	assert.Equal(t, SeverityCritical, a.Severity)
}

func TestHealthDrop_SeverityUpgrade(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()

	assert.Nil(t, findAlert(gen.Generate(snap, &health.AccountHealth{Score: 45, Grade: "D"}), TypeHealthDrop))

	a := findAlert(gen.Generate(snap, &health.AccountHealth{Score: 38, Grade: "D"}), TypeHealthDrop)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)

	a = findAlert(gen.Generate(snap, &health.AccountHealth{Score: 20, Grade: "F"}), TypeHealthDrop)
	require.NotNil(t, a)
	assert.Equal(t, SeverityCritical, a.Severity)
}

func TestHealthDrop_SkippedWithoutHealth(t *testing.T) {
	// Missing health input skips the rule rather than failing the battery.
	gen := NewGenerator()
	snap := baseSnapshot()
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeHealthDrop))
}

func TestOnboardingStalled(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.CreatedAt = snap.AsOf.AddDate(0, 0, -10)
	snap.Usage.ItemCount = 2
	snap.Onboarding = account.OnboardingSigned

	a := findAlert(gen.Generate(snap, nil), TypeOnboardingStalled)
	require.NotNil(t, a)
	assert.Equal(t, SeverityMedium, a.Severity)
	assert.Equal(t, CategoryActionRequired, a.Category)

	// No expansion signal from a two-item account.
	snap.Usage.TotalActivity = 4
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeExpansionOpportunity))

	// Older stalls escalate.
	snap.CreatedAt = snap.AsOf.AddDate(0, 0, -20)
	a = findAlert(gen.Generate(snap, nil), TypeOnboardingStalled)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)

	// Live accounts never stall.
	snap.Onboarding = account.OnboardingLive
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeOnboardingStalled))
}

func TestLowEngagement(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.CreatedAt = snap.AsOf.AddDate(0, 0, -45)
	snap.Usage.TotalActivity = 5
	snap.Usage.DaysSinceLastActivity = 8

	a := findAlert(gen.Generate(snap, nil), TypeLowEngagement)
	require.NotNil(t, a)
	assert.Equal(t, SeverityMedium, a.Severity)

	snap.Usage.DaysSinceLastActivity = 2
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeLowEngagement))
}

func TestExpansionOpportunity(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Usage.TotalActivity = 80
	snap.Usage.ActiveUsers = 4
	snap.Usage.DaysSinceLastActivity = 2

	a := findAlert(gen.Generate(snap, nil), TypeExpansionOpportunity)
	require.NotNil(t, a)
	assert.Equal(t, SeverityLow, a.Severity)
	assert.Equal(t, CategoryOpportunity, a.Category)
}

func TestPaymentOverdue(t *testing.T) {
	gen := NewGenerator()

	snap := baseSnapshot()
	snap.Commercial.PaymentStatus = account.PaymentAtRisk
	a := findAlert(gen.Generate(snap, nil), TypePaymentOverdue)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)

	snap.Commercial.PaymentStatus = account.PaymentOverdue
	snap.Commercial.OverdueAmount = 2500
	a = findAlert(gen.Generate(snap, nil), TypePaymentOverdue)
	require.NotNil(t, a)
	assert.Equal(t, SeverityCritical, a.Severity)
	assert.Contains(t, a.Evidence[1], "2500")
}

func TestRenewalApproaching(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()

	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeRenewalApproaching))

	renewal := snap.AsOf.AddDate(0, 0, 45)
	snap.Commercial.RenewalDate = &renewal
	a := findAlert(gen.Generate(snap, nil), TypeRenewalApproaching)
	require.NotNil(t, a)
	assert.Equal(t, SeverityMedium, a.Severity)

	renewal = snap.AsOf.AddDate(0, 0, 20)
	a = findAlert(gen.Generate(snap, nil), TypeRenewalApproaching)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)
}

func TestUsageDecline(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Usage.WeeklyActivity = []float64{100, 100, 60, 60}

	a := findAlert(gen.Generate(snap, nil), TypeUsageDecline)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity) // -40% crosses the high bar
}

func TestChampionLeft(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Stakeholders = []account.Stakeholder{
		{Name: "Ada", Influence: "champion", Departed: true},
		{Name: "Grace", Influence: "user"},
	}

	a := findAlert(gen.Generate(snap, nil), TypeChampionLeft)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)
	assert.Contains(t, a.Description, "Ada")

	// A replacement champion clears the alert.
	snap.Stakeholders = append(snap.Stakeholders, account.Stakeholder{Name: "Linus", Influence: "champion"})
	assert.Nil(t, findAlert(gen.Generate(snap, nil), TypeChampionLeft))
}

func TestSupportEscalation(t *testing.T) {
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Support.EscalatedTickets = 1

	a := findAlert(gen.Generate(snap, nil), TypeSupportEscalation)
	require.NotNil(t, a)
	assert.Equal(t, SeverityHigh, a.Severity)

	snap.Support.EscalatedTickets = 3
	a = findAlert(gen.Generate(snap, nil), TypeSupportEscalation)
	require.NotNil(t, a)
	assert.Equal(t, SeverityCritical, a.Severity)
}

func TestGenerate_CriticalInactivityAndHealth(t *testing.T) {
	// Heavily degraded account: 35 idle days and a health score of 20
	// must raise both churn risk and health drop at critical severity.
	gen := NewGenerator()
	snap := baseSnapshot()
	snap.Usage.DaysSinceLastActivity = 35

	alerts := gen.Generate(snap, &health.AccountHealth{Score: 20, Grade: "F"})

	churn := findAlert(alerts, TypeChurnRisk)
	require.NotNil(t, churn)
	assert.Equal(t, SeverityCritical, churn.Severity)

	drop := findAlert(alerts, TypeHealthDrop)
	require.NotNil(t, drop)
	assert.Equal(t, SeverityCritical, drop.Severity)
}

func TestAlertID_Deterministic(t *testing.T) {
	a := AlertID("acct-1", TypeChurnRisk)
	b := AlertID("acct-1", TypeChurnRisk)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, AlertID("acct-1", TypeHealthDrop))
	assert.NotEqual(t, a, AlertID("acct-2", TypeChurnRisk))
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, SeverityCritical.Rank(), SeverityHigh.Rank())
	assert.Less(t, SeverityHigh.Rank(), SeverityMedium.Rank())
	assert.Less(t, SeverityMedium.Rank(), SeverityLow.Rank())
	assert.Greater(t, Severity("bogus").Rank(), SeverityLow.Rank())
}
