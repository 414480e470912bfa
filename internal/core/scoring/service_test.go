package scoring

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
)

func pipelineSnapshot(id string) *account.Snapshot {
	asOf := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &account.Snapshot{
		ID:         id,
		Name:       "Account " + id,
		Onboarding: account.OnboardingLive,
		Usage: account.UsageMetrics{
			ItemCount:      100,
			ActiveUsers:    6,
			TotalUsers:     10,
			TotalActivity:  150,
			WeeklyActivity: []float64{30, 32, 35, 33},
		},
		Commercial: account.CommercialMetrics{
			ARR:           10000,
			PaymentStatus: account.PaymentCurrent,
		},
		Stakeholders: []account.Stakeholder{{Name: "Ada", Influence: "champion"}},
		CreatedAt:    asOf.AddDate(0, -6, 0),
		AsOf:         asOf,
	}
}

func TestEvaluate_FullPipeline(t *testing.T) {
	svc := NewService(nil, nil, nil)
	view := svc.Evaluate(pipelineSnapshot("acct-1"), nil)

	require.NotNil(t, view)
	require.NotNil(t, view.Health)
	require.NotNil(t, view.Churn)
	assert.Equal(t, "acct-1", view.Health.AccountID)
	assert.GreaterOrEqual(t, view.Health.Score, 0)
	assert.LessOrEqual(t, view.Health.Score, 100)

	// A degraded account produces alerts through the same pipeline.
	bad := pipelineSnapshot("acct-2")
	bad.Usage.DaysSinceLastActivity = 40
	bad.Usage.TotalActivity = 2
	view = svc.Evaluate(bad, nil)
	require.NotEmpty(t, view.Alerts)
}

func TestEvaluate_NilSnapshot(t *testing.T) {
	assert.Nil(t, NewService(nil, nil, nil).Evaluate(nil, nil))
}

func TestEvaluatePortfolio_PreservesOrder(t *testing.T) {
	svc := NewService(nil, nil, nil)
	svc.SetWorkers(4)

	snaps := make([]*account.Snapshot, 20)
	for i := range snaps {
		snaps[i] = pipelineSnapshot(fmt.Sprintf("acct-%02d", i))
	}

	results := svc.EvaluatePortfolio(context.Background(), snaps, nil)
	require.Len(t, results, len(snaps))
	for i, r := range results {
		require.NotNil(t, r, "slot %d", i)
		assert.Equal(t, snaps[i].ID, r.Account.ID)
	}
}

func TestEvaluatePortfolio_NilSlots(t *testing.T) {
	svc := NewService(nil, nil, nil)
	snaps := []*account.Snapshot{pipelineSnapshot("a"), nil, pipelineSnapshot("b")}

	results := svc.EvaluatePortfolio(context.Background(), snaps, nil)
	require.Len(t, results, 3)
	assert.NotNil(t, results[0])
	assert.Nil(t, results[1])
	assert.NotNil(t, results[2])
}

func TestEvaluatePortfolio_CancelledContext(t *testing.T) {
	svc := NewService(nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snaps := make([]*account.Snapshot, 100)
	for i := range snaps {
		snaps[i] = pipelineSnapshot(fmt.Sprintf("acct-%d", i))
	}
	// Must return without deadlock; partial results are acceptable.
	results := svc.EvaluatePortfolio(ctx, snaps, nil)
	assert.Len(t, results, 100)
}

func TestEvaluatePortfolio_UsesPreviousHealth(t *testing.T) {
	svc := NewService(nil, nil, nil)
	snap := pipelineSnapshot("acct-prev")

	first := svc.Evaluate(snap, nil)
	require.NotNil(t, first)
	assert.Equal(t, 0, first.Health.ScoreChange)

	lower := *first.Health
	lower.Score = first.Health.Score - 10
	prevByID := map[string]*health.AccountHealth{snap.ID: &lower}

	results := svc.EvaluatePortfolio(context.Background(), []*account.Snapshot{snap}, prevByID)
	require.Len(t, results, 1)
	require.NotNil(t, results[0])
	assert.Equal(t, 10, results[0].Health.ScoreChange)
	assert.Equal(t, health.TrendImproving, results[0].Health.Trend)
}

func TestSummarize(t *testing.T) {
	svc := NewService(nil, nil, nil)
	snap := pipelineSnapshot("acct-sum")
	renewal := snap.AsOf.AddDate(0, 0, 45)
	snap.Commercial.RenewalDate = &renewal

	view := svc.Evaluate(snap, nil)
	sum := Summarize(view)

	assert.Equal(t, "acct-sum", sum.ID)
	assert.Equal(t, view.Health.Score, sum.HealthScore)
	assert.Equal(t, 10000.0, sum.ARR)
	require.NotNil(t, sum.DaysToRenewal)
	assert.Equal(t, 45, *sum.DaysToRenewal)

	critical := 0
	for _, a := range view.Alerts {
		if a.Severity == alerts.SeverityCritical {
			critical++
		}
	}
	assert.Equal(t, critical, sum.CriticalAlertCount)
}

func TestSummaries_SkipsNil(t *testing.T) {
	svc := NewService(nil, nil, nil)
	views := []*Account360{svc.Evaluate(pipelineSnapshot("a"), nil), nil}
	assert.Len(t, Summaries(views), 1)
}
