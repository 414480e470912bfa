package insights

import (
	"math"
	"sort"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/timeseries"
)

// Churn signal weights. Each signal is normalized to 0..100 before
// weighting, so the weighted sum is itself 0..100. The weights sum to 1.0.
const (
	ChurnWeightInactivity   = 0.40
	ChurnWeightLowHealth    = 0.35
	ChurnWeightPayment      = 0.15
	ChurnWeightUsageDecline = 0.10
)

// Risk-level cutoffs: probability < 25 is low, < 45 medium, < 65 high,
// otherwise critical. Calibrated so a month of silence on a failing-grade
// account lands in critical on those two signals alone.
const (
	ChurnRiskMediumMin   = 25.0
	ChurnRiskHighMin     = 45.0
	ChurnRiskCriticalMin = 65.0
)

// ChurnActionThreshold is the minimum probability at which recommended
// actions are attached to a prediction.
const ChurnActionThreshold = ChurnRiskMediumMin

// Inactivity saturates: this many idle days maps to the full 100 signal.
const churnInactivitySaturationDays = 30.0

// PredictChurn estimates churn probability for one account. Each signal is
// monotonic: worsening any input never lowers the probability. h may be
// nil; the health signal then reads as neutral.
func (e *Engine) PredictChurn(snap *account.Snapshot, h *health.AccountHealth) *ChurnPrediction {
	if snap == nil {
		return nil
	}

	// Inactivity: linear in idle days up to the saturation point.
	inactivity := math.Min(100, float64(snap.Usage.DaysSinceLastActivity)/churnInactivitySaturationDays*100.0)

	// Low health: inverted score. Missing health reads as a midpoint
	// rather than pretending the account is perfectly healthy.
	lowHealth := 50.0
	healthKnown := h != nil
	if healthKnown {
		lowHealth = float64(100 - h.Score)
	}

	// Payment: status severity plus a bump for any outstanding amount.
	var payment float64
	switch snap.Commercial.PaymentStatus {
	case account.PaymentOverdue:
		payment = 100
	case account.PaymentAtRisk:
		payment = 60
	default:
		payment = 0
	}
	if snap.Commercial.OverdueAmount > 0 {
		payment = math.Max(payment, 80)
	}

	// Usage decline: negative trend change maps linearly, -50% or worse
	// saturates the signal.
	var decline float64
	trend := timeseries.AnalyzeTrend(snap.Usage.WeeklyActivity)
	if trend.Direction == timeseries.TrendDown {
		decline = math.Min(100, -trend.ChangePercent*2.0)
	}

	probability := inactivity*ChurnWeightInactivity +
		lowHealth*ChurnWeightLowHealth +
		payment*ChurnWeightPayment +
		decline*ChurnWeightUsageDecline
	probability = math.Max(0, math.Min(100, math.Round(probability*10)/10))

	factors := []ChurnFactor{
		{Name: "inactivity", Impact: impactFor(inactivity), Weight: inactivity * ChurnWeightInactivity},
		{Name: "low_health", Impact: healthImpact(healthKnown, lowHealth), Weight: lowHealth * ChurnWeightLowHealth},
		{Name: "payment_issues", Impact: impactFor(payment), Weight: payment * ChurnWeightPayment},
		{Name: "usage_decline", Impact: impactFor(decline), Weight: decline * ChurnWeightUsageDecline},
	}
	sort.SliceStable(factors, func(i, j int) bool {
		return factors[i].Weight > factors[j].Weight
	})

	p := &ChurnPrediction{
		AccountID:   snap.ID,
		Probability: probability,
		RiskLevel:   RiskLevelFor(probability),
		Factors:     factors,
	}
	if probability >= ChurnActionThreshold {
		p.RecommendedActions = churnActions(factors)
	}
	return p
}

// RiskLevelFor buckets a probability into a risk level.
func RiskLevelFor(probability float64) RiskLevel {
	switch {
	case probability >= ChurnRiskCriticalMin:
		return RiskCritical
	case probability >= ChurnRiskHighMin:
		return RiskHigh
	case probability >= ChurnRiskMediumMin:
		return RiskMedium
	default:
		return RiskLow
	}
}

// impactFor tags a normalized 0..100 signal. A contributing signal is
// negative for the account; a silent one is positive.
func impactFor(signal float64) Impact {
	if signal > 0 {
		return ImpactNegative
	}
	return ImpactPositive
}

func healthImpact(known bool, signal float64) Impact {
	if !known {
		return ImpactNeutral
	}
	return impactFor(signal)
}

// churnActions picks remediation steps for the strongest active factors.
func churnActions(factors []ChurnFactor) []string {
	actionsByFactor := map[string]string{
		"inactivity":     "Re-engage the account with a check-in call and a usage review",
		"low_health":     "Run a health review and address the weakest components",
		"payment_issues": "Resolve outstanding billing issues with the customer",
		"usage_decline":  "Investigate the drop in usage and re-onboard affected teams",
	}
	actions := make([]string, 0, len(factors))
	for _, f := range factors {
		if f.Weight <= 0 {
			continue
		}
		if a, ok := actionsByFactor[f.Name]; ok {
			actions = append(actions, a)
		}
	}
	if len(actions) == 0 {
		actions = append(actions, "Review the account with the customer success team")
	}
	return actions
}
