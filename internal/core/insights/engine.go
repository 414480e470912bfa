package insights

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/timeseries"
)

// Account-rule thresholds. Exposed as named constants because tests and
// the presentation layer treat them as part of the contract.
const (
	ExpansionPredictionMinUsers    = 3
	ExpansionPredictionMinActivity = 50
	RenewalRecommendationDays      = 60
	LowAdoptionPct                 = 30.0
	OnboardingStallAgeDays         = 7
	OnboardingStallMaxItems        = 5
)

// Engine produces per-account insights. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine returns an insight Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// insightRule is one predicate-plus-factory entry; nil means not triggered.
type insightRule func(snap *account.Snapshot, h *health.AccountHealth) *Insight

// accountRules is evaluated in order. The final list is stable-sorted by
// severity, so within a severity band this order is what the caller sees.
var accountRules = []insightRule{
	usageTrendingUp,
	activityAnomalyDrop,
	expansionPrediction,
	renewalRecommendation,
	healthDecliningTrend,
	onboardingStalledAnomaly,
	lowFeatureAdoption,
	paymentOverdueAnomaly,
}

// AccountInsights evaluates every insight rule against the snapshot and
// returns the results sorted by severity, critical first. h may be nil;
// health-dependent rules are then skipped.
func (e *Engine) AccountInsights(snap *account.Snapshot, h *health.AccountHealth) []Insight {
	if snap == nil {
		return nil
	}
	out := make([]Insight, 0, 4)
	for _, rule := range accountRules {
		if ins := rule(snap, h); ins != nil {
			out = append(out, *ins)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

// insightID derives a stable id from the scope (account or portfolio) and
// the rule slug.
func insightID(scope, slug string) string {
	sum := sha256.Sum256([]byte(scope + ":" + slug))
	return hex.EncodeToString(sum[:8])
}

func usageTrendingUp(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	trend := timeseries.AnalyzeTrend(snap.Usage.WeeklyActivity)
	if trend.Direction != timeseries.TrendUp {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "usage-trend-up"),
		AccountID:   snap.ID,
		Type:        TypeTrend,
		Severity:    SeverityInfo,
		Title:       "Usage is trending up",
		Description: fmt.Sprintf("%s weekly activity is up %.1f%% versus the prior period", snap.Name, trend.ChangePercent),
		Evidence: []string{
			fmt.Sprintf("recent_avg: %.1f", trend.RecentAvg),
			fmt.Sprintf("older_avg: %.1f", trend.OlderAvg),
		},
		Confidence:    70,
		Category:      CategoryUsage,
		Metric:        "weekly_activity",
		Value:         trend.RecentAvg,
		PreviousValue: trend.OlderAvg,
		ChangePercent: trend.ChangePercent,
	}
}

func activityAnomalyDrop(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	anomaly := timeseries.DetectAnomaly(snap.Usage.WeeklyActivity)
	if !anomaly.IsAnomaly || anomaly.Kind != timeseries.AnomalyDrop {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "activity-anomaly-drop"),
		AccountID:   snap.ID,
		Type:        TypeAnomaly,
		Severity:    SeverityWarning,
		Title:       "Sudden drop in activity",
		Description: fmt.Sprintf("%s recent activity fell %.1f%% below its baseline", snap.Name, -anomaly.ChangePercent),
		Evidence: []string{
			fmt.Sprintf("recent_mean: %.1f", anomaly.RecentMean),
			fmt.Sprintf("baseline_mean: %.1f", anomaly.BaselineMean),
		},
		SuggestedAction: "Reach out to understand what changed in the customer's workflow",
		Confidence:      75,
		Category:        CategoryUsage,
		Metric:          "weekly_activity",
		Value:           anomaly.RecentMean,
		PreviousValue:   anomaly.BaselineMean,
		ChangePercent:   anomaly.ChangePercent,
	}
}

func expansionPrediction(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	u := snap.Usage
	seatsFull := snap.Commercial.SeatLimit > 0 && u.ActiveUsers >= snap.Commercial.SeatLimit
	highPotential := snap.Commercial.ExpansionPotential == account.ExpansionHigh
	engaged := u.ActiveUsers >= ExpansionPredictionMinUsers && u.TotalActivity > ExpansionPredictionMinActivity
	if !engaged || !(seatsFull || highPotential) {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "expansion-prediction"),
		AccountID:   snap.ID,
		Type:        TypePrediction,
		Severity:    SeverityInfo,
		Title:       "Likely expansion candidate",
		Description: fmt.Sprintf("%s shows strong engagement and is positioned for expansion", snap.Name),
		Evidence: []string{
			fmt.Sprintf("active_users: %d", u.ActiveUsers),
			fmt.Sprintf("total_activity: %d", u.TotalActivity),
			fmt.Sprintf("expansion_potential: %s", snap.Commercial.ExpansionPotential),
		},
		SuggestedAction: "Raise additional seats or plan upgrade in the next business review",
		Confidence:      60,
		Category:        CategoryCommercial,
	}
}

func renewalRecommendation(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	days, ok := snap.DaysToRenewal()
	if !ok || days < 0 || days > RenewalRecommendationDays {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "renewal-recommendation"),
		AccountID:   snap.ID,
		Type:        TypeRecommendation,
		Severity:    SeverityWarning,
		Title:       "Renewal window open",
		Description: fmt.Sprintf("%s renews in %d days; start the renewal motion now", snap.Name, days),
		Evidence: []string{
			fmt.Sprintf("days_to_renewal: %d", days),
			fmt.Sprintf("arr: %.2f", snap.Commercial.ARR),
		},
		SuggestedAction: "Prepare the renewal proposal and confirm stakeholder alignment",
		Confidence:      90,
		Category:        CategoryCommercial,
		Metric:          "days_to_renewal",
		Value:           float64(days),
	}
}

func healthDecliningTrend(snap *account.Snapshot, h *health.AccountHealth) *Insight {
	if h == nil || h.Trend != health.TrendDeclining {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "health-declining"),
		AccountID:   snap.ID,
		Type:        TypeTrend,
		Severity:    SeverityWarning,
		Title:       "Health score declining",
		Description: fmt.Sprintf("%s health dropped %d points since the last evaluation", snap.Name, -h.ScoreChange),
		Evidence: []string{
			fmt.Sprintf("health_score: %d", h.Score),
			fmt.Sprintf("score_change: %d", h.ScoreChange),
		},
		SuggestedAction: "Review the weakest health components with the account team",
		Confidence:      80,
		Category:        CategoryHealth,
		Metric:          "health_score",
		Value:           float64(h.Score),
		PreviousValue:   float64(h.Score - h.ScoreChange),
	}
}

func onboardingStalledAnomaly(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	if snap.Onboarding == account.OnboardingLive {
		return nil
	}
	age := snap.AgeDays()
	if age <= OnboardingStallAgeDays || snap.Usage.ItemCount >= OnboardingStallMaxItems {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "onboarding-stalled"),
		AccountID:   snap.ID,
		Type:        TypeAnomaly,
		Severity:    SeverityWarning,
		Title:       "Onboarding is behind schedule",
		Description: fmt.Sprintf("%s is %d days old with only %d items created", snap.Name, age, snap.Usage.ItemCount),
		Evidence: []string{
			fmt.Sprintf("account_age_days: %d", age),
			fmt.Sprintf("item_count: %d", snap.Usage.ItemCount),
		},
		SuggestedAction: "Schedule a guided onboarding session this week",
		Confidence:      85,
		Category:        CategoryEngagement,
	}
}

func lowFeatureAdoption(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	if len(snap.Usage.FeatureAdoption) == 0 {
		return nil
	}
	low := make([]string, 0, 2)
	for name, pct := range snap.Usage.FeatureAdoption {
		if pct < LowAdoptionPct {
			low = append(low, name)
		}
	}
	if len(low) == 0 {
		return nil
	}
	sort.Strings(low)
	return &Insight{
		ID:          insightID(snap.ID, "low-feature-adoption"),
		AccountID:   snap.ID,
		Type:        TypeRecommendation,
		Severity:    SeverityInfo,
		Title:       "Unused product capabilities",
		Description: fmt.Sprintf("%s adopts %d feature(s) below %.0f%%", snap.Name, len(low), LowAdoptionPct),
		Evidence: []string{
			fmt.Sprintf("low_adoption_features: %v", low),
		},
		SuggestedAction: "Share enablement material for the underused features",
		Confidence:      65,
		Category:        CategoryUsage,
	}
}

func paymentOverdueAnomaly(snap *account.Snapshot, _ *health.AccountHealth) *Insight {
	c := snap.Commercial
	if c.PaymentStatus != account.PaymentOverdue && c.OverdueAmount <= 0 {
		return nil
	}
	return &Insight{
		ID:          insightID(snap.ID, "payment-overdue"),
		AccountID:   snap.ID,
		Type:        TypeAnomaly,
		Severity:    SeverityCritical,
		Title:       "Payment overdue",
		Description: fmt.Sprintf("%s has %.2f overdue (status %s)", snap.Name, c.OverdueAmount, c.PaymentStatus),
		Evidence: []string{
			fmt.Sprintf("payment_status: %s", c.PaymentStatus),
			fmt.Sprintf("overdue_amount: %.2f", c.OverdueAmount),
		},
		SuggestedAction: "Escalate to billing and confirm payment expectations with the customer",
		Confidence:      95,
		Category:        CategoryCommercial,
		Metric:          "overdue_amount",
		Value:           c.OverdueAmount,
	}
}
