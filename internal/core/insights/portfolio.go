package insights

import (
	"fmt"
	"math"
	"sort"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

// Minimum input sizes for the statistical portfolio rules. Rules below
// these sizes are skipped, not approximated.
const (
	PortfolioMinForDistribution = 5
	PortfolioMinForBenchmark    = 5
	PortfolioMinForRenewalWave  = 3
	PortfolioMinForTrendSplit   = 3
)

// Qualification thresholds for portfolio aggregates.
const (
	PortfolioAtRiskHealthMax   = 50
	PortfolioRenewalWaveDays   = 90
	PortfolioStallAgeDays      = 7
	PortfolioStallMaxItems     = 5
	PortfolioRevenueAtRiskWarn = 20.0
)

// portfolioRule computes one aggregate observation; nil means skipped.
type portfolioRule func(summaries []account.Summary) *Insight

var portfolioRules = []portfolioRule{
	atRiskAccounts,
	revenueAtRisk,
	topDecileBenchmark,
	healthDistribution,
	stalledOnboardings,
	expansionCandidates,
	renewalWave,
	trendSplit,
}

// PortfolioInsights computes aggregate insights over account summaries.
// Each rule is independent; rules that need more data than the portfolio
// provides are skipped. Output is stable-sorted by severity.
func (e *Engine) PortfolioInsights(summaries []account.Summary) []Insight {
	if len(summaries) == 0 {
		return nil
	}
	out := make([]Insight, 0, 4)
	for _, rule := range portfolioRules {
		if ins := rule(summaries); ins != nil {
			out = append(out, *ins)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() < out[j].Severity.Rank()
	})
	return out
}

func isAtRisk(s account.Summary) bool {
	return s.HealthScore < PortfolioAtRiskHealthMax && s.CriticalAlertCount > 0
}

func atRiskAccounts(summaries []account.Summary) *Insight {
	count := 0
	var arr float64
	names := make([]string, 0, 4)
	for _, s := range summaries {
		if isAtRisk(s) {
			count++
			arr += s.ARR
			names = append(names, s.Name)
		}
	}
	if count == 0 {
		return nil
	}
	sev := SeverityWarning
	if count > len(summaries)/2 {
		sev = SeverityCritical
	}
	return &Insight{
		ID:          insightID("portfolio", "at-risk-accounts"),
		Type:        TypeBenchmark,
		Severity:    sev,
		Title:       "Accounts at risk",
		Description: fmt.Sprintf("%d of %d accounts are at risk, representing %.2f ARR", count, len(summaries), arr),
		Evidence: []string{
			fmt.Sprintf("at_risk_count: %d", count),
			fmt.Sprintf("at_risk_arr: %.2f", arr),
			fmt.Sprintf("accounts: %v", names),
		},
		SuggestedAction: "Prioritize save plays for the highest-ARR accounts in this group",
		Confidence:      90,
		Category:        CategoryRisk,
		Metric:          "at_risk_count",
		Value:           float64(count),
	}
}

func revenueAtRisk(summaries []account.Summary) *Insight {
	var total, atRisk float64
	for _, s := range summaries {
		total += s.ARR
		if isAtRisk(s) {
			atRisk += s.ARR
		}
	}
	if total <= 0 || atRisk <= 0 {
		return nil
	}
	pct := atRisk / total * 100.0
	sev := SeverityInfo
	if pct >= PortfolioRevenueAtRiskWarn {
		sev = SeverityWarning
	}
	return &Insight{
		ID:          insightID("portfolio", "revenue-at-risk"),
		Type:        TypeBenchmark,
		Severity:    sev,
		Title:       "Revenue at risk",
		Description: fmt.Sprintf("%.1f%% of portfolio ARR sits in at-risk accounts", pct),
		Evidence: []string{
			fmt.Sprintf("at_risk_arr: %.2f", atRisk),
			fmt.Sprintf("total_arr: %.2f", total),
		},
		Confidence:    90,
		Category:      CategoryCommercial,
		Metric:        "revenue_at_risk_pct",
		Value:         math.Round(pct*10) / 10,
	}
}

func topDecileBenchmark(summaries []account.Summary) *Insight {
	if len(summaries) < PortfolioMinForBenchmark {
		return nil
	}
	scores := make([]int, len(summaries))
	for i, s := range summaries {
		scores[i] = s.HealthScore
	}
	sort.Ints(scores)
	idx := int(math.Ceil(float64(len(scores))*0.9)) - 1
	if idx < 0 {
		idx = 0
	}
	benchmark := scores[idx]
	return &Insight{
		ID:          insightID("portfolio", "top-decile-benchmark"),
		Type:        TypeBenchmark,
		Severity:    SeverityInfo,
		Title:       "Top-decile health benchmark",
		Description: fmt.Sprintf("The healthiest 10%% of accounts score %d or higher", benchmark),
		Evidence: []string{
			fmt.Sprintf("top_decile_score: %d", benchmark),
			fmt.Sprintf("portfolio_size: %d", len(summaries)),
		},
		Confidence: 80,
		Category:   CategoryHealth,
		Metric:     "top_decile_health",
		Value:      float64(benchmark),
	}
}

func healthDistribution(summaries []account.Summary) *Insight {
	if len(summaries) < PortfolioMinForDistribution {
		return nil
	}
	buckets := map[string]int{}
	for _, s := range summaries {
		switch {
		case s.HealthScore >= 80:
			buckets["A"]++
		case s.HealthScore >= 65:
			buckets["B"]++
		case s.HealthScore >= 50:
			buckets["C"]++
		case s.HealthScore >= 35:
			buckets["D"]++
		default:
			buckets["F"]++
		}
	}
	return &Insight{
		ID:       insightID("portfolio", "health-distribution"),
		Type:     TypeBenchmark,
		Severity: SeverityInfo,
		Title:    "Portfolio health distribution",
		Description: fmt.Sprintf("A: %d, B: %d, C: %d, D: %d, F: %d",
			buckets["A"], buckets["B"], buckets["C"], buckets["D"], buckets["F"]),
		Evidence: []string{
			fmt.Sprintf("portfolio_size: %d", len(summaries)),
		},
		Confidence: 85,
		Category:   CategoryHealth,
	}
}

func stalledOnboardings(summaries []account.Summary) *Insight {
	count := 0
	for _, s := range summaries {
		if s.Onboarding != account.OnboardingLive && s.AgeDays > PortfolioStallAgeDays && s.ItemCount < PortfolioStallMaxItems {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &Insight{
		ID:          insightID("portfolio", "stalled-onboardings"),
		Type:        TypeAnomaly,
		Severity:    SeverityWarning,
		Title:       "Stalled onboardings",
		Description: fmt.Sprintf("%d account(s) signed over a week ago are still not set up", count),
		Evidence: []string{
			fmt.Sprintf("stalled_count: %d", count),
		},
		SuggestedAction: "Assign an onboarding specialist to each stalled account",
		Confidence:      85,
		Category:        CategoryEngagement,
		Metric:          "stalled_onboarding_count",
		Value:           float64(count),
	}
}

func expansionCandidates(summaries []account.Summary) *Insight {
	count := 0
	for _, s := range summaries {
		if s.ExpansionPotential == account.ExpansionHigh && s.HealthScore >= 65 {
			count++
		}
	}
	if count == 0 {
		return nil
	}
	return &Insight{
		ID:          insightID("portfolio", "expansion-candidates"),
		Type:        TypePrediction,
		Severity:    SeverityInfo,
		Title:       "Expansion candidates",
		Description: fmt.Sprintf("%d healthy account(s) show high expansion potential", count),
		Evidence: []string{
			fmt.Sprintf("candidate_count: %d", count),
		},
		SuggestedAction: "Queue expansion conversations for the next business reviews",
		Confidence:      70,
		Category:        CategoryCommercial,
		Metric:          "expansion_candidate_count",
		Value:           float64(count),
	}
}

func renewalWave(summaries []account.Summary) *Insight {
	count := 0
	var arr float64
	for _, s := range summaries {
		if s.DaysToRenewal != nil && *s.DaysToRenewal >= 0 && *s.DaysToRenewal <= PortfolioRenewalWaveDays {
			count++
			arr += s.ARR
		}
	}
	if count < PortfolioMinForRenewalWave {
		return nil
	}
	return &Insight{
		ID:          insightID("portfolio", "renewal-wave"),
		Type:        TypePrediction,
		Severity:    SeverityWarning,
		Title:       "Renewal wave approaching",
		Description: fmt.Sprintf("%d accounts worth %.2f ARR renew within %d days", count, arr, PortfolioRenewalWaveDays),
		Evidence: []string{
			fmt.Sprintf("renewal_count: %d", count),
			fmt.Sprintf("renewal_arr: %.2f", arr),
		},
		SuggestedAction: "Stage renewal plans and capacity for the upcoming wave",
		Confidence:      85,
		Category:        CategoryCommercial,
		Metric:          "renewal_wave_arr",
		Value:           arr,
	}
}

func trendSplit(summaries []account.Summary) *Insight {
	improving := 0
	declining := 0
	for _, s := range summaries {
		switch s.HealthTrend {
		case "improving":
			improving++
		case "declining":
			declining++
		}
	}
	if improving+declining < PortfolioMinForTrendSplit {
		return nil
	}
	sev := SeverityInfo
	if declining > improving {
		sev = SeverityWarning
	}
	return &Insight{
		ID:          insightID("portfolio", "trend-split"),
		Type:        TypeTrend,
		Severity:    sev,
		Title:       "Improving versus declining accounts",
		Description: fmt.Sprintf("%d accounts improving, %d declining", improving, declining),
		Evidence: []string{
			fmt.Sprintf("improving_count: %d", improving),
			fmt.Sprintf("declining_count: %d", declining),
		},
		Confidence: 75,
		Category:   CategoryHealth,
	}
}
