package alerts

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/timeseries"
)

// Thresholds are the tunable trigger values of the rule battery. They are
// a public contract: tests and downstream consumers calibrate against them.
type Thresholds struct {
	InactivityHighDays     int     `yaml:"inactivity_high_days"`
	InactivityCriticalDays int     `yaml:"inactivity_critical_days"`
	HealthDropHigh         int     `yaml:"health_drop_high"`
	HealthDropCritical     int     `yaml:"health_drop_critical"`
	OnboardingStallDays    int     `yaml:"onboarding_stall_days"`
	OnboardingHighDays     int     `yaml:"onboarding_high_days"`
	OnboardingMinItems     int     `yaml:"onboarding_min_items"`
	LowEngagementAgeDays   int     `yaml:"low_engagement_age_days"`
	LowEngagementActivity  int     `yaml:"low_engagement_activity"`
	LowEngagementIdleDays  int     `yaml:"low_engagement_idle_days"`
	ExpansionMinActivity   int     `yaml:"expansion_min_activity"`
	ExpansionMinUsers      int     `yaml:"expansion_min_users"`
	ExpansionMaxIdleDays   int     `yaml:"expansion_max_idle_days"`
	OverdueCriticalAmount  float64 `yaml:"overdue_critical_amount"`
	RenewalMediumDays      int     `yaml:"renewal_medium_days"`
	RenewalHighDays        int     `yaml:"renewal_high_days"`
	UsageDeclineHighPct    float64 `yaml:"usage_decline_high_pct"`
	EscalationCriticalMin  int     `yaml:"escalation_critical_min"`
}

// DefaultThresholds returns the standard rule calibration.
func DefaultThresholds() Thresholds {
	return Thresholds{
		InactivityHighDays:     14,
		InactivityCriticalDays: 30,
		HealthDropHigh:         40,
		HealthDropCritical:     25,
		OnboardingStallDays:    7,
		OnboardingHighDays:     14,
		OnboardingMinItems:     5,
		LowEngagementAgeDays:   30,
		LowEngagementActivity:  10,
		LowEngagementIdleDays:  7,
		ExpansionMinActivity:   50,
		ExpansionMinUsers:      3,
		ExpansionMaxIdleDays:   7,
		OverdueCriticalAmount:  1000,
		RenewalMediumDays:      60,
		RenewalHighDays:        30,
		UsageDeclineHighPct:    -30,
		EscalationCriticalMin:  2,
	}
}

// Generator evaluates the alert rule battery. It is stateless apart from
// its read-only thresholds and safe for concurrent use.
type Generator struct {
	thresholds Thresholds
}

// NewGenerator returns a Generator with the default thresholds.
func NewGenerator() *Generator {
	return &Generator{thresholds: DefaultThresholds()}
}

// NewGeneratorWithThresholds returns a Generator using the given trigger
// values.
func NewGeneratorWithThresholds(t Thresholds) *Generator {
	return &Generator{thresholds: t}
}

// Thresholds returns the generator's trigger values.
func (g *Generator) Thresholds() Thresholds {
	return g.thresholds
}

// rule is one entry of the declarative battery: a predicate-plus-factory
// that either emits a fully-populated alert or nil when not triggered.
// Rules must tolerate missing fields by returning nil, never panicking.
type rule struct {
	typ  Type
	eval func(g *Generator, snap *account.Snapshot, h *health.AccountHealth) *Alert
}

// battery is evaluated in order; output preserves this order. Consumers
// sort by severity themselves when they need triage order.
var battery = []rule{
	{TypeChurnRisk, (*Generator).churnRisk},
	{TypeHealthDrop, (*Generator).healthDrop},
	{TypeOnboardingStalled, (*Generator).onboardingStalled},
	{TypeLowEngagement, (*Generator).lowEngagement},
	{TypeExpansionOpportunity, (*Generator).expansionOpportunity},
	{TypePaymentOverdue, (*Generator).paymentOverdue},
	{TypeRenewalApproaching, (*Generator).renewalApproaching},
	{TypeUsageDecline, (*Generator).usageDecline},
	{TypeChampionLeft, (*Generator).championLeft},
	{TypeSupportEscalation, (*Generator).supportEscalation},
}

// Generate evaluates every rule against the snapshot and returns the
// triggered alerts in rule order. h is the account's current health and
// may be nil, in which case health-dependent rules are skipped. Repeated
// calls on identical input produce identical output.
func (g *Generator) Generate(snap *account.Snapshot, h *health.AccountHealth) []Alert {
	if snap == nil {
		return nil
	}
	out := make([]Alert, 0, 4)
	for _, r := range battery {
		if a := r.eval(g, snap, h); a != nil {
			out = append(out, *a)
		}
	}
	return out
}

// AlertID derives the stable id for an account/type pair. Re-evaluation
// of unchanged input yields the same id, which is what lets the
// persistence layer upsert acknowledgement state safely.
func AlertID(accountID string, typ Type) string {
	sum := sha256.Sum256([]byte(accountID + ":" + string(typ)))
	return hex.EncodeToString(sum[:8])
}

func (g *Generator) newAlert(snap *account.Snapshot, typ Type, cat Category, sev Severity, title, desc string, evidence []string, action string, sla SLAStatus) *Alert {
	return &Alert{
		ID:              AlertID(snap.ID, typ),
		AccountID:       snap.ID,
		Type:            typ,
		Category:        cat,
		Severity:        sev,
		Title:           title,
		Description:     desc,
		Evidence:        evidence,
		SuggestedAction: action,
		SLAStatus:       sla,
		Status:          StatusOpen,
		CreatedAt:       snap.AsOf,
	}
}

func (g *Generator) churnRisk(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	days := snap.Usage.DaysSinceLastActivity
	if days < g.thresholds.InactivityHighDays {
		return nil
	}
	sev := SeverityHigh
	sla := SLAOnTrack
	if days >= g.thresholds.InactivityCriticalDays {
		sev = SeverityCritical
		sla = SLAAtRisk
	}
	return g.newAlert(snap, TypeChurnRisk, CategoryRisk, sev,
		"Account at risk of churning",
		fmt.Sprintf("%s has had no activity for %d days", snap.Name, days),
		[]string{
			fmt.Sprintf("days_since_last_activity: %d", days),
			fmt.Sprintf("inactivity threshold: %d days", g.thresholds.InactivityHighDays),
		},
		"Schedule a check-in call within 48 hours and review recent usage together",
		sla)
}

func (g *Generator) healthDrop(snap *account.Snapshot, h *health.AccountHealth) *Alert {
	if h == nil {
		return nil
	}
	if h.Score >= g.thresholds.HealthDropHigh {
		return nil
	}
	sev := SeverityHigh
	if h.Score < g.thresholds.HealthDropCritical {
		sev = SeverityCritical
	}
	return g.newAlert(snap, TypeHealthDrop, CategoryRisk, sev,
		"Health score critically low",
		fmt.Sprintf("%s health score is %d (grade %s)", snap.Name, h.Score, h.Grade),
		[]string{
			fmt.Sprintf("health_score: %d", h.Score),
			fmt.Sprintf("grade: %s", h.Grade),
		},
		"Run a health review with the account team and build a remediation plan",
		SLAAtRisk)
}

func (g *Generator) onboardingStalled(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	age := snap.AgeDays()
	if age <= g.thresholds.OnboardingStallDays {
		return nil
	}
	if snap.Usage.ItemCount >= g.thresholds.OnboardingMinItems {
		return nil
	}
	if snap.Onboarding == account.OnboardingLive {
		return nil
	}
	sev := SeverityMedium
	if age > g.thresholds.OnboardingHighDays {
		sev = SeverityHigh
	}
	return g.newAlert(snap, TypeOnboardingStalled, CategoryActionRequired, sev,
		"Onboarding has stalled",
		fmt.Sprintf("%s signed %d days ago but has created only %d items", snap.Name, age, snap.Usage.ItemCount),
		[]string{
			fmt.Sprintf("account_age_days: %d", age),
			fmt.Sprintf("item_count: %d", snap.Usage.ItemCount),
			fmt.Sprintf("onboarding_status: %s", snap.Onboarding),
		},
		"Book an onboarding session and walk through initial setup with the customer",
		SLAOnTrack)
}

func (g *Generator) lowEngagement(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	age := snap.AgeDays()
	if age <= g.thresholds.LowEngagementAgeDays {
		return nil
	}
	if snap.Usage.TotalActivity >= g.thresholds.LowEngagementActivity {
		return nil
	}
	if snap.Usage.DaysSinceLastActivity < g.thresholds.LowEngagementIdleDays {
		return nil
	}
	return g.newAlert(snap, TypeLowEngagement, CategoryRisk, SeverityMedium,
		"Engagement is low",
		fmt.Sprintf("%s has logged only %d actions and has been idle for %d days", snap.Name, snap.Usage.TotalActivity, snap.Usage.DaysSinceLastActivity),
		[]string{
			fmt.Sprintf("total_activity: %d", snap.Usage.TotalActivity),
			fmt.Sprintf("days_since_last_activity: %d", snap.Usage.DaysSinceLastActivity),
			fmt.Sprintf("account_age_days: %d", age),
		},
		"Share relevant feature guides and offer a tailored training session",
		SLANone)
}

func (g *Generator) expansionOpportunity(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	u := snap.Usage
	if u.TotalActivity <= g.thresholds.ExpansionMinActivity {
		return nil
	}
	if u.ActiveUsers < g.thresholds.ExpansionMinUsers {
		return nil
	}
	if u.DaysSinceLastActivity >= g.thresholds.ExpansionMaxIdleDays {
		return nil
	}
	return g.newAlert(snap, TypeExpansionOpportunity, CategoryOpportunity, SeverityLow,
		"Expansion opportunity",
		fmt.Sprintf("%s is highly active with %d users engaged", snap.Name, u.ActiveUsers),
		[]string{
			fmt.Sprintf("total_activity: %d", u.TotalActivity),
			fmt.Sprintf("active_users: %d", u.ActiveUsers),
			fmt.Sprintf("days_since_last_activity: %d", u.DaysSinceLastActivity),
		},
		"Discuss upgrade options or additional seats with the account owner",
		SLANone)
}

func (g *Generator) paymentOverdue(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	c := snap.Commercial
	triggered := c.PaymentStatus == account.PaymentOverdue ||
		c.PaymentStatus == account.PaymentAtRisk ||
		c.OverdueAmount > 0
	if !triggered {
		return nil
	}
	sev := SeverityHigh
	sla := SLAOnTrack
	if c.OverdueAmount >= g.thresholds.OverdueCriticalAmount {
		sev = SeverityCritical
		sla = SLAAtRisk
	}
	return g.newAlert(snap, TypePaymentOverdue, CategoryActionRequired, sev,
		"Payment issue detected",
		fmt.Sprintf("%s payment status is %s with %.2f overdue", snap.Name, c.PaymentStatus, c.OverdueAmount),
		[]string{
			fmt.Sprintf("payment_status: %s", c.PaymentStatus),
			fmt.Sprintf("overdue_amount: %.2f", c.OverdueAmount),
		},
		"Contact billing and confirm the outstanding invoice with the customer",
		sla)
}

func (g *Generator) renewalApproaching(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	days, ok := snap.DaysToRenewal()
	if !ok || days < 0 || days > g.thresholds.RenewalMediumDays {
		return nil
	}
	sev := SeverityMedium
	if days <= g.thresholds.RenewalHighDays {
		sev = SeverityHigh
	}
	return g.newAlert(snap, TypeRenewalApproaching, CategoryActionRequired, sev,
		"Renewal approaching",
		fmt.Sprintf("%s renews in %d days", snap.Name, days),
		[]string{
			fmt.Sprintf("days_to_renewal: %d", days),
			fmt.Sprintf("arr: %.2f", snap.Commercial.ARR),
		},
		"Prepare the renewal proposal and schedule the renewal conversation",
		SLAOnTrack)
}

func (g *Generator) usageDecline(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	trend := timeseries.AnalyzeTrend(snap.Usage.WeeklyActivity)
	if trend.Direction != timeseries.TrendDown {
		return nil
	}
	sev := SeverityMedium
	if trend.ChangePercent <= g.thresholds.UsageDeclineHighPct {
		sev = SeverityHigh
	}
	return g.newAlert(snap, TypeUsageDecline, CategoryRisk, sev,
		"Usage is declining",
		fmt.Sprintf("%s weekly activity is down %.1f%%", snap.Name, -trend.ChangePercent),
		[]string{
			fmt.Sprintf("change_percent: %.1f", trend.ChangePercent),
			fmt.Sprintf("recent_avg: %.1f", trend.RecentAvg),
			fmt.Sprintf("older_avg: %.1f", trend.OlderAvg),
		},
		"Investigate which workflows dropped off and re-engage the affected users",
		SLANone)
}

func (g *Generator) championLeft(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	departedChampion := ""
	for _, st := range snap.Stakeholders {
		if st.Influence == "champion" && st.Departed {
			departedChampion = st.Name
			break
		}
	}
	if departedChampion == "" || snap.HasChampion() {
		return nil
	}
	return g.newAlert(snap, TypeChampionLeft, CategoryRisk, SeverityHigh,
		"Champion has left the account",
		fmt.Sprintf("%s lost its champion %s and has no replacement", snap.Name, departedChampion),
		[]string{
			fmt.Sprintf("departed_champion: %s", departedChampion),
			fmt.Sprintf("stakeholder_count: %d", len(snap.Stakeholders)),
		},
		"Identify and develop a new champion among the remaining stakeholders",
		SLAAtRisk)
}

func (g *Generator) supportEscalation(snap *account.Snapshot, _ *health.AccountHealth) *Alert {
	s := snap.Support
	if s.EscalatedTickets == 0 {
		return nil
	}
	sev := SeverityHigh
	if s.EscalatedTickets >= g.thresholds.EscalationCriticalMin {
		sev = SeverityCritical
	}
	return g.newAlert(snap, TypeSupportEscalation, CategoryActionRequired, sev,
		"Support escalation open",
		fmt.Sprintf("%s has %d escalated support tickets", snap.Name, s.EscalatedTickets),
		[]string{
			fmt.Sprintf("escalated_tickets: %d", s.EscalatedTickets),
			fmt.Sprintf("critical_tickets: %d", s.CriticalTickets),
			fmt.Sprintf("open_tickets: %d", s.OpenTickets),
		},
		"Coordinate with support leadership on the escalation and update the customer",
		SLAAtRisk)
}
