package alerts

import "time"

// Type identifies which rule produced an alert.
type Type string

const (
	TypeChurnRisk            Type = "churn_risk"
	TypeLowEngagement        Type = "low_engagement"
	TypeOnboardingStalled    Type = "onboarding_stalled"
	TypeExpansionOpportunity Type = "expansion_opportunity"
	TypeRenewalApproaching   Type = "renewal_approaching"
	TypeHealthDrop           Type = "health_drop"
	TypeUsageDecline         Type = "usage_decline"
	TypeChampionLeft         Type = "champion_left"
	TypeSupportEscalation    Type = "support_escalation"
	TypePaymentOverdue       Type = "payment_overdue"
)

// Category groups alerts by what the account manager should do with them.
type Category string

const (
	CategoryRisk           Category = "risk"
	CategoryOpportunity    Category = "opportunity"
	CategoryActionRequired Category = "action_required"
)

// Severity ranks alerts for triage.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// severityRank orders severities for sorting; lower sorts first.
var severityRank = map[Severity]int{
	SeverityCritical: 0,
	SeverityHigh:     1,
	SeverityMedium:   2,
	SeverityLow:      3,
}

// Rank returns the sort position of a severity, critical first. Unknown
// severities sort last.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return len(severityRank)
}

// SLAStatus indicates whether the alert is inside its response window.
type SLAStatus string

const (
	SLAOnTrack SLAStatus = "on_track"
	SLAAtRisk  SLAStatus = "at_risk"
	SLANone    SLAStatus = "none"
)

// Status is the alert workflow state. The generator always emits open;
// acknowledge/snooze/resolve transitions are applied by the persistence
// layer keyed on the deterministic alert ID.
type Status string

const (
	StatusOpen         Status = "open"
	StatusAcknowledged Status = "acknowledged"
	StatusSnoozed      Status = "snoozed"
	StatusResolved     Status = "resolved"
)

// Alert is a rule-triggered, actionable flag for one account. Alerts are
// regenerated fresh on every evaluation; the ID is a stable function of
// account and type so re-evaluation against unchanged input yields an
// identical set.
type Alert struct {
	ID              string    `json:"id"`
	AccountID       string    `json:"account_id"`
	Type            Type      `json:"type"`
	Category        Category  `json:"category"`
	Severity        Severity  `json:"severity"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Evidence        []string  `json:"evidence"`
	SuggestedAction string    `json:"suggested_action"`
	SLAStatus       SLAStatus `json:"sla_status"`
	Status          Status    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
