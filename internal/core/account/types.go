package account

import "time"

// LifecycleStage is the coarse phase of the customer journey.
type LifecycleStage string

const (
	StageOnboarding LifecycleStage = "onboarding"
	StageAdoption   LifecycleStage = "adoption"
	StageGrowth     LifecycleStage = "growth"
	StageMature     LifecycleStage = "mature"
	StageRenewal    LifecycleStage = "renewal"
	StageUnknown    LifecycleStage = "unknown"
)

// OnboardingStatus tracks progress from contract signature to go-live.
type OnboardingStatus string

const (
	OnboardingSigned     OnboardingStatus = "signed"
	OnboardingKickoff    OnboardingStatus = "kickoff"
	OnboardingInProgress OnboardingStatus = "in_progress"
	OnboardingLive       OnboardingStatus = "live"
)

// PaymentStatus reflects the billing provider's view of the account.
type PaymentStatus string

const (
	PaymentCurrent PaymentStatus = "current"
	PaymentAtRisk  PaymentStatus = "at_risk"
	PaymentOverdue PaymentStatus = "overdue"
	PaymentUnknown PaymentStatus = "unknown"
)

// ExpansionPotential is the CRM's upsell assessment.
type ExpansionPotential string

const (
	ExpansionNone   ExpansionPotential = "none"
	ExpansionLow    ExpansionPotential = "low"
	ExpansionMedium ExpansionPotential = "medium"
	ExpansionHigh   ExpansionPotential = "high"
)

// UsageMetrics holds product-usage signals for one account.
type UsageMetrics struct {
	ItemCount             int                `json:"item_count"`
	KanbanCount           int                `json:"kanban_count"`
	OrderCount            int                `json:"order_count"`
	ActiveUsers           int                `json:"active_users"`
	TotalUsers            int                `json:"total_users"`
	DaysSinceLastActivity int                `json:"days_since_last_activity"`
	TotalActivity         int                `json:"total_activity"`
	FeatureAdoption       map[string]float64 `json:"feature_adoption"`
	WeeklyActivity        []float64          `json:"weekly_activity"`
}

// CommercialMetrics holds billing-derived signals for one account.
type CommercialMetrics struct {
	ARR                float64            `json:"arr"`
	MRR                float64            `json:"mrr"`
	PaymentStatus      PaymentStatus      `json:"payment_status"`
	OverdueAmount      float64            `json:"overdue_amount"`
	RenewalDate        *time.Time         `json:"renewal_date,omitempty"`
	SeatsUsed          int                `json:"seats_used"`
	SeatLimit          int                `json:"seat_limit"`
	ExpansionPotential ExpansionPotential `json:"expansion_potential"`
}

// SupportMetrics holds support-ticket signals for one account.
type SupportMetrics struct {
	OpenTickets      int `json:"open_tickets"`
	CriticalTickets  int `json:"critical_tickets"`
	EscalatedTickets int `json:"escalated_tickets"`
	TicketsLast30d   int `json:"tickets_last_30d"`
}

// Stakeholder is a named contact on the account.
type Stakeholder struct {
	Name      string `json:"name"`
	Role      string `json:"role"`
	Influence string `json:"influence"` // champion, decision_maker, user
	Departed  bool   `json:"departed"`
}

// Snapshot is a point-in-time bundle of one customer's usage, billing and
// relationship data. It is immutable for the duration of a computation;
// the scoring engines never mutate it.
type Snapshot struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Stage        LifecycleStage    `json:"stage"`
	Onboarding   OnboardingStatus  `json:"onboarding"`
	Usage        UsageMetrics      `json:"usage"`
	Commercial   CommercialMetrics `json:"commercial"`
	Support      SupportMetrics    `json:"support"`
	Stakeholders []Stakeholder     `json:"stakeholders"`
	CreatedAt    time.Time         `json:"created_at"`
	AsOf         time.Time         `json:"as_of"`
}

// AgeDays returns the account age in whole days at snapshot time. The
// snapshot carries its own clock so repeated evaluation of the same
// snapshot is deterministic.
func (s *Snapshot) AgeDays() int {
	if s.CreatedAt.IsZero() || s.AsOf.Before(s.CreatedAt) {
		return 0
	}
	return int(s.AsOf.Sub(s.CreatedAt).Hours() / 24)
}

// DaysToRenewal returns the number of days until the renewal date, or
// false when no renewal date is known.
func (s *Snapshot) DaysToRenewal() (int, bool) {
	if s.Commercial.RenewalDate == nil {
		return 0, false
	}
	return int(s.Commercial.RenewalDate.Sub(s.AsOf).Hours() / 24), true
}

// HasChampion reports whether any active stakeholder is a champion.
func (s *Snapshot) HasChampion() bool {
	for _, st := range s.Stakeholders {
		if st.Influence == "champion" && !st.Departed {
			return true
		}
	}
	return false
}

// Summary is the reduced per-account view used for portfolio-level
// aggregation. It carries the already-computed health signals instead of
// the full snapshot.
type Summary struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	ARR                float64            `json:"arr"`
	HealthScore        int                `json:"health_score"`
	HealthTrend        string             `json:"health_trend"` // improving, declining, stable
	CriticalAlertCount int                `json:"critical_alert_count"`
	Onboarding         OnboardingStatus   `json:"onboarding"`
	AgeDays            int                `json:"age_days"`
	ItemCount          int                `json:"item_count"`
	ActiveUsers        int                `json:"active_users"`
	DaysToRenewal      *int               `json:"days_to_renewal,omitempty"`
	ExpansionPotential ExpansionPotential `json:"expansion_potential"`
}
