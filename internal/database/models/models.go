package models

import "time"

// Account is the persisted row for one customer account. SnapshotJSON
// holds the latest fetched snapshot so evaluations can be replayed without
// hitting upstream sources.
type Account struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Stage        string    `db:"stage" json:"stage"`
	Onboarding   string    `db:"onboarding" json:"onboarding"`
	SnapshotJSON string    `db:"snapshot_json" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// HealthHistory is one persisted health calculation. The trend and score
// change of the next calculation are derived from the latest row here.
type HealthHistory struct {
	ID           int64     `db:"id" json:"id"`
	AccountID    string    `db:"account_id" json:"account_id"`
	Score        int       `db:"score" json:"score"`
	Grade        string    `db:"grade" json:"grade"`
	Confidence   int       `db:"confidence" json:"confidence"`
	ComponentsJSON string  `db:"components_json" json:"-"`
	CalculatedAt time.Time `db:"calculated_at" json:"calculated_at"`
}

// AlertState is the workflow state for one deterministic alert id. The
// generator recreates alerts fresh each evaluation; this row is what makes
// acknowledge/snooze/resolve survive regeneration.
type AlertState struct {
	AlertID      string     `db:"alert_id" json:"alert_id"`
	AccountID    string     `db:"account_id" json:"account_id"`
	Type         string     `db:"type" json:"type"`
	Severity     string     `db:"severity" json:"severity"`
	Status       string     `db:"status" json:"status"`
	SnoozedUntil *time.Time `db:"snoozed_until" json:"snoozed_until,omitempty"`
	FirstSeenAt  time.Time  `db:"first_seen_at" json:"first_seen_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}
