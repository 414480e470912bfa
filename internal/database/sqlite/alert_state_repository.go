package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/clientpulse/clientpulse-backend-go/internal/database/models"
	"github.com/clientpulse/clientpulse-backend-go/internal/database/repositories"
)

// AlertStateRepository implements repositories.AlertStateRepository on
// SQLite.
type AlertStateRepository struct {
	db *sqlx.DB
}

// NewAlertStateRepository creates a new AlertStateRepository.
func NewAlertStateRepository(db *sqlx.DB) repositories.AlertStateRepository {
	return &AlertStateRepository{db: db}
}

// UpsertOpen records a freshly generated alert. Because alert ids are
// deterministic, regeneration hits the same row: severity and updated_at
// are refreshed while an operator-set status is preserved.
func (r *AlertStateRepository) UpsertOpen(ctx context.Context, state *models.AlertState) error {
	query := `
		INSERT INTO alert_states (alert_id, account_id, type, severity, status, first_seen_at, updated_at)
		VALUES (?, ?, ?, ?, 'open', ?, ?)
		ON CONFLICT(alert_id) DO UPDATE SET
			severity = excluded.severity,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	if state.FirstSeenAt.IsZero() {
		state.FirstSeenAt = now
	}
	state.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		state.AlertID, state.AccountID, state.Type, state.Severity,
		state.FirstSeenAt, state.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert alert state %s: %w", state.AlertID, err)
	}
	return nil
}

// SetStatus transitions an alert's workflow state.
func (r *AlertStateRepository) SetStatus(ctx context.Context, alertID, status string, snoozedUntil *time.Time) error {
	query := `
		UPDATE alert_states
		SET status = ?, snoozed_until = ?, updated_at = ?
		WHERE alert_id = ?
	`
	result, err := r.db.ExecContext(ctx, query, status, snoozedUntil, time.Now().UTC(), alertID)
	if err != nil {
		return fmt.Errorf("failed to set alert status %s: %w", alertID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check alert status update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("alert not found: %s", alertID)
	}
	return nil
}

// Get returns the state row for one alert id, or nil when unknown.
func (r *AlertStateRepository) Get(ctx context.Context, alertID string) (*models.AlertState, error) {
	query := `
		SELECT alert_id, account_id, type, severity, status, snoozed_until, first_seen_at, updated_at
		FROM alert_states
		WHERE alert_id = ?
	`
	var state models.AlertState
	err := r.db.GetContext(ctx, &state, query, alertID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert state %s: %w", alertID, err)
	}
	return &state, nil
}

// ListByAccount returns all alert states for one account.
func (r *AlertStateRepository) ListByAccount(ctx context.Context, accountID string) ([]models.AlertState, error) {
	query := `
		SELECT alert_id, account_id, type, severity, status, snoozed_until, first_seen_at, updated_at
		FROM alert_states
		WHERE account_id = ?
		ORDER BY first_seen_at
	`
	var states []models.AlertState
	if err := r.db.SelectContext(ctx, &states, query, accountID); err != nil {
		return nil, fmt.Errorf("failed to list alert states for %s: %w", accountID, err)
	}
	return states, nil
}
