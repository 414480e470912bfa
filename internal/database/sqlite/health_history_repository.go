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

// HealthHistoryRepository implements repositories.HealthHistoryRepository
// on SQLite.
type HealthHistoryRepository struct {
	db *sqlx.DB
}

// NewHealthHistoryRepository creates a new HealthHistoryRepository.
func NewHealthHistoryRepository(db *sqlx.DB) repositories.HealthHistoryRepository {
	return &HealthHistoryRepository{db: db}
}

// Insert appends one health calculation.
func (r *HealthHistoryRepository) Insert(ctx context.Context, entry *models.HealthHistory) error {
	query := `
		INSERT INTO health_history (account_id, score, grade, confidence, components_json, calculated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	result, err := r.db.ExecContext(ctx, query,
		entry.AccountID, entry.Score, entry.Grade, entry.Confidence,
		entry.ComponentsJSON, entry.CalculatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert health history for %s: %w", entry.AccountID, err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get inserted health history id: %w", err)
	}
	entry.ID = id
	return nil
}

// Latest returns the most recent health calculation for an account, or
// nil when none exists yet.
func (r *HealthHistoryRepository) Latest(ctx context.Context, accountID string) (*models.HealthHistory, error) {
	query := `
		SELECT id, account_id, score, grade, confidence, components_json, calculated_at
		FROM health_history
		WHERE account_id = ?
		ORDER BY calculated_at DESC, id DESC
		LIMIT 1
	`
	var entry models.HealthHistory
	err := r.db.GetContext(ctx, &entry, query, accountID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest health for %s: %w", accountID, err)
	}
	return &entry, nil
}

// History returns calculations since the given time, oldest first.
func (r *HealthHistoryRepository) History(ctx context.Context, accountID string, since time.Time) ([]models.HealthHistory, error) {
	query := `
		SELECT id, account_id, score, grade, confidence, components_json, calculated_at
		FROM health_history
		WHERE account_id = ? AND calculated_at >= ?
		ORDER BY calculated_at ASC
	`
	var entries []models.HealthHistory
	if err := r.db.SelectContext(ctx, &entries, query, accountID, since); err != nil {
		return nil, fmt.Errorf("failed to get health history for %s: %w", accountID, err)
	}
	return entries, nil
}
