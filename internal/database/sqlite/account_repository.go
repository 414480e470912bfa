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
	apperrors "github.com/clientpulse/clientpulse-backend-go/pkg/errors"
)

// AccountRepository implements repositories.AccountRepository on SQLite.
type AccountRepository struct {
	db *sqlx.DB
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db *sqlx.DB) repositories.AccountRepository {
	return &AccountRepository{db: db}
}

// Upsert inserts or replaces an account row keyed on id.
func (r *AccountRepository) Upsert(ctx context.Context, account *models.Account) error {
	query := `
		INSERT INTO accounts (id, name, stage, onboarding, snapshot_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			stage = excluded.stage,
			onboarding = excluded.onboarding,
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.Name, account.Stage, account.Onboarding,
		account.SnapshotJSON, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert account %s: %w", account.ID, err)
	}
	return nil
}

// GetByID retrieves one account row.
func (r *AccountRepository) GetByID(ctx context.Context, id string) (*models.Account, error) {
	query := `
		SELECT id, name, stage, onboarding, snapshot_json, created_at, updated_at
		FROM accounts
		WHERE id = ?
	`
	var account models.Account
	err := r.db.GetContext(ctx, &account, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.Wrap(apperrors.ErrNotFound, fmt.Errorf("account not found: %s", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", id, err)
	}
	return &account, nil
}

// List returns all account rows ordered by name.
func (r *AccountRepository) List(ctx context.Context) ([]models.Account, error) {
	query := `
		SELECT id, name, stage, onboarding, snapshot_json, created_at, updated_at
		FROM accounts
		ORDER BY name
	`
	var accounts []models.Account
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}
	return accounts, nil
}

// Delete removes an account row.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete account %s: %w", id, err)
	}
	return nil
}
