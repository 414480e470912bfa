package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/clientpulse/clientpulse-backend-go/internal/database/repositories"
	"github.com/clientpulse/clientpulse-backend-go/internal/database/sqlite"
)

// Repositories holds all repository instances.
type Repositories struct {
	Account       repositories.AccountRepository
	HealthHistory repositories.HealthHistoryRepository
	AlertState    repositories.AlertStateRepository

	db *sqlx.DB
}

// NewRepositories creates all repository instances.
func NewRepositories(db *sqlx.DB) *Repositories {
	return &Repositories{
		Account:       sqlite.NewAccountRepository(db),
		HealthHistory: sqlite.NewHealthHistoryRepository(db),
		AlertState:    sqlite.NewAlertStateRepository(db),
		db:            db,
	}
}

// Ping verifies the underlying database connection.
func (r *Repositories) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.PingContext(ctx)
}
