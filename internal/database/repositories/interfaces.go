package repositories

import (
	"context"
	"time"

	"github.com/clientpulse/clientpulse-backend-go/internal/database/models"
)

// AccountRepository persists account rows and their latest snapshots.
type AccountRepository interface {
	Upsert(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id string) (*models.Account, error)
	List(ctx context.Context) ([]models.Account, error)
	Delete(ctx context.Context, id string) error
}

// HealthHistoryRepository persists computed health scores over time.
type HealthHistoryRepository interface {
	Insert(ctx context.Context, entry *models.HealthHistory) error
	Latest(ctx context.Context, accountID string) (*models.HealthHistory, error)
	History(ctx context.Context, accountID string, since time.Time) ([]models.HealthHistory, error)
}

// AlertStateRepository maps deterministic alert ids to workflow state.
type AlertStateRepository interface {
	// UpsertOpen records a freshly generated alert. An existing row keeps
	// its status; only severity and updated_at move.
	UpsertOpen(ctx context.Context, state *models.AlertState) error
	SetStatus(ctx context.Context, alertID, status string, snoozedUntil *time.Time) error
	Get(ctx context.Context, alertID string) (*models.AlertState, error)
	ListByAccount(ctx context.Context, accountID string) ([]models.AlertState, error)
}
