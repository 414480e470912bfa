package sqlite

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clientpulse/clientpulse-backend-go/internal/database/models"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	schema, err := os.ReadFile("../../../migrations/000001_init.up.sql")
	require.NoError(t, err)
	_, err = db.Exec(string(schema))
	require.NoError(t, err)
	return db
}

func TestAccountRepository_UpsertAndGet(t *testing.T) {
	repo := NewAccountRepository(testDB(t))
	ctx := context.Background()

	acct := &models.Account{
		ID:           "acct-1",
		Name:         "Acme",
		Stage:        "growth",
		Onboarding:   "live",
		SnapshotJSON: `{"id":"acct-1"}`,
	}
	require.NoError(t, repo.Upsert(ctx, acct))

	got, err := repo.GetByID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)
	assert.Equal(t, "growth", got.Stage)

	// Upsert over the same id updates in place.
	acct.Name = "Acme Corp"
	require.NoError(t, repo.Upsert(ctx, acct))
	got, err = repo.GetByID(ctx, "acct-1")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = repo.GetByID(ctx, "missing")
	assert.Error(t, err)
}

func TestHealthHistoryRepository(t *testing.T) {
	db := testDB(t)
	accounts := NewAccountRepository(db)
	repo := NewHealthHistoryRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, &models.Account{ID: "acct-1", Name: "Acme"}))

	// No history yet: Latest returns nil, not an error.
	latest, err := repo.Latest(ctx, "acct-1")
	require.NoError(t, err)
	assert.Nil(t, latest)

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, score := range []int{60, 65, 72} {
		require.NoError(t, repo.Insert(ctx, &models.HealthHistory{
			AccountID:    "acct-1",
			Score:        score,
			Grade:        "B",
			Confidence:   50,
			CalculatedAt: base.AddDate(0, 0, i),
		}))
	}

	latest, err = repo.Latest(ctx, "acct-1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 72, latest.Score)

	history, err := repo.History(ctx, "acct-1", base.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 65, history[0].Score)
}

func TestAlertStateRepository_UpsertPreservesStatus(t *testing.T) {
	db := testDB(t)
	accounts := NewAccountRepository(db)
	repo := NewAlertStateRepository(db)
	ctx := context.Background()

	require.NoError(t, accounts.Upsert(ctx, &models.Account{ID: "acct-1", Name: "Acme"}))

	state := &models.AlertState{
		AlertID:   "alert-abc",
		AccountID: "acct-1",
		Type:      "churn_risk",
		Severity:  "high",
	}
	require.NoError(t, repo.UpsertOpen(ctx, state))

	got, err := repo.Get(ctx, "alert-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "open", got.Status)

	// Operator acknowledges; a regenerated alert must not reopen it.
	require.NoError(t, repo.SetStatus(ctx, "alert-abc", "acknowledged", nil))

	state.Severity = "critical"
	require.NoError(t, repo.UpsertOpen(ctx, state))

	got, err = repo.Get(ctx, "alert-abc")
	require.NoError(t, err)
	assert.Equal(t, "acknowledged", got.Status)
	assert.Equal(t, "critical", got.Severity)
}

func TestAlertStateRepository_SetStatusMissing(t *testing.T) {
	repo := NewAlertStateRepository(testDB(t))
	err := repo.SetStatus(context.Background(), "nope", "resolved", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestAlertStateRepository_Snooze(t *testing.T) {
	db := testDB(t)
	require.NoError(t, NewAccountRepository(db).Upsert(context.Background(), &models.Account{ID: "acct-1", Name: "Acme"}))
	repo := NewAlertStateRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertOpen(ctx, &models.AlertState{
		AlertID: "alert-snooze", AccountID: "acct-1", Type: "renewal_approaching", Severity: "medium",
	}))

	until := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	require.NoError(t, repo.SetStatus(ctx, "alert-snooze", "snoozed", &until))

	got, err := repo.Get(ctx, "alert-snooze")
	require.NoError(t, err)
	assert.Equal(t, "snoozed", got.Status)
	require.NotNil(t, got.SnoozedUntil)
	assert.WithinDuration(t, until, *got.SnoozedUntil, time.Second)

	states, err := repo.ListByAccount(ctx, "acct-1")
	require.NoError(t, err)
	assert.Len(t, states, 1)
}
