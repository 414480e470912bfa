package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/internal/database"
	"github.com/clientpulse/clientpulse-backend-go/internal/database/models"
	"github.com/clientpulse/clientpulse-backend-go/internal/datafetch"
)

// refreshTimeout bounds one full portfolio refresh.
const refreshTimeout = 10 * time.Minute

// Refresher runs the periodic portfolio refresh: fetch fresh snapshots,
// evaluate every account, and persist the results so API reads never
// block on upstream sources.
type Refresher struct {
	fetcher *datafetch.Service
	scorer  *scoring.Service
	repos   *database.Repositories
	log     *logrus.Logger
	cron    *cron.Cron
}

// NewRefresher wires the refresh job.
func NewRefresher(fetcher *datafetch.Service, scorer *scoring.Service, repos *database.Repositories, log *logrus.Logger) *Refresher {
	return &Refresher{
		fetcher: fetcher,
		scorer:  scorer,
		repos:   repos,
		log:     log,
		cron:    cron.New(),
	}
}

// Start schedules the refresh on the given cron expression and begins
// running. The expression accepts the standard five fields plus the
// @every shorthand.
func (r *Refresher) Start(schedule string) error {
	_, err := r.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()
		if err := r.RefreshAll(ctx); err != nil {
			r.log.WithError(err).Error("Portfolio refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule portfolio refresh: %w", err)
	}
	r.cron.Start()
	r.log.WithField("schedule", schedule).Info("Portfolio refresh scheduled")
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}

// RefreshAll fetches fresh snapshots for every known account, evaluates
// the portfolio and persists the results. Accounts whose fetch fails are
// skipped and logged; one bad account never blocks the rest.
func (r *Refresher) RefreshAll(ctx context.Context) error {
	runID := uuid.NewString()

	rows, err := r.repos.Account.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list accounts for refresh: %w", err)
	}

	views, err := r.RefreshAccounts(ctx, accountIDs(rows))
	if err != nil {
		return err
	}

	r.log.WithFields(logrus.Fields{
		"run_id":    runID,
		"accounts":  len(rows),
		"evaluated": len(views),
	}).Info("Portfolio refresh complete")
	return nil
}

// RefreshAccounts refreshes a specific set of accounts and returns their
// evaluations.
func (r *Refresher) RefreshAccounts(ctx context.Context, ids []string) ([]*scoring.Account360, error) {
	snaps := r.fetchSnapshots(ctx, ids)
	if len(snaps) == 0 {
		return nil, nil
	}

	prevByID, err := r.previousHealth(ctx, snaps)
	if err != nil {
		return nil, err
	}

	views := r.scorer.EvaluatePortfolio(ctx, snapshotPtrs(snaps), prevByID)

	evaluated := make([]*scoring.Account360, 0, len(views))
	for _, view := range views {
		if view == nil {
			continue
		}
		if err := r.persist(ctx, view); err != nil {
			r.log.WithError(err).WithField("account_id", view.Account.ID).Error("Failed to persist evaluation")
			continue
		}
		evaluated = append(evaluated, view)
	}
	return evaluated, nil
}

func (r *Refresher) fetchSnapshots(ctx context.Context, ids []string) []snapshotResult {
	out := make([]snapshotResult, 0, len(ids))
	for _, id := range ids {
		snap, err := r.fetcher.Snapshot(ctx, id, datafetch.CacheBypass)
		if err != nil {
			r.log.WithError(err).WithField("account_id", id).Warn("Skipping account, snapshot fetch failed")
			continue
		}
		out = append(out, snapshotResult{id: id, snap: snap})
	}
	return out
}

func (r *Refresher) previousHealth(ctx context.Context, snaps []snapshotResult) (map[string]*health.AccountHealth, error) {
	prev := make(map[string]*health.AccountHealth, len(snaps))
	for _, sr := range snaps {
		row, err := r.repos.HealthHistory.Latest(ctx, sr.id)
		if err != nil {
			return nil, fmt.Errorf("failed to load health history for %s: %w", sr.id, err)
		}
		if row == nil {
			continue
		}
		h := &health.AccountHealth{
			AccountID:    row.AccountID,
			Score:        row.Score,
			Grade:        row.Grade,
			Confidence:   row.Confidence,
			CalculatedAt: row.CalculatedAt,
		}
		if row.ComponentsJSON != "" {
			if err := json.Unmarshal([]byte(row.ComponentsJSON), &h.Components); err != nil {
				r.log.WithError(err).WithField("account_id", sr.id).Warn("Dropping unreadable stored components")
				h.Components = nil
			}
		}
		prev[sr.id] = h
	}
	return prev, nil
}

func (r *Refresher) persist(ctx context.Context, view *scoring.Account360) error {
	snap := view.Account

	snapJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := r.repos.Account.Upsert(ctx, &models.Account{
		ID:           snap.ID,
		Name:         snap.Name,
		Stage:        string(snap.Stage),
		Onboarding:   string(snap.Onboarding),
		SnapshotJSON: string(snapJSON),
		CreatedAt:    snap.CreatedAt,
		UpdatedAt:    snap.AsOf,
	}); err != nil {
		return fmt.Errorf("failed to upsert account: %w", err)
	}

	componentsJSON, err := json.Marshal(view.Health.Components)
	if err != nil {
		return fmt.Errorf("failed to encode components: %w", err)
	}
	if err := r.repos.HealthHistory.Insert(ctx, &models.HealthHistory{
		AccountID:      snap.ID,
		Score:          view.Health.Score,
		Grade:          view.Health.Grade,
		Confidence:     view.Health.Confidence,
		ComponentsJSON: string(componentsJSON),
		CalculatedAt:   view.Health.CalculatedAt,
	}); err != nil {
		return fmt.Errorf("failed to insert health history: %w", err)
	}

	for _, alert := range view.Alerts {
		if err := r.repos.AlertState.UpsertOpen(ctx, &models.AlertState{
			AlertID:     alert.ID,
			AccountID:   alert.AccountID,
			Type:        string(alert.Type),
			Severity:    string(alert.Severity),
			Status:      string(alerts.StatusOpen),
			FirstSeenAt: alert.CreatedAt,
			UpdatedAt:   alert.CreatedAt,
		}); err != nil {
			return fmt.Errorf("failed to upsert alert state %s: %w", alert.ID, err)
		}
	}
	return nil
}

type snapshotResult struct {
	id   string
	snap *account.Snapshot
}

func accountIDs(rows []models.Account) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	return ids
}

func snapshotPtrs(snaps []snapshotResult) []*account.Snapshot {
	out := make([]*account.Snapshot, len(snaps))
	for i, sr := range snaps {
		out[i] = sr.snap
	}
	return out
}
