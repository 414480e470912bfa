package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/internal/database/models"
	apperrors "github.com/clientpulse/clientpulse-backend-go/pkg/errors"
	"github.com/clientpulse/clientpulse-backend-go/pkg/utils"
)

// historyLookback bounds how far back previous evaluations are considered
// when deriving trends for a fresh evaluation.
const historyLookback = 180 * 24 * time.Hour

// ListAccounts returns portfolio summaries for every known account.
func (h *Handlers) ListAccounts(c *gin.Context) {
	summaries, err := h.portfolioSummaries(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list accounts")
		utils.SendError(c, http.StatusInternalServerError, "Failed to list accounts")
		return
	}
	utils.SendSuccessWithMeta(c, summaries, gin.H{"count": len(summaries)})
}

// GetAccount360 returns the full evaluation for one account.
func (h *Handlers) GetAccount360(c *gin.Context) {
	view, err := h.loadView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendLoadError(c, err)
		return
	}
	utils.SendSuccess(c, view)
}

// GetAccountHealth returns the health score breakdown for one account.
func (h *Handlers) GetAccountHealth(c *gin.Context) {
	view, err := h.loadView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendLoadError(c, err)
		return
	}
	utils.SendSuccess(c, view.Health)
}

// GetAccountAlerts returns active alerts for one account, overlaid with
// operator workflow state. Alerts snoozed into the future are hidden
// unless ?all=true.
func (h *Handlers) GetAccountAlerts(c *gin.Context) {
	view, err := h.loadView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendLoadError(c, err)
		return
	}

	states, err := h.repos.AlertState.ListByAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.log.WithError(err).Error("Failed to load alert states")
		utils.SendError(c, http.StatusInternalServerError, "Failed to load alert states")
		return
	}
	byID := make(map[string]models.AlertState, len(states))
	for _, st := range states {
		byID[st.AlertID] = st
	}

	showAll := c.Query("all") == "true"
	now := time.Now().UTC()
	out := make([]alerts.Alert, 0, len(view.Alerts))
	for _, a := range view.Alerts {
		if st, ok := byID[a.ID]; ok {
			a.Status = alerts.Status(st.Status)
			if !showAll && a.Status == alerts.StatusSnoozed && st.SnoozedUntil != nil && st.SnoozedUntil.After(now) {
				continue
			}
		}
		out = append(out, a)
	}
	utils.SendSuccessWithMeta(c, out, gin.H{"count": len(out)})
}

// GetAccountInsights returns the generated insights for one account.
func (h *Handlers) GetAccountInsights(c *gin.Context) {
	view, err := h.loadView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendLoadError(c, err)
		return
	}
	utils.SendSuccess(c, view.Insights)
}

// GetAccountChurn returns the churn prediction for one account.
func (h *Handlers) GetAccountChurn(c *gin.Context) {
	view, err := h.loadView(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.sendLoadError(c, err)
		return
	}
	utils.SendSuccess(c, view.Churn)
}

// GetHealthHistory returns persisted health scores for one account over
// the requested window (?days=N, default 90).
func (h *Handlers) GetHealthHistory(c *gin.Context) {
	days := 90
	if raw := c.Query("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			utils.SendError(c, http.StatusBadRequest, "days must be a positive integer")
			return
		}
		days = parsed
	}

	if _, err := h.repos.Account.GetByID(c.Request.Context(), c.Param("id")); err != nil {
		h.sendLoadError(c, err)
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	rows, err := h.repos.HealthHistory.History(c.Request.Context(), c.Param("id"), since)
	if err != nil {
		h.log.WithError(err).Error("Failed to load health history")
		utils.SendError(c, http.StatusInternalServerError, "Failed to load health history")
		return
	}
	utils.SendSuccessWithMeta(c, rows, gin.H{"count": len(rows), "days": days})
}

// RefreshAccount fetches a fresh snapshot from the upstream sources,
// re-evaluates the account and persists the result.
func (h *Handlers) RefreshAccount(c *gin.Context) {
	if h.refresher == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "On-demand refresh is not configured")
		return
	}

	id := c.Param("id")
	if _, err := h.repos.Account.GetByID(c.Request.Context(), id); err != nil {
		h.sendLoadError(c, err)
		return
	}

	views, err := h.refresher.RefreshAccounts(c.Request.Context(), []string{id})
	if err != nil {
		h.log.WithError(err).WithField("account_id", id).Error("On-demand refresh failed")
		utils.SendError(c, http.StatusBadGateway, "Failed to refresh account from upstream sources")
		return
	}
	if len(views) == 0 {
		utils.SendError(c, http.StatusBadGateway, "Upstream sources returned no data for account")
		return
	}
	utils.SendSuccess(c, views[0])
}

// loadView evaluates the stored snapshot of an account.
func (h *Handlers) loadView(ctx context.Context, id string) (*scoring.Account360, error) {
	row, err := h.repos.Account.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	snap, err := decodeSnapshot(row)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	prev, err := h.previousHealth(ctx, id, snap.AsOf)
	if err != nil {
		h.log.WithError(err).WithField("account_id", id).Warn("Proceeding without health history")
		prev = nil
	}
	return h.scorer.Evaluate(snap, prev), nil
}

// previousHealth reconstructs the most recent persisted evaluation that
// predates asOf, so re-evaluating the current snapshot reproduces the
// same trend the scheduled refresh computed.
func (h *Handlers) previousHealth(ctx context.Context, id string, asOf time.Time) (*health.AccountHealth, error) {
	rows, err := h.repos.HealthHistory.History(ctx, id, asOf.Add(-historyLookback))
	if err != nil {
		return nil, err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].CalculatedAt.Before(asOf) {
			return healthFromRow(&rows[i]), nil
		}
	}
	return nil, nil
}

func healthFromRow(row *models.HealthHistory) *health.AccountHealth {
	h := &health.AccountHealth{
		AccountID:    row.AccountID,
		Score:        row.Score,
		Grade:        row.Grade,
		Confidence:   row.Confidence,
		CalculatedAt: row.CalculatedAt,
	}
	if row.ComponentsJSON != "" {
		if err := json.Unmarshal([]byte(row.ComponentsJSON), &h.Components); err != nil {
			h.Components = nil
		}
	}
	return h
}

func decodeSnapshot(row *models.Account) (*account.Snapshot, error) {
	var snap account.Snapshot
	if err := json.Unmarshal([]byte(row.SnapshotJSON), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (h *Handlers) sendLoadError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	if code == http.StatusNotFound {
		utils.SendError(c, http.StatusNotFound, "Account not found")
		return
	}
	h.log.WithError(err).Error("Failed to load account evaluation")
	utils.SendError(c, http.StatusInternalServerError, "Failed to load account")
}
