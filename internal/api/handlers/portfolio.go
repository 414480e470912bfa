package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/insights"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/pkg/utils"
)

// GetPortfolioInsights evaluates every account and returns the
// cross-account insights.
func (h *Handlers) GetPortfolioInsights(c *gin.Context) {
	summaries, err := h.portfolioSummaries(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to build portfolio summaries")
		utils.SendError(c, http.StatusInternalServerError, "Failed to build portfolio insights")
		return
	}

	engine := insights.NewEngine()
	out := engine.PortfolioInsights(summaries)
	utils.SendSuccessWithMeta(c, out, gin.H{"accounts": len(summaries), "count": len(out)})
}

// GetPortfolioSummary returns aggregate portfolio figures for the
// dashboard header.
func (h *Handlers) GetPortfolioSummary(c *gin.Context) {
	summaries, err := h.portfolioSummaries(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to build portfolio summaries")
		utils.SendError(c, http.StatusInternalServerError, "Failed to build portfolio summary")
		return
	}

	var totalARR float64
	var scoreSum, atRisk, critical int
	for _, s := range summaries {
		totalARR += s.ARR
		scoreSum += s.HealthScore
		if s.HealthScore < health.GradeCMin {
			atRisk++
		}
		critical += s.CriticalAlertCount
	}

	avgScore := 0
	if len(summaries) > 0 {
		avgScore = scoreSum / len(summaries)
	}

	utils.SendSuccess(c, gin.H{
		"accounts":        len(summaries),
		"total_arr":       totalARR,
		"average_health":  avgScore,
		"at_risk":         atRisk,
		"critical_alerts": critical,
	})
}

func (h *Handlers) portfolioSummaries(ctx context.Context) ([]account.Summary, error) {
	rows, err := h.repos.Account.List(ctx)
	if err != nil {
		return nil, err
	}

	snaps := make([]*account.Snapshot, 0, len(rows))
	prevByID := make(map[string]*health.AccountHealth, len(rows))
	for _, row := range rows {
		snap, err := decodeSnapshot(&row)
		if err != nil {
			h.log.WithError(err).WithField("account_id", row.ID).Warn("Skipping account with unreadable snapshot")
			continue
		}
		prev, err := h.previousHealth(ctx, row.ID, snap.AsOf)
		if err == nil && prev != nil {
			prevByID[row.ID] = prev
		}
		snaps = append(snaps, snap)
	}

	views := h.scorer.EvaluatePortfolio(ctx, snaps, prevByID)
	return scoring.Summaries(views), nil
}
