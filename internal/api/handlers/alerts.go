package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/pkg/utils"
)

// AcknowledgeAlert marks an alert as acknowledged. The state survives
// re-evaluation because alert ids are deterministic.
func (h *Handlers) AcknowledgeAlert(c *gin.Context) {
	h.setAlertStatus(c, alerts.StatusAcknowledged, nil)
}

// snoozeRequest is the body of the snooze endpoint.
type snoozeRequest struct {
	Days int `json:"days" binding:"required,min=1,max=90"`
}

// SnoozeAlert hides an alert from the default view for a number of days.
func (h *Handlers) SnoozeAlert(c *gin.Context) {
	var req snoozeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendError(c, http.StatusBadRequest, "days must be between 1 and 90")
		return
	}
	until := time.Now().UTC().AddDate(0, 0, req.Days)
	h.setAlertStatus(c, alerts.StatusSnoozed, &until)
}

// ResolveAlert marks an alert as resolved.
func (h *Handlers) ResolveAlert(c *gin.Context) {
	h.setAlertStatus(c, alerts.StatusResolved, nil)
}

func (h *Handlers) setAlertStatus(c *gin.Context, status alerts.Status, snoozedUntil *time.Time) {
	id := c.Param("id")

	state, err := h.repos.AlertState.Get(c.Request.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("alert_id", id).Error("Failed to load alert state")
		utils.SendError(c, http.StatusInternalServerError, "Failed to load alert")
		return
	}
	if state == nil {
		utils.SendError(c, http.StatusNotFound, "Alert not found")
		return
	}

	if err := h.repos.AlertState.SetStatus(c.Request.Context(), id, string(status), snoozedUntil); err != nil {
		h.log.WithError(err).WithField("alert_id", id).Error("Failed to update alert status")
		utils.SendError(c, http.StatusInternalServerError, "Failed to update alert")
		return
	}

	state.Status = string(status)
	state.SnoozedUntil = snoozedUntil
	utils.SendSuccess(c, state)
}
