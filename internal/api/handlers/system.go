package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clientpulse/clientpulse-backend-go/pkg/utils"
)

var startedAt = time.Now()

// Health reports service liveness and database reachability.
func (h *Handlers) Health(c *gin.Context) {
	dbStatus := "ok"
	if err := h.repos.Ping(c.Request.Context()); err != nil {
		dbStatus = "unreachable"
	}

	utils.SendSuccess(c, gin.H{
		"status":   "ok",
		"database": dbStatus,
		"uptime":   time.Since(startedAt).Round(time.Second).String(),
	})
}
