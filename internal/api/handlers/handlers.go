package handlers

import (
	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/config"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/scoring"
	"github.com/clientpulse/clientpulse-backend-go/internal/database"
	"github.com/clientpulse/clientpulse-backend-go/internal/scheduler"
)

// Handlers holds all HTTP handlers and their dependencies. Reads are
// served from the last persisted snapshots; the refresher is optional and
// only needed for the on-demand refresh endpoint.
type Handlers struct {
	cfg       *config.Config
	repos     *database.Repositories
	scorer    *scoring.Service
	refresher *scheduler.Refresher
	log       *logrus.Logger
}

// NewHandlers creates a new handlers instance.
func NewHandlers(cfg *config.Config, repos *database.Repositories, scorer *scoring.Service, refresher *scheduler.Refresher, logger *logrus.Logger) *Handlers {
	return &Handlers{
		cfg:       cfg,
		repos:     repos,
		scorer:    scorer,
		refresher: refresher,
		log:       logger,
	}
}
