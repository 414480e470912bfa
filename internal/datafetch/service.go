package datafetch

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/cache"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/metrics"
)

// CachePolicy controls how the service consults the snapshot cache.
type CachePolicy string

const (
	// CacheDefault serves cached snapshots when present and refreshes
	// on a miss.
	CacheDefault CachePolicy = "default"
	// CacheBypass always fetches from the sources and rewrites the
	// cached entry.
	CacheBypass CachePolicy = "bypass"
)

// Service assembles account snapshots from the usage, billing and CRM
// sources. A failing source degrades that section of the snapshot to its
// zero value rather than failing the whole fetch; only a CRM failure is
// fatal, since without a profile there is no account to describe.
type Service struct {
	usage     UsageSource
	billing   BillingSource
	crm       CRMSource
	snapshots *cache.SnapshotCache
	collector metrics.Collector
	log       *logrus.Logger
	now       func() time.Time
}

// NewService wires the sources together. The snapshot cache may be nil,
// in which case every fetch goes to the sources.
func NewService(usage UsageSource, billing BillingSource, crm CRMSource, snapshots *cache.SnapshotCache, collector metrics.Collector, log *logrus.Logger) *Service {
	if collector == nil {
		collector = metrics.Noop{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		usage:     usage,
		billing:   billing,
		crm:       crm,
		snapshots: snapshots,
		collector: collector,
		log:       log,
		now:       time.Now,
	}
}

// Snapshot returns the current snapshot for an account, honoring the
// cache policy.
func (s *Service) Snapshot(ctx context.Context, accountID string, policy CachePolicy) (*account.Snapshot, error) {
	if policy != CacheBypass && s.snapshots != nil {
		cached, err := s.snapshots.Get(ctx, accountID)
		if err != nil {
			s.log.WithError(err).WithField("account_id", accountID).Warn("Snapshot cache read failed")
		} else if cached != nil {
			return cached, nil
		}
	}

	snap, err := s.assemble(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, snap); err != nil {
			s.log.WithError(err).WithField("account_id", accountID).Warn("Snapshot cache write failed")
		}
	}
	return snap, nil
}

// Invalidate drops the cached snapshot for an account.
func (s *Service) Invalidate(ctx context.Context, accountID string) error {
	if s.snapshots == nil {
		return nil
	}
	return s.snapshots.Invalidate(ctx, accountID)
}

func (s *Service) assemble(ctx context.Context, accountID string) (*account.Snapshot, error) {
	start := time.Now()
	profile, err := s.crm.FetchProfile(ctx, accountID)
	s.collector.RecordSourceSync(s.crm.Name(), err == nil, time.Since(start))
	if err != nil {
		return nil, err
	}

	snap := &account.Snapshot{
		ID:           accountID,
		Name:         profile.Name,
		Stage:        profile.Stage,
		Onboarding:   profile.Onboarding,
		Support:      profile.Support,
		Stakeholders: profile.Stakeholders,
		CreatedAt:    profile.CreatedAt,
		AsOf:         s.now().UTC(),
	}

	start = time.Now()
	usage, err := s.usage.FetchUsage(ctx, accountID)
	s.collector.RecordSourceSync(s.usage.Name(), err == nil, time.Since(start))
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"account_id": accountID,
			"source":     s.usage.Name(),
		}).Warn("Usage source failed, snapshot degrades to zero usage")
	} else {
		snap.Usage = *usage
	}

	start = time.Now()
	commercial, err := s.billing.FetchCommercial(ctx, accountID)
	s.collector.RecordSourceSync(s.billing.Name(), err == nil, time.Since(start))
	if err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"account_id": accountID,
			"source":     s.billing.Name(),
		}).Warn("Billing source failed, snapshot degrades to zero commercial data")
	} else {
		snap.Commercial = *commercial
	}

	return snap, nil
}
