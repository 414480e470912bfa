package scoring

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/insights"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/metrics"
)

// DefaultWorkers bounds portfolio evaluation concurrency when the caller
// does not choose a pool size.
const DefaultWorkers = 8

// Account360 is the full evaluation result for one account: the snapshot
// it was computed from plus health, alerts, insights and churn.
type Account360 struct {
	Account  *account.Snapshot        `json:"account"`
	Health   *health.AccountHealth    `json:"health"`
	Alerts   []alerts.Alert           `json:"alerts"`
	Insights []insights.Insight       `json:"insights"`
	Churn    *insights.ChurnPrediction `json:"churn"`
}

// Service composes the scorer, the alert generator and the insight engine
// into one evaluation pipeline. It is safe for concurrent use.
type Service struct {
	scorer    *health.Scorer
	generator *alerts.Generator
	engine    *insights.Engine
	collector metrics.Collector
	log       *logrus.Logger
	workers   int
}

// NewService builds the pipeline from a ruleset. A nil ruleset uses the
// defaults; a nil collector disables metrics.
func NewService(rs *Ruleset, collector metrics.Collector, log *logrus.Logger) *Service {
	if rs == nil {
		rs = DefaultRuleset()
	}
	if collector == nil {
		collector = metrics.Noop{}
	}
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		scorer:    health.NewScorerWithWeights(rs.Weights),
		generator: alerts.NewGeneratorWithThresholds(rs.Thresholds),
		engine:    insights.NewEngine(),
		collector: collector,
		log:       log,
		workers:   DefaultWorkers,
	}
}

// SetWorkers overrides the portfolio pool size. Values below 1 are
// ignored.
func (s *Service) SetWorkers(n int) {
	if n >= 1 {
		s.workers = n
	}
}

// Evaluate runs the full pipeline over one snapshot. prev is the health
// from the previous evaluation and may be nil.
func (s *Service) Evaluate(snap *account.Snapshot, prev *health.AccountHealth) *Account360 {
	if snap == nil {
		return nil
	}
	start := time.Now()

	h := s.scorer.Score(snap, prev)
	alertList := s.generator.Generate(snap, h)
	insightList := s.engine.AccountInsights(snap, h)
	churn := s.engine.PredictChurn(snap, h)

	s.collector.RecordEvaluation(true, time.Since(start))
	s.collector.RecordHealthScore(h.Grade)
	s.collector.RecordChurnRisk(string(churn.RiskLevel))
	for _, a := range alertList {
		s.collector.RecordAlertGenerated(string(a.Type), string(a.Severity))
	}

	s.log.WithFields(logrus.Fields{
		"account_id": snap.ID,
		"score":      h.Score,
		"grade":      h.Grade,
		"alerts":     len(alertList),
		"churn_risk": churn.RiskLevel,
	}).Debug("Account evaluated")

	return &Account360{
		Account:  snap,
		Health:   h,
		Alerts:   alertList,
		Insights: insightList,
		Churn:    churn,
	}
}

// EvaluatePortfolio evaluates a batch of snapshots concurrently with a
// bounded worker pool. Results preserve input order; accounts are
// independent so execution order does not matter. prevByID maps account id
// to the previous health and may be nil. A cancelled context leaves the
// not-yet-processed slots nil.
func (s *Service) EvaluatePortfolio(ctx context.Context, snaps []*account.Snapshot, prevByID map[string]*health.AccountHealth) []*Account360 {
	results := make([]*Account360, len(snaps))
	if len(snaps) == 0 {
		return results
	}

	workers := s.workers
	if workers > len(snaps) {
		workers = len(snaps)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				snap := snaps[i]
				if snap == nil {
					continue
				}
				var prev *health.AccountHealth
				if prevByID != nil {
					prev = prevByID[snap.ID]
				}
				results[i] = s.Evaluate(snap, prev)
			}
		}()
	}

	for i := range snaps {
		select {
		case jobs <- i:
		case <-ctx.Done():
			close(jobs)
			wg.Wait()
			return results
		}
	}
	close(jobs)
	wg.Wait()
	return results
}

// Summarize reduces a full evaluation to the portfolio-level view.
func Summarize(view *Account360) account.Summary {
	snap := view.Account
	critical := 0
	for _, a := range view.Alerts {
		if a.Severity == alerts.SeverityCritical {
			critical++
		}
	}
	sum := account.Summary{
		ID:                 snap.ID,
		Name:               snap.Name,
		ARR:                snap.Commercial.ARR,
		HealthScore:        view.Health.Score,
		HealthTrend:        string(view.Health.Trend),
		CriticalAlertCount: critical,
		Onboarding:         snap.Onboarding,
		AgeDays:            snap.AgeDays(),
		ItemCount:          snap.Usage.ItemCount,
		ActiveUsers:        snap.Usage.ActiveUsers,
		ExpansionPotential: snap.Commercial.ExpansionPotential,
	}
	if days, ok := snap.DaysToRenewal(); ok {
		sum.DaysToRenewal = &days
	}
	return sum
}

// Summaries maps a batch of evaluations to summaries, skipping nil slots.
func Summaries(views []*Account360) []account.Summary {
	out := make([]account.Summary, 0, len(views))
	for _, v := range views {
		if v != nil {
			out = append(out, Summarize(v))
		}
	}
	return out
}
