package health

import (
	"math"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/account"
)

// Weights holds the per-component weights used by the Scorer. The defaults
// sum to 1.0; overrides must preserve that property.
type Weights struct {
	Adoption     float64
	Engagement   float64
	Relationship float64
	Support      float64
	Commercial   float64
}

// DefaultWeights returns the standard component weighting.
func DefaultWeights() Weights {
	return Weights{
		Adoption:     WeightAdoption,
		Engagement:   WeightEngagement,
		Relationship: WeightRelationship,
		Support:      WeightSupport,
		Commercial:   WeightCommercial,
	}
}

// Sum returns the total of all component weights.
func (w Weights) Sum() float64 {
	return w.Adoption + w.Engagement + w.Relationship + w.Support + w.Commercial
}

// Scorer computes composite account health. It is stateless and safe for
// concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer returns a Scorer with the default weights.
func NewScorer() *Scorer {
	return &Scorer{weights: DefaultWeights()}
}

// NewScorerWithWeights returns a Scorer using the given weights.
func NewScorerWithWeights(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// Score computes the composite health for a snapshot. prev is the health
// from the previous evaluation and may be nil; without it the trend is
// stable and the score change zero rather than fabricated.
func (s *Scorer) Score(snap *account.Snapshot, prev *AccountHealth) *AccountHealth {
	components := map[string]Component{}
	for _, sub := range []struct {
		name   string
		weight float64
		rule   func(*account.Snapshot) (float64, int)
	}{
		{ComponentAdoption, s.weights.Adoption, scoreAdoption},
		{ComponentEngagement, s.weights.Engagement, scoreEngagement},
		{ComponentRelationship, s.weights.Relationship, scoreRelationship},
		{ComponentSupport, s.weights.Support, scoreSupport},
		{ComponentCommercial, s.weights.Commercial, scoreCommercial},
	} {
		score, dp := sub.rule(snap)
		score = clamp(score, 0, 100)
		c := Component{
			Name:          sub.name,
			Score:         score,
			Weight:        sub.weight,
			WeightedScore: score * sub.weight,
			Trend:         TrendStable,
			DataPoints:    dp,
			LastUpdated:   snap.AsOf,
		}
		if prev != nil {
			if pc, ok := prev.Components[sub.name]; ok {
				c.Trend = trendFor(c.Score - pc.Score)
			}
		}
		components[sub.name] = c
	}

	var composite float64
	var dataPoints int
	for _, c := range components {
		composite += c.WeightedScore
		dataPoints += c.DataPoints
	}

	score := clampInt(int(math.Round(composite)), 0, 100)

	h := &AccountHealth{
		AccountID:    snap.ID,
		Score:        score,
		Grade:        GradeFor(score),
		Trend:        TrendStable,
		ScoreChange:  0,
		Components:   components,
		Confidence:   confidence(dataPoints),
		CalculatedAt: snap.AsOf,
	}
	if prev != nil {
		h.ScoreChange = score - prev.Score
		h.Trend = trendFor(float64(h.ScoreChange))
	}
	return h
}

// scoreAdoption rates feature breadth. With per-feature adoption
// percentages it averages them; without, it falls back to a coarse rating
// of how many object types the account actually uses.
func scoreAdoption(snap *account.Snapshot) (float64, int) {
	if n := len(snap.Usage.FeatureAdoption); n > 0 {
		var sum float64
		for _, pct := range snap.Usage.FeatureAdoption {
			sum += clamp(pct, 0, 100)
		}
		return sum / float64(n), n
	}

	used := 0
	for _, count := range []int{snap.Usage.ItemCount, snap.Usage.KanbanCount, snap.Usage.OrderCount} {
		if count > 0 {
			used++
		}
	}
	return float64(used) / 3.0 * 100.0, used
}

// scoreEngagement blends activity recency (60%) with the active-user ratio
// (40%). Each day of inactivity costs five points of recency.
func scoreEngagement(snap *account.Snapshot) (float64, int) {
	recency := clamp(100.0-5.0*float64(snap.Usage.DaysSinceLastActivity), 0, 100)
	ratio := safePercent(float64(snap.Usage.ActiveUsers), float64(snap.Usage.TotalUsers))
	dp := len(snap.Usage.WeeklyActivity) + snap.Usage.ActiveUsers
	return 0.6*recency + 0.4*ratio, dp
}

// scoreRelationship rates stakeholder coverage. Each active stakeholder is
// worth 20 points up to a cap, a champion adds 30, and departures subtract.
func scoreRelationship(snap *account.Snapshot) (float64, int) {
	active := 0
	departed := 0
	for _, st := range snap.Stakeholders {
		if st.Departed {
			departed++
		} else {
			active++
		}
	}

	score := clamp(float64(active)*20.0, 0, 70)
	if snap.HasChampion() {
		score += 30
	}
	score -= float64(departed) * 10.0
	return score, len(snap.Stakeholders)
}

// scoreSupport inverts ticket load: a quiet account scores 100, and open,
// critical and escalated tickets each subtract at their own rate.
func scoreSupport(snap *account.Snapshot) (float64, int) {
	penalty := float64(snap.Support.OpenTickets)*5.0 +
		float64(snap.Support.CriticalTickets)*15.0 +
		float64(snap.Support.EscalatedTickets)*10.0
	return 100.0 - penalty, snap.Support.TicketsLast30d
}

// scoreCommercial rates billing standing plus growth signals.
func scoreCommercial(snap *account.Snapshot) (float64, int) {
	var base float64
	dp := 0
	switch snap.Commercial.PaymentStatus {
	case account.PaymentCurrent:
		base = 80
		dp++
	case account.PaymentAtRisk:
		base = 50
		dp++
	case account.PaymentOverdue:
		base = 25
		dp++
	default:
		base = 60
	}

	switch snap.Commercial.ExpansionPotential {
	case account.ExpansionHigh:
		base += 15
	case account.ExpansionMedium:
		base += 10
	case account.ExpansionLow:
		base += 5
	}

	// Seat utilization over 70% signals the contract is earning its keep.
	if snap.Commercial.SeatLimit > 0 {
		dp++
		util := safePercent(float64(snap.Commercial.SeatsUsed), float64(snap.Commercial.SeatLimit))
		if util >= 70 {
			base += 5
		}
	}
	return base, dp
}

// confidence maps the number of underlying data points to a 0..100 data
// sufficiency estimate. It saturates: dp/(dp+20) rises monotonically and
// approaches 1 for data-rich accounts.
func confidence(dataPoints int) int {
	if dataPoints < 0 {
		dataPoints = 0
	}
	dp := float64(dataPoints)
	return int(math.Round(100.0 * dp / (dp + 20.0)))
}

func trendFor(delta float64) Trend {
	switch {
	case delta > TrendBand:
		return TrendImproving
	case delta < -TrendBand:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// safePercent returns part/whole as a percentage, or 0 when whole is 0.
func safePercent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return clamp(part/whole*100.0, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
