// Package timeseries holds the shared trend and anomaly helpers used by the
// health scorer and the insights engine. All functions are pure and safe for
// concurrent use.
package timeseries

// TrendDirection classifies the movement of a timeline.
type TrendDirection string

const (
	TrendUp     TrendDirection = "up"
	TrendDown   TrendDirection = "down"
	TrendStable TrendDirection = "stable"
)

// Classification bands for AnalyzeTrend and DetectAnomaly. Exposed because
// downstream alert and insight rules are calibrated against them.
const (
	TrendUpThresholdPct   = 10.0
	TrendDownThresholdPct = -10.0

	AnomalyMinPoints     = 4
	AnomalyWindow        = 3
	AnomalyDropPct       = -30.0
	AnomalySpikePct      = 50.0
)

// TrendResult is the outcome of comparing the older half of a timeline
// against the recent half.
type TrendResult struct {
	Direction     TrendDirection `json:"direction"`
	ChangePercent float64        `json:"change_percent"`
	OlderAvg      float64        `json:"older_avg"`
	RecentAvg     float64        `json:"recent_avg"`
}

// AnomalyKind names the shape of a detected anomaly.
type AnomalyKind string

const (
	AnomalyNone  AnomalyKind = "none"
	AnomalyDrop  AnomalyKind = "drop"
	AnomalySpike AnomalyKind = "spike"
)

// AnomalyResult is the outcome of comparing the last few points of a
// timeline against everything that precedes them.
type AnomalyResult struct {
	IsAnomaly     bool        `json:"is_anomaly"`
	Kind          AnomalyKind `json:"kind"`
	ChangePercent float64     `json:"change_percent"`
	BaselineMean  float64     `json:"baseline_mean"`
	RecentMean    float64     `json:"recent_mean"`
}

// Mean returns the arithmetic mean of points, or 0 for an empty slice.
func Mean(points []float64) float64 {
	if len(points) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range points {
		sum += p
	}
	return sum / float64(len(points))
}

// AnalyzeTrend splits a timeline into an older half and a recent half and
// compares their means. Fewer than 2 points is reported as stable.
//
// When the older half averages zero, the change percentage is undefined;
// the trend is reported as up if the recent half has any activity and
// stable otherwise, with ChangePercent left at 0.
func AnalyzeTrend(points []float64) TrendResult {
	result := TrendResult{Direction: TrendStable}
	if len(points) < 2 {
		return result
	}

	mid := len(points) / 2
	result.OlderAvg = Mean(points[:mid])
	result.RecentAvg = Mean(points[mid:])

	if result.OlderAvg == 0 {
		if result.RecentAvg > 0 {
			result.Direction = TrendUp
		}
		return result
	}

	result.ChangePercent = (result.RecentAvg - result.OlderAvg) / result.OlderAvg * 100

	switch {
	case result.ChangePercent > TrendUpThresholdPct:
		result.Direction = TrendUp
	case result.ChangePercent < TrendDownThresholdPct:
		result.Direction = TrendDown
	}

	return result
}

// DetectAnomaly compares the mean of the last AnomalyWindow points against
// the mean of all preceding points. Timelines with fewer than
// AnomalyMinPoints points never produce an anomaly; that is insufficient
// data, not an error.
func DetectAnomaly(points []float64) AnomalyResult {
	result := AnomalyResult{Kind: AnomalyNone}
	if len(points) < AnomalyMinPoints {
		return result
	}

	split := len(points) - AnomalyWindow
	result.BaselineMean = Mean(points[:split])
	result.RecentMean = Mean(points[split:])

	if result.BaselineMean == 0 {
		// No baseline to compare against. A sudden burst from nothing is
		// still a spike; otherwise stay quiet.
		if result.RecentMean > 0 {
			result.IsAnomaly = true
			result.Kind = AnomalySpike
		}
		return result
	}

	result.ChangePercent = (result.RecentMean - result.BaselineMean) / result.BaselineMean * 100

	switch {
	case result.ChangePercent < AnomalyDropPct:
		result.IsAnomaly = true
		result.Kind = AnomalyDrop
	case result.ChangePercent > AnomalySpikePct:
		result.IsAnomaly = true
		result.Kind = AnomalySpike
	}

	return result
}
