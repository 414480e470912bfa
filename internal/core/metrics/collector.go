package metrics

import (
	"time"
)

// Collector defines the interface for recording operational metrics.
type Collector interface {
	RecordHTTPRequest(method, path string, status int, duration time.Duration)
	RecordEvaluation(success bool, duration time.Duration)
	RecordAlertGenerated(alertType, severity string)
	RecordChurnRisk(riskLevel string)
	RecordHealthScore(grade string)
	RecordDatabaseQuery(operation string, duration time.Duration)
	RecordSourceSync(source string, success bool, duration time.Duration)
	RecordCache(operation string, hit bool)
}

// Config controls metrics collection.
type Config struct {
	Enabled bool
	Prefix  string
}

// Noop is a Collector that records nothing. Useful in tests and when
// metrics are disabled.
type Noop struct{}

func (Noop) RecordHTTPRequest(string, string, int, time.Duration)  {}
func (Noop) RecordEvaluation(bool, time.Duration)                  {}
func (Noop) RecordAlertGenerated(string, string)                   {}
func (Noop) RecordChurnRisk(string)                                {}
func (Noop) RecordHealthScore(string)                              {}
func (Noop) RecordDatabaseQuery(string, time.Duration)             {}
func (Noop) RecordSourceSync(string, bool, time.Duration)          {}
func (Noop) RecordCache(string, bool)                              {}
