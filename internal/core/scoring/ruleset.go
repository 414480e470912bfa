package scoring

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/clientpulse/clientpulse-backend-go/internal/core/alerts"
	"github.com/clientpulse/clientpulse-backend-go/internal/core/health"
)

// Ruleset bundles the tunable calibration of the evaluation pipeline:
// health component weights and alert rule thresholds. A nil or missing
// override keeps the built-in default for that value.
type Ruleset struct {
	Weights    health.Weights
	Thresholds alerts.Thresholds
}

// DefaultRuleset returns the built-in calibration.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		Weights:    health.DefaultWeights(),
		Thresholds: alerts.DefaultThresholds(),
	}
}

// weightsDoc uses pointers so a partial override document leaves
// unmentioned weights at their defaults.
type weightsDoc struct {
	Adoption     *float64 `yaml:"adoption"`
	Engagement   *float64 `yaml:"engagement"`
	Relationship *float64 `yaml:"relationship"`
	Support      *float64 `yaml:"support"`
	Commercial   *float64 `yaml:"commercial"`
}

// ParseRuleset parses a YAML override document on top of the defaults and
// validates the result.
func ParseRuleset(data []byte) (*Ruleset, error) {
	rs := DefaultRuleset()

	var doc struct {
		HealthWeights   *weightsDoc        `yaml:"health_weights"`
		AlertThresholds *alerts.Thresholds `yaml:"alert_thresholds"`
	}
	doc.AlertThresholds = &rs.Thresholds
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse ruleset: %w", err)
	}

	if w := doc.HealthWeights; w != nil {
		if w.Adoption != nil {
			rs.Weights.Adoption = *w.Adoption
		}
		if w.Engagement != nil {
			rs.Weights.Engagement = *w.Engagement
		}
		if w.Relationship != nil {
			rs.Weights.Relationship = *w.Relationship
		}
		if w.Support != nil {
			rs.Weights.Support = *w.Support
		}
		if w.Commercial != nil {
			rs.Weights.Commercial = *w.Commercial
		}
	}

	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

// LoadRuleset reads and parses a ruleset override file.
func LoadRuleset(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset file: %w", err)
	}
	rs, err := ParseRuleset(data)
	if err != nil {
		return nil, fmt.Errorf("invalid ruleset %s: %w", path, err)
	}
	return rs, nil
}

// Validate checks invariants the pipeline depends on.
func (r *Ruleset) Validate() error {
	if math.Abs(r.Weights.Sum()-1.0) > 1e-6 {
		return fmt.Errorf("health weights must sum to 1.0, got %.4f", r.Weights.Sum())
	}
	for name, w := range map[string]float64{
		"adoption":     r.Weights.Adoption,
		"engagement":   r.Weights.Engagement,
		"relationship": r.Weights.Relationship,
		"support":      r.Weights.Support,
		"commercial":   r.Weights.Commercial,
	} {
		if w < 0 {
			return fmt.Errorf("health weight %s must not be negative", name)
		}
	}
	t := r.Thresholds
	if t.InactivityCriticalDays < t.InactivityHighDays {
		return fmt.Errorf("inactivity_critical_days must be >= inactivity_high_days")
	}
	if t.HealthDropCritical > t.HealthDropHigh {
		return fmt.Errorf("health_drop_critical must be <= health_drop_high")
	}
	if t.RenewalHighDays > t.RenewalMediumDays {
		return fmt.Errorf("renewal_high_days must be <= renewal_medium_days")
	}
	return nil
}
