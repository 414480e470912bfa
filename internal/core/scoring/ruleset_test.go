package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleset_Defaults(t *testing.T) {
	rs, err := ParseRuleset([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, DefaultRuleset(), rs)
}

func TestParseRuleset_PartialWeightOverride(t *testing.T) {
	doc := `
health_weights:
  adoption: 0.40
  engagement: 0.15
`
	rs, err := ParseRuleset([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 0.40, rs.Weights.Adoption)
	assert.Equal(t, 0.15, rs.Weights.Engagement)
	// Unmentioned weights keep their defaults.
	assert.Equal(t, 0.15, rs.Weights.Relationship)
	assert.InEpsilon(t, 1.0, rs.Weights.Sum(), 1e-9)
}

func TestParseRuleset_ThresholdOverride(t *testing.T) {
	doc := `
alert_thresholds:
  inactivity_high_days: 10
  inactivity_critical_days: 21
`
	rs, err := ParseRuleset([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 10, rs.Thresholds.InactivityHighDays)
	assert.Equal(t, 21, rs.Thresholds.InactivityCriticalDays)
	// Unmentioned thresholds keep their defaults.
	assert.Equal(t, 40, rs.Thresholds.HealthDropHigh)
}

func TestParseRuleset_RejectsBadWeights(t *testing.T) {
	doc := `
health_weights:
  adoption: 0.90
`
	_, err := ParseRuleset([]byte(doc))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sum to 1.0")
}

func TestParseRuleset_RejectsInvertedThresholds(t *testing.T) {
	doc := `
alert_thresholds:
  inactivity_high_days: 30
  inactivity_critical_days: 14
`
	_, err := ParseRuleset([]byte(doc))
	require.Error(t, err)
}

func TestParseRuleset_RejectsMalformedYAML(t *testing.T) {
	_, err := ParseRuleset([]byte("health_weights: ["))
	require.Error(t, err)
}
