package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	p := New()

	assert.Equal(t, 2, p.GetInt(KeyRelanceIntervalDays))
	assert.Equal(t, 3, p.GetInt(KeyMaxRelances))
	assert.Equal(t, 30, p.GetInt(KeyRFQExpirationDays))
	assert.Equal(t, 20.0, p.GetFloat(KeyDefaultTaxRate))
	assert.Equal(t, "MAD", p.GetString(KeyDefaultCurrency))
	assert.False(t, p.GetBool(KeyOrderAppendDraft))
	assert.Equal(t, "@hourly", p.GetString(KeyEscalationCronSpec))
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("FLUX_MAX_RELANCES", "5")
	p := New()
	assert.Equal(t, 5, p.GetInt(KeyMaxRelances))
}

func TestScoreWeightsDefaults(t *testing.T) {
	w := New().ScoreWeights()
	assert.Equal(t, 0.40, w.Price)
	assert.Equal(t, 0.35, w.Delay)
	assert.Equal(t, 0.25, w.Conformity)
}

func TestScoreWeightsFallBackOnPartialOverride(t *testing.T) {
	t.Setenv("FLUX_SCORE_WEIGHT_PRICE", "0")
	w := New().ScoreWeights()
	assert.Equal(t, 0.40, w.Price)
	assert.Equal(t, 0.35, w.Delay)
	assert.Equal(t, 0.25, w.Conformity)
}
