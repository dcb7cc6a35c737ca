package config

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validDoc = `
evaluation:
  min_score: 17
classes:
  fx_major:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [1.5, 3.0]
      min_reward_risk: 2.0
      target_policy: first
    sessions:
      - {name: london, open: "07:00", close: "16:00"}
      - {name: newyork, open: "12:00", close: "21:00"}
    validity: 4h
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: best
    validity: 8h
instruments:
  - {symbol: EURUSD, class: fx_major}
  - {symbol: GBPUSD, class: fx_major}
  - {symbol: BTCUSD, class: crypto}
correlation:
  threshold: 0.7
  pairs:
    - {a: EURUSD, b: GBPUSD, coefficient: 0.85}
`

func TestParseValidDocument(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	assert.Equal(t, 17, cfg.Evaluation.MinScore)
	assert.Len(t, cfg.Classes, 2)
	assert.Equal(t, []string{"EURUSD", "GBPUSD", "BTCUSD"}, cfg.Symbols())
	assert.Equal(t, 0.85, cfg.Correlation.Coefficient("EURUSD", "GBPUSD"))
}

func TestParseDefaultsEvaluation(t *testing.T) {
	doc := `
classes:
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    validity: 8h
instruments:
  - {symbol: BTCUSD, class: crypto}
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.Evaluation.MinScore)
	assert.NotZero(t, cfg.Evaluation.Criteria.SwingLookback)
	assert.Equal(t, 0.7, cfg.Correlation.Threshold)
}

func TestParsePartialCriteriaKeepsRemainingDefaults(t *testing.T) {
	doc := `
evaluation:
  criteria:
    adx_floor: 25.0
classes:
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    validity: 8h
instruments:
  - {symbol: BTCUSD, class: crypto}
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	// The one overridden threshold sticks, everything else stays at its
	// default instead of collapsing to zero.
	assert.Equal(t, 25.0, cfg.Evaluation.Criteria.ADXFloor)
	assert.Equal(t, 3, cfg.Evaluation.Criteria.MinAlignedFrames)
	assert.Equal(t, 1.3, cfg.Evaluation.Criteria.ImpulseVolumeFactor)
	assert.Equal(t, 60, cfg.Evaluation.Criteria.SwingLookback)
}

func TestParseRejectsNegativeCriteriaThreshold(t *testing.T) {
	doc := `
evaluation:
  criteria:
    min_aligned_frames: -1
classes:
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    validity: 8h
instruments:
  - {symbol: BTCUSD, class: crypto}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "evaluation", cerr.Instrument)
	assert.Equal(t, "criteria.min_aligned_frames", cerr.Field)
}

func TestParseRejectsNegativeClassCriteriaOverride(t *testing.T) {
	doc := `
classes:
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    criteria:
      swing_lookback: -5
    validity: 8h
instruments:
  - {symbol: BTCUSD, class: crypto}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "crypto", cerr.Instrument)
	assert.Equal(t, "criteria.swing_lookback", cerr.Field)
}

func TestResolveAppliesClassCriteriaOverride(t *testing.T) {
	doc := `
evaluation:
  criteria:
    adx_floor: 25.0
classes:
  fx_major:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    validity: 4h
  crypto:
    risk:
      stop_atr_multiplier: 2.0
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    criteria:
      atr_band_max_pct: 12.0
      bandwidth_max_pct: 20.0
    validity: 8h
instruments:
  - {symbol: EURUSD, class: fx_major}
  - {symbol: BTCUSD, class: crypto}
`
	cfg, err := Parse([]byte(doc))
	require.NoError(t, err)

	btc, err := cfg.Resolve("BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, 12.0, btc.Criteria.ATRBandMaxPct)
	assert.Equal(t, 20.0, btc.Criteria.BandwidthMaxPct)
	// Inherited from the evaluation block and its defaults.
	assert.Equal(t, 25.0, btc.Criteria.ADXFloor)
	assert.Equal(t, 3, btc.Criteria.MinAlignedFrames)

	eur, err := cfg.Resolve("EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 3.0, eur.Criteria.ATRBandMaxPct)
	assert.Equal(t, 8.0, eur.Criteria.BandwidthMaxPct)
}

func TestParseMissingStopMultiplier(t *testing.T) {
	doc := `
classes:
  fx_major:
    risk:
      target_multipliers: [1.5]
      min_reward_risk: 2.0
      target_policy: first
    validity: 4h
instruments:
  - {symbol: EURUSD, class: fx_major}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "fx_major", cerr.Instrument)
	assert.Equal(t, "risk.stop_atr_multiplier", cerr.Field)
}

func TestParseRejectsUnknownClassReference(t *testing.T) {
	doc := `
classes:
  fx_major:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [1.5]
      min_reward_risk: 2.0
      target_policy: first
    validity: 4h
instruments:
  - {symbol: BTCUSD, class: crypto}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "BTCUSD", cerr.Instrument)
}

func TestParseRejectsBadTargetPolicy(t *testing.T) {
	doc := `
classes:
  fx_major:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [1.5]
      min_reward_risk: 2.0
      target_policy: median
    validity: 4h
instruments:
  - {symbol: EURUSD, class: fx_major}
`
	_, err := Parse([]byte(doc))
	require.Error(t, err)

	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "risk.target_policy", cerr.Field)
}

func TestResolve(t *testing.T) {
	cfg, err := Parse([]byte(validDoc))
	require.NoError(t, err)

	res, err := cfg.Resolve("EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "fx_major", res.Class)
	assert.Equal(t, 1.5, res.Risk.StopATRMultiplier)
	assert.Equal(t, 4*time.Hour, res.Validity)
	assert.Len(t, res.Sessions, 2)

	res, err = cfg.Resolve("BTCUSD")
	require.NoError(t, err)
	assert.Empty(t, res.Sessions)
	assert.Equal(t, 8*time.Hour, res.Validity)

	_, err = cfg.Resolve("XAUUSD")
	var cerr *ConfigurationError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "XAUUSD", cerr.Instrument)
}
