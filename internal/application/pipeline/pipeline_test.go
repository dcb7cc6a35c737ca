package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/signalcore/internal/config"
	"github.com/tradeforge/signalcore/internal/domain/candles"
	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/domain/trade"
	"github.com/tradeforge/signalcore/internal/metrics"
)

// fakeSource serves a deterministic uptrend for every instrument.
type fakeSource struct {
	bars int
	err  error
}

func (f *fakeSource) Candles(_ context.Context, instrument string, tf candles.Timeframe, _ int) (*candles.Series, error) {
	if f.err != nil {
		return nil, f.err
	}
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	bars := make([]candles.Candle, f.bars)
	price := 100.0
	for i := range bars {
		price *= 1.002
		bars[i] = candles.Candle{
			Timestamp: start.Add(time.Duration(i) * tf.Duration()),
			Open:      price * 0.999,
			High:      price * 1.001,
			Low:       price * 0.997,
			Close:     price,
			Volume:    1000,
		}
	}
	return candles.NewSeries(instrument, tf, bars)
}

// The test universe keeps the score floor at 1; the volatility regime
// band is wide open so every evaluation passes at least that criterion
// and reaches the later stages.
const testDoc = `
evaluation:
  min_score: 1
  criteria:
    atr_band_min_pct: 0.000001
    atr_band_max_pct: 10000
classes:
  admit:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    validity: 4h
  thin_targets:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [1.5]
      min_reward_risk: 2.0
      target_policy: first
    validity: 4h
  offhours:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    sessions:
      - {name: nightcap, open: "03:00", close: "04:00"}
    session_hard_gate: true
    validity: 4h
  offhours_soft:
    risk:
      stop_atr_multiplier: 1.5
      target_multipliers: [2.0]
      min_reward_risk: 2.0
      target_policy: first
    sessions:
      - {name: nightcap, open: "03:00", close: "04:00"}
    validity: 4h
instruments:
  - {symbol: EURUSD, class: admit}
  - {symbol: GBPUSD, class: admit}
  - {symbol: AUDUSD, class: thin_targets}
  - {symbol: USDJPY, class: offhours}
  - {symbol: NZDUSD, class: offhours_soft}
correlation:
  threshold: 0.7
  pairs:
    - {a: EURUSD, b: GBPUSD, coefficient: 0.85}
`

func testClock() time.Time {
	return time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
}

func newTestPipeline(t *testing.T, source *fakeSource) (*Pipeline, *signal.Registry, *metrics.Metrics) {
	t.Helper()
	cfg, err := config.Parse([]byte(testDoc))
	require.NoError(t, err)

	reg := signal.NewRegistry()
	met := metrics.New(prometheus.NewRegistry(), func() int { return reg.LiveCount(testClock()) })
	p, err := New(source, cfg, reg, met, zerolog.Nop(), Options{Clock: testClock})
	require.NoError(t, err)
	return p, reg, met
}

func TestEvaluateAdmitsSignal(t *testing.T) {
	p, reg, _ := newTestPipeline(t, &fakeSource{bars: 80})

	out, err := p.Evaluate(context.Background(), "EURUSD", trade.Long)
	require.NoError(t, err)
	require.NotNil(t, out.Signal)
	assert.Nil(t, out.Rejection)

	assert.NotEmpty(t, out.Signal.ID)
	assert.Equal(t, candles.TF1h, out.Signal.TimeframeBasis)
	assert.Equal(t, "all_day", out.Signal.SessionTag)
	assert.Equal(t, testClock().Add(4*time.Hour), out.Signal.ValidUntil)
	assert.True(t, out.Signal.Envelope.RewardRisk.IsPositive())

	snap := reg.Snapshot(testClock())
	require.Len(t, snap, 1)
	assert.Equal(t, out.Signal.ID, snap[0].ID)
}

func TestEvaluateRejectsRewardRisk(t *testing.T) {
	p, reg, met := newTestPipeline(t, &fakeSource{bars: 80})

	out, err := p.Evaluate(context.Background(), "AUDUSD", trade.Long)
	require.NoError(t, err)
	require.NotNil(t, out.Rejection)
	assert.Nil(t, out.Signal)

	assert.Equal(t, ReasonRewardRisk, out.Rejection.Reason)
	assert.Equal(t, "risk", out.Rejection.Stage)
	require.NotNil(t, out.Rejection.ScoreCard)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Rejections.WithLabelValues(string(ReasonRewardRisk))))
}

func TestEvaluateRejectsClosedSessionWhenHardGated(t *testing.T) {
	p, reg, _ := newTestPipeline(t, &fakeSource{bars: 80})

	out, err := p.Evaluate(context.Background(), "USDJPY", trade.Long)
	require.NoError(t, err)
	require.NotNil(t, out.Rejection)
	assert.Equal(t, ReasonSession, out.Rejection.Reason)
	assert.Equal(t, 0, reg.Len())
}

func TestEvaluateSoftSessionClassAdmitsOffSession(t *testing.T) {
	p, reg, _ := newTestPipeline(t, &fakeSource{bars: 80})

	// Same closed session windows as USDJPY, but without the hard gate the
	// candidate only lost the session_fit criterion point.
	out, err := p.Evaluate(context.Background(), "NZDUSD", trade.Long)
	require.NoError(t, err)
	require.NotNil(t, out.Signal)
	assert.Nil(t, out.Rejection)
	assert.Equal(t, "off_session", out.Signal.SessionTag)
	assert.Equal(t, 1, reg.Len())
}

func TestEvaluateRejectsCorrelatedOpposition(t *testing.T) {
	p, reg, met := newTestPipeline(t, &fakeSource{bars: 80})

	out, err := p.Evaluate(context.Background(), "EURUSD", trade.Long)
	require.NoError(t, err)
	require.NotNil(t, out.Signal)

	out, err = p.Evaluate(context.Background(), "GBPUSD", trade.Short)
	require.NoError(t, err)
	require.NotNil(t, out.Rejection)
	assert.Equal(t, ReasonCorrelation, out.Rejection.Reason)
	assert.Equal(t, "admission", out.Rejection.Stage)
	assert.Contains(t, out.Rejection.Detail, "EURUSD")

	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Rejections.WithLabelValues(string(ReasonCorrelation))))
}

func TestEvaluateSourceErrorIsNotARejection(t *testing.T) {
	srcErr := errors.New("feed unavailable")
	p, _, met := newTestPipeline(t, &fakeSource{err: srcErr})

	out, err := p.Evaluate(context.Background(), "EURUSD", trade.Long)
	require.Error(t, err)
	assert.ErrorIs(t, err, srcErr)
	assert.Nil(t, out.Signal)
	assert.Nil(t, out.Rejection)
	assert.Equal(t, 1.0, testutil.ToFloat64(met.Evaluations.WithLabelValues("error")))
}

func TestEvaluateShortHistoryIsAnError(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSource{bars: 10})

	_, err := p.Evaluate(context.Background(), "EURUSD", trade.Long)
	require.Error(t, err)

	var insufficient *indicators.InsufficientDataError
	assert.True(t, errors.As(err, &insufficient))
}

func TestEvaluateUnknownInstrument(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSource{bars: 80})

	_, err := p.Evaluate(context.Background(), "XAUUSD", trade.Long)
	require.Error(t, err)

	var cerr *config.ConfigurationError
	assert.True(t, errors.As(err, &cerr))
}

func TestEvaluateUniverseCoversBothDirections(t *testing.T) {
	p, _, _ := newTestPipeline(t, &fakeSource{bars: 80})

	outcomes, err := p.EvaluateUniverse(context.Background())
	require.NoError(t, err)
	// 5 instruments x 2 directions.
	assert.Len(t, outcomes, 10)
}
