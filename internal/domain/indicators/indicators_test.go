package indicators

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/signalcore/internal/domain/candles"
)

func seriesFromCloses(t *testing.T, closes []float64) *candles.Series {
	t.Helper()
	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	bars := make([]candles.Candle, len(closes))
	for i, c := range closes {
		bars[i] = candles.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000,
		}
	}
	s, err := candles.NewSeries("EURUSD", candles.TF1h, bars)
	require.NoError(t, err)
	return s
}

func constantCloses(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSMAWarmupUndefined(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5}
	out := SMA(vals, 3)
	assert.False(t, Defined(out[0]))
	assert.False(t, Defined(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9)
	assert.InDelta(t, 4.0, out[4], 1e-9)
}

func TestEMASeededWithSMA(t *testing.T) {
	vals := []float64{1, 2, 3, 4, 5, 6}
	out := EMA(vals, 3)
	assert.False(t, Defined(out[1]))
	assert.InDelta(t, 2.0, out[2], 1e-9) // seed = SMA(1,2,3)
	// alpha = 0.5: next = 4*0.5 + 2*0.5 = 3
	assert.InDelta(t, 3.0, out[3], 1e-9)
}

func TestEMAHandlesUndefinedPrefix(t *testing.T) {
	vals := []float64{math.NaN(), math.NaN(), 1, 2, 3, 4}
	out := EMA(vals, 3)
	assert.False(t, Defined(out[3]))
	assert.InDelta(t, 2.0, out[4], 1e-9)
	assert.True(t, Defined(out[5]))
}

func TestWilderRSIBounds(t *testing.T) {
	rising := make([]float64, 30)
	for i := range rising {
		rising[i] = 100 + float64(i)
	}
	out := WilderRSI(rising, 14)
	assert.False(t, Defined(out[13]))
	require.True(t, Defined(out[14]))
	assert.InDelta(t, 100.0, out[29], 1e-9) // no losses at all

	falling := make([]float64, 30)
	for i := range falling {
		falling[i] = 100 - float64(i)
	}
	out = WilderRSI(falling, 14)
	assert.InDelta(t, 0.0, out[29], 1e-9)
}

func TestWilderATRConstantRange(t *testing.T) {
	n := 40
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		highs[i], lows[i], closes[i] = 102, 98, 100
	}
	out := WilderATR(highs, lows, closes, 14)
	assert.False(t, Defined(out[13]))
	require.True(t, Defined(out[14]))
	assert.InDelta(t, 4.0, out[n-1], 1e-9)
}

func TestADXDefinedFromTwoPeriods(t *testing.T) {
	n := 60
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		base := 100 + float64(i) // steady uptrend
		highs[i], lows[i], closes[i] = base+1, base-1, base
	}
	out := ADX(highs, lows, closes, 14)
	assert.False(t, Defined(out[26]))
	require.True(t, Defined(out[27]))
	// A monotonic trend drives ADX high.
	assert.Greater(t, out[n-1], 50.0)
}

func TestStochasticMidpointOnFlat(t *testing.T) {
	n := 30
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	for i := range closes {
		highs[i], lows[i], closes[i] = 102, 98, 100
	}
	k, d := Stochastic(highs, lows, closes, 14, 3, 3)
	require.True(t, Defined(k[n-1]))
	require.True(t, Defined(d[n-1]))
	assert.InDelta(t, 50.0, k[n-1], 1e-9)
	assert.InDelta(t, 50.0, d[n-1], 1e-9)
}

func TestMACDHistogramWarmup(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.3
	}
	out := MACDHistogram(closes, 12, 26, 9)
	assert.False(t, Defined(out[32]))
	assert.True(t, Defined(out[33]))
}

func TestBollingerBandsOrdering(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11, 10, 11, 12, 13, 14, 13, 12, 11, 12, 13, 14, 15}
	upper, mid, lower := Bollinger(closes, 20, 2.0)
	i := len(closes) - 1
	require.True(t, Defined(mid[i]))
	assert.Greater(t, upper[i], mid[i])
	assert.Less(t, lower[i], mid[i])
}

func TestComputeInsufficientDataATRBoundary(t *testing.T) {
	req := []Request{{Name: NameATR14, Kind: KindATR, Period: 14}}

	// Exactly 14 bars: one short of the minimum usable length.
	_, err := Compute(seriesFromCloses(t, constantCloses(14, 100)), req)
	require.Error(t, err)
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 15, insufficient.Need)
	assert.Equal(t, 14, insufficient.Have)
	assert.Equal(t, NameATR14, insufficient.Indicator)

	// 15 bars: ATR defined on the last bar.
	set, err := Compute(seriesFromCloses(t, constantCloses(15, 100)), req)
	require.NoError(t, err)
	v, ok := set.Last(NameATR14)
	require.True(t, ok)
	assert.Greater(t, v, 0.0)
}

func TestComputeStandardBattery(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.2
	}
	set, err := Compute(seriesFromCloses(t, closes), StandardBattery())
	require.NoError(t, err)

	for _, name := range []string{
		NameEMA20, NameEMA50, NameRSI14, NameATR14, NameADX,
		NameStochK, NameStochD, NameMACDHist,
		NameBollUpper, NameBollMid, NameBollLower, NameVolSMA20,
	} {
		_, ok := set.Last(name)
		assert.True(t, ok, "expected %s to be defined on the last bar", name)
	}

	// Warmup entries stay undefined rather than zero.
	_, ok := set.At(NameEMA50, 10)
	assert.False(t, ok)
}

func TestSetAtOutOfRange(t *testing.T) {
	set, err := Compute(seriesFromCloses(t, constantCloses(20, 100)), []Request{
		{Name: NameEMA20, Kind: KindEMA, Period: 20},
	})
	require.NoError(t, err)
	_, ok := set.At(NameEMA20, 99)
	assert.False(t, ok)
	_, ok = set.At("missing", 0)
	assert.False(t, ok)
}
