package indicators

import "math"

// All calculators return a slice aligned index-for-index with the input.
// Entries before an indicator's warmup are undefined (NaN), never zero or a
// neutral placeholder: downstream criteria must fail closed on them.

var undefined = math.NaN()

// Defined reports whether an indicator value is usable.
func Defined(v float64) bool {
	return !math.IsNaN(v)
}

// SMA computes a simple moving average. Defined from index period-1.
func SMA(vals []float64, period int) []float64 {
	out := undefinedSlice(len(vals))
	if period <= 0 || len(vals) < period {
		return out
	}

	sum := 0.0
	for i, v := range vals {
		sum += v
		if i >= period {
			sum -= vals[i-period]
		}
		if i >= period-1 {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes an exponential moving average seeded with the SMA of the
// first period values. Defined from the same index as the seed. Tolerates
// an undefined prefix in the input, which keeps it usable for smoothing
// derived series such as the MACD line.
func EMA(vals []float64, period int) []float64 {
	out := undefinedSlice(len(vals))
	if period <= 0 {
		return out
	}

	first := firstDefined(vals)
	if first < 0 || len(vals)-first < period {
		return out
	}

	seed := 0.0
	for i := first; i < first+period; i++ {
		seed += vals[i]
	}
	seed /= float64(period)

	idx := first + period - 1
	out[idx] = seed

	alpha := 2.0 / (float64(period) + 1.0)
	for i := idx + 1; i < len(vals); i++ {
		out[i] = vals[i]*alpha + out[i-1]*(1-alpha)
	}
	return out
}

// WilderRSI computes the Relative Strength Index with Wilder smoothing.
// Defined from index period.
func WilderRSI(closes []float64, period int) []float64 {
	out := undefinedSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// TrueRange returns the per-bar true range, undefined at index 0.
func TrueRange(highs, lows, closes []float64) []float64 {
	out := undefinedSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

// WilderATR computes the Average True Range with Wilder smoothing.
// Defined from index period, so the minimum usable series length is
// period+1 bars.
func WilderATR(highs, lows, closes []float64, period int) []float64 {
	out := undefinedSlice(len(closes))
	if period <= 0 || len(closes) < period+1 {
		return out
	}

	tr := TrueRange(highs, lows, closes)

	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)

	for i := period + 1; i < len(closes); i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// ADX computes the Average Directional Index. Defined from index
// 2*period-1 (one period of DX values on top of the DM/TR warmup).
func ADX(highs, lows, closes []float64, period int) []float64 {
	out := undefinedSlice(len(closes))
	if period <= 0 || len(closes) < 2*period {
		return out
	}

	n := len(closes)
	tr := TrueRange(highs, lows, closes)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := highs[i] - highs[i-1]
		down := lows[i-1] - lows[i]
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	// Wilder-smoothed sums, first value at index period.
	var smTR, smPlus, smMinus float64
	for i := 1; i <= period; i++ {
		smTR += tr[i]
		smPlus += plusDM[i]
		smMinus += minusDM[i]
	}

	dx := undefinedSlice(n)
	dx[period] = dxFrom(smPlus, smMinus, smTR)
	for i := period + 1; i < n; i++ {
		smTR = smTR - smTR/float64(period) + tr[i]
		smPlus = smPlus - smPlus/float64(period) + plusDM[i]
		smMinus = smMinus - smMinus/float64(period) + minusDM[i]
		dx[i] = dxFrom(smPlus, smMinus, smTR)
	}

	// ADX = Wilder average of DX, seeded over the first period DX values.
	seed := 0.0
	for i := period; i < 2*period; i++ {
		seed += dx[i]
	}
	out[2*period-1] = seed / float64(period)
	for i := 2 * period; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + dx[i]) / float64(period)
	}
	return out
}

func dxFrom(smPlus, smMinus, smTR float64) float64 {
	if smTR == 0 {
		return 0
	}
	plusDI := 100 * smPlus / smTR
	minusDI := 100 * smMinus / smTR
	if plusDI+minusDI == 0 {
		return 0
	}
	return 100 * math.Abs(plusDI-minusDI) / (plusDI + minusDI)
}

// Stochastic computes the slow stochastic oscillator: raw %K over kPeriod,
// smoothed by kSmooth, with %D as an SMA of the smoothed %K over dPeriod.
func Stochastic(highs, lows, closes []float64, kPeriod, kSmooth, dPeriod int) (k, d []float64) {
	n := len(closes)
	raw := undefinedSlice(n)
	if kPeriod <= 0 || n < kPeriod {
		return raw, undefinedSlice(n)
	}

	for i := kPeriod - 1; i < n; i++ {
		hh, ll := highs[i], lows[i]
		for j := i - kPeriod + 1; j < i; j++ {
			hh = math.Max(hh, highs[j])
			ll = math.Min(ll, lows[j])
		}
		if hh == ll {
			raw[i] = 50.0
			continue
		}
		raw[i] = 100 * (closes[i] - ll) / (hh - ll)
	}

	k = smaOverDefined(raw, kSmooth)
	d = smaOverDefined(k, dPeriod)
	return k, d
}

// MACDHistogram computes the MACD histogram (MACD line minus its signal
// EMA). Defined from index slow+signal-2.
func MACDHistogram(closes []float64, fast, slow, signal int) []float64 {
	n := len(closes)
	out := undefinedSlice(n)

	fastEMA := EMA(closes, fast)
	slowEMA := EMA(closes, slow)

	macd := undefinedSlice(n)
	for i := range closes {
		if Defined(fastEMA[i]) && Defined(slowEMA[i]) {
			macd[i] = fastEMA[i] - slowEMA[i]
		}
	}

	signalLine := EMA(macd, signal)
	for i := range closes {
		if Defined(macd[i]) && Defined(signalLine[i]) {
			out[i] = macd[i] - signalLine[i]
		}
	}
	return out
}

// Bollinger computes Bollinger bands over period with the given stddev
// width. All three bands are defined from index period-1.
func Bollinger(closes []float64, period int, width float64) (upper, mid, lower []float64) {
	n := len(closes)
	mid = SMA(closes, period)
	upper = undefinedSlice(n)
	lower = undefinedSlice(n)

	for i := period - 1; i < n; i++ {
		if !Defined(mid[i]) {
			continue
		}
		variance := 0.0
		for j := i - period + 1; j <= i; j++ {
			diff := closes[j] - mid[i]
			variance += diff * diff
		}
		sd := math.Sqrt(variance / float64(period))
		upper[i] = mid[i] + width*sd
		lower[i] = mid[i] - width*sd
	}
	return upper, mid, lower
}

// smaOverDefined applies an SMA starting at the input's first defined index.
func smaOverDefined(vals []float64, period int) []float64 {
	out := undefinedSlice(len(vals))
	if period <= 0 {
		return out
	}
	first := firstDefined(vals)
	if first < 0 || len(vals)-first < period {
		return out
	}
	for i := first + period - 1; i < len(vals); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += vals[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

func firstDefined(vals []float64) int {
	for i, v := range vals {
		if Defined(v) {
			return i
		}
	}
	return -1
}

func undefinedSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = undefined
	}
	return out
}
