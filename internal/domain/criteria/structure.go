package criteria

import (
	"math"

	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Structure family: swing-point geometry on the basis frame.

// swingProximity wants the entry close to a swing level that supports the
// trade: a swing low beneath a LONG entry (support), a swing high above a
// SHORT entry (resistance), within ProximityATR ATRs.
func swingProximity(in Inputs) Result {
	f := in.basis()
	atr, ok := f.Ind.Last(indicators.NameATR14)
	if !ok {
		return failClosed(NameSwingProximity, "atr_14 on basis frame")
	}
	close := f.Series.Last().Close
	band := in.Config.ProximityATR * atr

	if in.Direction == trade.Long {
		lows := swingLows(f.Series.Lows(), in.Config.SwingStrength, in.Config.SwingLookback)
		level, found := nearestBelow(lows, close)
		if !found {
			return fail(NameSwingProximity, "no swing low beneath entry %.5f in lookback %d", close, in.Config.SwingLookback)
		}
		dist := close - level
		if dist <= band {
			return pass(NameSwingProximity, "entry %.5f within %.5f of support %.5f (band %.5f)", close, dist, level, band)
		}
		return fail(NameSwingProximity, "support %.5f is %.5f away, beyond band %.5f", level, dist, band)
	}

	highs := swingHighs(f.Series.Highs(), in.Config.SwingStrength, in.Config.SwingLookback)
	level, found := nearestAbove(highs, close)
	if !found {
		return fail(NameSwingProximity, "no swing high above entry %.5f in lookback %d", close, in.Config.SwingLookback)
	}
	dist := level - close
	if dist <= band {
		return pass(NameSwingProximity, "entry %.5f within %.5f of resistance %.5f (band %.5f)", close, dist, level, band)
	}
	return fail(NameSwingProximity, "resistance %.5f is %.5f away, beyond band %.5f", level, dist, band)
}

// structureContinuation checks the higher-high/higher-low pattern (or the
// inverse for SHORT) across the two most recent swing pairs. Fewer than
// two confirmed swings on either side fails closed.
func structureContinuation(in Inputs) Result {
	f := in.basis()
	highs := swingHighs(f.Series.Highs(), in.Config.SwingStrength, in.Config.SwingLookback)
	lows := swingLows(f.Series.Lows(), in.Config.SwingStrength, in.Config.SwingLookback)

	oldHigh, newHigh, okH := lastTwo(highs)
	oldLow, newLow, okL := lastTwo(lows)
	if !okH || !okL {
		return fail(NameStructureContinue, "need 2 swing highs and 2 swing lows, have %d/%d", len(highs), len(lows))
	}

	if in.Direction == trade.Long {
		if newHigh.Price > oldHigh.Price && newLow.Price > oldLow.Price {
			return pass(NameStructureContinue, "HH %.5f>%.5f and HL %.5f>%.5f",
				newHigh.Price, oldHigh.Price, newLow.Price, oldLow.Price)
		}
		return fail(NameStructureContinue, "no HH/HL: highs %.5f->%.5f lows %.5f->%.5f",
			oldHigh.Price, newHigh.Price, oldLow.Price, newLow.Price)
	}

	if newHigh.Price < oldHigh.Price && newLow.Price < oldLow.Price {
		return pass(NameStructureContinue, "LH %.5f<%.5f and LL %.5f<%.5f",
			newHigh.Price, oldHigh.Price, newLow.Price, oldLow.Price)
	}
	return fail(NameStructureContinue, "no LH/LL: highs %.5f->%.5f lows %.5f->%.5f",
		oldHigh.Price, newHigh.Price, oldLow.Price, newLow.Price)
}

// breakoutProximity identifies a consolidation range over the trailing
// window and passes when price sits within BreakoutProximityATR ATRs of
// the boundary in the trade direction.
func breakoutProximity(in Inputs) Result {
	f := in.basis()
	atr, ok := f.Ind.Last(indicators.NameATR14)
	if !ok {
		return failClosed(NameBreakoutProximity, "atr_14 on basis frame")
	}

	bars := in.Config.BreakoutRangeBars
	n := f.Series.Len()
	if n < bars+1 {
		return fail(NameBreakoutProximity, "only %d bars for a %d-bar range window", n, bars)
	}

	// Range excludes the live bar so a fresh breakout bar does not widen
	// its own boundary.
	highs, lows := f.Series.Highs(), f.Series.Lows()
	rangeHigh, rangeLow := highs[n-1-bars], lows[n-1-bars]
	for i := n - bars; i < n-1; i++ {
		rangeHigh = math.Max(rangeHigh, highs[i])
		rangeLow = math.Min(rangeLow, lows[i])
	}

	width := rangeHigh - rangeLow
	maxWidth := in.Config.BreakoutRangeMaxATR * atr
	if width > maxWidth {
		return fail(NameBreakoutProximity, "range width %.5f exceeds %.5f (%.1fx ATR), not consolidating",
			width, maxWidth, in.Config.BreakoutRangeMaxATR)
	}

	close := f.Series.Last().Close
	prox := in.Config.BreakoutProximityATR * atr

	boundary := rangeHigh
	if in.Direction == trade.Short {
		boundary = rangeLow
	}
	dist := math.Abs(close - boundary)
	if dist <= prox {
		return pass(NameBreakoutProximity, "close %.5f within %.5f of %s boundary %.5f (range %.5f-%.5f)",
			close, dist, in.Direction, boundary, rangeLow, rangeHigh)
	}
	return fail(NameBreakoutProximity, "close %.5f is %.5f from boundary %.5f, beyond %.5f",
		close, dist, boundary, prox)
}

// divergenceAbsence fails when a price/RSI divergence argues against the
// trade: bearish divergence (price HH, RSI LH) invalidates LONG, bullish
// divergence (price LL, RSI HL) invalidates SHORT. Fewer than two
// comparable swing points fails closed rather than erroring.
func divergenceAbsence(in Inputs) Result {
	f := in.basis()

	if in.Direction == trade.Long {
		older, newer, ok := lastTwo(swingHighs(f.Series.Highs(), in.Config.SwingStrength, in.Config.SwingLookback))
		if !ok {
			return fail(NameDivergenceAbsence, "fewer than 2 swing highs in lookback %d, failing closed", in.Config.SwingLookback)
		}
		rsiOld, okOld := f.Ind.At(indicators.NameRSI14, older.Index)
		rsiNew, okNew := f.Ind.At(indicators.NameRSI14, newer.Index)
		if !okOld || !okNew {
			return failClosed(NameDivergenceAbsence, "rsi_14 at swing highs")
		}
		if newer.Price > older.Price && rsiNew < rsiOld {
			return fail(NameDivergenceAbsence, "bearish divergence: price %.5f>%.5f but RSI %.1f<%.1f",
				newer.Price, older.Price, rsiNew, rsiOld)
		}
		return pass(NameDivergenceAbsence, "no bearish divergence: price %.5f/%.5f RSI %.1f/%.1f",
			older.Price, newer.Price, rsiOld, rsiNew)
	}

	older, newer, ok := lastTwo(swingLows(f.Series.Lows(), in.Config.SwingStrength, in.Config.SwingLookback))
	if !ok {
		return fail(NameDivergenceAbsence, "fewer than 2 swing lows in lookback %d, failing closed", in.Config.SwingLookback)
	}
	rsiOld, okOld := f.Ind.At(indicators.NameRSI14, older.Index)
	rsiNew, okNew := f.Ind.At(indicators.NameRSI14, newer.Index)
	if !okOld || !okNew {
		return failClosed(NameDivergenceAbsence, "rsi_14 at swing lows")
	}
	if newer.Price < older.Price && rsiNew > rsiOld {
		return fail(NameDivergenceAbsence, "bullish divergence: price %.5f<%.5f but RSI %.1f>%.1f",
			newer.Price, older.Price, rsiNew, rsiOld)
	}
	return pass(NameDivergenceAbsence, "no bullish divergence: price %.5f/%.5f RSI %.1f/%.1f",
		older.Price, newer.Price, rsiOld, rsiNew)
}

// structureBreak wants the most recent close beyond the latest confirmed
// swing level in the trade direction (a break of structure).
func structureBreak(in Inputs) Result {
	f := in.basis()
	close := f.Series.Last().Close

	if in.Direction == trade.Long {
		highs := swingHighs(f.Series.Highs(), in.Config.SwingStrength, in.Config.SwingLookback)
		if len(highs) == 0 {
			return fail(NameStructureBreak, "no confirmed swing high in lookback %d", in.Config.SwingLookback)
		}
		level := highs[len(highs)-1].Price
		if close > level {
			return pass(NameStructureBreak, "close %.5f broke above swing high %.5f", close, level)
		}
		return fail(NameStructureBreak, "close %.5f below swing high %.5f, no break", close, level)
	}

	lows := swingLows(f.Series.Lows(), in.Config.SwingStrength, in.Config.SwingLookback)
	if len(lows) == 0 {
		return fail(NameStructureBreak, "no confirmed swing low in lookback %d", in.Config.SwingLookback)
	}
	level := lows[len(lows)-1].Price
	if close < level {
		return pass(NameStructureBreak, "close %.5f broke below swing low %.5f", close, level)
	}
	return fail(NameStructureBreak, "close %.5f above swing low %.5f, no break", close, level)
}

// impulseVolume wants the latest bar to be a directional bar carrying a
// volume surge over the 20-bar baseline.
func impulseVolume(in Inputs) Result {
	f := in.basis()
	baseline, ok := f.Ind.Last(indicators.NameVolSMA20)
	if !ok {
		return failClosed(NameImpulseVolume, "volume_sma_20 on basis frame")
	}
	if baseline <= 0 {
		return fail(NameImpulseVolume, "volume baseline %.2f unusable", baseline)
	}

	bar := f.Series.Last()
	directional := inDirection(in.Direction, bar.Close-bar.Open)
	needed := in.Config.ImpulseVolumeFactor * baseline

	if !directional {
		return fail(NameImpulseVolume, "last bar close %.5f vs open %.5f is not a %s bar", bar.Close, bar.Open, in.Direction)
	}
	if bar.Volume >= needed {
		return pass(NameImpulseVolume, "impulse volume %.0f >= %.0f (%.2fx baseline %.0f)",
			bar.Volume, needed, in.Config.ImpulseVolumeFactor, baseline)
	}
	return fail(NameImpulseVolume, "impulse volume %.0f below %.0f (%.2fx baseline %.0f)",
		bar.Volume, needed, in.Config.ImpulseVolumeFactor, baseline)
}

// bollingerPosition wants price in the directional half of the bands but
// not through the outer band.
func bollingerPosition(in Inputs) Result {
	f := in.basis()
	mid, okMid := f.Ind.Last(indicators.NameBollMid)
	upper, okUp := f.Ind.Last(indicators.NameBollUpper)
	lower, okLow := f.Ind.Last(indicators.NameBollLower)
	if !okMid || !okUp || !okLow {
		return failClosed(NameBollingerPosition, "bollinger bands on basis frame")
	}

	close := f.Series.Last().Close
	if in.Direction == trade.Long {
		if close <= mid {
			return fail(NameBollingerPosition, "close %.5f below mid band %.5f", close, mid)
		}
		if close > upper {
			return fail(NameBollingerPosition, "close %.5f through upper band %.5f, overextended", close, upper)
		}
		return pass(NameBollingerPosition, "close %.5f between mid %.5f and upper %.5f", close, mid, upper)
	}

	if close >= mid {
		return fail(NameBollingerPosition, "close %.5f above mid band %.5f", close, mid)
	}
	if close < lower {
		return fail(NameBollingerPosition, "close %.5f through lower band %.5f, overextended", close, lower)
	}
	return pass(NameBollingerPosition, "close %.5f between lower %.5f and mid %.5f", close, lower, mid)
}

func nearestBelow(ps []Pivot, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, p := range ps {
		if p.Price <= price && (!found || p.Price > best) {
			best, found = p.Price, true
		}
	}
	return best, found
}

func nearestAbove(ps []Pivot, price float64) (float64, bool) {
	best, found := 0.0, false
	for _, p := range ps {
		if p.Price >= price && (!found || p.Price < best) {
			best, found = p.Price, true
		}
	}
	return best, found
}
