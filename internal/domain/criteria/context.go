package criteria

import (
	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Context family: session, volatility regime and pre-trade risk checks.

// sessionFit is the soft session check: it contributes to the score but
// does not gate admission (the Admission Filter applies the hard gate for
// instrument classes configured that way).
func sessionFit(in Inputs) Result {
	w, ok, err := in.Sessions.Match(in.Now)
	if err != nil {
		return failClosed(NameSessionFit, "session windows")
	}
	if ok {
		return pass(NameSessionFit, "%s inside session %s", in.Now.UTC().Format("15:04"), w.Name)
	}
	return fail(NameSessionFit, "%s outside all %d preferred sessions", in.Now.UTC().Format("15:04"), len(in.Sessions))
}

// volatilityRegime wants ATR as a percentage of price inside the
// instrument class band: neither dead nor disorderly.
func volatilityRegime(in Inputs) Result {
	f := in.basis()
	atr, ok := f.Ind.Last(indicators.NameATR14)
	if !ok {
		return failClosed(NameVolatilityRegime, "atr_14 on basis frame")
	}
	close := f.Series.Last().Close
	if close <= 0 {
		return failClosed(NameVolatilityRegime, "basis close")
	}

	atrPct := atr / close * 100.0
	if atrPct < in.Config.ATRBandMinPct {
		return fail(NameVolatilityRegime, "ATR %.3f%% below band floor %.3f%%, market dead", atrPct, in.Config.ATRBandMinPct)
	}
	if atrPct > in.Config.ATRBandMaxPct {
		return fail(NameVolatilityRegime, "ATR %.3f%% above band cap %.3f%%, too wide", atrPct, in.Config.ATRBandMaxPct)
	}
	return pass(NameVolatilityRegime, "ATR %.3f%% inside band [%.3f%%, %.3f%%]",
		atrPct, in.Config.ATRBandMinPct, in.Config.ATRBandMaxPct)
}

// rewardRiskPrecheck sizes an ATR stop and compares it against the nearest
// opposing structure level. With no structure capping the move the check
// passes on open field.
func rewardRiskPrecheck(in Inputs) Result {
	f := in.basis()
	atr, ok := f.Ind.Last(indicators.NameATR14)
	if !ok {
		return failClosed(NameRewardRiskPrecheck, "atr_14 on basis frame")
	}
	stop := atr * in.Config.StopATRMultiplier
	if stop <= 0 {
		return failClosed(NameRewardRiskPrecheck, "stop distance")
	}

	close := f.Series.Last().Close

	var target float64
	var capped bool
	if in.Direction == trade.Long {
		highs := swingHighs(f.Series.Highs(), in.Config.SwingStrength, in.Config.SwingLookback)
		target, capped = nearestAbove(highs, close)
	} else {
		lows := swingLows(f.Series.Lows(), in.Config.SwingStrength, in.Config.SwingLookback)
		target, capped = nearestBelow(lows, close)
	}

	if !capped {
		return pass(NameRewardRiskPrecheck, "no opposing structure within lookback %d, stop %.5f", in.Config.SwingLookback, stop)
	}

	room := (target - close) * in.Direction.Sign()
	rr := room / stop
	if rr >= in.Config.MinRewardRisk {
		return pass(NameRewardRiskPrecheck, "structure room %.5f / stop %.5f = RR %.2f >= %.2f", room, stop, rr, in.Config.MinRewardRisk)
	}
	return fail(NameRewardRiskPrecheck, "structure room %.5f / stop %.5f = RR %.2f < %.2f", room, stop, rr, in.Config.MinRewardRisk)
}

// volumeBaseline wants current participation at or above the 20-bar
// average volume.
func volumeBaseline(in Inputs) Result {
	f := in.basis()
	baseline, ok := f.Ind.Last(indicators.NameVolSMA20)
	if !ok {
		return failClosed(NameVolumeBaseline, "volume_sma_20 on basis frame")
	}
	if baseline <= 0 {
		return fail(NameVolumeBaseline, "volume baseline %.2f unusable", baseline)
	}

	vol := f.Series.Last().Volume
	if vol >= baseline {
		return pass(NameVolumeBaseline, "volume %.0f >= baseline %.0f", vol, baseline)
	}
	return fail(NameVolumeBaseline, "volume %.0f below baseline %.0f", vol, baseline)
}

// bollingerBandwidth wants band width as a percentage of the mid inside
// the class band: squeezed-dead and blown-out regimes both fail.
func bollingerBandwidth(in Inputs) Result {
	f := in.basis()
	upper, okUp := f.Ind.Last(indicators.NameBollUpper)
	mid, okMid := f.Ind.Last(indicators.NameBollMid)
	lower, okLow := f.Ind.Last(indicators.NameBollLower)
	if !okUp || !okMid || !okLow || mid <= 0 {
		return failClosed(NameBollingerBandwidth, "bollinger bands on basis frame")
	}

	widthPct := (upper - lower) / mid * 100.0
	if widthPct < in.Config.BandwidthMinPct {
		return fail(NameBollingerBandwidth, "bandwidth %.3f%% below %.3f%%, squeezed", widthPct, in.Config.BandwidthMinPct)
	}
	if widthPct > in.Config.BandwidthMaxPct {
		return fail(NameBollingerBandwidth, "bandwidth %.3f%% above %.3f%%, blown out", widthPct, in.Config.BandwidthMaxPct)
	}
	return pass(NameBollingerBandwidth, "bandwidth %.3f%% inside [%.3f%%, %.3f%%]",
		widthPct, in.Config.BandwidthMinPct, in.Config.BandwidthMaxPct)
}

// dailyBias checks the close sits in the directional half of the highest
// timeframe's current bar range.
func dailyBias(in Inputs) Result {
	f := in.highest()
	bar := f.Series.Last()
	if bar.High <= bar.Low {
		return failClosed(NameDailyBias, "highest frame bar range")
	}

	mid := (bar.High + bar.Low) / 2.0
	if inDirection(in.Direction, bar.Close-mid) {
		return pass(NameDailyBias, "%s close %.5f %s bar midpoint %.5f",
			f.Series.Timeframe, bar.Close, sideWord(in.Direction), mid)
	}
	return fail(NameDailyBias, "%s close %.5f not %s bar midpoint %.5f",
		f.Series.Timeframe, bar.Close, sideWord(in.Direction), mid)
}
