package criteria

import (
	"fmt"
	"strings"

	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Alignment family: multi-timeframe trend and momentum agreement.

// emaPriceAlignment passes when price sits on the trade side of the 20 EMA
// on at least MinAlignedFrames of the configured timeframes. Frames with an
// undefined EMA never count toward alignment.
func emaPriceAlignment(in Inputs) Result {
	aligned, counted := 0, 0
	var parts []string

	for _, f := range in.Frames {
		ema, ok := f.Ind.Last(indicators.NameEMA20)
		if !ok {
			parts = append(parts, fmt.Sprintf("%s=undef", f.Series.Timeframe))
			continue
		}
		counted++
		close := f.Series.Last().Close
		if inDirection(in.Direction, close-ema) {
			aligned++
		}
		parts = append(parts, fmt.Sprintf("%s close=%.5f ema20=%.5f", f.Series.Timeframe, close, ema))
	}

	detail := fmt.Sprintf("price %s ema_20 on %d/%d frames (need >=%d): %s",
		sideWord(in.Direction), aligned, len(in.Frames), in.Config.MinAlignedFrames, strings.Join(parts, ", "))

	if counted == 0 {
		return failClosed(NameEMAPriceAlignment, "ema_20 on all frames")
	}
	if aligned >= in.Config.MinAlignedFrames {
		return pass(NameEMAPriceAlignment, "%s", detail)
	}
	return fail(NameEMAPriceAlignment, "%s", detail)
}

// emaStack requires the 20/50 EMA pair to be stacked in the trade
// direction on both higher timeframes.
func emaStack(in Inputs) Result {
	for _, f := range in.higherFrames() {
		fast, okFast := f.Ind.Last(indicators.NameEMA20)
		slow, okSlow := f.Ind.Last(indicators.NameEMA50)
		if !okFast || !okSlow {
			return failClosed(NameEMAStack, fmt.Sprintf("ema stack on %s", f.Series.Timeframe))
		}
		if !inDirection(in.Direction, fast-slow) {
			return fail(NameEMAStack, "%s ema20=%.5f not %s ema50=%.5f",
				f.Series.Timeframe, fast, sideWord(in.Direction), slow)
		}
	}
	return pass(NameEMAStack, "ema20 %s ema50 on both higher frames", sideWord(in.Direction))
}

// rsiZoneAlignment passes when RSI sits in the directional half (above 50
// for LONG, below for SHORT) on at least MinAlignedFrames frames.
func rsiZoneAlignment(in Inputs) Result {
	aligned, counted := 0, 0
	var parts []string

	for _, f := range in.Frames {
		rsi, ok := f.Ind.Last(indicators.NameRSI14)
		if !ok {
			parts = append(parts, fmt.Sprintf("%s=undef", f.Series.Timeframe))
			continue
		}
		counted++
		if inDirection(in.Direction, rsi-50.0) {
			aligned++
		}
		parts = append(parts, fmt.Sprintf("%s=%.1f", f.Series.Timeframe, rsi))
	}

	if counted == 0 {
		return failClosed(NameRSIZoneAlignment, "rsi_14 on all frames")
	}

	detail := fmt.Sprintf("RSI %s 50 on %d/%d frames (need >=%d): %s",
		sideWord(in.Direction), aligned, len(in.Frames), in.Config.MinAlignedFrames, strings.Join(parts, " "))
	if aligned >= in.Config.MinAlignedFrames {
		return pass(NameRSIZoneAlignment, "%s", detail)
	}
	return fail(NameRSIZoneAlignment, "%s", detail)
}

// rsiHTFAgreement checks that RSI momentum direction is consistent across
// the two higher timeframes: both must have moved in the trade direction
// over the configured lookback.
func rsiHTFAgreement(in Inputs) Result {
	lb := in.Config.RSIMomentumLookback
	var parts []string

	for _, f := range in.higherFrames() {
		last := f.Ind.Len() - 1
		now, okNow := f.Ind.At(indicators.NameRSI14, last)
		then, okThen := f.Ind.At(indicators.NameRSI14, last-lb)
		if !okNow || !okThen {
			return failClosed(NameRSIHTFAgreement, fmt.Sprintf("rsi_14 momentum on %s", f.Series.Timeframe))
		}
		if !inDirection(in.Direction, now-then) {
			return fail(NameRSIHTFAgreement, "%s RSI %.1f -> %.1f moved against %s",
				f.Series.Timeframe, then, now, in.Direction)
		}
		parts = append(parts, fmt.Sprintf("%s %.1f->%.1f", f.Series.Timeframe, then, now))
	}

	return pass(NameRSIHTFAgreement, "RSI momentum agrees on higher frames: %s", strings.Join(parts, ", "))
}

// macdAlignment requires the MACD histogram sign to match the trade
// direction on at least MinAlignedFrames frames.
func macdAlignment(in Inputs) Result {
	aligned, counted := 0, 0
	var parts []string

	for _, f := range in.Frames {
		hist, ok := f.Ind.Last(indicators.NameMACDHist)
		if !ok {
			parts = append(parts, fmt.Sprintf("%s=undef", f.Series.Timeframe))
			continue
		}
		counted++
		if inDirection(in.Direction, hist) {
			aligned++
		}
		parts = append(parts, fmt.Sprintf("%s=%.5f", f.Series.Timeframe, hist))
	}

	if counted == 0 {
		return failClosed(NameMACDAlignment, "macd_hist on all frames")
	}

	detail := fmt.Sprintf("MACD histogram with %s on %d/%d frames (need >=%d): %s",
		in.Direction, aligned, len(in.Frames), in.Config.MinAlignedFrames, strings.Join(parts, " "))
	if aligned >= in.Config.MinAlignedFrames {
		return pass(NameMACDAlignment, "%s", detail)
	}
	return fail(NameMACDAlignment, "%s", detail)
}

// adxTrendFloor averages ADX across all frames and compares against the
// configured floor. Every frame must have a defined ADX.
func adxTrendFloor(in Inputs) Result {
	sum := 0.0
	var parts []string

	for _, f := range in.Frames {
		adx, ok := f.Ind.Last(indicators.NameADX)
		if !ok {
			return failClosed(NameADXTrendFloor, fmt.Sprintf("adx on %s", f.Series.Timeframe))
		}
		sum += adx
		parts = append(parts, fmt.Sprintf("%s=%.1f", f.Series.Timeframe, adx))
	}

	avg := sum / float64(len(in.Frames))
	detail := fmt.Sprintf("avg ADX %.1f vs floor %.1f (%s)", avg, in.Config.ADXFloor, strings.Join(parts, " "))
	if avg >= in.Config.ADXFloor {
		return pass(NameADXTrendFloor, "%s", detail)
	}
	return fail(NameADXTrendFloor, "%s", detail)
}

// stochConfirmation wants the stochastic crossed in the trade direction on
// the basis frame without being overextended.
func stochConfirmation(in Inputs) Result {
	f := in.basis()
	k, okK := f.Ind.Last(indicators.NameStochK)
	d, okD := f.Ind.Last(indicators.NameStochD)
	if !okK || !okD {
		return failClosed(NameStochConfirmation, "stochastic on basis frame")
	}

	over := in.Config.StochOverbought
	if in.Direction == trade.Long {
		if k <= d {
			return fail(NameStochConfirmation, "%%K %.1f <= %%D %.1f, no bullish cross", k, d)
		}
		if k >= over {
			return fail(NameStochConfirmation, "%%K %.1f >= %.1f, overbought", k, over)
		}
		return pass(NameStochConfirmation, "%%K %.1f > %%D %.1f below %.1f", k, d, over)
	}

	under := 100.0 - over
	if k >= d {
		return fail(NameStochConfirmation, "%%K %.1f >= %%D %.1f, no bearish cross", k, d)
	}
	if k <= under {
		return fail(NameStochConfirmation, "%%K %.1f <= %.1f, oversold", k, under)
	}
	return pass(NameStochConfirmation, "%%K %.1f < %%D %.1f above %.1f", k, d, under)
}
