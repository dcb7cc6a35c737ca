// Package criteria implements the fixed battery of 20 technical checks a
// candidate trade is scored against. Criteria are independent pure
// functions over per-timeframe indicator sets; evaluation order is fixed
// and has no side effects. A criterion whose required indicator values are
// undefined fails closed, it never passes on missing data.
package criteria

import (
	"fmt"
	"time"

	"github.com/tradeforge/signalcore/internal/domain/candles"
	"github.com/tradeforge/signalcore/internal/domain/indicators"
	"github.com/tradeforge/signalcore/internal/domain/sessions"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Result is the outcome of one criterion. Detail carries the numeric
// evidence behind the verdict.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// Frame pairs one timeframe's candle series with its derived indicators.
type Frame struct {
	Series *candles.Series
	Ind    *indicators.Set
}

// Inputs is everything one evaluation needs. Frames are ordered from the
// shortest to the longest timeframe; BasisIndex selects the timeframe the
// entry is graded on.
type Inputs struct {
	Instrument string
	Direction  trade.Direction
	Frames     []Frame
	BasisIndex int
	Now        time.Time
	Sessions   sessions.Windows
	Config     Config
}

// Config carries the per-instrument-class thresholds the battery runs
// with. Resolved once at evaluation start.
type Config struct {
	// Alignment family
	MinAlignedFrames  int     `yaml:"min_aligned_frames"`
	ADXFloor          float64 `yaml:"adx_floor"`
	StochOverbought   float64 `yaml:"stoch_overbought"`
	RSIMomentumLookback int   `yaml:"rsi_momentum_lookback"`

	// Structure family
	SwingStrength        int     `yaml:"swing_strength"`
	SwingLookback        int     `yaml:"swing_lookback"`
	ProximityATR         float64 `yaml:"proximity_atr"`
	BreakoutRangeBars    int     `yaml:"breakout_range_bars"`
	BreakoutRangeMaxATR  float64 `yaml:"breakout_range_max_atr"`
	BreakoutProximityATR float64 `yaml:"breakout_proximity_atr"`
	ImpulseVolumeFactor  float64 `yaml:"impulse_volume_factor"`

	// Context family
	ATRBandMinPct     float64   `yaml:"atr_band_min_pct"`
	ATRBandMaxPct     float64   `yaml:"atr_band_max_pct"`
	BandwidthMinPct   float64   `yaml:"bandwidth_min_pct"`
	BandwidthMaxPct   float64   `yaml:"bandwidth_max_pct"`
	StopATRMultiplier float64   `yaml:"stop_atr_multiplier"`
	MinRewardRisk     float64   `yaml:"min_reward_risk"`
}

// DefaultConfig returns battery thresholds suitable for FX majors.
// Instrument classes override the volatility and bandwidth bands.
func DefaultConfig() Config {
	return Config{
		MinAlignedFrames:    3,
		ADXFloor:            20.0,
		StochOverbought:     80.0,
		RSIMomentumLookback: 3,

		SwingStrength:        2,
		SwingLookback:        60,
		ProximityATR:         1.5,
		BreakoutRangeBars:    20,
		BreakoutRangeMaxATR:  4.0,
		BreakoutProximityATR: 0.5,
		ImpulseVolumeFactor:  1.3,

		ATRBandMinPct:     0.02,
		ATRBandMaxPct:     3.0,
		BandwidthMinPct:   0.2,
		BandwidthMaxPct:   8.0,
		StopATRMultiplier: 1.5,
		MinRewardRisk:     2.0,
	}
}

// Criterion names, in the fixed, documented evaluation order.
const (
	NameEMAPriceAlignment  = "ema_price_alignment"
	NameEMAStack           = "ema_stack"
	NameRSIZoneAlignment   = "rsi_zone_alignment"
	NameRSIHTFAgreement    = "rsi_htf_agreement"
	NameMACDAlignment      = "macd_histogram_alignment"
	NameADXTrendFloor      = "adx_trend_floor"
	NameStochConfirmation  = "stochastic_confirmation"
	NameSwingProximity     = "swing_level_proximity"
	NameStructureContinue  = "structure_continuation"
	NameBreakoutProximity  = "breakout_proximity"
	NameDivergenceAbsence  = "divergence_absence"
	NameStructureBreak     = "structure_break"
	NameImpulseVolume      = "impulse_volume"
	NameBollingerPosition  = "bollinger_position"
	NameSessionFit         = "session_fit"
	NameVolatilityRegime   = "volatility_regime"
	NameRewardRiskPrecheck = "reward_risk_precheck"
	NameVolumeBaseline     = "volume_baseline"
	NameBollingerBandwidth = "bollinger_bandwidth"
	NameDailyBias          = "daily_bias"
)

type criterion struct {
	name string
	eval func(in Inputs) Result
}

// battery is the full ordered criterion list. Exactly 20 entries; a check
// with no real logic does not belong here.
var battery = []criterion{
	{NameEMAPriceAlignment, emaPriceAlignment},
	{NameEMAStack, emaStack},
	{NameRSIZoneAlignment, rsiZoneAlignment},
	{NameRSIHTFAgreement, rsiHTFAgreement},
	{NameMACDAlignment, macdAlignment},
	{NameADXTrendFloor, adxTrendFloor},
	{NameStochConfirmation, stochConfirmation},
	{NameSwingProximity, swingProximity},
	{NameStructureContinue, structureContinuation},
	{NameBreakoutProximity, breakoutProximity},
	{NameDivergenceAbsence, divergenceAbsence},
	{NameStructureBreak, structureBreak},
	{NameImpulseVolume, impulseVolume},
	{NameBollingerPosition, bollingerPosition},
	{NameSessionFit, sessionFit},
	{NameVolatilityRegime, volatilityRegime},
	{NameRewardRiskPrecheck, rewardRiskPrecheck},
	{NameVolumeBaseline, volumeBaseline},
	{NameBollingerBandwidth, bollingerBandwidth},
	{NameDailyBias, dailyBias},
}

// Count is the size of the criterion battery.
const Count = 20

// Names returns the criterion names in evaluation order.
func Names() []string {
	out := make([]string, len(battery))
	for i, c := range battery {
		out[i] = c.name
	}
	return out
}

// Evaluate runs the full battery and returns exactly Count results in the
// fixed order. It errors only on malformed inputs, never on market
// conditions.
func Evaluate(in Inputs) ([]Result, error) {
	if len(in.Frames) == 0 {
		return nil, fmt.Errorf("criteria: no frames supplied for %s", in.Instrument)
	}
	if in.BasisIndex < 0 || in.BasisIndex >= len(in.Frames) {
		return nil, fmt.Errorf("criteria: basis index %d out of range for %d frames", in.BasisIndex, len(in.Frames))
	}
	if !in.Direction.Valid() {
		return nil, fmt.Errorf("criteria: invalid direction %q", in.Direction)
	}

	results := make([]Result, 0, len(battery))
	for _, c := range battery {
		results = append(results, c.eval(in))
	}
	return results, nil
}

// basis returns the frame the entry is graded on.
func (in Inputs) basis() Frame {
	return in.Frames[in.BasisIndex]
}

// higherFrames returns the two longest timeframes (or fewer when the
// instrument is configured with fewer frames).
func (in Inputs) higherFrames() []Frame {
	if len(in.Frames) <= 2 {
		return in.Frames
	}
	return in.Frames[len(in.Frames)-2:]
}

// highest returns the longest configured timeframe.
func (in Inputs) highest() Frame {
	return in.Frames[len(in.Frames)-1]
}

func pass(name, format string, args ...any) Result {
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf(format, args...)}
}

func fail(name, format string, args ...any) Result {
	return Result{Name: name, Passed: false, Detail: fmt.Sprintf(format, args...)}
}

// failClosed is the verdict for any criterion that cannot see the data it
// needs.
func failClosed(name, what string) Result {
	return Result{Name: name, Passed: false, Detail: what + " undefined, failing closed"}
}

func sideWord(d trade.Direction) string {
	if d == trade.Short {
		return "below"
	}
	return "above"
}

// inDirection maps a signed distance onto the trade direction: positive
// favors LONG, negative favors SHORT.
func inDirection(d trade.Direction, signed float64) bool {
	if d == trade.Short {
		return signed < 0
	}
	return signed > 0
}
