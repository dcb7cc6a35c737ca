package indicators

import (
	"fmt"

	"github.com/tradeforge/signalcore/internal/domain/candles"
)

// Kind enumerates the supported indicator calculators.
type Kind string

const (
	KindSMA       Kind = "sma"
	KindEMA       Kind = "ema"
	KindRSI       Kind = "rsi"
	KindATR       Kind = "atr"
	KindADX       Kind = "adx"
	KindStochK    Kind = "stoch_k"
	KindStochD    Kind = "stoch_d"
	KindMACDHist  Kind = "macd_hist"
	KindBollUpper Kind = "bollinger_upper"
	KindBollMid   Kind = "bollinger_mid"
	KindBollLower Kind = "bollinger_lower"
	KindVolumeSMA Kind = "volume_sma"
)

// Request names one indicator series to derive from a candle series.
type Request struct {
	Name   string // key in the resulting Set, e.g. "ema_20"
	Kind   Kind
	Period int
	// Smooth is the %K smoothing (stochastic) or signal period (MACD).
	Smooth int
	// DPeriod is the stochastic %D period.
	DPeriod int
	// Fast/Slow are the MACD EMA periods.
	Fast, Slow int
	// Width is the Bollinger stddev multiplier.
	Width float64
}

// Lookback returns the number of leading bars consumed before the first
// defined value.
func (r Request) Lookback() int {
	switch r.Kind {
	case KindSMA, KindEMA, KindBollUpper, KindBollMid, KindBollLower, KindVolumeSMA:
		return r.Period - 1
	case KindRSI, KindATR:
		return r.Period
	case KindADX:
		return 2*r.Period - 1
	case KindStochK:
		return r.Period - 1 + r.Smooth - 1
	case KindStochD:
		return r.Period - 1 + r.Smooth - 1 + r.DPeriod - 1
	case KindMACDHist:
		return r.Slow + r.Smooth - 2
	default:
		return 0
	}
}

// InsufficientDataError reports a series too short for a requested
// indicator. It is fatal for the evaluation request: callers must not
// retry without more data, and must never fold it into a grade.
type InsufficientDataError struct {
	Instrument string
	Timeframe  candles.Timeframe
	Indicator  string
	Need       int
	Have       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s on %s %s: need %d bars, have %d",
		e.Indicator, e.Instrument, e.Timeframe, e.Need, e.Have)
}

// Set maps indicator names to series aligned with the source candle
// series. Derived per request and never mutated in place.
type Set struct {
	length int
	series map[string][]float64
}

// Compute derives every requested indicator from the series. It fails with
// InsufficientDataError as soon as any request needs more bars than the
// series holds (lookback+1 is the minimum usable length).
func Compute(s *candles.Series, reqs []Request) (*Set, error) {
	set := &Set{
		length: s.Len(),
		series: make(map[string][]float64, len(reqs)),
	}

	highs, lows, closes, volumes := s.Highs(), s.Lows(), s.Closes(), s.Volumes()

	for _, req := range reqs {
		if need := req.Lookback() + 1; s.Len() < need {
			return nil, &InsufficientDataError{
				Instrument: s.Instrument,
				Timeframe:  s.Timeframe,
				Indicator:  req.Name,
				Need:       need,
				Have:       s.Len(),
			}
		}

		switch req.Kind {
		case KindSMA:
			set.series[req.Name] = SMA(closes, req.Period)
		case KindEMA:
			set.series[req.Name] = EMA(closes, req.Period)
		case KindRSI:
			set.series[req.Name] = WilderRSI(closes, req.Period)
		case KindATR:
			set.series[req.Name] = WilderATR(highs, lows, closes, req.Period)
		case KindADX:
			set.series[req.Name] = ADX(highs, lows, closes, req.Period)
		case KindStochK:
			k, _ := Stochastic(highs, lows, closes, req.Period, req.Smooth, req.DPeriod)
			set.series[req.Name] = k
		case KindStochD:
			_, d := Stochastic(highs, lows, closes, req.Period, req.Smooth, req.DPeriod)
			set.series[req.Name] = d
		case KindMACDHist:
			set.series[req.Name] = MACDHistogram(closes, req.Fast, req.Slow, req.Smooth)
		case KindBollUpper:
			u, _, _ := Bollinger(closes, req.Period, req.Width)
			set.series[req.Name] = u
		case KindBollMid:
			_, m, _ := Bollinger(closes, req.Period, req.Width)
			set.series[req.Name] = m
		case KindBollLower:
			_, _, l := Bollinger(closes, req.Period, req.Width)
			set.series[req.Name] = l
		case KindVolumeSMA:
			set.series[req.Name] = SMA(volumes, req.Period)
		default:
			return nil, fmt.Errorf("unknown indicator kind %q for %s", req.Kind, req.Name)
		}
	}

	return set, nil
}

// Len returns the aligned series length.
func (s *Set) Len() int {
	return s.length
}

// Series returns the named series, or nil if it was not requested.
func (s *Set) Series(name string) []float64 {
	return s.series[name]
}

// At returns the value at index i and whether it is defined.
func (s *Set) At(name string, i int) (float64, bool) {
	vals, ok := s.series[name]
	if !ok || i < 0 || i >= len(vals) {
		return 0, false
	}
	if !Defined(vals[i]) {
		return 0, false
	}
	return vals[i], true
}

// Last returns the most recent value of the named series and whether it
// is defined.
func (s *Set) Last(name string) (float64, bool) {
	return s.At(name, s.length-1)
}

// Standard indicator names used by the criterion battery.
const (
	NameEMA20     = "ema_20"
	NameEMA50     = "ema_50"
	NameRSI14     = "rsi_14"
	NameATR14     = "atr_14"
	NameADX       = "adx"
	NameStochK    = "stochastic_k"
	NameStochD    = "stochastic_d"
	NameMACDHist  = "macd_hist"
	NameBollUpper = "bollinger_upper"
	NameBollMid   = "bollinger_mid"
	NameBollLower = "bollinger_lower"
	NameVolSMA20  = "volume_sma_20"
)

// StandardBattery is the indicator set every timeframe is evaluated with.
func StandardBattery() []Request {
	return []Request{
		{Name: NameEMA20, Kind: KindEMA, Period: 20},
		{Name: NameEMA50, Kind: KindEMA, Period: 50},
		{Name: NameRSI14, Kind: KindRSI, Period: 14},
		{Name: NameATR14, Kind: KindATR, Period: 14},
		{Name: NameADX, Kind: KindADX, Period: 14},
		{Name: NameStochK, Kind: KindStochK, Period: 14, Smooth: 3, DPeriod: 3},
		{Name: NameStochD, Kind: KindStochD, Period: 14, Smooth: 3, DPeriod: 3},
		{Name: NameMACDHist, Kind: KindMACDHist, Fast: 12, Slow: 26, Smooth: 9},
		{Name: NameBollUpper, Kind: KindBollUpper, Period: 20, Width: 2.0},
		{Name: NameBollMid, Kind: KindBollMid, Period: 20, Width: 2.0},
		{Name: NameBollLower, Kind: KindBollLower, Period: 20, Width: 2.0},
		{Name: NameVolSMA20, Kind: KindVolumeSMA, Period: 20},
	}
}
