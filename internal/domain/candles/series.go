package candles

import (
	"fmt"
	"time"
)

// Timeframe identifies the bar granularity of a series.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// Duration returns the nominal bar length for the timeframe.
func (tf Timeframe) Duration() time.Duration {
	switch tf {
	case TF15m:
		return 15 * time.Minute
	case TF1h:
		return time.Hour
	case TF4h:
		return 4 * time.Hour
	case TF1d:
		return 24 * time.Hour
	default:
		return 0
	}
}

func (tf Timeframe) Valid() bool {
	return tf.Duration() > 0
}

// ParseTimeframe validates a configured timeframe string.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if !tf.Valid() {
		return "", fmt.Errorf("unknown timeframe %q (want 15m|1h|4h|1d)", s)
	}
	return tf, nil
}

// Candle is one OHLCV bar.
type Candle struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Gap records a hole in a series larger than the bar granularity.
// Gaps are flagged, never filled: downstream math sees only real bars.
type Gap struct {
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Missing int       `json:"missing"`
}

// Series is an immutable, chronologically ordered OHLCV series for one
// (instrument, timeframe) pair.
type Series struct {
	Instrument string
	Timeframe  Timeframe
	Candles    []Candle
	Gaps       []Gap
}

// NewSeries validates ordering and flags gaps. Timestamps must be strictly
// increasing; a spacing larger than the timeframe granularity is recorded
// as a Gap.
func NewSeries(instrument string, tf Timeframe, bars []Candle) (*Series, error) {
	if !tf.Valid() {
		return nil, fmt.Errorf("series %s: invalid timeframe %q", instrument, tf)
	}

	step := tf.Duration()
	var gaps []Gap

	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1].Timestamp, bars[i].Timestamp
		if !cur.After(prev) {
			return nil, fmt.Errorf("series %s %s: timestamps not strictly increasing at index %d (%s -> %s)",
				instrument, tf, i, prev.Format(time.RFC3339), cur.Format(time.RFC3339))
		}
		if spacing := cur.Sub(prev); spacing > step {
			gaps = append(gaps, Gap{
				From:    prev,
				To:      cur,
				Missing: int(spacing/step) - 1,
			})
		}
	}

	return &Series{
		Instrument: instrument,
		Timeframe:  tf,
		Candles:    bars,
		Gaps:       gaps,
	}, nil
}

func (s *Series) Len() int {
	return len(s.Candles)
}

// Last returns the most recent bar. The caller must ensure Len() > 0.
func (s *Series) Last() Candle {
	return s.Candles[len(s.Candles)-1]
}

// Opens returns the open column as a slice aligned with the series.
func (s *Series) Opens() []float64 {
	return s.column(func(c Candle) float64 { return c.Open })
}

func (s *Series) Highs() []float64 {
	return s.column(func(c Candle) float64 { return c.High })
}

func (s *Series) Lows() []float64 {
	return s.column(func(c Candle) float64 { return c.Low })
}

func (s *Series) Closes() []float64 {
	return s.column(func(c Candle) float64 { return c.Close })
}

func (s *Series) Volumes() []float64 {
	return s.column(func(c Candle) float64 { return c.Volume })
}

func (s *Series) column(get func(Candle) float64) []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = get(c)
	}
	return out
}
