// Package config loads and validates the engine configuration: the
// evaluation thresholds, per-class risk envelopes and sessions, the
// instrument universe, and the correlation table. Risk-affecting fields
// have no defaults; a class that omits its stop multiplier fails to load
// rather than trading on an implicit value.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/signalcore/internal/domain/admission"
	"github.com/tradeforge/signalcore/internal/domain/criteria"
	"github.com/tradeforge/signalcore/internal/domain/risk"
	"github.com/tradeforge/signalcore/internal/domain/scoring"
	"github.com/tradeforge/signalcore/internal/domain/sessions"
)

// Duration wraps time.Duration so yaml accepts "4h30m" strings.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Evaluation holds the scoring thresholds shared by every instrument.
type Evaluation struct {
	MinScore int             `yaml:"min_score" validate:"omitempty,gte=0,lte=20"`
	Criteria criteria.Config `yaml:"criteria"`
}

// Class parameterizes one instrument class: its risk envelope, preferred
// sessions, criterion threshold overrides and signal validity window.
// SessionHardGate makes an off-session candidate a REJECTED_SESSION
// instead of just costing the session_fit criterion point.
type Class struct {
	Risk            risk.Config      `yaml:"risk"`
	Sessions        sessions.Windows `yaml:"sessions" validate:"dive"`
	SessionHardGate bool             `yaml:"session_hard_gate"`
	Criteria        criteria.Config  `yaml:"criteria"`
	Validity        Duration         `yaml:"validity"`
}

// Instrument binds a symbol to its class.
type Instrument struct {
	Symbol string `yaml:"symbol" validate:"required"`
	Class  string `yaml:"class" validate:"required"`
}

// Config is the root document.
type Config struct {
	Evaluation  Evaluation                 `yaml:"evaluation"`
	Classes     map[string]Class           `yaml:"classes" validate:"required,min=1"`
	Instruments []Instrument               `yaml:"instruments" validate:"required,min=1,dive"`
	Correlation admission.CorrelationTable `yaml:"correlation"`
}

// Resolved is the flattened view for one instrument, looked up once per
// evaluation cycle so a mid-cycle reload cannot mix parameter sets.
type Resolved struct {
	Instrument      string
	Class           string
	MinScore        int
	Criteria        criteria.Config
	Risk            risk.Config
	Sessions        sessions.Windows
	SessionHardGate bool
	Validity        time.Duration
}

// Load reads, defaults and validates the document at path.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse decodes and validates a raw yaml document.
func Parse(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills the evaluation thresholds only. Criterion defaults
// merge per field so a partial block never zeroes the rest of the
// battery. Class risk fields stay untouched so Validate can reject
// missing ones.
func (c *Config) applyDefaults() {
	if c.Evaluation.MinScore == 0 {
		c.Evaluation.MinScore = scoring.DefaultMinScore
	}
	c.Evaluation.Criteria = overlayCriteria(criteria.DefaultConfig(), c.Evaluation.Criteria)
	if c.Correlation.Threshold == 0 {
		c.Correlation.Threshold = 0.7
	}
}

// overlayCriteria lays the non-zero fields of over on top of base. Zero
// means inherit; the battery has no meaningful zero thresholds, so an
// explicit zero is indistinguishable from absent and Validate rejects
// the merged result if anything stayed non-positive.
func overlayCriteria(base, over criteria.Config) criteria.Config {
	if over.MinAlignedFrames != 0 {
		base.MinAlignedFrames = over.MinAlignedFrames
	}
	if over.ADXFloor != 0 {
		base.ADXFloor = over.ADXFloor
	}
	if over.StochOverbought != 0 {
		base.StochOverbought = over.StochOverbought
	}
	if over.RSIMomentumLookback != 0 {
		base.RSIMomentumLookback = over.RSIMomentumLookback
	}
	if over.SwingStrength != 0 {
		base.SwingStrength = over.SwingStrength
	}
	if over.SwingLookback != 0 {
		base.SwingLookback = over.SwingLookback
	}
	if over.ProximityATR != 0 {
		base.ProximityATR = over.ProximityATR
	}
	if over.BreakoutRangeBars != 0 {
		base.BreakoutRangeBars = over.BreakoutRangeBars
	}
	if over.BreakoutRangeMaxATR != 0 {
		base.BreakoutRangeMaxATR = over.BreakoutRangeMaxATR
	}
	if over.BreakoutProximityATR != 0 {
		base.BreakoutProximityATR = over.BreakoutProximityATR
	}
	if over.ImpulseVolumeFactor != 0 {
		base.ImpulseVolumeFactor = over.ImpulseVolumeFactor
	}
	if over.ATRBandMinPct != 0 {
		base.ATRBandMinPct = over.ATRBandMinPct
	}
	if over.ATRBandMaxPct != 0 {
		base.ATRBandMaxPct = over.ATRBandMaxPct
	}
	if over.BandwidthMinPct != 0 {
		base.BandwidthMinPct = over.BandwidthMinPct
	}
	if over.BandwidthMaxPct != 0 {
		base.BandwidthMaxPct = over.BandwidthMaxPct
	}
	if over.StopATRMultiplier != 0 {
		base.StopATRMultiplier = over.StopATRMultiplier
	}
	if over.MinRewardRisk != 0 {
		base.MinRewardRisk = over.MinRewardRisk
	}
	return base
}

// validateCriteria rejects any merged threshold that is not positive;
// a zero or negative count/factor would let criteria pass trivially.
func validateCriteria(scope string, cfg criteria.Config) error {
	checks := []struct {
		field string
		ok    bool
	}{
		{"criteria.min_aligned_frames", cfg.MinAlignedFrames > 0},
		{"criteria.adx_floor", cfg.ADXFloor > 0},
		{"criteria.stoch_overbought", cfg.StochOverbought > 0},
		{"criteria.rsi_momentum_lookback", cfg.RSIMomentumLookback > 0},
		{"criteria.swing_strength", cfg.SwingStrength > 0},
		{"criteria.swing_lookback", cfg.SwingLookback > 0},
		{"criteria.proximity_atr", cfg.ProximityATR > 0},
		{"criteria.breakout_range_bars", cfg.BreakoutRangeBars > 0},
		{"criteria.breakout_range_max_atr", cfg.BreakoutRangeMaxATR > 0},
		{"criteria.breakout_proximity_atr", cfg.BreakoutProximityATR > 0},
		{"criteria.impulse_volume_factor", cfg.ImpulseVolumeFactor > 0},
		{"criteria.atr_band_min_pct", cfg.ATRBandMinPct > 0},
		{"criteria.atr_band_max_pct", cfg.ATRBandMaxPct > 0},
		{"criteria.bandwidth_min_pct", cfg.BandwidthMinPct > 0},
		{"criteria.bandwidth_max_pct", cfg.BandwidthMaxPct > 0},
		{"criteria.stop_atr_multiplier", cfg.StopATRMultiplier > 0},
		{"criteria.min_reward_risk", cfg.MinRewardRisk > 0},
	}
	for _, check := range checks {
		if !check.ok {
			return &ConfigurationError{Instrument: scope, Field: check.field, Reason: "must be positive"}
		}
	}
	return nil
}

// Validate checks the document structurally and then cross-checks the
// risk-affecting class fields, reporting the first problem per class as
// a ConfigurationError.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if err := validateCriteria("evaluation", c.Evaluation.Criteria); err != nil {
		return err
	}

	for name, class := range c.Classes {
		if err := validateClass(name, class); err != nil {
			return err
		}
		if err := validateCriteria(name, overlayCriteria(c.Evaluation.Criteria, class.Criteria)); err != nil {
			return err
		}
	}

	for _, inst := range c.Instruments {
		if _, ok := c.Classes[inst.Class]; !ok {
			return &ConfigurationError{
				Instrument: inst.Symbol,
				Field:      "class",
				Reason:     fmt.Sprintf("references unknown class %q", inst.Class),
			}
		}
	}
	return nil
}

func validateClass(name string, class Class) error {
	if class.Risk.StopATRMultiplier <= 0 {
		return &ConfigurationError{Instrument: name, Field: "risk.stop_atr_multiplier", Reason: "must be set and positive"}
	}
	if len(class.Risk.TargetMultipliers) == 0 {
		return &ConfigurationError{Instrument: name, Field: "risk.target_multipliers", Reason: "at least one target multiplier required"}
	}
	for _, m := range class.Risk.TargetMultipliers {
		if m <= 0 {
			return &ConfigurationError{Instrument: name, Field: "risk.target_multipliers", Reason: fmt.Sprintf("multiplier %.3f not positive", m)}
		}
	}
	if class.Risk.MinRewardRisk <= 0 {
		return &ConfigurationError{Instrument: name, Field: "risk.min_reward_risk", Reason: "must be set and positive"}
	}
	if !class.Risk.TargetPolicy.Valid() {
		return &ConfigurationError{Instrument: name, Field: "risk.target_policy", Reason: fmt.Sprintf("%q is not first|best", class.Risk.TargetPolicy)}
	}
	if class.Validity <= 0 {
		return &ConfigurationError{Instrument: name, Field: "validity", Reason: "must be a positive duration"}
	}
	return nil
}

// Resolve flattens the configuration for one instrument.
func (c *Config) Resolve(symbol string) (Resolved, error) {
	for _, inst := range c.Instruments {
		if inst.Symbol != symbol {
			continue
		}
		class, ok := c.Classes[inst.Class]
		if !ok {
			return Resolved{}, &ConfigurationError{Instrument: symbol, Field: "class", Reason: fmt.Sprintf("unknown class %q", inst.Class)}
		}
		return Resolved{
			Instrument:      symbol,
			Class:           inst.Class,
			MinScore:        c.Evaluation.MinScore,
			Criteria:        overlayCriteria(c.Evaluation.Criteria, class.Criteria),
			Risk:            class.Risk,
			Sessions:        class.Sessions,
			SessionHardGate: class.SessionHardGate,
			Validity:        class.Validity.Std(),
		}, nil
	}
	return Resolved{}, &ConfigurationError{Instrument: symbol, Field: "instruments", Reason: "not in configured universe"}
}

// Symbols lists the configured universe in document order.
func (c *Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		out = append(out, inst.Symbol)
	}
	return out
}
