// Package risk computes the ATR-sized stop, targets and reward:risk
// envelope for a candidate that already cleared the score gate.
// Deterministic given its inputs; no lookups beyond the indicator set
// already computed upstream.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// TargetPolicy pins down which take-profit level the reward:risk
// admissibility check uses. Deliberately explicit configuration: the first
// target is the conservative read, the best target the permissive one.
type TargetPolicy string

const (
	PolicyFirstTarget TargetPolicy = "first"
	PolicyBestTarget  TargetPolicy = "best"
)

func (p TargetPolicy) Valid() bool {
	return p == PolicyFirstTarget || p == PolicyBestTarget
}

// Config is the per-instrument-class envelope parameterization.
type Config struct {
	StopATRMultiplier float64      `yaml:"stop_atr_multiplier" validate:"required,gt=0"`
	TargetMultipliers []float64    `yaml:"target_multipliers" validate:"required,min=1,max=3,dive,gt=0"`
	MinRewardRisk     float64      `yaml:"min_reward_risk" validate:"required,gt=0"`
	TargetPolicy      TargetPolicy `yaml:"target_policy" validate:"required,oneof=first best"`
}

// Envelope is the computed risk frame. Price levels are decimals so the
// published stop and targets do not pick up float formatting noise.
type Envelope struct {
	Entry        decimal.Decimal   `json:"entry"`
	StopLoss     decimal.Decimal   `json:"stop_loss"`
	TakeProfit   []decimal.Decimal `json:"take_profit"`
	StopDistance decimal.Decimal   `json:"stop_distance"`
	RewardRisk   decimal.Decimal   `json:"reward_risk_ratio"`
}

// Compute builds the envelope: stop at entry -/+ ATR*multiplier by
// direction, targets laddered at stop_distance*multiplier[i], and the
// reward:risk ratio of the policy-selected target.
func Compute(dir trade.Direction, entry, atr float64, cfg Config) (Envelope, error) {
	if !dir.Valid() {
		return Envelope{}, fmt.Errorf("risk: invalid direction %q", dir)
	}
	if entry <= 0 {
		return Envelope{}, fmt.Errorf("risk: entry %.6f not positive", entry)
	}
	if atr <= 0 {
		return Envelope{}, fmt.Errorf("risk: ATR %.6f not positive", atr)
	}
	if cfg.StopATRMultiplier <= 0 || len(cfg.TargetMultipliers) == 0 {
		return Envelope{}, fmt.Errorf("risk: config missing stop/target multipliers")
	}
	if !cfg.TargetPolicy.Valid() {
		return Envelope{}, fmt.Errorf("risk: invalid target policy %q", cfg.TargetPolicy)
	}

	entryD := decimal.NewFromFloat(entry)
	stopDist := decimal.NewFromFloat(atr).Mul(decimal.NewFromFloat(cfg.StopATRMultiplier))
	sign := decimal.NewFromFloat(dir.Sign())

	stopLoss := entryD.Sub(stopDist.Mul(sign))

	targets := make([]decimal.Decimal, len(cfg.TargetMultipliers))
	best := decimal.Zero
	for i, mult := range cfg.TargetMultipliers {
		multD := decimal.NewFromFloat(mult)
		targets[i] = entryD.Add(stopDist.Mul(multD).Mul(sign))
		if multD.GreaterThan(best) {
			best = multD
		}
	}

	// RR of target i is (tp_i-entry)/stop by construction, i.e. the target
	// multiplier itself; the policy picks which one is binding.
	rr := decimal.NewFromFloat(cfg.TargetMultipliers[0])
	if cfg.TargetPolicy == PolicyBestTarget {
		rr = best
	}

	return Envelope{
		Entry:        entryD,
		StopLoss:     stopLoss,
		TakeProfit:   targets,
		StopDistance: stopDist,
		RewardRisk:   rr,
	}, nil
}

// Admissible applies the reward:risk floor. A false verdict carries the
// numeric evidence for the rejection.
func (e Envelope) Admissible(minRewardRisk float64) (bool, string) {
	min := decimal.NewFromFloat(minRewardRisk)
	if e.RewardRisk.GreaterThanOrEqual(min) {
		return true, fmt.Sprintf("reward:risk %s >= %s", e.RewardRisk, min)
	}
	return false, fmt.Sprintf("reward:risk %s < minimum %s", e.RewardRisk, min)
}
