// Package admission is the final gate before a candidate becomes a
// signal: a hard session check against the instrument's preferred
// windows, and a correlation veto over the live signal set that runs
// inside the registry lock.
package admission

import (
	"fmt"
	"strings"
	"time"

	"github.com/tradeforge/signalcore/internal/domain/sessions"
	"github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Pairing is one symmetric entry of the correlation table.
type Pairing struct {
	A           string  `yaml:"a" validate:"required"`
	B           string  `yaml:"b" validate:"required"`
	Coefficient float64 `yaml:"coefficient" validate:"gte=-1,lte=1"`
}

// CorrelationTable maps instrument pairs to coefficients. Pairs absent
// from the table are treated as uncorrelated; an instrument is always
// fully correlated with itself.
type CorrelationTable struct {
	Threshold float64   `yaml:"threshold" validate:"required,gt=0,lte=1"`
	Pairs     []Pairing `yaml:"pairs" validate:"dive"`
}

// Coefficient looks up the symmetric coefficient for a, b.
func (t CorrelationTable) Coefficient(a, b string) float64 {
	if strings.EqualFold(a, b) {
		return 1.0
	}
	for _, p := range t.Pairs {
		if (strings.EqualFold(p.A, a) && strings.EqualFold(p.B, b)) ||
			(strings.EqualFold(p.A, b) && strings.EqualFold(p.B, a)) {
			return p.Coefficient
		}
	}
	return 0
}

// ConflictError reports a correlation conflict between the candidate and
// an already active signal.
type ConflictError struct {
	Candidate   string
	Direction   trade.Direction
	ActiveID    string
	Active      string
	ActiveSide  trade.Direction
	Coefficient float64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("admission: %s %s conflicts with active %s %s (correlation %.2f)",
		e.Candidate, e.Direction, e.Active, e.ActiveSide, e.Coefficient)
}

// Filter applies session and correlation admission rules.
type Filter struct {
	table CorrelationTable
}

func NewFilter(table CorrelationTable) *Filter {
	return &Filter{table: table}
}

// SessionOpen is the hard session gate: the candidate is admissible only
// while one of the instrument's preferred windows is open. An empty
// window set always admits.
func (f *Filter) SessionOpen(windows sessions.Windows, now time.Time) (sessions.Window, bool, error) {
	return windows.Match(now)
}

// CorrelationVeto builds the closure the registry runs under its lock.
// A conflict exists when the coefficient's magnitude reaches the
// threshold and the combined exposure is contradictory: opposing
// directions under positive correlation, or aligned directions under
// negative correlation. Expired signals never veto; the registry only
// hands live ones to the closure.
func (f *Filter) CorrelationVeto(instrument string, dir trade.Direction) func(active []signal.Signal) error {
	return func(active []signal.Signal) error {
		for _, sig := range active {
			coef := f.table.Coefficient(instrument, sig.Instrument)
			if abs(coef) < f.table.Threshold {
				continue
			}
			opposed := dir.Opposes(sig.Direction)
			if (coef > 0 && opposed) || (coef < 0 && !opposed) {
				return &ConflictError{
					Candidate:   instrument,
					Direction:   dir,
					ActiveID:    sig.ID,
					Active:      sig.Instrument,
					ActiveSide:  sig.Direction,
					Coefficient: coef,
				}
			}
		}
		return nil
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
