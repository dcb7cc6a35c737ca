package signal

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tradeforge/signalcore/internal/domain/candles"
	"github.com/tradeforge/signalcore/internal/domain/risk"
	"github.com/tradeforge/signalcore/internal/domain/scoring"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Candidate is an admitted evaluation outcome awaiting its final record.
type Candidate struct {
	Instrument     string
	Direction      trade.Direction
	TimeframeBasis candles.Timeframe
	ScoreCard      scoring.ScoreCard
	Envelope       risk.Envelope
	SessionTag     string
	// Validity is the instrument-class validity window stamped onto
	// ValidUntil.
	Validity time.Duration
}

// Builder assembles the immutable Signal and is the registry's only
// writer on the evaluation path.
type Builder struct {
	registry *Registry
	clock    func() time.Time
}

// NewBuilder wires the builder to the shared registry. A nil clock means
// wall time; tests inject their own.
func NewBuilder(registry *Registry, clock func() time.Time) *Builder {
	if clock == nil {
		clock = time.Now
	}
	return &Builder{registry: registry, clock: clock}
}

// Build stamps identity and validity onto the candidate and registers it.
// The veto runs inside the registry lock; on a veto error no signal is
// created and the error is returned unchanged so the caller can surface
// the rejection reason.
func (b *Builder) Build(c Candidate, veto func(active []Signal) error) (*Signal, error) {
	if c.Instrument == "" {
		return nil, fmt.Errorf("builder: candidate missing instrument")
	}
	if !c.Direction.Valid() {
		return nil, fmt.Errorf("builder: invalid direction %q", c.Direction)
	}
	if c.Validity <= 0 {
		return nil, fmt.Errorf("builder: non-positive validity window %s for %s", c.Validity, c.Instrument)
	}

	now := b.clock()
	sig := Signal{
		ID:             uuid.NewString(),
		Instrument:     c.Instrument,
		Direction:      c.Direction,
		TimeframeBasis: c.TimeframeBasis,
		ScoreCard:      c.ScoreCard,
		Envelope:       c.Envelope,
		SessionTag:     c.SessionTag,
		CreatedAt:      now,
		ValidUntil:     now.Add(c.Validity),
	}

	if err := b.registry.Admit(sig, now, veto); err != nil {
		return nil, err
	}
	return &sig, nil
}
