// Package signal holds the terminal, immutable signal record, the
// process-wide active-signal registry, and the builder that is the only
// writer into that registry.
package signal

import (
	"time"

	"github.com/tradeforge/signalcore/internal/domain/candles"
	"github.com/tradeforge/signalcore/internal/domain/risk"
	"github.com/tradeforge/signalcore/internal/domain/scoring"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

// Signal is the final record handed to delivery and tracking
// collaborators. Never mutated after creation; expiry is enforced by
// consumers via ValidUntil.
type Signal struct {
	ID             string            `json:"id"`
	Instrument     string            `json:"instrument"`
	Direction      trade.Direction   `json:"direction"`
	TimeframeBasis candles.Timeframe `json:"timeframe_basis"`
	ScoreCard      scoring.ScoreCard `json:"scorecard"`
	Envelope       risk.Envelope     `json:"risk_envelope"`
	SessionTag     string            `json:"session_tag"`
	CreatedAt      time.Time         `json:"created_at"`
	ValidUntil     time.Time         `json:"valid_until"`
}

// Expired reports whether the signal is past its validity window.
func (s Signal) Expired(now time.Time) bool {
	return !now.Before(s.ValidUntil)
}
