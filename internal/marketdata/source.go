// Package marketdata provides the candle source abstraction the
// evaluation pipeline reads from. The engine never acquires data itself;
// sources are injected, and the offline CSV source serves backtests and
// the one-shot CLI.
package marketdata

import (
	"context"

	"github.com/tradeforge/signalcore/internal/domain/candles"
)

// Source yields validated candle series. Implementations return the most
// recent limit bars in chronological order; fewer bars than limit is not
// an error here, the indicator layer enforces its own lookbacks.
type Source interface {
	Candles(ctx context.Context, instrument string, tf candles.Timeframe, limit int) (*candles.Series, error)
}
