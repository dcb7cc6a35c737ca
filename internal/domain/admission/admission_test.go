package admission

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/signalcore/internal/domain/sessions"
	"github.com/tradeforge/signalcore/internal/domain/signal"
	"github.com/tradeforge/signalcore/internal/domain/trade"
)

func fxTable() CorrelationTable {
	return CorrelationTable{
		Threshold: 0.7,
		Pairs: []Pairing{
			{A: "EURUSD", B: "GBPUSD", Coefficient: 0.85},
			{A: "EURUSD", B: "USDCHF", Coefficient: -0.9},
			{A: "EURUSD", B: "BTCUSD", Coefficient: 0.2},
		},
	}
}

func active(instrument string, dir trade.Direction) signal.Signal {
	return signal.Signal{
		ID:         "active-" + instrument,
		Instrument: instrument,
		Direction:  dir,
	}
}

func TestCoefficientLookup(t *testing.T) {
	table := fxTable()

	assert.Equal(t, 1.0, table.Coefficient("EURUSD", "EURUSD"))
	assert.Equal(t, 1.0, table.Coefficient("eurusd", "EURUSD"))
	assert.Equal(t, 0.85, table.Coefficient("GBPUSD", "EURUSD"))
	assert.Equal(t, -0.9, table.Coefficient("EURUSD", "USDCHF"))
	assert.Equal(t, 0.0, table.Coefficient("EURUSD", "XAUUSD"))
}

func TestCorrelationVetoOpposedPositive(t *testing.T) {
	f := NewFilter(fxTable())

	// EURUSD LONG active, GBPUSD correlated 0.85: a GBPUSD SHORT is
	// contradictory exposure and must be vetoed.
	veto := f.CorrelationVeto("GBPUSD", trade.Short)
	err := veto([]signal.Signal{active("EURUSD", trade.Long)})
	require.Error(t, err)

	var conflict *ConflictError
	require.True(t, errors.As(err, &conflict))
	assert.Equal(t, "GBPUSD", conflict.Candidate)
	assert.Equal(t, "EURUSD", conflict.Active)
	assert.Equal(t, 0.85, conflict.Coefficient)
}

func TestCorrelationVetoAlignedPositiveAdmits(t *testing.T) {
	f := NewFilter(fxTable())

	veto := f.CorrelationVeto("GBPUSD", trade.Long)
	assert.NoError(t, veto([]signal.Signal{active("EURUSD", trade.Long)}))
}

func TestCorrelationVetoAlignedNegative(t *testing.T) {
	f := NewFilter(fxTable())

	// USDCHF moves inversely to EURUSD; a USDCHF LONG next to an active
	// EURUSD LONG is the same contradiction as an opposed positive pair.
	veto := f.CorrelationVeto("USDCHF", trade.Long)
	assert.Error(t, veto([]signal.Signal{active("EURUSD", trade.Long)}))

	veto = f.CorrelationVeto("USDCHF", trade.Short)
	assert.NoError(t, veto([]signal.Signal{active("EURUSD", trade.Long)}))
}

func TestCorrelationVetoBelowThresholdAdmits(t *testing.T) {
	f := NewFilter(fxTable())

	veto := f.CorrelationVeto("BTCUSD", trade.Short)
	assert.NoError(t, veto([]signal.Signal{active("EURUSD", trade.Long)}))
}

func TestCorrelationVetoSameInstrumentOpposing(t *testing.T) {
	f := NewFilter(fxTable())

	veto := f.CorrelationVeto("EURUSD", trade.Short)
	assert.Error(t, veto([]signal.Signal{active("EURUSD", trade.Long)}))
}

func TestCorrelationVetoEmptyActiveSet(t *testing.T) {
	f := NewFilter(fxTable())
	assert.NoError(t, f.CorrelationVeto("EURUSD", trade.Long)(nil))
}

func TestSessionOpen(t *testing.T) {
	f := NewFilter(fxTable())
	windows := sessions.Windows{
		{Name: "london", Open: "07:00", Close: "16:00"},
		{Name: "newyork", Open: "12:00", Close: "21:00"},
	}

	inLondon := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	w, ok, err := f.SessionOpen(windows, inLondon)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "london", w.Name)

	closed := time.Date(2026, 3, 2, 23, 0, 0, 0, time.UTC)
	_, ok, err = f.SessionOpen(windows, closed)
	require.NoError(t, err)
	assert.False(t, ok)

	// Around-the-clock instruments carry no windows and always admit.
	w, ok, err = f.SessionOpen(nil, closed)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "all_day", w.Name)
}
