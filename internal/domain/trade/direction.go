package trade

import (
	"fmt"
	"strings"
)

// Direction is the side of a candidate trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
)

// Sign returns +1 for LONG and -1 for SHORT, used when placing stops
// and targets relative to entry.
func (d Direction) Sign() float64 {
	if d == Short {
		return -1
	}
	return 1
}

// Opposes reports whether two directions are on opposite sides.
func (d Direction) Opposes(other Direction) bool {
	return d != other
}

func (d Direction) Valid() bool {
	return d == Long || d == Short
}

// ParseDirection accepts "long"/"short" in any case.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "LONG", "BUY":
		return Long, nil
	case "SHORT", "SELL":
		return Short, nil
	default:
		return "", fmt.Errorf("unknown direction %q (want long|short)", s)
	}
}
