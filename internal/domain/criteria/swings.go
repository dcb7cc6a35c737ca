package criteria

// Pivot is a confirmed swing point: a bar whose extreme sticks out above
// (or below) its neighbors on both sides.
type Pivot struct {
	Index int
	Price float64
}

// swingHighs returns confirmed swing highs inside the trailing lookback
// window, oldest first. A bar is a swing high when its high strictly
// exceeds the highs of strength bars on each side, so the most recent
// strength bars can never confirm a pivot.
func swingHighs(highs []float64, strength, lookback int) []Pivot {
	return pivots(highs, strength, lookback, func(candidate, neighbor float64) bool {
		return candidate > neighbor
	})
}

// swingLows is the mirror of swingHighs over the low column.
func swingLows(lows []float64, strength, lookback int) []Pivot {
	return pivots(lows, strength, lookback, func(candidate, neighbor float64) bool {
		return candidate < neighbor
	})
}

func pivots(vals []float64, strength, lookback int, sticksOut func(candidate, neighbor float64) bool) []Pivot {
	n := len(vals)
	if strength < 1 || n < 2*strength+1 {
		return nil
	}

	start := strength
	if lookback > 0 && n-lookback > start {
		start = n - lookback
	}

	var out []Pivot
	for i := start; i < n-strength; i++ {
		confirmed := true
		for j := i - strength; j <= i+strength; j++ {
			if j == i {
				continue
			}
			if !sticksOut(vals[i], vals[j]) {
				confirmed = false
				break
			}
		}
		if confirmed {
			out = append(out, Pivot{Index: i, Price: vals[i]})
		}
	}
	return out
}

// lastTwo returns the two most recent pivots, oldest first.
func lastTwo(ps []Pivot) (older, newer Pivot, ok bool) {
	if len(ps) < 2 {
		return Pivot{}, Pivot{}, false
	}
	return ps[len(ps)-2], ps[len(ps)-1], true
}
