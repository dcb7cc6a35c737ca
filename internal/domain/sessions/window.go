package sessions

import (
	"fmt"
	"time"
)

// Window is a daily UTC trading window, e.g. the London/New-York overlap
// for FX majors. Open and Close are "HH:MM" in UTC; a window with
// Close < Open spans midnight.
type Window struct {
	Name  string `yaml:"name" validate:"required"`
	Open  string `yaml:"open" validate:"required"`
	Close string `yaml:"close" validate:"required"`
}

// Contains reports whether t (converted to UTC) falls inside the window.
func (w Window) Contains(t time.Time) (bool, error) {
	openMin, err := parseClock(w.Open)
	if err != nil {
		return false, fmt.Errorf("session %s: %w", w.Name, err)
	}
	closeMin, err := parseClock(w.Close)
	if err != nil {
		return false, fmt.Errorf("session %s: %w", w.Name, err)
	}

	utc := t.UTC()
	now := utc.Hour()*60 + utc.Minute()

	if openMin <= closeMin {
		return now >= openMin && now < closeMin, nil
	}
	// Spans midnight.
	return now >= openMin || now < closeMin, nil
}

func parseClock(s string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock %q out of range", s)
	}
	return h*60 + m, nil
}

// Windows is an instrument's set of preferred sessions.
type Windows []Window

// Match returns the first window containing t, if any. An empty set means
// the instrument trades around the clock and every instant matches.
func (ws Windows) Match(t time.Time) (Window, bool, error) {
	if len(ws) == 0 {
		return Window{Name: "all_day"}, true, nil
	}
	for _, w := range ws {
		ok, err := w.Contains(t)
		if err != nil {
			return Window{}, false, err
		}
		if ok {
			return w, true, nil
		}
	}
	return Window{}, false, nil
}
