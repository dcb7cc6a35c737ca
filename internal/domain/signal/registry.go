package signal

import (
	"sort"
	"sync"
	"time"
)

// Registry is the process-wide set of currently active signals, keyed by
// instrument. It is the only shared mutable state in the core: every read
// and write goes through one mutex, and admission vetoes run under the
// same lock as the insert so a concurrent admission cannot slip past a
// conflicting write.
type Registry struct {
	mu     sync.Mutex
	active map[string]Signal
}

func NewRegistry() *Registry {
	return &Registry{active: make(map[string]Signal)}
}

// Snapshot returns a copy of the non-expired signals, sorted by
// instrument. Callers can hold it without touching the lock again.
func (r *Registry) Snapshot(now time.Time) []Signal {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.liveLocked(now)
}

// Admit atomically evaluates the veto against the live set and, when the
// veto clears, installs the candidate. A non-nil veto error leaves the
// registry untouched and is returned as-is.
func (r *Registry) Admit(candidate Signal, now time.Time, veto func(active []Signal) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if veto != nil {
		if err := veto(r.liveLocked(now)); err != nil {
			return err
		}
	}

	r.active[candidate.Instrument] = candidate
	return nil
}

// Sweep drops expired signals and reports how many were removed. Called
// by the external expiry schedule, not by the evaluation pipeline.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for instrument, sig := range r.active {
		if sig.Expired(now) {
			delete(r.active, instrument)
			removed++
		}
	}
	return removed
}

// Len counts currently held signals, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.active)
}

// LiveCount counts non-expired signals. The health and metrics surfaces
// use this so their counts agree with Snapshot between sweeps.
func (r *Registry) LiveCount(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, sig := range r.active {
		if !sig.Expired(now) {
			n++
		}
	}
	return n
}

func (r *Registry) liveLocked(now time.Time) []Signal {
	out := make([]Signal, 0, len(r.active))
	for _, sig := range r.active {
		if !sig.Expired(now) {
			out = append(out, sig)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Instrument < out[j].Instrument })
	return out
}
