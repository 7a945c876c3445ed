package monitor

import (
	"sync"
	"time"

	"cs2panel/internal/domain"
)

// ring is a time-windowed buffer of metric snapshots. Appending evicts
// everything older than the window, so memory stays bounded at roughly
// window / sample-interval entries.
type ring struct {
	mu     sync.Mutex
	window time.Duration
	snaps  []domain.MetricSnapshot
}

func newRing(window time.Duration) *ring {
	return &ring{window: window}
}

func (r *ring) append(snap domain.MetricSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.snaps = append(r.snaps, snap)
	cutoff := snap.Timestamp.Add(-r.window)
	i := 0
	for i < len(r.snaps) && r.snaps[i].Timestamp.Before(cutoff) {
		i++
	}
	if i > 0 {
		r.snaps = append(r.snaps[:0], r.snaps[i:]...)
	}
}

// within returns snapshots newer than now minus the duration, in
// chronological order.
func (r *ring) within(d time.Duration, now time.Time) []domain.MetricSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := now.Add(-d)
	var out []domain.MetricSnapshot
	for _, s := range r.snaps {
		if !s.Timestamp.Before(cutoff) {
			out = append(out, s)
		}
	}
	return out
}
