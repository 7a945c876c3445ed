package monitor

import (
	"testing"
	"time"

	"cs2panel/internal/domain"
)

func TestParseStatus(t *testing.T) {
	cases := []struct {
		name    string
		out     string
		tick    float64
		players int
	}{
		{
			name:    "humans and bots",
			out:     "hostname: Test\nplayers : 3 humans, 2 bots (10 max)\ntick: 64\n",
			tick:    64,
			players: 5,
		},
		{
			name:    "humans only",
			out:     "players : 1 human (16 max)\ntickrate 128",
			tick:    128,
			players: 1,
		},
		{
			name:    "empty server",
			out:     "players : 0 humans (10 max)\ntick: 64",
			tick:    64,
			players: 0,
		},
		{
			name:    "garbage",
			out:     "unknown command",
			tick:    0,
			players: 0,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tick, players := ParseStatus(tc.out)
			if tick != tc.tick {
				t.Errorf("tick = %v, want %v", tick, tc.tick)
			}
			if players != tc.players {
				t.Errorf("players = %d, want %d", players, tc.players)
			}
		})
	}
}

func TestRingEvictsOldSnapshots(t *testing.T) {
	r := newRing(time.Hour)
	base := time.Now()

	r.append(domain.MetricSnapshot{Timestamp: base.Add(-2 * time.Hour)})
	r.append(domain.MetricSnapshot{Timestamp: base.Add(-30 * time.Minute)})
	r.append(domain.MetricSnapshot{Timestamp: base})

	all := r.within(2*time.Hour, base)
	if len(all) != 2 {
		t.Errorf("got %d snapshots, want 2 (oldest evicted on append)", len(all))
	}
}

func TestRingWithinWindow(t *testing.T) {
	r := newRing(time.Hour)
	base := time.Now()

	for i := 0; i < 6; i++ {
		r.append(domain.MetricSnapshot{
			Timestamp: base.Add(-time.Duration(50-i*10) * time.Minute),
			CPUPct:    float64(i),
		})
	}

	recent := r.within(25*time.Minute, base)
	if len(recent) != 3 {
		t.Fatalf("got %d snapshots, want 3", len(recent))
	}
	// chronological order preserved
	for i := 1; i < len(recent); i++ {
		if recent[i].Timestamp.Before(recent[i-1].Timestamp) {
			t.Error("snapshots out of order")
		}
	}
}
