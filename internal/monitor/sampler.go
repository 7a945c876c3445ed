package monitor

import (
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/rcon"
)

const (
	sampleInterval = 1 * time.Second
	// historyWindow bounds the in-memory ring; snapshots are never
	// persisted and the ring is discarded on stop.
	historyWindow = 5 * time.Minute
	// maxConsecutiveFailures triggers a re-sync check against the
	// supervisor's view of the process.
	maxConsecutiveFailures = 5

	rconStatusTimeout = 3 * time.Second
)

// Sampler runs one 1 Hz collector per running instance, combining
// process CPU/RSS, host network deltas and an RCON "status" query.
type Sampler struct {
	pool *rcon.Pool

	mu         sync.Mutex
	collectors map[uuid.UUID]*collector

	onMetrics func(id uuid.UUID, snap domain.MetricSnapshot)
	// alive answers whether the supervisor still has a live process
	// attached; queried after repeated sampling failures.
	alive func(id uuid.UUID) bool
}

func NewSampler(pool *rcon.Pool) *Sampler {
	return &Sampler{
		pool:       pool,
		collectors: make(map[uuid.UUID]*collector),
		onMetrics:  func(uuid.UUID, domain.MetricSnapshot) {},
		alive:      func(uuid.UUID) bool { return true },
	}
}

func (s *Sampler) SetOnMetrics(fn func(id uuid.UUID, snap domain.MetricSnapshot)) {
	if fn != nil {
		s.onMetrics = fn
	}
}

func (s *Sampler) SetAliveCheck(fn func(id uuid.UUID) bool) {
	if fn != nil {
		s.alive = fn
	}
}

// Start begins sampling the instance's child process. No-op when a
// collector is already running.
func (s *Sampler) Start(id uuid.UUID, pid int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.collectors[id]; exists {
		return
	}
	c := &collector{
		id:          id,
		pid:         pid,
		sampler:     s,
		ring:        newRing(historyWindow),
		stopCh:      make(chan struct{}),
		prevNetTime: time.Now(),
	}
	s.collectors[id] = c
	go c.run()
	logger.Log.Info().Str("instance", id.String()).Int("pid", pid).Msg("monitor: sampler started")
}

// Stop ends sampling and discards the instance's history ring.
func (s *Sampler) Stop(id uuid.UUID) {
	s.mu.Lock()
	c := s.collectors[id]
	delete(s.collectors, id)
	s.mu.Unlock()

	if c != nil {
		close(c.stopCh)
		logger.Log.Info().Str("instance", id.String()).Msg("monitor: sampler stopped")
	}
}

// Running reports whether the instance is being sampled.
func (s *Sampler) Running(id uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.collectors[id]
	return ok
}

// History returns the snapshots from the last N minutes without
// triggering new sampling. Nil when the instance is not being sampled.
func (s *Sampler) History(id uuid.UUID, minutes int) []domain.MetricSnapshot {
	s.mu.Lock()
	c := s.collectors[id]
	s.mu.Unlock()

	if c == nil {
		return nil
	}
	if minutes <= 0 || time.Duration(minutes)*time.Minute > historyWindow {
		minutes = int(historyWindow / time.Minute)
	}
	return c.ring.within(time.Duration(minutes)*time.Minute, time.Now())
}

type collector struct {
	id      uuid.UUID
	pid     int
	sampler *Sampler
	ring    *ring
	stopCh  chan struct{}

	proc     *process.Process
	failures int

	prevNetRecv uint64
	prevNetSent uint64
	prevNetTime time.Time
}

func (c *collector) run() {
	ticker := time.NewTicker(sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			if ok := c.collectOnce(); ok {
				c.failures = 0
				continue
			}
			c.failures++
			if c.failures < maxConsecutiveFailures {
				continue
			}
			c.failures = 0
			// repeated failures usually mean the process is gone and
			// nobody told us; re-sync with the supervisor
			if !c.sampler.alive(c.id) {
				logger.Log.Warn().Str("instance", c.id.String()).Msg("monitor: process gone, stopping sampler")
				go c.sampler.Stop(c.id)
				return
			}
		}
	}
}

// collectOnce gathers one snapshot. A failed tick is skipped, not
// escalated.
func (c *collector) collectOnce() bool {
	snap := domain.MetricSnapshot{
		InstanceID: c.id,
		Timestamp:  time.Now(),
	}

	if c.proc == nil {
		p, err := process.NewProcess(int32(c.pid))
		if err != nil {
			logger.Log.Debug().Err(err).Str("instance", c.id.String()).Msg("monitor: process handle")
			return false
		}
		c.proc = p
	}

	cpuPct, err := c.proc.Percent(0)
	if err != nil {
		c.proc = nil
		return false
	}
	snap.CPUPct = cpuPct

	if mi, err := c.proc.MemoryInfo(); err == nil && mi != nil {
		snap.RAMMb = float64(mi.RSS) / (1024 * 1024)
	}

	if counters, err := net.IOCounters(false); err == nil && len(counters) > 0 {
		now := time.Now()
		elapsed := now.Sub(c.prevNetTime).Seconds()
		if elapsed > 0 && c.prevNetTime != (time.Time{}) && c.prevNetRecv > 0 {
			snap.NetInKbps = (float64(counters[0].BytesRecv-c.prevNetRecv) / 1024) / elapsed
			snap.NetOutKbps = (float64(counters[0].BytesSent-c.prevNetSent) / 1024) / elapsed
		}
		c.prevNetRecv = counters[0].BytesRecv
		c.prevNetSent = counters[0].BytesSent
		c.prevNetTime = now
	}

	if out, err := c.sampler.pool.Send(c.id, "status", rconStatusTimeout); err == nil && out != "" {
		snap.TickRate, snap.Players = ParseStatus(out)
	}

	c.ring.append(snap)
	c.sampler.onMetrics(c.id, snap)
	return true
}

var (
	playersRe = regexp.MustCompile(`players\s*:\s*(\d+)\s+human(?:s)?(?:,\s*(\d+)\s+bot(?:s)?)?\s*\((\d+)\s+max\)`)
	tickRe    = regexp.MustCompile(`(?:tick|tickrate)\s*[:=]?\s*(\d+)`)
)

// ParseStatus extracts tick rate and player count from an RCON
// "status" reply. Lines look like "players : 3 humans, 2 bots (10 max)"
// and "tick: 64".
func ParseStatus(out string) (tickRate float64, players int) {
	if m := playersRe.FindStringSubmatch(out); len(m) >= 2 {
		humans, _ := strconv.Atoi(m[1])
		bots := 0
		if len(m) >= 3 && m[2] != "" {
			bots, _ = strconv.Atoi(m[2])
		}
		players = humans + bots
	}
	if m := tickRe.FindStringSubmatch(out); len(m) >= 2 {
		tickRate, _ = strconv.ParseFloat(m[1], 64)
	}
	return tickRate, players
}
