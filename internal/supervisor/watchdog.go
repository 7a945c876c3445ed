package supervisor

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"cs2panel/internal/pkg/logger"
)

const (
	initialBackoff = 1 * time.Second
	maxBackoff     = 30 * time.Second
	// healthyRunTime is how long a process must stay up before the
	// backoff and attempt budget reset.
	healthyRunTime = 60 * time.Second
	// maxRestartAttempts bounds consecutive crash restarts; past it the
	// instance stays crashed until a manual start.
	maxRestartAttempts = 5
)

// Watchdog restarts a crashed instance with capped exponential
// backoff. It is an explicit per-instance retry state object so the
// policy is testable apart from the process plumbing.
type Watchdog struct {
	instanceID uuid.UUID
	sup        *Supervisor

	mu          sync.Mutex
	running     bool
	stopCh      chan struct{}
	exitCh      chan int
	backoff     time.Duration
	attempts    int
	lastStartAt time.Time
}

func newWatchdog(instanceID uuid.UUID, sup *Supervisor) *Watchdog {
	return &Watchdog{
		instanceID: instanceID,
		sup:        sup,
		stopCh:     make(chan struct{}),
		exitCh:     make(chan int, 1),
		backoff:    initialBackoff,
	}
}

// MarkStarted records a successful start for the healthy-run check.
func (w *Watchdog) MarkStarted() {
	w.mu.Lock()
	w.lastStartAt = time.Now()
	w.mu.Unlock()
}

// NotifyExit hands the exit code to the watchdog loop, non-blocking.
func (w *Watchdog) NotifyExit(exitCode int) {
	select {
	case w.exitCh <- exitCode:
	default:
	}
}

// Start launches the restart loop.
func (w *Watchdog) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.mu.Unlock()

	logger.Log.Debug().Str("instance", w.instanceID.String()).Msg("watchdog started")
	go w.loop()
}

func (w *Watchdog) loop() {
	for {
		select {
		case <-w.stopCh:
			w.setStopped()
			return

		case exitCode := <-w.exitCh:
			w.mu.Lock()
			if !w.lastStartAt.IsZero() && time.Since(w.lastStartAt) > healthyRunTime {
				w.backoff = initialBackoff
				w.attempts = 0
			}
			w.attempts++
			attempts := w.attempts
			backoff := w.backoff
			w.backoff *= 2
			if w.backoff > maxBackoff {
				w.backoff = maxBackoff
			}
			w.mu.Unlock()

			if attempts > maxRestartAttempts {
				logger.Log.Error().
					Str("instance", w.instanceID.String()).
					Int("attempts", attempts-1).
					Msg("restart budget exhausted, giving up")
				w.sup.watchdogGaveUp(w.instanceID)
				w.setStopped()
				return
			}

			logger.Log.Info().
				Str("instance", w.instanceID.String()).
				Int("exitCode", exitCode).
				Int("attempt", attempts).
				Dur("backoff", backoff).
				Msg("process crashed, scheduling restart")

			select {
			case <-w.stopCh:
				w.setStopped()
				return
			case <-time.After(backoff):
			}

			if !w.sup.hasWatchdog(w.instanceID) {
				return
			}
			if w.sup.hasProcess(w.instanceID) {
				continue
			}

			w.MarkStarted()
			if err := w.sup.restartCrashed(w.instanceID); err != nil {
				logger.Log.Error().Err(err).Str("instance", w.instanceID.String()).Msg("watchdog restart failed")
				// treat a failed spawn like another crash so the budget
				// still runs out instead of looping forever
				w.NotifyExit(-1)
			}
		}
	}
}

func (w *Watchdog) setStopped() {
	w.mu.Lock()
	w.running = false
	w.mu.Unlock()
	logger.Log.Debug().Str("instance", w.instanceID.String()).Msg("watchdog stopped")
}

// Stop signals the loop to end.
func (w *Watchdog) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	close(w.stopCh)
	w.running = false
}
