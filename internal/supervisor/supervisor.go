package supervisor

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
)

const (
	// DefaultStartupTimeout bounds how long a freshly spawned server
	// has to answer its first RCON handshake before it is killed.
	DefaultStartupTimeout = 120 * time.Second
	// DefaultGracefulTimeout is the wait after "quit" before the
	// process is force-killed.
	DefaultGracefulTimeout = 5 * time.Second

	readinessPollInterval = 2 * time.Second
	maxConsoleLines       = 2000
)

// ReadyFunc performs one readiness probe (an RCON handshake) against
// the instance. It returns nil once the server answers.
type ReadyFunc func(inst *domain.Instance) error

// Supervisor owns the live OS processes for all instances and is the
// only writer of transient status values during a run. Status moves
// stopped -> starting -> running -> stopping -> stopped, with
// running -> crashed on unexpected exit and crashed -> starting on
// auto-restart. installing/updating are set by the install workflow,
// never here, and block Start.
type Supervisor struct {
	store           domain.InstanceRepository
	ready           ReadyFunc
	startupTimeout  time.Duration
	gracefulTimeout time.Duration

	mu        sync.RWMutex
	processes map[uuid.UUID]*Process
	starting  map[uuid.UUID]bool
	watchdogs map[uuid.UUID]*Watchdog
	consoles  map[uuid.UUID]*consoleBuffer

	onConsole func(id uuid.UUID, line string)
	onStatus  func(id uuid.UUID, status string)
	onError   func(id uuid.UUID, msg string)
}

func New(store domain.InstanceRepository, ready ReadyFunc) *Supervisor {
	return &Supervisor{
		store:           store,
		ready:           ready,
		startupTimeout:  DefaultStartupTimeout,
		gracefulTimeout: DefaultGracefulTimeout,
		processes:       make(map[uuid.UUID]*Process),
		starting:        make(map[uuid.UUID]bool),
		watchdogs:       make(map[uuid.UUID]*Watchdog),
		consoles:        make(map[uuid.UUID]*consoleBuffer),
		onConsole:       func(uuid.UUID, string) {},
		onStatus:        func(uuid.UUID, string) {},
		onError:         func(uuid.UUID, string) {},
	}
}

// SetStartupTimeout overrides the readiness deadline.
func (s *Supervisor) SetStartupTimeout(d time.Duration) { s.startupTimeout = d }

// SetOnConsole sets the per-line console callback.
func (s *Supervisor) SetOnConsole(fn func(id uuid.UUID, line string)) {
	if fn != nil {
		s.onConsole = fn
	}
}

// SetOnStatus sets the status-transition callback.
func (s *Supervisor) SetOnStatus(fn func(id uuid.UUID, status string)) {
	if fn != nil {
		s.onStatus = fn
	}
}

// SetOnError sets the callback for persistent failures (restart budget
// exhausted, startup timeout) that passive observers need to see.
func (s *Supervisor) SetOnError(fn func(id uuid.UUID, msg string)) {
	if fn != nil {
		s.onError = fn
	}
}

// Start spawns the instance's process and blocks until it is ready or
// failed. AlreadyRunning, SpawnFailed and StartupTimeout are surfaced
// as Conflict / Process errors.
func (s *Supervisor) Start(id uuid.UUID) error {
	// The starting marker is claimed under the same lock as the process
	// check so a second concurrent Start cannot also pass and spawn a
	// second process for the same instance. It is cleared on every exit
	// path, after the process (if any) has been registered.
	s.mu.Lock()
	_, exists := s.processes[id]
	if exists || s.starting[id] {
		s.mu.Unlock()
		return domain.Errorf(domain.KindConflict, "instance %s already running", id)
	}
	s.starting[id] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.starting, id)
		s.mu.Unlock()
	}()

	inst, err := s.store.GetInstance(id)
	if err != nil {
		return err
	}
	if inst.Status == domain.StatusInstalling || inst.Status == domain.StatusUpdating {
		return domain.Errorf(domain.KindConflict, "instance %s is %s", id, inst.Status)
	}

	s.updateStatus(id, domain.StatusStarting)
	logger.Log.Info().Str("instance", id.String()).Str("name", inst.Name).Msg("starting instance")

	console := newConsoleBuffer(maxConsoleLines)
	s.mu.Lock()
	s.consoles[id] = console
	s.mu.Unlock()

	proc := NewProcess(exePath(inst.InstallPath), buildLaunchArgs(inst))
	proc.SetOnOutput(func(line string) {
		console.append(line)
		s.onConsole(id, line)
	})

	s.mu.Lock()
	w := s.watchdogs[id]
	if inst.AutoRestart && w == nil {
		w = newWatchdog(id, s)
		s.watchdogs[id] = w
	}
	s.mu.Unlock()

	proc.SetOnExit(func(code int) {
		s.mu.Lock()
		delete(s.processes, id)
		w := s.watchdogs[id]
		s.mu.Unlock()

		// an exit during stopping is a clean shutdown; an exit while
		// running is a crash
		cur, err := s.store.GetInstance(id)
		if err == nil && cur.Status == domain.StatusRunning {
			s.updateStatus(id, domain.StatusCrashed)
			s.onError(id, fmt.Sprintf("process exited unexpectedly (code %d)", code))
			if w != nil {
				w.NotifyExit(code)
			}
		}
	})

	if err := proc.Start(); err != nil {
		s.mu.Lock()
		delete(s.watchdogs, id)
		s.mu.Unlock()
		s.updateStatus(id, domain.StatusStopped)
		logger.Log.Error().Err(err).Str("instance", id.String()).Msg("spawn failed")
		return domain.Errorf(domain.KindProcess, "spawn failed: %w", err)
	}

	s.mu.Lock()
	s.processes[id] = proc
	s.mu.Unlock()

	if err := s.awaitReady(inst, proc); err != nil {
		s.mu.Lock()
		delete(s.processes, id)
		delete(s.watchdogs, id)
		s.mu.Unlock()
		_ = proc.Kill()
		s.updateStatus(id, domain.StatusCrashed)
		s.onError(id, err.Error())
		return err
	}

	if w != nil {
		w.MarkStarted()
		w.Start()
	}

	s.updateStatus(id, domain.StatusRunning)
	logger.Log.Info().Str("instance", id.String()).Int("pid", proc.PID()).Msg("instance running")
	return nil
}

// awaitReady polls the readiness probe until it succeeds, the process
// dies, or the startup timeout passes.
func (s *Supervisor) awaitReady(inst *domain.Instance, proc *Process) error {
	if s.ready == nil {
		return nil
	}
	deadline := time.Now().Add(s.startupTimeout)
	for {
		if !proc.IsRunning() {
			return domain.Errorf(domain.KindProcess, "process exited during startup")
		}
		if err := s.ready(inst); err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return domain.Errorf(domain.KindProcess, "startup timeout after %s", s.startupTimeout)
		}
		time.Sleep(readinessPollInterval)
	}
}

// Stop shuts the instance down gracefully, force-killing after the
// graceful timeout.
func (s *Supervisor) Stop(id uuid.UUID) error {
	return s.stop(id, false)
}

func (s *Supervisor) stop(id uuid.UUID, restarting bool) error {
	s.mu.Lock()
	proc := s.processes[id]
	w := s.watchdogs[id]
	delete(s.processes, id)
	delete(s.watchdogs, id)
	if !restarting {
		delete(s.consoles, id)
	}
	s.mu.Unlock()

	if w != nil {
		w.Stop()
	}

	if proc == nil {
		if !restarting {
			s.updateStatus(id, domain.StatusStopped)
		}
		return nil
	}

	s.updateStatus(id, domain.StatusStopping)
	logger.Log.Info().Str("instance", id.String()).Msg("stopping instance")

	if err := proc.Stop(s.gracefulTimeout); err != nil {
		logger.Log.Warn().Err(err).Str("instance", id.String()).Msg("error during stop")
	}
	if !restarting {
		s.updateStatus(id, domain.StatusStopped)
		logger.Log.Info().Str("instance", id.String()).Msg("instance stopped")
	}
	return nil
}

// Restart is stop-then-start surfaced as one operation: observers see
// stopping then starting, never an intermediate stopped.
func (s *Supervisor) Restart(id uuid.UUID) error {
	if err := s.stop(id, true); err != nil {
		return err
	}
	return s.Start(id)
}

// restartCrashed is the watchdog's entry point.
func (s *Supervisor) restartCrashed(id uuid.UUID) error {
	return s.Start(id)
}

// watchdogGaveUp marks the instance permanently crashed after the
// retry budget ran out.
func (s *Supervisor) watchdogGaveUp(id uuid.UUID) {
	s.mu.Lock()
	delete(s.watchdogs, id)
	s.mu.Unlock()
	s.updateStatus(id, domain.StatusCrashed)
	s.onError(id, "auto-restart budget exhausted, instance stays crashed")
}

// IsRunning reports whether a live process is attached.
func (s *Supervisor) IsRunning(id uuid.UUID) bool {
	s.mu.RLock()
	proc := s.processes[id]
	s.mu.RUnlock()
	return proc != nil && proc.IsRunning()
}

// PID returns the child pid, or 0.
func (s *Supervisor) PID(id uuid.UUID) int {
	s.mu.RLock()
	proc := s.processes[id]
	s.mu.RUnlock()
	if proc == nil {
		return 0
	}
	return proc.PID()
}

// ConsoleTail returns up to n of the most recent console lines.
func (s *Supervisor) ConsoleTail(id uuid.UUID, n int) []string {
	s.mu.RLock()
	console := s.consoles[id]
	s.mu.RUnlock()
	if console == nil {
		return nil
	}
	return console.tail(n)
}

// StopAll stops every running instance, used at daemon shutdown.
func (s *Supervisor) StopAll() {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.processes))
	for id := range s.processes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		_ = s.Stop(id)
	}
}

// AutoStartAll starts every instance flagged auto_start. Individual
// failures are logged, not fatal.
func (s *Supervisor) AutoStartAll() {
	instances, err := s.store.ListInstances()
	if err != nil {
		logger.Log.Error().Err(err).Msg("auto-start: list instances")
		return
	}
	for i := range instances {
		if !instances[i].AutoStart {
			continue
		}
		if err := s.Start(instances[i].ID); err != nil {
			logger.Log.Error().Err(err).Str("instance", instances[i].ID.String()).Msg("auto-start failed")
		}
	}
}

func (s *Supervisor) hasProcess(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.processes[id]
	return ok
}

func (s *Supervisor) hasWatchdog(id uuid.UUID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.watchdogs[id]
	return ok
}

func (s *Supervisor) updateStatus(id uuid.UUID, status string) {
	if err := s.store.UpdateStatus(id, status); err != nil {
		logger.Log.Error().Err(err).Str("instance", id.String()).Str("status", status).Msg("status update failed")
	}
	s.onStatus(id, status)
}

// buildLaunchArgs assembles the dedicated-server command line from the
// instance record plus any custom launch_args.
func buildLaunchArgs(inst *domain.Instance) []string {
	gameMode, gameType := gameModeValues(inst.GameMode)
	mapName := inst.CurrentMap
	if mapName == "" {
		mapName = "de_dust2"
	}
	maxPlayers := inst.MaxPlayers
	if maxPlayers <= 0 {
		maxPlayers = 10
	}
	rconPass := inst.RconPassword
	if rconPass == "" {
		rconPass = "changeme"
	}

	args := []string{
		"-dedicated",
		"-port", fmt.Sprintf("%d", inst.Port),
		"+sv_lan", "1",
		"+game_mode", fmt.Sprintf("%d", gameMode),
		"+game_type", fmt.Sprintf("%d", gameType),
		"+map", mapName,
		"-maxplayers", fmt.Sprintf("%d", maxPlayers),
		"+rcon_password", rconPass,
		"-console",
		"-usercon",
	}

	if inst.GsltToken != "" {
		args = append(args, "+sv_setsteamaccount", inst.GsltToken)
	}
	if strings.TrimSpace(inst.LaunchArgs) != "" {
		args = append(args, strings.Fields(inst.LaunchArgs)...)
	}
	return args
}

func gameModeValues(mode string) (gameMode, gameType int) {
	switch strings.ToLower(mode) {
	case "competitive":
		return 1, 0
	case "casual":
		return 0, 0
	case "wingman":
		return 2, 0
	case "deathmatch", "dm":
		return 2, 1
	case "custom":
		return 3, 0
	default:
		return 1, 0
	}
}

func exePath(installPath string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(installPath, "game", "bin", "win64", "cs2.exe")
	}
	return filepath.Join(installPath, "game", "bin", "linuxsteamrt64", "cs2")
}

// consoleBuffer keeps the last N console lines for an instance, oldest
// dropped first.
type consoleBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newConsoleBuffer(max int) *consoleBuffer {
	return &consoleBuffer{max: max}
}

func (c *consoleBuffer) append(line string) {
	c.mu.Lock()
	c.lines = append(c.lines, line)
	if len(c.lines) > c.max {
		c.lines = c.lines[len(c.lines)-c.max:]
	}
	c.mu.Unlock()
}

func (c *consoleBuffer) tail(n int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if n <= 0 || n > len(c.lines) {
		n = len(c.lines)
	}
	out := make([]string, n)
	copy(out, c.lines[len(c.lines)-n:])
	return out
}
