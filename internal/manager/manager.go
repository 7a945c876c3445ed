package manager

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"cs2panel/internal/backup"
	"cs2panel/internal/bench"
	"cs2panel/internal/config"
	"cs2panel/internal/domain"
	"cs2panel/internal/events"
	"cs2panel/internal/monitor"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/rcon"
	"cs2panel/internal/scheduler"
	"cs2panel/internal/steam"
	"cs2panel/internal/supervisor"

	"github.com/google/uuid"
)

const (
	defaultRconPassword = "changeme"
	firstPort           = 27015
	portStep            = 10
)

// Manager is the orchestrator behind every API operation. It owns the
// process supervisor, the RCON pool, the metrics sampler, SteamCMD,
// backups and the scheduler, and publishes lifecycle events on the bus.
type Manager struct {
	cfg     *config.AppConfig
	store   domain.Repository
	sup     *supervisor.Supervisor
	pool    *rcon.Pool
	sampler *monitor.Sampler
	steam   *steam.SteamCMD
	backups *backup.Manager
	sched   *scheduler.Scheduler
	bus     *events.Bus

	mu      sync.Mutex
	benches map[uuid.UUID]*bench.Runner
}

func New(cfg *config.AppConfig, store domain.Repository, bus *events.Bus) (*Manager, error) {
	loc, err := time.LoadLocation(cfg.SchedulerTimezone)
	if err != nil {
		logger.Log.Warn().Err(err).Str("tz", cfg.SchedulerTimezone).Msg("invalid scheduler timezone, using UTC")
		loc = time.UTC
	}

	m := &Manager{
		cfg:     cfg,
		store:   store,
		pool:    rcon.NewPool(),
		steam:   steam.New(cfg.SteamCMDPath),
		backups: backup.NewManager(cfg.BackupDir, store),
		bus:     bus,
		benches: make(map[uuid.UUID]*bench.Runner),
	}

	m.sup = supervisor.New(store, m.rconReady)
	m.sup.SetOnConsole(func(id uuid.UUID, line string) {
		bus.Publish(events.Key(events.KindConsole, id), line)
	})
	m.sup.SetOnStatus(func(id uuid.UUID, status string) {
		bus.Publish(events.Key(events.KindStatus, id), status)
	})
	m.sup.SetOnError(func(id uuid.UUID, msg string) {
		bus.Publish(events.ErrorKey(events.KindStatus, id), msg)
	})

	m.sampler = monitor.NewSampler(m.pool)
	m.sampler.SetOnMetrics(func(id uuid.UUID, snap domain.MetricSnapshot) {
		bus.Publish(events.Key(events.KindMetrics, id), snap)
	})
	m.sampler.SetAliveCheck(m.sup.IsRunning)

	m.sched = scheduler.New(store, m, loc)
	return m, nil
}

// Startup starts the scheduler and every auto-start instance.
func (m *Manager) Startup() error {
	if err := m.sched.Start(); err != nil {
		return err
	}
	m.sup.AutoStartAll()
	return nil
}

// Shutdown stops everything in dependency order.
func (m *Manager) Shutdown() {
	m.sched.Stop()
	m.mu.Lock()
	for _, b := range m.benches {
		b.Stop()
	}
	m.mu.Unlock()
	m.sup.StopAll()
	m.pool.DropAll()
}

// rconReady is the readiness probe used by the supervisor: the
// instance counts as up once an RCON round trip succeeds.
func (m *Manager) rconReady(inst *domain.Instance) error {
	c := m.pool.Ensure(inst.ID, rconAddr(inst), rconPassword(inst))
	_, err := c.Send("echo ready", 3*time.Second)
	return err
}

func rconAddr(inst *domain.Instance) string {
	port := inst.RconPort
	if port == 0 {
		port = inst.Port
	}
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func rconPassword(inst *domain.Instance) string {
	if inst.RconPassword == "" {
		return defaultRconPassword
	}
	return inst.RconPassword
}

// ── Instances ─────────────────────────────────────────────────────────

// InstanceConfig carries instance fields for create/update requests.
type InstanceConfig struct {
	Name         string `json:"name"`
	InstallPath  string `json:"install_path"`
	Port         int    `json:"port"`
	MaxPlayers   int    `json:"max_players"`
	GameMode     string `json:"game_mode"`
	Map          string `json:"map"`
	RconPassword string `json:"rcon_password"`
	GsltToken    string `json:"gslt_token"`
	LaunchArgs   string `json:"launch_args"`
	AutoRestart  bool   `json:"auto_restart"`
	AutoStart    bool   `json:"auto_start"`
}

func (m *Manager) GetInstances() ([]domain.Instance, error) {
	return m.store.ListInstances()
}

func (m *Manager) GetInstance(id uuid.UUID) (*domain.Instance, error) {
	return m.store.GetInstance(id)
}

func (m *Manager) CreateInstance(cfg InstanceConfig) (*domain.Instance, error) {
	if cfg.Name == "" {
		return nil, domain.Errorf(domain.KindValidation, "instance name is required")
	}

	inst := &domain.Instance{
		Name:         cfg.Name,
		InstallPath:  cfg.InstallPath,
		Port:         cfg.Port,
		MaxPlayers:   cfg.MaxPlayers,
		GameMode:     cfg.GameMode,
		CurrentMap:   cfg.Map,
		RconPassword: cfg.RconPassword,
		GsltToken:    cfg.GsltToken,
		LaunchArgs:   cfg.LaunchArgs,
		AutoRestart:  cfg.AutoRestart,
		AutoStart:    cfg.AutoStart,
		Status:       domain.StatusStopped,
	}

	if inst.Port == 0 {
		port, err := m.nextAvailablePort()
		if err != nil {
			return nil, err
		}
		inst.Port = port
	}
	inst.RconPort = inst.Port
	if inst.MaxPlayers == 0 {
		inst.MaxPlayers = 10
	}
	if inst.GameMode == "" {
		inst.GameMode = "competitive"
	}
	if inst.CurrentMap == "" {
		inst.CurrentMap = "de_dust2"
	}
	if inst.RconPassword == "" {
		inst.RconPassword = defaultRconPassword
	}
	if inst.InstallPath == "" {
		inst.ID = uuid.New()
		inst.InstallPath = filepath.Join(m.cfg.DefaultInstallDir, inst.ID.String())
	}

	if err := m.store.SaveInstance(inst); err != nil {
		return nil, err
	}
	m.audit("instance.create", inst.ID.String(), map[string]any{"name": inst.Name, "port": inst.Port})
	logger.Log.Info().Str("instance", inst.ID.String()).Str("name", inst.Name).Msg("instance created")
	return inst, nil
}

func (m *Manager) UpdateInstance(id uuid.UUID, cfg InstanceConfig) error {
	updates := map[string]any{
		"name":         cfg.Name,
		"max_players":  cfg.MaxPlayers,
		"game_mode":    cfg.GameMode,
		"current_map":  cfg.Map,
		"launch_args":  cfg.LaunchArgs,
		"auto_restart": cfg.AutoRestart,
		"auto_start":   cfg.AutoStart,
	}
	if cfg.Port != 0 {
		updates["port"] = cfg.Port
		updates["rcon_port"] = cfg.Port
	}
	if cfg.InstallPath != "" {
		updates["install_path"] = cfg.InstallPath
	}
	if cfg.RconPassword != "" {
		updates["rcon_password"] = cfg.RconPassword
	}
	if cfg.GsltToken != "" {
		updates["gslt_token"] = cfg.GsltToken
	}

	if err := m.store.UpdateInstance(id, updates); err != nil {
		return err
	}
	m.audit("instance.update", id.String(), map[string]any{"name": cfg.Name})
	return nil
}

// DeleteInstance removes the record and its children. The instance
// must not have a live or transitioning process.
func (m *Manager) DeleteInstance(id uuid.UUID) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}
	switch inst.Status {
	case domain.StatusRunning, domain.StatusStarting, domain.StatusStopping,
		domain.StatusInstalling, domain.StatusUpdating:
		return domain.Errorf(domain.KindConflict, "instance is %s, stop it first", inst.Status)
	}
	if m.sup.IsRunning(id) {
		return domain.Errorf(domain.KindConflict, "instance has a live process")
	}

	if err := m.store.DeleteInstance(id); err != nil {
		return err
	}
	m.audit("instance.delete", id.String(), map[string]any{"name": inst.Name})
	return nil
}

func (m *Manager) nextAvailablePort() (int, error) {
	instances, err := m.store.ListInstances()
	if err != nil {
		return 0, err
	}
	port := firstPort
	for _, inst := range instances {
		if inst.Port >= port {
			port = inst.Port + portStep
		}
	}
	return port, nil
}

// ── Lifecycle ─────────────────────────────────────────────────────────

func (m *Manager) StartInstance(id uuid.UUID) error {
	if err := m.sup.Start(id); err != nil {
		return err
	}
	if pid := m.sup.PID(id); pid > 0 {
		m.sampler.Start(id, pid)
	}
	m.audit("instance.start", id.String(), nil)
	return nil
}

func (m *Manager) StopInstance(id uuid.UUID) error {
	m.sampler.Stop(id)
	err := m.sup.Stop(id)
	m.pool.Drop(id)
	if err != nil {
		return err
	}
	m.audit("instance.stop", id.String(), nil)
	return nil
}

func (m *Manager) RestartInstance(id uuid.UUID) error {
	m.sampler.Stop(id)
	m.pool.Drop(id)
	if err := m.sup.Restart(id); err != nil {
		return err
	}
	if pid := m.sup.PID(id); pid > 0 {
		m.sampler.Start(id, pid)
	}
	m.audit("instance.restart", id.String(), nil)
	return nil
}

// GetConsole returns the last n buffered console lines.
func (m *Manager) GetConsole(id uuid.UUID, n int) []string {
	return m.sup.ConsoleTail(id, n)
}

// ── RCON ──────────────────────────────────────────────────────────────

func (m *Manager) SendRCON(id uuid.UUID, command string) (string, error) {
	if command == "" {
		return "", domain.Errorf(domain.KindValidation, "empty rcon command")
	}
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return "", err
	}
	c := m.pool.Ensure(id, rconAddr(inst), rconPassword(inst))
	return c.Send(command, rcon.DefaultTimeout)
}

// ── Metrics ───────────────────────────────────────────────────────────

func (m *Manager) StartMetrics(id uuid.UUID) error {
	pid := m.sup.PID(id)
	if pid <= 0 {
		return domain.Errorf(domain.KindConflict, "instance is not running")
	}
	m.sampler.Start(id, pid)
	return nil
}

func (m *Manager) StopMetrics(id uuid.UUID) {
	m.sampler.Stop(id)
}

func (m *Manager) GetMetricsHistory(id uuid.UUID, minutes int) ([]domain.MetricSnapshot, error) {
	if _, err := m.store.GetInstance(id); err != nil {
		return nil, err
	}
	return m.sampler.History(id, minutes), nil
}

// ── Benchmark ─────────────────────────────────────────────────────────

// RunBenchmark starts an asynchronous stepped bot-load benchmark.
// Progress is published on "benchmark:<id>", the final outcome on the
// ":complete" / ":error" suffix.
func (m *Manager) RunBenchmark(id uuid.UUID, maxBots, stepSize, stepDurationSec int) error {
	if _, err := m.store.GetInstance(id); err != nil {
		return err
	}
	if !m.sup.IsRunning(id) {
		return domain.Errorf(domain.KindConflict, "instance is not running")
	}
	if maxBots <= 0 || stepSize <= 0 {
		return domain.Errorf(domain.KindValidation, "max_bots and step_size must be positive")
	}

	m.mu.Lock()
	if _, busy := m.benches[id]; busy {
		m.mu.Unlock()
		return domain.Errorf(domain.KindConflict, "benchmark already running")
	}
	runner := bench.NewRunner(bench.Config{
		InstanceID:   id,
		MaxBots:      maxBots,
		StepSize:     stepSize,
		StepDuration: time.Duration(stepDurationSec) * time.Second,
	}, m.store, m.pool)
	m.benches[id] = runner
	m.mu.Unlock()

	runner.SetOnProgress(func(step, totalSteps int, sm bench.StepMetrics) {
		m.bus.Publish(events.Key(events.KindBenchmark, id), map[string]any{
			"step":      step,
			"total":     totalSteps,
			"bot_count": sm.BotCount,
			"tick_rate": sm.AvgTickRate,
			"cpu_usage": sm.CPUUsage,
			"ram_usage": sm.RAMUsage,
		})
	})

	go func() {
		result, err := runner.Run()
		m.mu.Lock()
		delete(m.benches, id)
		m.mu.Unlock()
		if err != nil {
			logger.Log.Error().Err(err).Str("instance", id.String()).Msg("benchmark failed")
			m.bus.Publish(events.ErrorKey(events.KindBenchmark, id), err.Error())
			return
		}
		m.bus.Publish(events.CompleteKey(events.KindBenchmark, id), result)
	}()
	return nil
}

func (m *Manager) StopBenchmark(id uuid.UUID) {
	m.mu.Lock()
	runner := m.benches[id]
	m.mu.Unlock()
	if runner != nil {
		runner.Stop()
	}
}

func (m *Manager) GetBenchmarkResults(id uuid.UUID) ([]domain.BenchmarkResult, error) {
	return m.store.ListBenchmarkResults(id)
}

// ── App config / log / audit ──────────────────────────────────────────

func (m *Manager) GetAppConfig() *config.AppConfig {
	return m.cfg
}

func (m *Manager) UpdateAppConfig(cfg config.AppConfig) error {
	if cfg.ListenAddr == "" || cfg.DataDir == "" {
		return domain.Errorf(domain.KindValidation, "listen_addr and data_dir are required")
	}
	*m.cfg = cfg
	if err := m.cfg.Save(); err != nil {
		return domain.Wrap(domain.KindIO, err, "save app config")
	}
	m.audit("config.update", "app", nil)
	return nil
}

// GetAppLog returns the most recent daemon log lines.
func (m *Manager) GetAppLog() []string {
	return logger.LogRing.Lines()
}

func (m *Manager) GetAuditLog(limit int) ([]domain.AuditLog, error) {
	if limit <= 0 {
		limit = 100
	}
	return m.store.ListAudit(limit)
}

// audit records a mutating operation. Failures are logged, never
// surfaced to the caller.
func (m *Manager) audit(action, target string, details map[string]any) {
	entry := &domain.AuditLog{Action: action, Target: target}
	if details != nil {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = string(data)
		}
	}
	if err := m.store.AppendAudit(entry); err != nil {
		logger.Log.Warn().Err(err).Str("action", action).Msg("audit append failed")
	}
}
