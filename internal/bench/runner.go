package bench

import (
	"fmt"
	"sync"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/monitor"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/rcon"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Config configures a benchmark run.
type Config struct {
	InstanceID   uuid.UUID
	MaxBots      int
	StepSize     int
	StepDuration time.Duration
}

// StepMetrics holds the aggregated metrics of one benchmark step.
type StepMetrics struct {
	BotCount    int     `json:"bot_count"`
	AvgTickRate float64 `json:"avg_tickrate"`
	MinTickRate float64 `json:"min_tickrate"`
	CPUUsage    float64 `json:"cpu_usage"`
	RAMUsage    float64 `json:"ram_usage"`
}

// Runner drives a stepped bot-load benchmark against a running
// instance: bot_quota is raised step by step while tick rate and
// system load are sampled.
type Runner struct {
	config Config
	store  domain.BenchmarkRepository
	pool   *rcon.Pool

	mu         sync.Mutex
	stopCh     chan struct{}
	onProgress func(step, totalSteps int, m StepMetrics)
}

func NewRunner(cfg Config, store domain.BenchmarkRepository, pool *rcon.Pool) *Runner {
	return &Runner{
		config: cfg,
		store:  store,
		pool:   pool,
	}
}

func (r *Runner) SetOnProgress(fn func(step, totalSteps int, m StepMetrics)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onProgress = fn
}

const sampleEvery = 500 * time.Millisecond

// Run executes the benchmark synchronously and persists the result.
func (r *Runner) Run() (*domain.BenchmarkResult, error) {
	if r.config.MaxBots <= 0 || r.config.StepSize <= 0 {
		return nil, domain.Errorf(domain.KindValidation,
			"invalid benchmark config: max_bots=%d step_size=%d", r.config.MaxBots, r.config.StepSize)
	}

	totalSteps := (r.config.MaxBots + r.config.StepSize - 1) / r.config.StepSize
	stepDuration := r.config.StepDuration
	if stepDuration < time.Second {
		stepDuration = 5 * time.Second
	}

	r.mu.Lock()
	r.stopCh = make(chan struct{})
	stopCh := r.stopCh
	r.mu.Unlock()

	id := r.config.InstanceID
	var tickRates, minTicks, cpuUsages, ramUsages []float64

	for step := 1; step <= totalSteps; step++ {
		select {
		case <-stopCh:
			return nil, domain.Errorf(domain.KindConflict, "benchmark stopped")
		default:
		}

		botCount := step * r.config.StepSize
		if botCount > r.config.MaxBots {
			botCount = r.config.MaxBots
		}

		if _, err := r.pool.Send(id, fmt.Sprintf("bot_quota %d", botCount), rcon.DefaultTimeout); err != nil {
			return nil, domain.Wrap(domain.KindProtocol, err, "set bot_quota")
		}
		time.Sleep(2 * time.Second) // bots need a moment to spawn

		var ticks, cpus, rams []float64
		deadline := time.Now().Add(stepDuration)
		for time.Now().Before(deadline) {
			select {
			case <-stopCh:
				return nil, domain.Errorf(domain.KindConflict, "benchmark stopped")
			default:
			}

			if pcts, err := cpu.Percent(sampleEvery, false); err == nil && len(pcts) > 0 {
				cpus = append(cpus, pcts[0])
			} else {
				time.Sleep(sampleEvery)
			}
			if vm, err := mem.VirtualMemory(); err == nil {
				rams = append(rams, float64(vm.Used)/(1024*1024))
			}
			if out, err := r.pool.Send(id, "status", rcon.DefaultTimeout); err == nil {
				if tick, _ := monitor.ParseStatus(out); tick > 0 {
					ticks = append(ticks, tick)
				}
			}
		}

		m := StepMetrics{
			BotCount:    botCount,
			AvgTickRate: avg(ticks),
			MinTickRate: minOf(ticks),
			CPUUsage:    avg(cpus),
			RAMUsage:    avg(rams),
		}
		tickRates = append(tickRates, m.AvgTickRate)
		minTicks = append(minTicks, m.MinTickRate)
		cpuUsages = append(cpuUsages, m.CPUUsage)
		ramUsages = append(ramUsages, m.RAMUsage)

		r.mu.Lock()
		fn := r.onProgress
		r.mu.Unlock()
		if fn != nil {
			fn(step, totalSteps, m)
		}
	}

	// Put the server back the way we found it.
	if _, err := r.pool.Send(id, "bot_quota 0", rcon.DefaultTimeout); err != nil {
		logger.Log.Warn().Err(err).Str("instance", id.String()).Msg("benchmark: bot_quota reset failed")
	}

	result := &domain.BenchmarkResult{
		InstanceID:  id,
		BotCount:    r.config.MaxBots,
		AvgTickrate: avg(tickRates),
		MinTickrate: minOf(minTicks),
		CPUUsage:    avg(cpuUsages),
		RAMUsage:    avg(ramUsages),
		DurationSec: int(stepDuration.Seconds()) * totalSteps,
	}
	if err := r.store.SaveBenchmarkResult(result); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("instance", id.String()).
		Int("bots", r.config.MaxBots).
		Float64("avg_tick", result.AvgTickrate).
		Msg("benchmark completed")

	return result, nil
}

// Stop aborts an in-progress run.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

func avg(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
