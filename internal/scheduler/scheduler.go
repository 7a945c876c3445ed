package scheduler

import (
	"sync"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Runner executes a due task action. Implementations must be safe to
// call from the scheduler goroutine.
type Runner interface {
	RunTask(task domain.ScheduledTask) error
}

var cronParser = cron.NewParser(
	cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// ParseCron validates a 5-field cron expression.
func ParseCron(expr string) (cron.Schedule, error) {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return nil, domain.Errorf(domain.KindValidation, "invalid cron expression %q: %w", expr, err)
	}
	return sched, nil
}

type entry struct {
	task    domain.ScheduledTask
	sched   cron.Schedule
	nextRun time.Time
}

// Scheduler fires cron tasks with minute granularity. Schedules are
// evaluated in the configured location.
type Scheduler struct {
	store  domain.TaskRepository
	runner Runner
	loc    *time.Location

	mu     sync.Mutex
	tasks  map[uuid.UUID]*entry
	stopCh chan struct{}
}

func New(store domain.TaskRepository, runner Runner, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		store:  store,
		runner: runner,
		loc:    loc,
		tasks:  make(map[uuid.UUID]*entry),
	}
}

// Start loads enabled tasks and begins ticking once a minute. Calling
// Start on a running scheduler is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopCh != nil {
		return nil
	}

	dbTasks, err := s.store.ListEnabledTasks()
	if err != nil {
		return err
	}

	now := time.Now().In(s.loc)
	for i := range dbTasks {
		t := dbTasks[i]
		sched, err := ParseCron(t.CronExpr)
		if err != nil {
			logger.Log.Warn().Err(err).
				Str("task", t.ID.String()).
				Str("cron", t.CronExpr).
				Msg("scheduler: skipping task with invalid cron")
			continue
		}
		s.tasks[t.ID] = &entry{task: t, sched: sched, nextRun: sched.Next(now)}
	}

	s.stopCh = make(chan struct{})
	go s.run(s.stopCh)
	logger.Log.Info().Int("tasks", len(s.tasks)).Msg("scheduler started")
	return nil
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopCh == nil {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	logger.Log.Info().Msg("scheduler stopped")
}

func (s *Scheduler) run(stopCh chan struct{}) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick(time.Now())
		}
	}
}

// tick fires every task whose next run time has arrived. A failing
// task is logged and rescheduled; it never blocks other tasks.
func (s *Scheduler) tick(now time.Time) {
	now = now.In(s.loc)

	s.mu.Lock()
	var due []*entry
	for _, e := range s.tasks {
		if !e.nextRun.After(now) {
			due = append(due, e)
		}
	}
	for _, e := range due {
		e.nextRun = e.sched.Next(now)
	}
	s.mu.Unlock()

	for _, e := range due {
		lastRun := now
		nextRun := e.nextRun
		if err := s.store.UpdateTaskRuns(e.task.ID, &lastRun, &nextRun); err != nil {
			logger.Log.Warn().Err(err).Str("task", e.task.ID.String()).Msg("scheduler: persist run times failed")
		}

		if err := s.runner.RunTask(e.task); err != nil {
			logger.Log.Warn().Err(err).
				Str("task", e.task.ID.String()).
				Str("action", e.task.Action).
				Msg("scheduler: task failed")
		}
	}
}

// AddTask validates, persists and registers a new task.
func (s *Scheduler) AddTask(task *domain.ScheduledTask) error {
	sched, err := ParseCron(task.CronExpr)
	if err != nil {
		return err
	}

	next := sched.Next(time.Now().In(s.loc))
	task.NextRun = &next
	if err := s.store.SaveTask(task); err != nil {
		return err
	}

	if task.Enabled {
		s.mu.Lock()
		s.tasks[task.ID] = &entry{task: *task, sched: sched, nextRun: next}
		s.mu.Unlock()
	}
	return nil
}

// SetEnabled toggles a task. Re-enabling recomputes next_run from now
// instead of firing missed occurrences.
func (s *Scheduler) SetEnabled(taskID uuid.UUID, enabled bool) error {
	task, err := s.store.GetTask(taskID)
	if err != nil {
		return err
	}

	if !enabled {
		if err := s.store.UpdateTask(taskID, map[string]any{"enabled": false}); err != nil {
			return err
		}
		s.mu.Lock()
		delete(s.tasks, taskID)
		s.mu.Unlock()
		return nil
	}

	sched, err := ParseCron(task.CronExpr)
	if err != nil {
		return err
	}
	next := sched.Next(time.Now().In(s.loc))
	if err := s.store.UpdateTask(taskID, map[string]any{"enabled": true, "next_run": next}); err != nil {
		return err
	}

	task.Enabled = true
	task.NextRun = &next
	s.mu.Lock()
	s.tasks[taskID] = &entry{task: *task, sched: sched, nextRun: next}
	s.mu.Unlock()
	return nil
}

// RemoveTask unregisters and deletes a task.
func (s *Scheduler) RemoveTask(taskID uuid.UUID) error {
	s.mu.Lock()
	delete(s.tasks, taskID)
	s.mu.Unlock()
	return s.store.DeleteTask(taskID)
}

// NextRun reports the in-memory next fire time for a registered task.
func (s *Scheduler) NextRun(taskID uuid.UUID) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.tasks[taskID]
	if !ok {
		return time.Time{}, false
	}
	return e.nextRun, true
}
