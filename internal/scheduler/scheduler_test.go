package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"cs2panel/internal/domain"
)

type memTaskStore struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.ScheduledTask
}

func newMemTaskStore() *memTaskStore {
	return &memTaskStore{tasks: make(map[uuid.UUID]*domain.ScheduledTask)}
}

func (s *memTaskStore) SaveTask(task *domain.ScheduledTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	cp := *task
	s.tasks[task.ID] = &cp
	return nil
}

func (s *memTaskStore) GetTask(id uuid.UUID) (*domain.ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "task %s not found", id)
	}
	cp := *t
	return &cp, nil
}

func (s *memTaskStore) ListTasks(instanceID uuid.UUID) ([]domain.ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScheduledTask
	for _, t := range s.tasks {
		if t.InstanceID == instanceID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memTaskStore) ListEnabledTasks() ([]domain.ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ScheduledTask
	for _, t := range s.tasks {
		if t.Enabled {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memTaskStore) UpdateTaskRuns(id uuid.UUID, lastRun, nextRun *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.LastRun = lastRun
		t.NextRun = nextRun
	}
	return nil
}

func (s *memTaskStore) UpdateTask(id uuid.UUID, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "task %s not found", id)
	}
	if v, ok := fields["enabled"]; ok {
		t.Enabled = v.(bool)
	}
	if v, ok := fields["next_run"]; ok {
		next := v.(time.Time)
		t.NextRun = &next
	}
	return nil
}

func (s *memTaskStore) DeleteTask(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
	return nil
}

type recordingRunner struct {
	mu   sync.Mutex
	runs []domain.ScheduledTask
	err  error
}

func (r *recordingRunner) RunTask(task domain.ScheduledTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, task)
	return r.err
}

func (r *recordingRunner) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.runs)
}

func TestParseCron(t *testing.T) {
	valid := []string{"* * * * *", "0 4 * * *", "*/15 * * * *", "30 2 * * 0"}
	for _, expr := range valid {
		if _, err := ParseCron(expr); err != nil {
			t.Errorf("ParseCron(%q): %v", expr, err)
		}
	}

	invalid := []string{"", "* * * *", "61 * * * *", "not a cron", "* * * * * *"}
	for _, expr := range invalid {
		_, err := ParseCron(expr)
		if err == nil {
			t.Errorf("ParseCron(%q): expected error", expr)
			continue
		}
		if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("ParseCron(%q): kind = %v, want KindValidation", expr, domain.KindOf(err))
		}
	}
}

func TestAddTaskComputesNextRun(t *testing.T) {
	store := newMemTaskStore()
	s := New(store, &recordingRunner{}, time.UTC)

	task := &domain.ScheduledTask{
		InstanceID: uuid.New(),
		Name:       "nightly restart",
		CronExpr:   "0 4 * * *",
		Action:     domain.TaskActionRestart,
		Enabled:    true,
	}
	if err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}
	if task.NextRun == nil {
		t.Fatal("NextRun not set")
	}
	if task.NextRun.Hour() != 4 || task.NextRun.Minute() != 0 {
		t.Errorf("NextRun = %v, want 04:00", task.NextRun)
	}

	next, ok := s.NextRun(task.ID)
	if !ok {
		t.Fatal("task not registered")
	}
	if !next.Equal(*task.NextRun) {
		t.Errorf("NextRun() = %v, want %v", next, *task.NextRun)
	}
}

func TestAddTaskRejectsInvalidCron(t *testing.T) {
	s := New(newMemTaskStore(), &recordingRunner{}, time.UTC)
	task := &domain.ScheduledTask{CronExpr: "bad", Action: domain.TaskActionBackup, Enabled: true}
	if err := s.AddTask(task); err == nil {
		t.Fatal("expected error for invalid cron")
	}
}

func TestTickFiresDueTasks(t *testing.T) {
	store := newMemTaskStore()
	runner := &recordingRunner{}
	s := New(store, runner, time.UTC)

	task := &domain.ScheduledTask{
		InstanceID: uuid.New(),
		CronExpr:   "* * * * *",
		Action:     domain.TaskActionBackup,
		Enabled:    true,
	}
	if err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	// two minutes past the registered next run
	s.tick(time.Now().Add(2 * time.Minute))

	if runner.count() != 1 {
		t.Fatalf("runs = %d, want 1", runner.count())
	}

	stored, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if stored.LastRun == nil || stored.NextRun == nil {
		t.Error("run times not persisted")
	}
}

func TestTickDoesNotDoubleFire(t *testing.T) {
	store := newMemTaskStore()
	runner := &recordingRunner{}
	s := New(store, runner, time.UTC)

	task := &domain.ScheduledTask{
		InstanceID: uuid.New(),
		CronExpr:   "* * * * *",
		Action:     domain.TaskActionBackup,
		Enabled:    true,
	}
	if err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	now := time.Now().Add(2 * time.Minute)
	s.tick(now)
	s.tick(now)

	if runner.count() != 1 {
		t.Errorf("runs = %d, want 1 (same instant must not fire twice)", runner.count())
	}
}

func TestTickSkipsFutureTasks(t *testing.T) {
	store := newMemTaskStore()
	runner := &recordingRunner{}
	s := New(store, runner, time.UTC)

	task := &domain.ScheduledTask{
		InstanceID: uuid.New(),
		CronExpr:   "0 4 * * *",
		Action:     domain.TaskActionRestart,
		Enabled:    true,
	}
	if err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	s.tick(time.Now())
	if runner.count() != 0 {
		t.Errorf("runs = %d, want 0", runner.count())
	}
}

func TestTaskFailureDoesNotStopOthers(t *testing.T) {
	store := newMemTaskStore()
	runner := &recordingRunner{err: domain.Errorf(domain.KindProcess, "boom")}
	s := New(store, runner, time.UTC)

	for i := 0; i < 3; i++ {
		task := &domain.ScheduledTask{
			InstanceID: uuid.New(),
			CronExpr:   "* * * * *",
			Action:     domain.TaskActionBackup,
			Enabled:    true,
		}
		if err := s.AddTask(task); err != nil {
			t.Fatalf("AddTask: %v", err)
		}
	}

	s.tick(time.Now().Add(2 * time.Minute))
	if runner.count() != 3 {
		t.Errorf("runs = %d, want 3 despite failures", runner.count())
	}
}

func TestSetEnabled(t *testing.T) {
	store := newMemTaskStore()
	s := New(store, &recordingRunner{}, time.UTC)

	task := &domain.ScheduledTask{
		InstanceID: uuid.New(),
		CronExpr:   "* * * * *",
		Action:     domain.TaskActionBackup,
		Enabled:    true,
	}
	if err := s.AddTask(task); err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	if err := s.SetEnabled(task.ID, false); err != nil {
		t.Fatalf("SetEnabled(false): %v", err)
	}
	if _, ok := s.NextRun(task.ID); ok {
		t.Error("disabled task still registered")
	}
	stored, _ := store.GetTask(task.ID)
	if stored.Enabled {
		t.Error("disabled flag not persisted")
	}

	if err := s.SetEnabled(task.ID, true); err != nil {
		t.Fatalf("SetEnabled(true): %v", err)
	}
	next, ok := s.NextRun(task.ID)
	if !ok {
		t.Fatal("re-enabled task not registered")
	}
	if !next.After(time.Now()) {
		t.Errorf("next run %v is in the past; missed occurrences must not fire", next)
	}
}

func TestStartLoadsEnabledTasksOnly(t *testing.T) {
	store := newMemTaskStore()
	enabled := &domain.ScheduledTask{ID: uuid.New(), CronExpr: "* * * * *", Enabled: true}
	disabled := &domain.ScheduledTask{ID: uuid.New(), CronExpr: "* * * * *", Enabled: false}
	broken := &domain.ScheduledTask{ID: uuid.New(), CronExpr: "garbage", Enabled: true}
	store.SaveTask(enabled)
	store.SaveTask(disabled)
	store.SaveTask(broken)

	s := New(store, &recordingRunner{}, time.UTC)
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	if _, ok := s.NextRun(enabled.ID); !ok {
		t.Error("enabled task not loaded")
	}
	if _, ok := s.NextRun(disabled.ID); ok {
		t.Error("disabled task loaded")
	}
	if _, ok := s.NextRun(broken.ID); ok {
		t.Error("task with invalid cron loaded")
	}
}
