package supervisor

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

type memInstanceStore struct {
	mu        sync.Mutex
	instances map[uuid.UUID]*domain.Instance
	history   map[uuid.UUID][]string
}

func newMemInstanceStore() *memInstanceStore {
	return &memInstanceStore{
		instances: make(map[uuid.UUID]*domain.Instance),
		history:   make(map[uuid.UUID][]string),
	}
}

func (s *memInstanceStore) SaveInstance(inst *domain.Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst.ID == uuid.Nil {
		inst.ID = uuid.New()
	}
	cp := *inst
	s.instances[inst.ID] = &cp
	return nil
}

func (s *memInstanceStore) GetInstance(id uuid.UUID) (*domain.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "instance %s not found", id)
	}
	cp := *inst
	return &cp, nil
}

func (s *memInstanceStore) ListInstances() ([]domain.Instance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Instance
	for _, inst := range s.instances {
		out = append(out, *inst)
	}
	return out, nil
}

func (s *memInstanceStore) UpdateInstance(id uuid.UUID, fields map[string]any) error {
	return nil
}

func (s *memInstanceStore) UpdateStatus(id uuid.UUID, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	inst, ok := s.instances[id]
	if !ok {
		return domain.Errorf(domain.KindNotFound, "instance %s not found", id)
	}
	inst.Status = status
	s.history[id] = append(s.history[id], status)
	return nil
}

func (s *memInstanceStore) DeleteInstance(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.instances, id)
	return nil
}

func (s *memInstanceStore) status(id uuid.UUID) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if inst, ok := s.instances[id]; ok {
		return inst.Status
	}
	return ""
}

func (s *memInstanceStore) statusHistory(id uuid.UUID) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history[id]...)
}

func skipIfNoShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake server scripts need /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// installFakeServer places a shell script at the path the supervisor
// expects the server binary, so real processes can be spawned.
func installFakeServer(t *testing.T, installPath, script string) {
	t.Helper()
	path := exePath(installPath)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

// obedientScript logs its pid and serves until it reads "quit".
func obedientScript(spawnLog string) string {
	return fmt.Sprintf(`#!/bin/sh
echo $$ >> %q
echo "server started"
while read line; do
  [ "$line" = "quit" ] && exit 0
done
exit 0
`, spawnLog)
}

func spawnCount(t *testing.T, spawnLog string) int {
	t.Helper()
	data, err := os.ReadFile(spawnLog)
	if err != nil {
		if os.IsNotExist(err) {
			return 0
		}
		t.Fatal(err)
	}
	return len(strings.Fields(string(data)))
}

func waitFor(t *testing.T, d time.Duration, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func seedTestInstance(t *testing.T, store *memInstanceStore, autoRestart bool) *domain.Instance {
	t.Helper()
	inst := &domain.Instance{
		Name:        "srv",
		Port:        27015,
		InstallPath: t.TempDir(),
		AutoRestart: autoRestart,
		Status:      domain.StatusStopped,
	}
	if err := store.SaveInstance(inst); err != nil {
		t.Fatal(err)
	}
	return inst
}

func TestStartReadyStop(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, false)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")
	installFakeServer(t, inst.InstallPath, obedientScript(spawnLog))

	sup := New(store, func(*domain.Instance) error { return nil })

	if err := sup.Start(inst.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !sup.IsRunning(inst.ID) {
		t.Fatal("not running after Start")
	}
	if sup.PID(inst.ID) <= 0 {
		t.Error("no pid for running instance")
	}
	if store.status(inst.ID) != domain.StatusRunning {
		t.Errorf("status = %q, want running", store.status(inst.ID))
	}

	waitFor(t, 2*time.Second, func() bool {
		return len(sup.ConsoleTail(inst.ID, 10)) > 0
	}, "no console output captured")

	if err := sup.Stop(inst.ID); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if sup.IsRunning(inst.ID) {
		t.Error("still running after Stop")
	}
	if store.status(inst.ID) != domain.StatusStopped {
		t.Errorf("status = %q, want stopped", store.status(inst.ID))
	}

	history := store.statusHistory(inst.ID)
	want := []string{domain.StatusStarting, domain.StatusRunning, domain.StatusStopping, domain.StatusStopped}
	if len(history) != len(want) {
		t.Fatalf("status history = %v, want %v", history, want)
	}
	for i := range want {
		if history[i] != want[i] {
			t.Fatalf("status history = %v, want %v", history, want)
		}
	}
}

func TestStartWhileRunningConflicts(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, false)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")
	installFakeServer(t, inst.InstallPath, obedientScript(spawnLog))

	sup := New(store, nil)
	if err := sup.Start(inst.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Stop(inst.ID)

	if err := sup.Start(inst.ID); domain.KindOf(err) != domain.KindConflict {
		t.Fatalf("second Start kind = %v, want conflict", domain.KindOf(err))
	}
}

func TestConcurrentStartSpawnsOneProcess(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, false)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")
	installFakeServer(t, inst.InstallPath, obedientScript(spawnLog))

	// A stalling readiness probe keeps the winning Start inside its
	// startup window while the second call races it.
	sup := New(store, func(*domain.Instance) error {
		time.Sleep(200 * time.Millisecond)
		return nil
	})

	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() { errs <- sup.Start(inst.ID) }()
	}

	var okCount, conflictCount int
	for i := 0; i < 2; i++ {
		err := <-errs
		switch {
		case err == nil:
			okCount++
		case domain.KindOf(err) == domain.KindConflict:
			conflictCount++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	defer sup.Stop(inst.ID)

	if okCount != 1 || conflictCount != 1 {
		t.Errorf("got %d successes and %d conflicts, want 1 and 1", okCount, conflictCount)
	}
	if n := spawnCount(t, spawnLog); n != 1 {
		t.Errorf("%d processes spawned for one instance, want 1", n)
	}
}

func TestStartupTimeoutLeavesCrashed(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, false)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")
	installFakeServer(t, inst.InstallPath, obedientScript(spawnLog))

	sup := New(store, func(*domain.Instance) error {
		return domain.Errorf(domain.KindProcess, "not ready")
	})
	sup.SetStartupTimeout(100 * time.Millisecond)

	err := sup.Start(inst.ID)
	if domain.KindOf(err) != domain.KindProcess {
		t.Fatalf("kind = %v, want process", domain.KindOf(err))
	}
	if sup.IsRunning(inst.ID) {
		t.Error("process survived startup timeout")
	}
	if store.status(inst.ID) != domain.StatusCrashed {
		t.Errorf("status = %q, want crashed", store.status(inst.ID))
	}
}

func TestCrashTriggersAutoRestart(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, true)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")
	marker := filepath.Join(inst.InstallPath, "crashed-once")

	// First run crashes shortly after coming up; every later run
	// behaves.
	script := fmt.Sprintf(`#!/bin/sh
echo $$ >> %q
if [ ! -e %q ]; then
  : > %q
  sleep 0.2
  exit 1
fi
while read line; do
  [ "$line" = "quit" ] && exit 0
done
exit 0
`, spawnLog, marker, marker)
	installFakeServer(t, inst.InstallPath, script)

	sup := New(store, nil)
	if err := sup.Start(inst.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer sup.Stop(inst.ID)

	sup.mu.Lock()
	w := sup.watchdogs[inst.ID]
	sup.mu.Unlock()
	if w == nil {
		t.Fatal("no watchdog for auto-restart instance")
	}
	w.mu.Lock()
	w.backoff = 5 * time.Millisecond
	w.mu.Unlock()

	waitFor(t, 5*time.Second, func() bool {
		return spawnCount(t, spawnLog) >= 2 && sup.IsRunning(inst.ID)
	}, "instance was not restarted after crash")

	if store.status(inst.ID) != domain.StatusRunning {
		t.Errorf("status = %q, want running after restart", store.status(inst.ID))
	}
}

func TestRestartBudgetExhaustedStaysCrashed(t *testing.T) {
	skipIfNoShell(t)
	store := newMemInstanceStore()
	inst := seedTestInstance(t, store, true)
	spawnLog := filepath.Join(inst.InstallPath, "spawns")

	script := fmt.Sprintf(`#!/bin/sh
echo $$ >> %q
sleep 0.1
exit 1
`, spawnLog)
	installFakeServer(t, inst.InstallPath, script)

	var gaveUp string
	var mu sync.Mutex
	sup := New(store, nil)
	sup.SetOnError(func(id uuid.UUID, msg string) {
		mu.Lock()
		gaveUp = msg
		mu.Unlock()
	})

	if err := sup.Start(inst.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sup.mu.Lock()
	w := sup.watchdogs[inst.ID]
	sup.mu.Unlock()
	if w == nil {
		t.Fatal("no watchdog for auto-restart instance")
	}
	w.mu.Lock()
	w.backoff = time.Millisecond
	w.mu.Unlock()

	waitFor(t, 15*time.Second, func() bool {
		return !sup.hasWatchdog(inst.ID) && store.status(inst.ID) == domain.StatusCrashed
	}, "budget exhaustion did not leave instance crashed")

	if sup.IsRunning(inst.ID) {
		t.Error("process still attached after giving up")
	}
	// one initial run plus maxRestartAttempts restarts
	if n := spawnCount(t, spawnLog); n != maxRestartAttempts+1 {
		t.Errorf("spawned %d times, want %d", n, maxRestartAttempts+1)
	}
	mu.Lock()
	defer mu.Unlock()
	if !strings.Contains(gaveUp, "budget") {
		t.Errorf("missing give-up notification, got %q", gaveUp)
	}
}
