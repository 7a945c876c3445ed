package storage

import (
	"path/filepath"
	"testing"
	"time"

	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

func newTestStore(t *testing.T) *GormStore {
	t.Helper()
	store, err := NewGormStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewGormStore: %v", err)
	}
	return store
}

func seedInstance(t *testing.T, s *GormStore, name string, port int) *domain.Instance {
	t.Helper()
	inst := &domain.Instance{
		Name:     name,
		Port:     port,
		RconPort: port + 1,
		Status:   domain.StatusStopped,
	}
	if err := s.SaveInstance(inst); err != nil {
		t.Fatalf("SaveInstance: %v", err)
	}
	return inst
}

func TestInstanceCRUD(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "main", 27015)

	got, err := s.GetInstance(inst.ID)
	if err != nil {
		t.Fatalf("GetInstance: %v", err)
	}
	if got.Name != "main" || got.Port != 27015 {
		t.Errorf("got %q/%d", got.Name, got.Port)
	}

	if err := s.UpdateInstance(inst.ID, map[string]any{"max_players": 12}); err != nil {
		t.Fatalf("UpdateInstance: %v", err)
	}
	got, _ = s.GetInstance(inst.ID)
	if got.MaxPlayers != 12 {
		t.Errorf("MaxPlayers = %d, want 12", got.MaxPlayers)
	}

	if err := s.UpdateStatus(inst.ID, domain.StatusRunning); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	got, _ = s.GetInstance(inst.ID)
	if got.Status != domain.StatusRunning {
		t.Errorf("Status = %q", got.Status)
	}

	list, err := s.ListInstances()
	if err != nil || len(list) != 1 {
		t.Fatalf("ListInstances: %v, %d entries", err, len(list))
	}

	if err := s.DeleteInstance(inst.ID); err != nil {
		t.Fatalf("DeleteInstance: %v", err)
	}
	if _, err := s.GetInstance(inst.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind after delete = %v", domain.KindOf(err))
	}
}

func TestUpdateInstanceValidation(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)

	if err := s.UpdateInstance(inst.ID, nil); domain.KindOf(err) != domain.KindValidation {
		t.Errorf("empty update kind = %v", domain.KindOf(err))
	}
	err := s.UpdateInstance(uuid.New(), map[string]any{"name": "x"})
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("missing id kind = %v", domain.KindOf(err))
	}
}

func TestDeleteInstanceCascades(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)

	if err := s.SaveBan(&domain.BanEntry{InstanceID: inst.ID, SteamID: "765", IsPermanent: true}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTask(&domain.ScheduledTask{InstanceID: inst.ID, Name: "nightly", CronExpr: "0 4 * * *", Action: domain.TaskActionBackup}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBackup(&domain.Backup{InstanceID: inst.ID, Path: "/tmp/b.zip", BackupType: domain.BackupFull}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveProfile(&domain.ConfigProfile{InstanceID: inst.ID, Name: "comp"}); err != nil {
		t.Fatal(err)
	}

	if err := s.DeleteInstance(inst.ID); err != nil {
		t.Fatalf("DeleteInstance: %v", err)
	}

	if bans, _ := s.ListBans(inst.ID, time.Now()); len(bans) != 0 {
		t.Errorf("bans survived delete: %d", len(bans))
	}
	if tasks, _ := s.ListTasks(inst.ID); len(tasks) != 0 {
		t.Errorf("tasks survived delete: %d", len(tasks))
	}
	if backups, _ := s.ListBackups(inst.ID); len(backups) != 0 {
		t.Errorf("backups survived delete: %d", len(backups))
	}
	if profiles, _ := s.ListProfiles(inst.ID); len(profiles) != 0 {
		t.Errorf("profiles survived delete: %d", len(profiles))
	}
}

func TestListBansFiltersExpired(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)
	now := time.Now()

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	bans := []*domain.BanEntry{
		{InstanceID: inst.ID, SteamID: "expired", ExpiresAt: &past},
		{InstanceID: inst.ID, SteamID: "active", ExpiresAt: &future},
		{InstanceID: inst.ID, SteamID: "permanent", IsPermanent: true},
	}
	for _, b := range bans {
		if err := s.SaveBan(b); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListBans(inst.ID, now)
	if err != nil {
		t.Fatalf("ListBans: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d bans, want 2", len(got))
	}
	for _, b := range got {
		if b.SteamID == "expired" {
			t.Error("expired ban returned")
		}
	}
}

func TestFindBanBySteamID(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)
	if err := s.SaveBan(&domain.BanEntry{InstanceID: inst.ID, SteamID: "765", IsPermanent: true}); err != nil {
		t.Fatal(err)
	}

	b, err := s.FindBanBySteamID(inst.ID, "765")
	if err != nil {
		t.Fatalf("FindBanBySteamID: %v", err)
	}
	if err := s.DeleteBan(b.ID); err != nil {
		t.Fatalf("DeleteBan: %v", err)
	}
	if _, err := s.FindBanBySteamID(inst.ID, "765"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind = %v", domain.KindOf(err))
	}
}

func TestTaskRunsPersist(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)
	task := &domain.ScheduledTask{
		InstanceID: inst.ID,
		Name:       "restart",
		CronExpr:   "0 6 * * *",
		Action:     domain.TaskActionRestart,
		Enabled:    true,
	}
	if err := s.SaveTask(task); err != nil {
		t.Fatal(err)
	}

	last := time.Now().Truncate(time.Second)
	next := last.Add(24 * time.Hour)
	if err := s.UpdateTaskRuns(task.ID, &last, &next); err != nil {
		t.Fatalf("UpdateTaskRuns: %v", err)
	}

	got, err := s.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask: %v", err)
	}
	if got.LastRun == nil || !got.LastRun.Equal(last) {
		t.Errorf("LastRun = %v, want %v", got.LastRun, last)
	}
	if got.NextRun == nil || !got.NextRun.Equal(next) {
		t.Errorf("NextRun = %v, want %v", got.NextRun, next)
	}
}

func TestListEnabledTasks(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)

	on := &domain.ScheduledTask{InstanceID: inst.ID, Name: "on", CronExpr: "* * * * *", Action: domain.TaskActionRcon, Enabled: true}
	off := &domain.ScheduledTask{InstanceID: inst.ID, Name: "off", CronExpr: "* * * * *", Action: domain.TaskActionRcon, Enabled: false}
	for _, task := range []*domain.ScheduledTask{on, off} {
		if err := s.SaveTask(task); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListEnabledTasks()
	if err != nil {
		t.Fatalf("ListEnabledTasks: %v", err)
	}
	if len(got) != 1 || got[0].Name != "on" {
		t.Errorf("got %v", got)
	}
}

func TestSetActiveProfileSwitches(t *testing.T) {
	s := newTestStore(t)
	inst := seedInstance(t, s, "a", 27015)

	p1 := &domain.ConfigProfile{InstanceID: inst.ID, Name: "casual", IsActive: true}
	p2 := &domain.ConfigProfile{InstanceID: inst.ID, Name: "comp"}
	for _, p := range []*domain.ConfigProfile{p1, p2} {
		if err := s.SaveProfile(p); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.SetActiveProfile(inst.ID, p2.ID); err != nil {
		t.Fatalf("SetActiveProfile: %v", err)
	}

	profiles, err := s.ListProfiles(inst.ID)
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range profiles {
		switch p.ID {
		case p1.ID:
			if p.IsActive {
				t.Error("old profile still active")
			}
		case p2.ID:
			if !p.IsActive {
				t.Error("new profile not active")
			}
		}
	}

	err = s.SetActiveProfile(inst.ID, uuid.New())
	if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind = %v", domain.KindOf(err))
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.GetSetting("steamcmd_path"); domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind = %v", domain.KindOf(err))
	}
	if err := s.SetSetting("steamcmd_path", "/opt/steamcmd"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting("steamcmd_path", "/usr/local/steamcmd"); err != nil {
		t.Fatal(err)
	}
	v, err := s.GetSetting("steamcmd_path")
	if err != nil {
		t.Fatal(err)
	}
	if v != "/usr/local/steamcmd" {
		t.Errorf("value = %q", v)
	}
}

func TestAuditLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		if err := s.AppendAudit(&domain.AuditLog{Action: "start", Target: "inst"}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := s.ListAudit(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Errorf("got %d entries, want 3", len(entries))
	}
}
