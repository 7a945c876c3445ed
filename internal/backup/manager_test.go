package backup

import (
	"archive/zip"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

type memBackupStore struct {
	backups map[uuid.UUID]*domain.Backup
}

func newMemBackupStore() *memBackupStore {
	return &memBackupStore{backups: make(map[uuid.UUID]*domain.Backup)}
}

func (s *memBackupStore) SaveBackup(b *domain.Backup) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	s.backups[b.ID] = b
	return nil
}

func (s *memBackupStore) GetBackup(id uuid.UUID) (*domain.Backup, error) {
	b, ok := s.backups[id]
	if !ok {
		return nil, domain.Errorf(domain.KindNotFound, "backup %s not found", id)
	}
	return b, nil
}

func (s *memBackupStore) ListBackups(instanceID uuid.UUID) ([]domain.Backup, error) {
	var out []domain.Backup
	for _, b := range s.backups {
		if b.InstanceID == instanceID {
			out = append(out, *b)
		}
	}
	return out, nil
}

func (s *memBackupStore) DeleteBackup(id uuid.UUID) error {
	delete(s.backups, id)
	return nil
}

// seedInstall lays out a minimal install tree with a cfg file, a map
// and an addon so subset backups have something to pick from.
func seedInstall(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"game/csgo/cfg/server.cfg":        "hostname \"test\"\nsv_cheats \"0\"\n",
		"game/csgo/maps/de_dust2.vpk":     "mapdata",
		"game/csgo/addons/plugin/meta.txt": "plugin",
		"game/bin/cs2":                    "binary",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	var names []string
	for _, f := range r.File {
		if !f.FileInfo().IsDir() {
			names = append(names, f.Name)
		}
	}
	sort.Strings(names)
	return names
}

func TestCreateConfigSubset(t *testing.T) {
	install := seedInstall(t)
	store := newMemBackupStore()
	m := NewManager(t.TempDir(), store)
	id := uuid.New()

	b, err := m.Create(id, install, domain.BackupConfig)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.BackupType != domain.BackupConfig {
		t.Errorf("BackupType = %q", b.BackupType)
	}
	if b.SizeBytes <= 0 {
		t.Errorf("SizeBytes = %d", b.SizeBytes)
	}

	entries := zipEntries(t, b.Path)
	want := []string{"game/csgo/cfg/server.cfg"}
	if len(entries) != len(want) || entries[0] != want[0] {
		t.Errorf("entries = %v, want %v", entries, want)
	}
}

func TestCreateFullCapturesTree(t *testing.T) {
	install := seedInstall(t)
	m := NewManager(t.TempDir(), newMemBackupStore())

	b, err := m.Create(uuid.New(), install, domain.BackupFull)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	entries := zipEntries(t, b.Path)
	if len(entries) != 4 {
		t.Errorf("full backup has %d files, want 4: %v", len(entries), entries)
	}
}

func TestCreateInvalidType(t *testing.T) {
	m := NewManager(t.TempDir(), newMemBackupStore())
	_, err := m.Create(uuid.New(), t.TempDir(), "everything")
	if domain.KindOf(err) != domain.KindValidation {
		t.Fatalf("kind = %v, want validation", domain.KindOf(err))
	}
}

func TestRestoreRoundTrip(t *testing.T) {
	install := seedInstall(t)
	original, err := os.ReadFile(filepath.Join(install, "game", "csgo", "cfg", "server.cfg"))
	if err != nil {
		t.Fatal(err)
	}

	store := newMemBackupStore()
	m := NewManager(t.TempDir(), store)
	id := uuid.New()
	b, err := m.Create(id, install, domain.BackupConfig)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Mangle then restore.
	cfgPath := filepath.Join(install, "game", "csgo", "cfg", "server.cfg")
	if err := os.WriteFile(cfgPath, []byte("hostname \"broken\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := m.Restore(b.ID, install); err != nil {
		t.Fatalf("Restore: %v", err)
	}

	restored, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(restored) != string(original) {
		t.Errorf("restored cfg = %q, want %q", restored, original)
	}
}

func TestRestoreMissingArchive(t *testing.T) {
	store := newMemBackupStore()
	m := NewManager(t.TempDir(), store)
	b := &domain.Backup{InstanceID: uuid.New(), Path: filepath.Join(t.TempDir(), "gone.zip")}
	if err := store.SaveBackup(b); err != nil {
		t.Fatal(err)
	}
	err := m.Restore(b.ID, t.TempDir())
	if domain.KindOf(err) != domain.KindIO {
		t.Fatalf("kind = %v, want io", domain.KindOf(err))
	}
}

func TestUnzipRejectsPathEscape(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "evil.zip")
	f, err := os.Create(zipPath)
	if err != nil {
		t.Fatal(err)
	}
	w := zip.NewWriter(f)
	zf, err := w.Create("../escape.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := zf.Write([]byte("nope")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "dest")
	if err := unzip(zipPath, dest); err == nil {
		t.Fatal("expected error for escaping entry")
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("escaping file was written")
	}
}

func TestDeleteToleratesMissingFile(t *testing.T) {
	store := newMemBackupStore()
	m := NewManager(t.TempDir(), store)
	b := &domain.Backup{InstanceID: uuid.New(), Path: filepath.Join(t.TempDir(), "already-gone.zip")}
	if err := store.SaveBackup(b); err != nil {
		t.Fatal(err)
	}
	if err := m.Delete(b.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := store.GetBackup(b.ID); domain.KindOf(err) != domain.KindNotFound {
		t.Error("record not removed")
	}
}
