package files

import (
	"os"
	"path/filepath"
	"testing"

	"cs2panel/internal/domain"
)

func TestResolveRejectsTraversal(t *testing.T) {
	root := t.TempDir()

	bad := []string{
		"../outside",
		"../../etc/passwd",
		"cfg/../../outside",
		"..",
	}
	for _, p := range bad {
		if _, err := Resolve(root, p); err == nil {
			t.Errorf("Resolve(%q): expected traversal error", p)
		} else if domain.KindOf(err) != domain.KindValidation {
			t.Errorf("Resolve(%q): kind = %v, want KindValidation", p, domain.KindOf(err))
		}
	}
}

func TestResolveAllowsInside(t *testing.T) {
	root := t.TempDir()

	good := []string{"", ".", "cfg", "cfg/server.cfg", "maps/de_dust2.vpk"}
	for _, p := range good {
		abs, err := Resolve(root, p)
		if err != nil {
			t.Errorf("Resolve(%q): %v", p, err)
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil || rel == ".." || filepath.IsAbs(rel) {
			t.Errorf("Resolve(%q) = %q, escapes root", p, abs)
		}
	}
}

func TestResolveRejectsSymlinkEscape(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "root")
	outside := filepath.Join(base, "outside")
	if err := os.MkdirAll(root, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(outside, 0755); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(root, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	if _, err := Resolve(root, "link"); err == nil {
		t.Error("expected error resolving symlink out of root")
	}
}

func TestListReadWriteDelete(t *testing.T) {
	root := t.TempDir()

	if err := Write(root, "cfg/server.cfg", "hostname \"x\"\n"); err != nil {
		t.Fatalf("Write: %v", err)
	}

	entries, err := List(root, "cfg")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Name != "server.cfg" || entries[0].IsDir {
		t.Fatalf("List = %+v", entries)
	}

	data, err := Read(root, "cfg/server.cfg")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if data != "hostname \"x\"\n" {
		t.Errorf("Read = %q", data)
	}

	if err := Delete(root, "cfg/server.cfg"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := Read(root, "cfg/server.cfg"); err == nil {
		t.Error("expected error reading deleted file")
	} else if domain.KindOf(err) != domain.KindNotFound {
		t.Errorf("kind = %v, want KindNotFound", domain.KindOf(err))
	}
}

func TestReadRejectsDirectory(t *testing.T) {
	root := t.TempDir()
	if err := Mkdir(root, "cfg"); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	if _, err := Read(root, "cfg"); err == nil {
		t.Error("expected error reading a directory")
	}
}

func TestDeleteNonEmptyDirectoryConflicts(t *testing.T) {
	root := t.TempDir()
	if err := Write(root, "cfg/server.cfg", "x"); err != nil {
		t.Fatal(err)
	}
	err := Delete(root, "cfg")
	if err == nil {
		t.Fatal("expected conflict deleting non-empty directory")
	}
	if domain.KindOf(err) != domain.KindConflict {
		t.Errorf("kind = %v, want KindConflict", domain.KindOf(err))
	}
}

func TestRename(t *testing.T) {
	root := t.TempDir()
	if err := Write(root, "a.txt", "x"); err != nil {
		t.Fatal(err)
	}
	if err := Rename(root, "a.txt", "b.txt"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if _, err := Read(root, "b.txt"); err != nil {
		t.Errorf("Read renamed: %v", err)
	}
	if err := Rename(root, "b.txt", "../escape.txt"); err == nil {
		t.Error("expected error renaming outside root")
	}
}
