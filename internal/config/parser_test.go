package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseCfgLine(t *testing.T) {
	cases := []struct {
		line  string
		key   string
		value string
		ok    bool
	}{
		{`hostname "My Server"`, "hostname", "My Server", true},
		{`sv_cheats 0`, "sv_cheats", "0", true},
		{`mp_freezetime   5`, "mp_freezetime", "5", true},
		{`exec`, "exec", "", true},
		{`rcon_password "p@ss word"`, "rcon_password", "p@ss word", true},
		{`bot_quota_mode fill mode`, "bot_quota_mode", "fill mode", true},
		{``, "", "", false},
	}

	for _, tc := range cases {
		key, value, ok := parseCfgLine(tc.line)
		if ok != tc.ok || key != tc.key || value != tc.value {
			t.Errorf("parseCfgLine(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tc.line, key, value, ok, tc.key, tc.value, tc.ok)
		}
	}
}

func TestReadCfgFileSkipsCommentsAndBlanks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.cfg")
	content := `// managed by panel
hostname "Test Server"

sv_cheats 0
// mp_autoteambalance 1
mp_maxrounds "30"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cvars, err := ReadCfgFile(path)
	if err != nil {
		t.Fatalf("ReadCfgFile: %v", err)
	}
	want := map[string]string{
		"hostname":     "Test Server",
		"sv_cheats":    "0",
		"mp_maxrounds": "30",
	}
	if len(cvars) != len(want) {
		t.Fatalf("got %d cvars, want %d: %v", len(cvars), len(want), cvars)
	}
	for k, v := range want {
		if cvars[k] != v {
			t.Errorf("cvars[%q] = %q, want %q", k, cvars[k], v)
		}
	}
}

func TestWriteCfgFileDeterministic(t *testing.T) {
	dir := t.TempDir()
	cvars := map[string]string{
		"sv_cheats":    "0",
		"hostname":     "A Server",
		"mp_maxrounds": "30",
	}

	pathA := filepath.Join(dir, "a.cfg")
	pathB := filepath.Join(dir, "b.cfg")
	if err := WriteCfgFile(pathA, cvars); err != nil {
		t.Fatal(err)
	}
	if err := WriteCfgFile(pathB, cvars); err != nil {
		t.Fatal(err)
	}

	a, _ := os.ReadFile(pathA)
	b, _ := os.ReadFile(pathB)
	if string(a) != string(b) {
		t.Error("repeated writes of the same map differ")
	}
}

func TestCfgRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cvars := map[string]string{
		"hostname":       "Round Trip",
		"sv_cheats":      "0",
		"mp_freezetime":  "5",
		"bot_quota_mode": "fill",
	}

	path := filepath.Join(dir, "server.cfg")
	if err := WriteCfgFile(path, cvars); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := ReadCfgFile(path)
	if err != nil {
		t.Fatalf("ReadCfgFile: %v", err)
	}
	if err := WriteCfgFile(path, parsed); err != nil {
		t.Fatal(err)
	}
	second, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if string(first) != string(second) {
		t.Errorf("write-read-write is not byte identical:\nfirst:\n%s\nsecond:\n%s", first, second)
	}
}

func TestMapcycleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapcycle.txt")
	maps := []string{"de_dust2", "de_mirage", "de_inferno"}

	if err := WriteMapcycle(path, maps); err != nil {
		t.Fatal(err)
	}
	got, err := ReadMapcycle(path)
	if err != nil {
		t.Fatalf("ReadMapcycle: %v", err)
	}
	if len(got) != len(maps) {
		t.Fatalf("got %d maps, want %d", len(got), len(maps))
	}
	for i := range maps {
		if got[i] != maps[i] {
			t.Errorf("maps[%d] = %q, want %q", i, got[i], maps[i])
		}
	}
}

func TestCvarDatabaseLookups(t *testing.T) {
	if len(CvarDatabase) == 0 {
		t.Fatal("cvar database is empty")
	}
	if !IsHotReloadable("mp_autoteambalance") && !IsHotReloadable("sv_cheats") {
		t.Error("expected at least one known hot-reloadable cvar")
	}
	if IsHotReloadable("sv_no_such_cvar_xyz") {
		t.Error("unknown cvar reported as hot-reloadable")
	}
}
