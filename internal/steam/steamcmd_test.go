package steam

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"testing"

	"cs2panel/internal/domain"
)

func fakeSteamCMD(t *testing.T, script string) *SteamCMD {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake steamcmd script needs /bin/sh")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "steamcmd.sh"), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return New(dir)
}

func TestRunForwardsOutputLines(t *testing.T) {
	s := fakeSteamCMD(t, `#!/bin/sh
echo "Loading Steam API...OK"
echo "Update state (0x61) downloading, progress: 42.50 (1 / 2)"
echo "Success! App '730' fully installed."
`)

	progressCh := make(chan domain.Progress, 16)
	var lines []string
	err := s.Run([]string{"+quit"}, progressCh, func(line string) {
		lines = append(lines, line)
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(lines) != 3 {
		t.Fatalf("got %d raw lines, want 3: %v", len(lines), lines)
	}
	if lines[0] != "Loading Steam API...OK" {
		t.Errorf("lines[0] = %q", lines[0])
	}

	var progress []domain.Progress
	for p := range progressCh {
		progress = append(progress, p)
	}
	if len(progress) != 2 {
		t.Fatalf("got %d progress values, want 2: %v", len(progress), progress)
	}
	if progress[0].Stage != "downloading" || progress[0].Percent != 42.5 {
		t.Errorf("progress[0] = %+v", progress[0])
	}
	if progress[1].Stage != "complete" || progress[1].Percent != 100 {
		t.Errorf("progress[1] = %+v", progress[1])
	}
}

func TestRunReportsExitFailure(t *testing.T) {
	s := fakeSteamCMD(t, `#!/bin/sh
echo "Error! App '730' state is 0x602 after update job."
exit 8
`)

	err := s.Run([]string{"+quit"}, nil, nil)
	if domain.KindOf(err) != domain.KindProcess {
		t.Fatalf("kind = %v, want process", domain.KindOf(err))
	}
}
