package supervisor

import (
	"fmt"
	"strconv"
	"testing"

	"cs2panel/internal/domain"
)

func argValue(t *testing.T, args []string, flag string) string {
	t.Helper()
	for i, a := range args {
		if a == flag {
			if i+1 >= len(args) {
				t.Fatalf("%s has no value in %v", flag, args)
			}
			return args[i+1]
		}
	}
	t.Fatalf("%s not found in %v", flag, args)
	return ""
}

func TestBuildLaunchArgs(t *testing.T) {
	inst := &domain.Instance{
		Port:         27025,
		GameMode:     "deathmatch",
		CurrentMap:   "de_mirage",
		MaxPlayers:   16,
		RconPassword: "secret",
		GsltToken:    "TOKEN123",
		LaunchArgs:   "-tickrate 128 +sv_cheats 0",
	}

	args := buildLaunchArgs(inst)

	if argValue(t, args, "-port") != "27025" {
		t.Error("port not carried through")
	}
	if argValue(t, args, "+game_mode") != "2" || argValue(t, args, "+game_type") != "1" {
		t.Errorf("deathmatch mode args wrong: %v", args)
	}
	if argValue(t, args, "+map") != "de_mirage" {
		t.Error("map not carried through")
	}
	if argValue(t, args, "-maxplayers") != "16" {
		t.Error("maxplayers not carried through")
	}
	if argValue(t, args, "+rcon_password") != "secret" {
		t.Error("rcon password not carried through")
	}
	if argValue(t, args, "+sv_setsteamaccount") != "TOKEN123" {
		t.Error("gslt token not carried through")
	}
	if argValue(t, args, "-tickrate") != "128" {
		t.Error("custom launch args not split and appended")
	}
}

func TestBuildLaunchArgsDefaults(t *testing.T) {
	args := buildLaunchArgs(&domain.Instance{Port: 27015})

	if argValue(t, args, "+map") != "de_dust2" {
		t.Error("default map missing")
	}
	if argValue(t, args, "-maxplayers") != "10" {
		t.Error("default maxplayers missing")
	}
	if argValue(t, args, "+game_mode") != "1" || argValue(t, args, "+game_type") != "0" {
		t.Error("default competitive mode missing")
	}
	for _, a := range args {
		if a == "+sv_setsteamaccount" {
			t.Error("steam account flag present without token")
		}
	}
}

func TestGameModeValues(t *testing.T) {
	cases := []struct {
		mode           string
		gMode, gType int
	}{
		{"competitive", 1, 0},
		{"Casual", 0, 0},
		{"wingman", 2, 0},
		{"dm", 2, 1},
		{"custom", 3, 0},
		{"unheard-of", 1, 0},
	}
	for _, tc := range cases {
		gm, gt := gameModeValues(tc.mode)
		if gm != tc.gMode || gt != tc.gType {
			t.Errorf("gameModeValues(%q) = %d,%d, want %d,%d", tc.mode, gm, gt, tc.gMode, tc.gType)
		}
	}
}

func TestConsoleBufferEvictsOldest(t *testing.T) {
	buf := newConsoleBuffer(3)
	for i := 0; i < 5; i++ {
		buf.append(fmt.Sprintf("line %d", i))
	}

	lines := buf.tail(0)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for i, line := range lines {
		want := "line " + strconv.Itoa(i+2)
		if line != want {
			t.Errorf("lines[%d] = %q, want %q", i, line, want)
		}
	}
}

func TestConsoleBufferTail(t *testing.T) {
	buf := newConsoleBuffer(10)
	for i := 0; i < 5; i++ {
		buf.append(fmt.Sprintf("line %d", i))
	}

	if got := buf.tail(2); len(got) != 2 || got[1] != "line 4" {
		t.Errorf("tail(2) = %v", got)
	}
	if got := buf.tail(100); len(got) != 5 {
		t.Errorf("tail(100) = %d lines, want 5", len(got))
	}
}
