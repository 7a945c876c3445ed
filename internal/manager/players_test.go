package manager

import "testing"

func TestParseStatusPlayers(t *testing.T) {
	status := `hostname: test server
# userid name uniqueid connected ping loss state rate adr
#  2 "Alice" STEAM_1:0:12345678 01:23 45 0 active 786432 192.168.1.2:27005
#  3 "Chef" BOT 01:23 0 0 active 0
#  4 "Bob [AFK]" STEAM_1:1:87654321 00:05 112 0 active 786432 10.0.0.9:54321
#end`

	players := parseStatusPlayers(status)
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2", len(players))
	}

	p := players[0]
	if p.UserID != 2 || p.Name != "Alice" || p.SteamID != "STEAM_1:0:12345678" {
		t.Errorf("player 0 = %+v", p)
	}
	if p.Ping != 45 {
		t.Errorf("Ping = %d, want 45", p.Ping)
	}
	if p.IP != "192.168.1.2" {
		t.Errorf("IP = %q", p.IP)
	}

	p = players[1]
	if p.Name != "Bob [AFK]" || p.UserID != 4 || p.IP != "10.0.0.9" {
		t.Errorf("player 1 = %+v", p)
	}
}

func TestParseStatusPlayersEmpty(t *testing.T) {
	for _, status := range []string{"", "hostname: idle\n# userid name uniqueid connected ping loss state rate adr\n#end"} {
		if players := parseStatusPlayers(status); len(players) != 0 {
			t.Errorf("parseStatusPlayers(%q) = %v, want none", status, players)
		}
	}
}

func TestParseIntCvar(t *testing.T) {
	cases := []struct {
		resp string
		want int
	}{
		{`"bot_quota" = "10" ( def. "10" )`, 10},
		{`"bot_quota" is "4"`, 4},
		{`unknown command`, 0},
		{``, 0},
	}
	for _, tc := range cases {
		if got := parseIntCvar(tc.resp); got != tc.want {
			t.Errorf("parseIntCvar(%q) = %d, want %d", tc.resp, got, tc.want)
		}
	}
}

func TestParseStringCvar(t *testing.T) {
	cases := []struct {
		resp string
		want string
	}{
		{`"bot_difficulty" = "2" ( def. "1" )`, "2"},
		{`"bot_join_team" is "any"`, "any"},
		{`"mp_teamname_1" = ""`, ""},
		{`nope`, ""},
	}
	for _, tc := range cases {
		if got := parseStringCvar(tc.resp); got != tc.want {
			t.Errorf("parseStringCvar(%q) = %q, want %q", tc.resp, got, tc.want)
		}
	}
}
