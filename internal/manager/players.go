package manager

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

// GetPlayers queries the running instance's player list via the RCON
// "status" command.
func (m *Manager) GetPlayers(id uuid.UUID) ([]domain.Player, error) {
	out, err := m.SendRCON(id, "status")
	if err != nil {
		return nil, err
	}
	return parseStatusPlayers(out), nil
}

func (m *Manager) KickPlayer(id uuid.UUID, userID int, reason string) error {
	cmd := fmt.Sprintf("kickid %d", userID)
	if reason != "" {
		cmd += " " + reason
	}
	if _, err := m.SendRCON(id, cmd); err != nil {
		return err
	}
	m.audit("player.kick", id.String(), map[string]any{"user_id": userID, "reason": reason})
	return nil
}

// BanPlayer bans by SteamID for durationMinutes (0 = permanent) and
// records the ban so it survives restarts.
func (m *Manager) BanPlayer(id uuid.UUID, steamID string, durationMinutes int, reason string) error {
	if steamID == "" {
		return domain.Errorf(domain.KindValidation, "steam id is required")
	}
	if _, err := m.SendRCON(id, fmt.Sprintf("banid %d %s", durationMinutes, steamID)); err != nil {
		return err
	}

	ban := &domain.BanEntry{
		InstanceID:  id,
		SteamID:     steamID,
		Reason:      reason,
		IsPermanent: durationMinutes == 0,
	}
	if durationMinutes > 0 {
		exp := time.Now().Add(time.Duration(durationMinutes) * time.Minute)
		ban.ExpiresAt = &exp
	}
	if err := m.store.SaveBan(ban); err != nil {
		return err
	}
	m.audit("player.ban", id.String(), map[string]any{"steam_id": steamID, "minutes": durationMinutes})
	return nil
}

// UnbanPlayer lifts the in-game ban when the instance is running and
// always removes the record.
func (m *Manager) UnbanPlayer(banID uuid.UUID) error {
	ban, err := m.store.GetBan(banID)
	if err != nil {
		return err
	}
	if m.sup.IsRunning(ban.InstanceID) {
		if _, err := m.SendRCON(ban.InstanceID, "removeid "+ban.SteamID); err != nil {
			return err
		}
	}
	if err := m.store.DeleteBan(banID); err != nil {
		return err
	}
	m.audit("player.unban", ban.InstanceID.String(), map[string]any{"steam_id": ban.SteamID})
	return nil
}

// GetBanList returns active (non-expired) bans for the instance.
func (m *Manager) GetBanList(id uuid.UUID) ([]domain.BanEntry, error) {
	if _, err := m.store.GetInstance(id); err != nil {
		return nil, err
	}
	return m.store.ListBans(id, time.Now())
}

func (m *Manager) MutePlayer(id uuid.UUID, steamID string) error {
	if _, err := m.SendRCON(id, "sm_mute #"+steamID); err != nil {
		return err
	}
	m.audit("player.mute", id.String(), map[string]any{"steam_id": steamID})
	return nil
}

// ── Bots ──────────────────────────────────────────────────────────────

// BotConfig mirrors the three bot cvars the panel manages.
type BotConfig struct {
	Quota      int    `json:"quota"`
	QuotaMode  string `json:"quota_mode"`
	Difficulty int    `json:"difficulty"`
}

func (m *Manager) GetBotConfig(id uuid.UUID) (*BotConfig, error) {
	quota, err := m.SendRCON(id, "bot_quota")
	if err != nil {
		return nil, err
	}
	mode, _ := m.SendRCON(id, "bot_quota_mode")
	diff, _ := m.SendRCON(id, "bot_difficulty")
	return &BotConfig{
		Quota:      parseIntCvar(quota),
		QuotaMode:  parseStringCvar(mode),
		Difficulty: parseIntCvar(diff),
	}, nil
}

func (m *Manager) UpdateBotConfig(id uuid.UUID, cfg BotConfig) error {
	cmds := []string{
		fmt.Sprintf("bot_quota %d", cfg.Quota),
		fmt.Sprintf("bot_quota_mode %s", cfg.QuotaMode),
		fmt.Sprintf("bot_difficulty %d", cfg.Difficulty),
	}
	for _, cmd := range cmds {
		if _, err := m.SendRCON(id, cmd); err != nil {
			return err
		}
	}
	m.audit("bots.update", id.String(), map[string]any{"quota": cfg.Quota})
	return nil
}

// ── status output parsing ─────────────────────────────────────────────

// Player lines in CS2 status output look like:
//
//	#  2 "Name" STEAM_1:0:12345678 01:23 45 0 active 786432 192.168.1.2:27005
//	#  3 "BotName" BOT 01:23 0 0 active 0
var playerLineRe = regexp.MustCompile(`#\s+(\d+)\s+"([^"]+)"\s+(\S+)\s+\S+\s+(\d+)\s+\d+\s+\w+\s+\d+(?:\s+(\S+))?`)

func parseStatusPlayers(status string) []domain.Player {
	var players []domain.Player
	for _, line := range strings.Split(status, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") || strings.HasPrefix(line, "# userid") {
			continue
		}
		mm := playerLineRe.FindStringSubmatch(line)
		if mm == nil || mm[3] == "BOT" {
			continue
		}

		userID, _ := strconv.Atoi(mm[1])
		ping, _ := strconv.Atoi(mm[4])
		ip := mm[5]
		if idx := strings.LastIndex(ip, ":"); idx > 0 {
			ip = ip[:idx]
		}

		players = append(players, domain.Player{
			UserID:  userID,
			Name:    mm[2],
			SteamID: mm[3],
			Ping:    ping,
			IP:      ip,
		})
	}
	return players
}

var (
	cvarIntRe = regexp.MustCompile(`"[^"]*"\s*(?:=|is)\s*"(\d+)"`)
	cvarStrRe = regexp.MustCompile(`"[^"]*"\s*(?:=|is)\s*"([^"]*)"`)
)

// parseIntCvar extracts the value from a cvar query response like
// `"bot_quota" = "10" ( def. "10" )`.
func parseIntCvar(resp string) int {
	if mm := cvarIntRe.FindStringSubmatch(resp); mm != nil {
		v, _ := strconv.Atoi(mm[1])
		return v
	}
	return 0
}

func parseStringCvar(resp string) string {
	if mm := cvarStrRe.FindStringSubmatch(resp); mm != nil {
		return mm[1]
	}
	return ""
}
