package manager

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"cs2panel/internal/config"
	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/rcon"

	"github.com/google/uuid"
)

func serverCfgPath(inst *domain.Instance) string {
	return filepath.Join(inst.InstallPath, "game", "csgo", "cfg", "server.cfg")
}

// GetServerConfig reads the instance's server.cfg as a cvar map.
func (m *Manager) GetServerConfig(id uuid.UUID) (map[string]string, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	return config.ReadCfgFile(serverCfgPath(inst))
}

// ConfigUpdateResult reports which cvars took effect immediately and
// which wait for the next start.
type ConfigUpdateResult struct {
	AppliedLive     []string `json:"applied_live"`
	RequiresRestart []string `json:"requires_restart"`
}

// UpdateServerConfig writes the cvar map to server.cfg. When the
// instance is running, hot-reloadable cvars are additionally pushed
// over RCON; everything else is deferred to the next start.
func (m *Manager) UpdateServerConfig(id uuid.UUID, cvars map[string]string) (*ConfigUpdateResult, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}

	if err := config.WriteCfgFile(serverCfgPath(inst), cvars); err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "write server.cfg")
	}

	result := &ConfigUpdateResult{}
	running := m.sup.IsRunning(id)
	for name, value := range cvars {
		if !running || !config.IsHotReloadable(name) {
			result.RequiresRestart = append(result.RequiresRestart, name)
			continue
		}
		if _, err := m.pool.Send(id, fmt.Sprintf("%s %s", name, value), rcon.DefaultTimeout); err != nil {
			logger.Log.Warn().Err(err).Str("cvar", name).Msg("live cvar push failed")
			result.RequiresRestart = append(result.RequiresRestart, name)
			continue
		}
		result.AppliedLive = append(result.AppliedLive, name)
	}

	m.audit("config.update", id.String(), map[string]any{
		"cvars":        len(cvars),
		"applied_live": len(result.AppliedLive),
	})
	return result, nil
}

// GetCvarDatabase returns the known cvar definitions.
func (m *Manager) GetCvarDatabase() []config.CvarDef {
	return config.CvarDatabase
}

func (m *Manager) SearchCvars(query string) []config.CvarDef {
	return config.SearchCvars(query)
}

// GetGameModePresets returns the built-in game mode presets.
func (m *Manager) GetGameModePresets() []config.GameModePreset {
	return config.Presets
}

func (m *Manager) GetLANOptimizedCvars() map[string]string {
	return config.LANOptimizedCvars
}

// ApplyGameModePreset merges a preset's cvars into server.cfg.
func (m *Manager) ApplyGameModePreset(id uuid.UUID, presetName string) (*ConfigUpdateResult, error) {
	preset := config.GetPresetByName(presetName)
	if preset == nil {
		return nil, domain.Errorf(domain.KindNotFound, "preset not found: %s", presetName)
	}
	result, err := m.UpdateServerConfig(id, preset.Cvars)
	if err != nil {
		return nil, err
	}
	m.audit("config.preset", id.String(), map[string]any{"preset": presetName})
	return result, nil
}

// ── Config profiles ───────────────────────────────────────────────────

func (m *Manager) GetConfigProfiles(id uuid.UUID) ([]domain.ConfigProfile, error) {
	return m.store.ListProfiles(id)
}

// SaveConfigProfile snapshots a cvar map under a name.
func (m *Manager) SaveConfigProfile(id uuid.UUID, name string, cvars map[string]string) (*domain.ConfigProfile, error) {
	if name == "" {
		return nil, domain.Errorf(domain.KindValidation, "profile name is required")
	}
	if _, err := m.store.GetInstance(id); err != nil {
		return nil, err
	}

	data, err := json.Marshal(cvars)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "marshal profile")
	}

	p := &domain.ConfigProfile{
		InstanceID: id,
		Name:       name,
		Data:       string(data),
	}
	if err := m.store.SaveProfile(p); err != nil {
		return nil, err
	}
	m.audit("profile.save", id.String(), map[string]any{"name": name})
	return p, nil
}

// LoadConfigProfile returns a profile's cvar map without applying it.
func (m *Manager) LoadConfigProfile(profileID uuid.UUID) (map[string]string, error) {
	p, err := m.store.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	cvars := map[string]string{}
	if err := json.Unmarshal([]byte(p.Data), &cvars); err != nil {
		return nil, domain.Errorf(domain.KindIO, "corrupt profile data: %w", err)
	}
	return cvars, nil
}

// ApplyConfigProfile writes a profile's cvars to server.cfg and marks
// it as the instance's active profile.
func (m *Manager) ApplyConfigProfile(profileID uuid.UUID) (*ConfigUpdateResult, error) {
	p, err := m.store.GetProfile(profileID)
	if err != nil {
		return nil, err
	}
	cvars, err := m.LoadConfigProfile(profileID)
	if err != nil {
		return nil, err
	}
	result, err := m.UpdateServerConfig(p.InstanceID, cvars)
	if err != nil {
		return nil, err
	}
	if err := m.store.SetActiveProfile(p.InstanceID, profileID); err != nil {
		return nil, err
	}
	m.audit("profile.apply", p.InstanceID.String(), map[string]any{"profile": profileID.String()})
	return result, nil
}

func (m *Manager) DeleteConfigProfile(profileID uuid.UUID) error {
	if err := m.store.DeleteProfile(profileID); err != nil {
		return err
	}
	m.audit("profile.delete", profileID.String(), nil)
	return nil
}
