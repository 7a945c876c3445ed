package manager

import (
	"path/filepath"
	"strings"

	"cs2panel/internal/config"
	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

// MapInfo is one installed map file.
type MapInfo struct {
	Name      string `json:"name"`
	FileName  string `json:"file_name"`
	SizeBytes int64  `json:"size_bytes"`
}

// GetInstalledMaps lists the .vpk map files under the instance's maps
// directory.
func (m *Manager) GetInstalledMaps(id uuid.UUID) ([]MapInfo, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	pattern := filepath.Join(inst.InstallPath, "game", "csgo", "maps", "*.vpk")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "list maps")
	}

	maps := make([]MapInfo, 0, len(matches))
	for _, path := range matches {
		name := filepath.Base(path)
		maps = append(maps, MapInfo{
			Name:     strings.TrimSuffix(name, ".vpk"),
			FileName: name,
		})
	}
	return maps, nil
}

func mapcyclePath(inst *domain.Instance) string {
	return filepath.Join(inst.InstallPath, "game", "csgo", "mapcycle.txt")
}

// GetMapRotation reads the instance's mapcycle.
func (m *Manager) GetMapRotation(id uuid.UUID) ([]string, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	return config.ReadMapcycle(mapcyclePath(inst))
}

// SetMapRotation replaces the instance's mapcycle.
func (m *Manager) SetMapRotation(id uuid.UUID, maps []string) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}
	if err := config.WriteMapcycle(mapcyclePath(inst), maps); err != nil {
		return domain.Wrap(domain.KindIO, err, "write mapcycle")
	}
	m.audit("maps.rotation", id.String(), map[string]any{"maps": len(maps)})
	return nil
}

// ChangeMap switches the running instance to mapName and records the
// new map on the instance.
func (m *Manager) ChangeMap(id uuid.UUID, mapName string) error {
	if mapName == "" {
		return domain.Errorf(domain.KindValidation, "map name is required")
	}
	if _, err := m.SendRCON(id, "changelevel "+mapName); err != nil {
		return err
	}
	if err := m.store.UpdateInstance(id, map[string]any{"current_map": mapName}); err != nil {
		return err
	}
	m.audit("maps.change", id.String(), map[string]any{"map": mapName})
	return nil
}
