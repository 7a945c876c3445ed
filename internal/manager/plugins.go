package manager

import (
	"archive/zip"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"

	"github.com/google/uuid"
)

// PluginInfo describes one installed server plugin.
type PluginInfo struct {
	Name      string `json:"name"`
	Installed bool   `json:"installed"`
	Version   string `json:"version"`
	Path      string `json:"path"`
}

var (
	metamodURLWindows = "https://mms.alliedmods.net/mms-drop/2.0/mmsource-2.0.0-git1384-windows.zip"
	metamodURLLinux   = "https://mms.alliedmods.net/mms-drop/2.0/mmsource-2.0.0-git1384-linux.zip"
	cssURLWindows     = "https://github.com/roflmuffin/CounterStrikeSharp/releases/download/v1.0.362/counterstrikesharp-with-runtime-windows-1.0.362.zip"
	cssURLLinux       = "https://github.com/roflmuffin/CounterStrikeSharp/releases/download/v1.0.362/counterstrikesharp-with-runtime-linux-1.0.362.zip"
	weaponPaintsURL   = "https://github.com/Nereziel/cs2-WeaponPaints/releases/download/build-411/WeaponPaints.zip"
)

func addonsDir(inst *domain.Instance) string {
	return filepath.Join(inst.InstallPath, "game", "csgo", "addons")
}

// GetPlugins scans the addons tree for the plugins the panel manages.
func (m *Manager) GetPlugins(id uuid.UUID) ([]PluginInfo, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}

	addons := addonsDir(inst)
	if _, err := os.Stat(addons); os.IsNotExist(err) {
		return nil, nil
	}

	var result []PluginInfo
	check := func(name, version, path string) {
		if fi, err := os.Stat(path); err == nil && fi.IsDir() {
			result = append(result, PluginInfo{Name: name, Installed: true, Version: version, Path: path})
		}
	}
	check("metamod", "2.0", filepath.Join(addons, "metamod"))
	check("counterstrikesharp", "1.0", filepath.Join(addons, "counterstrikesharp"))
	check("weaponpaints", "", filepath.Join(addons, "counterstrikesharp", "plugins", "WeaponPaints"))
	return result, nil
}

// InstallPlugin installs one of the supported plugins by name.
func (m *Manager) InstallPlugin(id uuid.UUID, pluginName string) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}

	var url, basePath, expectDir string
	switch strings.ToLower(strings.TrimSpace(pluginName)) {
	case "metamod", "metamod:source":
		url = metamodURLWindows
		if runtime.GOOS == "linux" {
			url = metamodURLLinux
		}
		basePath = filepath.Join(inst.InstallPath, "game", "csgo")
		expectDir = "metamod"
	case "counterstrikesharp", "cssharp", "css":
		url = cssURLWindows
		if runtime.GOOS == "linux" {
			url = cssURLLinux
		}
		basePath = filepath.Join(inst.InstallPath, "game", "csgo")
		expectDir = "counterstrikesharp"
	case "weaponpaints":
		url = weaponPaintsURL
		basePath = filepath.Join(addonsDir(inst), "counterstrikesharp", "plugins")
		expectDir = "WeaponPaints"
	default:
		return domain.Errorf(domain.KindValidation,
			"unknown plugin %q (supported: metamod, counterstrikesharp, weaponpaints)", pluginName)
	}

	if err := downloadAndExtractZip(url, basePath, expectDir); err != nil {
		return err
	}
	m.audit("plugin.install", id.String(), map[string]any{"plugin": pluginName})
	logger.Log.Info().Str("instance", id.String()).Str("plugin", pluginName).Msg("plugin installed")
	return nil
}

func downloadAndExtractZip(url, basePath, expectDir string) error {
	logger.Log.Info().Str("url", url).Msg("downloading plugin")

	client := &http.Client{Timeout: 120 * time.Second}
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "create request")
	}
	req.Header.Set("User-Agent", "cs2panel/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "download plugin")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Errorf(domain.KindIO, "download plugin: status %d", resp.StatusCode)
	}

	tmpFile, err := os.CreateTemp("", "cs2panel-plugin-*.zip")
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "create temp file")
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)
	defer tmpFile.Close()

	n, err := io.Copy(tmpFile, resp.Body)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "save plugin zip")
	}
	if _, err := tmpFile.Seek(0, io.SeekStart); err != nil {
		return domain.Wrap(domain.KindIO, err, "seek temp file")
	}

	rd, err := zip.NewReader(tmpFile, n)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "open plugin zip")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create plugin dir")
	}

	prefix := zipRootPrefix(rd, expectDir)
	for _, f := range rd.File {
		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" || name == "." {
			continue
		}
		target := filepath.Join(basePath, filepath.FromSlash(name))
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return domain.Wrap(domain.KindIO, err, "create dir")
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return domain.Wrap(domain.KindIO, err, "create parent dir")
		}
		rc, err := f.Open()
		if err != nil {
			return domain.Errorf(domain.KindIO, "open zip entry %s: %w", f.Name, err)
		}
		dst, err := os.Create(target)
		if err != nil {
			rc.Close()
			return domain.Errorf(domain.KindIO, "create %s: %w", target, err)
		}
		_, err = io.Copy(dst, rc)
		rc.Close()
		dst.Close()
		if err != nil {
			return domain.Errorf(domain.KindIO, "extract %s: %w", f.Name, err)
		}
	}
	return nil
}

// zipRootPrefix finds a single wrapping top-level folder to strip, so
// archives packed as "PluginName/..." land directly in basePath. Known
// layout roots are kept as-is.
func zipRootPrefix(rd *zip.Reader, expectDir string) string {
	var root string
	for _, f := range rd.File {
		parts := strings.SplitN(strings.ReplaceAll(f.Name, "\\", "/"), "/", 2)
		if parts[0] == "" {
			continue
		}
		if root == "" {
			root = parts[0]
		} else if parts[0] != root {
			return ""
		}
	}
	if root == "" || root == "addons" || root == "game" || root == expectDir {
		return ""
	}
	return root + "/"
}

// ── Plugin side files ─────────────────────────────────────────────────

// Side files live under the counterstrikesharp data dir and are passed
// through as opaque JSON; the daemon never interprets their contents.
var sideFileNames = map[string]bool{
	"skins.json":        true,
	"player_skins.json": true,
	"gloves.json":       true,
}

func sideFilePath(inst *domain.Instance, name string) (string, error) {
	if !sideFileNames[name] {
		return "", domain.Errorf(domain.KindValidation, "unknown side file: %s", name)
	}
	return filepath.Join(addonsDir(inst), "counterstrikesharp", "data", name), nil
}

// ReadSideFile returns the raw JSON content of a plugin side file.
func (m *Manager) ReadSideFile(id uuid.UUID, name string) (json.RawMessage, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	path, err := sideFilePath(inst, name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Errorf(domain.KindNotFound, "side file not found: %s", name)
		}
		return nil, domain.Wrap(domain.KindIO, err, "read side file")
	}
	if !json.Valid(data) {
		return nil, domain.Errorf(domain.KindIO, "side file %s is not valid JSON", name)
	}
	return data, nil
}

// WriteSideFile replaces a plugin side file with the given JSON.
func (m *Manager) WriteSideFile(id uuid.UUID, name string, data json.RawMessage) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}
	path, err := sideFilePath(inst, name)
	if err != nil {
		return err
	}
	if !json.Valid(data) {
		return domain.Errorf(domain.KindValidation, "payload is not valid JSON")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create data dir")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return domain.Wrap(domain.KindIO, err, "write side file")
	}
	m.audit("sidefile.write", id.String(), map[string]any{"name": name})
	return nil
}

// ── Match dumps ───────────────────────────────────────────────────────

func matchesDir(inst *domain.Instance) string {
	return filepath.Join(addonsDir(inst), "counterstrikesharp", "data", "matches")
}

// GetMatches lists match dump files written by the stats plugin,
// newest first.
func (m *Manager) GetMatches(id uuid.UUID) ([]string, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(matchesDir(inst), "*.json"))
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "list matches")
	}
	names := make([]string, 0, len(matches))
	for _, path := range matches {
		names = append(names, filepath.Base(path))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// GetMatch returns one match dump as raw JSON.
func (m *Manager) GetMatch(id uuid.UUID, name string) (json.RawMessage, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	if name != filepath.Base(name) || !strings.HasSuffix(name, ".json") {
		return nil, domain.Errorf(domain.KindValidation, "invalid match dump name: %s", name)
	}
	data, err := os.ReadFile(filepath.Join(matchesDir(inst), name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.Errorf(domain.KindNotFound, "match dump not found: %s", name)
		}
		return nil, domain.Wrap(domain.KindIO, err, "read match dump")
	}
	return data, nil
}
