package steam

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
)

const (
	cs2AppID          = "730"
	steamcmdZipURL    = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd.zip"
	steamcmdTarURL    = "https://steamcdn-a.akamaihd.net/client/installer/steamcmd_linux.tar.gz"
)

// SteamCMD wraps the SteamCMD CLI, the external installer/downloader
// supervised for installs, updates and workshop downloads.
type SteamCMD struct {
	path string
	mu   sync.Mutex
}

// New creates a wrapper rooted at basePath, where steamcmd lives or
// will be installed on first use.
func New(basePath string) *SteamCMD {
	return &SteamCMD{path: basePath}
}

func (s *SteamCMD) ExePath() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(s.path, "steamcmd.exe")
	}
	return filepath.Join(s.path, "steamcmd.sh")
}

// EnsureInstalled downloads and unpacks SteamCMD if the executable is
// missing.
func (s *SteamCMD) EnsureInstalled() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exePath := s.ExePath()
	if _, err := os.Stat(exePath); err == nil {
		return nil
	}

	if err := os.MkdirAll(s.path, 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create steamcmd dir")
	}

	if runtime.GOOS == "windows" {
		if err := s.downloadZip(); err != nil {
			return err
		}
	} else {
		if err := s.downloadTar(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(exePath); err != nil {
		return domain.Errorf(domain.KindIO, "steamcmd not found after extract: %w", err)
	}
	logger.Log.Info().Str("path", exePath).Msg("steamcmd installed")
	return nil
}

func (s *SteamCMD) downloadZip() error {
	logger.Log.Info().Str("url", steamcmdZipURL).Msg("downloading steamcmd")
	resp, err := http.Get(steamcmdZipURL)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "download steamcmd")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Errorf(domain.KindIO, "download steamcmd: status %d", resp.StatusCode)
	}

	zipPath := filepath.Join(s.path, "steamcmd.zip")
	out, err := os.Create(zipPath)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "create zip file")
	}
	_, err = io.Copy(out, resp.Body)
	out.Close()
	if err != nil {
		os.Remove(zipPath)
		return domain.Wrap(domain.KindIO, err, "write steamcmd zip")
	}
	defer os.Remove(zipPath)

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "open zip")
	}
	defer r.Close()

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if err := extractZipFile(f, filepath.Join(s.path, f.Name)); err != nil {
			return domain.Errorf(domain.KindIO, "extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func (s *SteamCMD) downloadTar() error {
	logger.Log.Info().Str("url", steamcmdTarURL).Msg("downloading steamcmd")
	resp, err := http.Get(steamcmdTarURL)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "download steamcmd")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return domain.Errorf(domain.KindIO, "download steamcmd: status %d", resp.StatusCode)
	}

	gz, err := gzip.NewReader(resp.Body)
	if err != nil {
		return domain.Wrap(domain.KindIO, err, "open gzip")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return domain.Wrap(domain.KindIO, err, "read tar")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		dest := filepath.Join(s.path, hdr.Name)
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return domain.Wrap(domain.KindIO, err, "create dir")
		}
		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, os.FileMode(hdr.Mode))
		if err != nil {
			return domain.Wrap(domain.KindIO, err, "create file")
		}
		_, err = io.Copy(out, tr)
		out.Close()
		if err != nil {
			return domain.Errorf(domain.KindIO, "extract %s: %w", hdr.Name, err)
		}
	}
}

func extractZipFile(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return err
	}
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	out.Close()
	return err
}

// Run executes SteamCMD with the given args, parsing stdout into
// Progress values sent to progressCh and handing every raw output line
// to onLine. Closes progressCh when done; progressCh and onLine may be
// nil.
func (s *SteamCMD) Run(args []string, progressCh chan<- domain.Progress, onLine func(string)) error {
	if err := s.EnsureInstalled(); err != nil {
		if progressCh != nil {
			close(progressCh)
		}
		return err
	}

	cmd := exec.Command(s.ExePath(), args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		if progressCh != nil {
			close(progressCh)
		}
		return domain.Wrap(domain.KindProcess, err, "stdout pipe")
	}
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		if progressCh != nil {
			close(progressCh)
		}
		return domain.Wrap(domain.KindProcess, err, "start steamcmd")
	}

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		logger.Log.Debug().Str("steamcmd", line).Msg("")
		if line != "" && onLine != nil {
			onLine(line)
		}
		if p := ParseProgressLine(line); p != nil && progressCh != nil {
			select {
			case progressCh <- *p:
			default:
			}
		}
	}

	err = cmd.Wait()
	if progressCh != nil {
		close(progressCh)
	}
	if err != nil {
		return domain.Errorf(domain.KindProcess, "steamcmd exit: %w", err)
	}
	return nil
}

// InstallServer installs the dedicated server to installDir with
// validation.
func (s *SteamCMD) InstallServer(installDir string, progressCh chan<- domain.Progress, onLine func(string)) error {
	return s.appUpdate(installDir, true, progressCh, onLine)
}

// UpdateServer updates an existing install without validation.
func (s *SteamCMD) UpdateServer(installDir string, progressCh chan<- domain.Progress, onLine func(string)) error {
	return s.appUpdate(installDir, false, progressCh, onLine)
}

func (s *SteamCMD) appUpdate(installDir string, validate bool, progressCh chan<- domain.Progress, onLine func(string)) error {
	absDir, err := filepath.Abs(installDir)
	if err != nil {
		if progressCh != nil {
			close(progressCh)
		}
		return domain.Wrap(domain.KindIO, err, "resolve install dir")
	}
	args := []string{
		"+login", "anonymous",
		"+force_install_dir", absDir,
		"+app_update", cs2AppID,
	}
	if validate {
		args = append(args, "validate")
	}
	args = append(args, "+quit")
	return s.Run(args, progressCh, onLine)
}

// DownloadWorkshopItem fetches one workshop item by id.
func (s *SteamCMD) DownloadWorkshopItem(installDir string, workshopID int64, progressCh chan<- domain.Progress, onLine func(string)) error {
	absDir, err := filepath.Abs(installDir)
	if err != nil {
		if progressCh != nil {
			close(progressCh)
		}
		return domain.Wrap(domain.KindIO, err, "resolve install dir")
	}
	args := []string{
		"+login", "anonymous",
		"+force_install_dir", absDir,
		"+workshop_download_item", cs2AppID, fmt.Sprintf("%d", workshopID),
		"+quit",
	}
	return s.Run(args, progressCh, onLine)
}
