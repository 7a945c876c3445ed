package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"

	"github.com/google/uuid"
)

// Manager creates, restores and prunes instance backup archives.
type Manager struct {
	BackupsPath string
	Store       domain.BackupRepository
}

func NewManager(backupsPath string, store domain.BackupRepository) *Manager {
	return &Manager{
		BackupsPath: backupsPath,
		Store:       store,
	}
}

// subsetDirs maps a backup type to the directories included in the
// archive, relative to the instance install path. A full backup
// captures the whole install tree.
func subsetDirs(installPath string, bType string) ([]string, error) {
	switch bType {
	case domain.BackupFull:
		return []string{installPath}, nil
	case domain.BackupConfig:
		return []string{filepath.Join(installPath, "game", "csgo", "cfg")}, nil
	case domain.BackupMaps:
		return []string{filepath.Join(installPath, "game", "csgo", "maps")}, nil
	case domain.BackupPlugins:
		return []string{filepath.Join(installPath, "game", "csgo", "addons")}, nil
	default:
		return nil, domain.Errorf(domain.KindValidation, "invalid backup type: %s", bType)
	}
}

// Create zips the selected subset of the instance install tree and
// records the backup. The archive is written to a temp file and
// renamed into place so a partial write never shows up as a backup.
func (m *Manager) Create(instanceID uuid.UUID, installPath, bType string) (*domain.Backup, error) {
	sources, err := subsetDirs(installPath, bType)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.BackupsPath, 0755); err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "create backups dir")
	}

	ts := time.Now().Format("20060102-150405")
	filename := fmt.Sprintf("cs2panel_%s_%s_%s.zip", instanceID.String()[:8], bType, ts)
	zipPath := filepath.Join(m.BackupsPath, filename)
	tempPath := zipPath + ".temp"

	if err := createZip(tempPath, installPath, sources); err != nil {
		os.Remove(tempPath)
		return nil, domain.Wrap(domain.KindIO, err, "create backup archive")
	}

	if err := os.Rename(tempPath, zipPath); err != nil {
		os.Remove(tempPath)
		return nil, domain.Wrap(domain.KindIO, err, "finalize backup archive")
	}

	info, err := os.Stat(zipPath)
	if err != nil {
		os.Remove(zipPath)
		return nil, domain.Wrap(domain.KindIO, err, "stat backup archive")
	}

	b := &domain.Backup{
		InstanceID: instanceID,
		Path:       zipPath,
		SizeBytes:  info.Size(),
		BackupType: bType,
	}
	if err := m.Store.SaveBackup(b); err != nil {
		os.Remove(zipPath)
		return nil, err
	}

	logger.Log.Info().
		Str("instance", instanceID.String()).
		Str("path", zipPath).
		Int64("size", info.Size()).
		Str("type", bType).
		Msg("backup created")

	return b, nil
}

func createZip(zipPath, rootPath string, sourceDirs []string) error {
	f, err := os.Create(zipPath)
	if err != nil {
		return err
	}

	w := zip.NewWriter(f)

	walkErr := func() error {
		for _, dir := range sourceDirs {
			err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
				if err != nil {
					if os.IsNotExist(err) {
						return nil
					}
					return err
				}

				rel, err := filepath.Rel(rootPath, path)
				if err != nil || rel == "." {
					return nil
				}
				rel = filepath.ToSlash(rel)

				if info.IsDir() {
					_, err := w.Create(rel + "/")
					return err
				}

				zf, err := w.Create(rel)
				if err != nil {
					return err
				}
				in, err := os.Open(path)
				if err != nil {
					return err
				}
				_, err = io.Copy(zf, in)
				in.Close()
				return err
			})
			if err != nil {
				return err
			}
		}
		return nil
	}()

	zipErr := w.Close()
	fileErr := f.Close()
	if walkErr != nil {
		return walkErr
	}
	if zipErr != nil {
		return zipErr
	}
	return fileErr
}

// Restore extracts a backup archive into the instance install path.
// The caller must ensure the instance is stopped first.
func (m *Manager) Restore(backupID uuid.UUID, installPath string) error {
	b, err := m.Store.GetBackup(backupID)
	if err != nil {
		return err
	}

	if _, err := os.Stat(b.Path); err != nil {
		return domain.Wrap(domain.KindIO, err, "backup file missing")
	}

	if err := unzip(b.Path, installPath); err != nil {
		return domain.Wrap(domain.KindIO, err, "extract backup")
	}

	logger.Log.Info().
		Str("backup", backupID.String()).
		Str("install_path", installPath).
		Msg("backup restored")

	return nil
}

func unzip(src, dest string) error {
	r, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer r.Close()

	cleanDest := filepath.Clean(dest)
	for _, f := range r.File {
		fpath := filepath.Join(dest, filepath.FromSlash(f.Name))
		if fpath != cleanDest && !strings.HasPrefix(fpath, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("%s: illegal file path", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(fpath, 0755); err != nil {
				return err
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(fpath), 0755); err != nil {
			return err
		}

		rc, err := f.Open()
		if err != nil {
			return err
		}
		out, err := os.OpenFile(fpath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, f.Mode())
		if err != nil {
			rc.Close()
			return err
		}
		_, err = io.Copy(out, rc)
		rc.Close()
		out.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the archive file and the record. A missing file is
// not an error so stale records can still be cleared.
func (m *Manager) Delete(backupID uuid.UUID) error {
	b, err := m.Store.GetBackup(backupID)
	if err != nil {
		return err
	}

	if err := os.Remove(b.Path); err != nil && !os.IsNotExist(err) {
		logger.Log.Warn().Err(err).Str("path", b.Path).Msg("backup file delete failed")
	}

	return m.Store.DeleteBackup(backupID)
}

// List returns backup records for one instance, newest first.
func (m *Manager) List(instanceID uuid.UUID) ([]domain.Backup, error) {
	return m.Store.ListBackups(instanceID)
}
