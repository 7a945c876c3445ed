package files

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
)

const maxFileSize = 10 * 1024 * 1024

// Entry describes one file or directory in the browser view.
type Entry struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	IsDir    bool   `json:"is_dir"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
}

func traversalErr(rel string) error {
	return domain.Errorf(domain.KindValidation, "path escapes instance directory: %s", rel)
}

// Resolve joins root+relativePath and rejects anything that escapes
// the root, including through symlinks.
func Resolve(rootPath, relativePath string) (string, error) {
	rootAbs, err := filepath.Abs(rootPath)
	if err != nil {
		return "", domain.Wrap(domain.KindIO, err, "resolve root")
	}

	cleanRel := filepath.Clean(relativePath)
	if cleanRel == ".." || strings.HasPrefix(cleanRel, ".."+string(filepath.Separator)) {
		return "", traversalErr(relativePath)
	}

	joined, err := filepath.Abs(filepath.Join(rootAbs, cleanRel))
	if err != nil {
		return "", domain.Wrap(domain.KindIO, err, "resolve path")
	}
	if rel, err := filepath.Rel(rootAbs, joined); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", traversalErr(relativePath)
	}

	resolved, err := filepath.EvalSymlinks(joined)
	if err != nil {
		if os.IsNotExist(err) {
			return joined, nil
		}
		return "", domain.Wrap(domain.KindIO, err, "resolve path")
	}
	resolved, err = filepath.Abs(resolved)
	if err != nil {
		return "", domain.Wrap(domain.KindIO, err, "resolve path")
	}
	if rel, err := filepath.Rel(rootAbs, resolved); err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", traversalErr(relativePath)
	}
	return resolved, nil
}

// List returns the entries of one directory under root.
func List(rootPath, relativePath string) ([]Entry, error) {
	absPath, err := Resolve(rootPath, relativePath)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, domain.Wrap(domain.KindNotFound, err, "stat directory")
	}
	if !info.IsDir() {
		return nil, domain.Errorf(domain.KindValidation, "not a directory: %s", relativePath)
	}

	entries, err := os.ReadDir(absPath)
	if err != nil {
		return nil, domain.Wrap(domain.KindIO, err, "read directory")
	}

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		fi, err := e.Info()
		if err != nil {
			logger.Log.Debug().Err(err).Str("name", e.Name()).Msg("files: skipping entry")
			continue
		}

		rel, _ := filepath.Rel(rootPath, filepath.Join(absPath, e.Name()))
		entry := Entry{
			Name:     e.Name(),
			Path:     filepath.ToSlash(rel),
			IsDir:    e.IsDir(),
			Modified: fi.ModTime().Format(time.RFC3339),
		}
		if !e.IsDir() {
			entry.Size = fi.Size()
		}
		result = append(result, entry)
	}
	return result, nil
}

// Read returns the content of one file, capped at 10MB.
func Read(rootPath, relativePath string) (string, error) {
	absPath, err := Resolve(rootPath, relativePath)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", domain.Wrap(domain.KindNotFound, err, "stat file")
	}
	if info.IsDir() {
		return "", domain.Errorf(domain.KindValidation, "is a directory: %s", relativePath)
	}
	if info.Size() > maxFileSize {
		return "", domain.Errorf(domain.KindValidation, "file exceeds %d byte limit", maxFileSize)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return "", domain.Wrap(domain.KindIO, err, "read file")
	}
	return string(data), nil
}

// Write replaces the content of one file, creating parents as needed.
func Write(rootPath, relativePath, content string) error {
	absPath, err := Resolve(rootPath, relativePath)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create parent dir")
	}
	if err := os.WriteFile(absPath, []byte(content), 0644); err != nil {
		return domain.Wrap(domain.KindIO, err, "write file")
	}
	return nil
}

// Mkdir creates a directory under root.
func Mkdir(rootPath, relativePath string) error {
	absPath, err := Resolve(rootPath, relativePath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create directory")
	}
	return nil
}

// Delete removes a file or an empty directory.
func Delete(rootPath, relativePath string) error {
	absPath, err := Resolve(rootPath, relativePath)
	if err != nil {
		return err
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return domain.Wrap(domain.KindNotFound, err, "stat entry")
	}
	if info.IsDir() {
		entries, _ := os.ReadDir(absPath)
		if len(entries) > 0 {
			return domain.Errorf(domain.KindConflict, "directory not empty: %s", relativePath)
		}
	}
	if err := os.Remove(absPath); err != nil {
		return domain.Wrap(domain.KindIO, err, "remove entry")
	}
	return nil
}

// Rename moves a file or directory within root.
func Rename(rootPath, oldPath, newPath string) error {
	absOld, err := Resolve(rootPath, oldPath)
	if err != nil {
		return err
	}
	absNew, err := Resolve(rootPath, newPath)
	if err != nil {
		return err
	}

	if _, err := os.Stat(absOld); err != nil {
		return domain.Wrap(domain.KindNotFound, err, "rename source")
	}
	if err := os.MkdirAll(filepath.Dir(absNew), 0755); err != nil {
		return domain.Wrap(domain.KindIO, err, "create parent dir")
	}
	if err := os.Rename(absOld, absNew); err != nil {
		return domain.Wrap(domain.KindIO, err, "rename entry")
	}
	return nil
}
