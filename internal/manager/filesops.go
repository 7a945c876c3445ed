package manager

import (
	"path/filepath"

	"cs2panel/internal/files"

	"github.com/google/uuid"
)

// File browser operations, rooted at the instance's game/csgo tree.

func (m *Manager) fileRoot(id uuid.UUID) (string, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return "", err
	}
	return filepath.Join(inst.InstallPath, "game", "csgo"), nil
}

func (m *Manager) ListFiles(id uuid.UUID, relativePath string) ([]files.Entry, error) {
	root, err := m.fileRoot(id)
	if err != nil {
		return nil, err
	}
	return files.List(root, relativePath)
}

func (m *Manager) ReadServerFile(id uuid.UUID, relativePath string) (string, error) {
	root, err := m.fileRoot(id)
	if err != nil {
		return "", err
	}
	return files.Read(root, relativePath)
}

func (m *Manager) WriteServerFile(id uuid.UUID, relativePath, content string) error {
	root, err := m.fileRoot(id)
	if err != nil {
		return err
	}
	if err := files.Write(root, relativePath, content); err != nil {
		return err
	}
	m.audit("file.write", id.String(), map[string]any{"path": relativePath})
	return nil
}

func (m *Manager) DeleteServerFile(id uuid.UUID, relativePath string) error {
	root, err := m.fileRoot(id)
	if err != nil {
		return err
	}
	if err := files.Delete(root, relativePath); err != nil {
		return err
	}
	m.audit("file.delete", id.String(), map[string]any{"path": relativePath})
	return nil
}
