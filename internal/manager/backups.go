package manager

import (
	"cs2panel/internal/domain"

	"github.com/google/uuid"
)

// CreateBackup archives the selected subset of the instance install
// tree. An unknown type is rejected rather than silently widened.
func (m *Manager) CreateBackup(id uuid.UUID, backupType string) (*domain.Backup, error) {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return nil, err
	}
	if backupType == "" {
		backupType = domain.BackupFull
	}

	b, err := m.backups.Create(id, inst.InstallPath, backupType)
	if err != nil {
		return nil, err
	}
	m.audit("backup.create", id.String(), map[string]any{"type": backupType, "size": b.SizeBytes})
	return b, nil
}

// RestoreBackup unpacks a backup over the install dir. The instance
// must be stopped so the archive never races the running process.
func (m *Manager) RestoreBackup(backupID uuid.UUID) error {
	b, err := m.store.GetBackup(backupID)
	if err != nil {
		return err
	}
	inst, err := m.store.GetInstance(b.InstanceID)
	if err != nil {
		return err
	}
	if inst.Status != domain.StatusStopped && inst.Status != domain.StatusCrashed {
		return domain.Errorf(domain.KindConflict, "instance is %s, stop it before restoring", inst.Status)
	}
	if m.sup.IsRunning(inst.ID) {
		return domain.Errorf(domain.KindConflict, "instance has a live process")
	}

	if err := m.backups.Restore(backupID, inst.InstallPath); err != nil {
		return err
	}
	m.audit("backup.restore", inst.ID.String(), map[string]any{"backup": backupID.String()})
	return nil
}

func (m *Manager) GetBackups(id uuid.UUID) ([]domain.Backup, error) {
	if _, err := m.store.GetInstance(id); err != nil {
		return nil, err
	}
	return m.backups.List(id)
}

func (m *Manager) DeleteBackup(backupID uuid.UUID) error {
	if err := m.backups.Delete(backupID); err != nil {
		return err
	}
	m.audit("backup.delete", backupID.String(), nil)
	return nil
}
