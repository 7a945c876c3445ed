package manager

import (
	"cs2panel/internal/domain"
	"cs2panel/internal/events"
	"cs2panel/internal/pkg/logger"

	"github.com/google/uuid"
)

// InstallServer downloads the dedicated server files for an instance
// via SteamCMD. Runs asynchronously: status moves to installing,
// staged progress is published on "progress:<id>", and the terminal
// outcome on the ":complete" / ":error" suffix. A failed install
// returns the instance to stopped and can simply be retried.
func (m *Manager) InstallServer(id uuid.UUID) error {
	return m.runSteamJob(id, domain.StatusInstalling, "instance.install", func(progressCh chan domain.Progress) error {
		inst, err := m.store.GetInstance(id)
		if err != nil {
			return err
		}
		return m.steam.InstallServer(inst.InstallPath, progressCh, m.installLineSink(id))
	})
}

// UpdateServer updates existing server files. Same event contract as
// InstallServer, with status updating.
func (m *Manager) UpdateServer(id uuid.UUID) error {
	return m.runSteamJob(id, domain.StatusUpdating, "instance.update_files", func(progressCh chan domain.Progress) error {
		inst, err := m.store.GetInstance(id)
		if err != nil {
			return err
		}
		return m.steam.UpdateServer(inst.InstallPath, progressCh, m.installLineSink(id))
	})
}

// installLineSink publishes raw SteamCMD output on "install-line:<id>"
// so consoles can follow the download alongside the staged progress.
func (m *Manager) installLineSink(id uuid.UUID) func(string) {
	return func(line string) {
		m.bus.Publish(events.Key(events.KindInstall, id), line)
	}
}

// runSteamJob guards the installing/updating sub-states: both are only
// reachable from stopped (or crashed) and always return to stopped.
func (m *Manager) runSteamJob(id uuid.UUID, subState, auditAction string, job func(chan domain.Progress) error) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}
	if inst.Status != domain.StatusStopped && inst.Status != domain.StatusCrashed {
		return domain.Errorf(domain.KindConflict, "instance is %s", inst.Status)
	}

	if err := m.store.UpdateStatus(id, subState); err != nil {
		return err
	}
	m.bus.Publish(events.Key(events.KindStatus, id), subState)
	m.audit(auditAction, id.String(), nil)

	progressCh := make(chan domain.Progress, 100)
	m.bus.Publish(events.Key(events.KindProgress, id), domain.Progress{Stage: "preparing", Message: "preparing steamcmd"})

	go func() {
		for p := range progressCh {
			m.bus.Publish(events.Key(events.KindProgress, id), p)
		}
	}()

	go func() {
		err := job(progressCh)

		if serr := m.store.UpdateStatus(id, domain.StatusStopped); serr != nil {
			logger.Log.Error().Err(serr).Str("instance", id.String()).Msg("status reset after steam job failed")
		}
		m.bus.Publish(events.Key(events.KindStatus, id), domain.StatusStopped)

		if err != nil {
			logger.Log.Error().Err(err).Str("instance", id.String()).Str("job", subState).Msg("steam job failed")
			m.bus.Publish(events.ErrorKey(events.KindProgress, id), err.Error())
			return
		}
		m.bus.Publish(events.CompleteKey(events.KindProgress, id), nil)
	}()
	return nil
}

// DownloadWorkshopMap fetches a workshop item for the instance and
// records it. Progress shares the "progress:<id>" channel.
func (m *Manager) DownloadWorkshopMap(id uuid.UUID, workshopID int64) error {
	inst, err := m.store.GetInstance(id)
	if err != nil {
		return err
	}
	if workshopID <= 0 {
		return domain.Errorf(domain.KindValidation, "invalid workshop id: %d", workshopID)
	}

	item := &domain.WorkshopItem{
		InstanceID: id,
		WorkshopID: workshopID,
		ItemType:   "map",
	}
	if err := m.store.SaveWorkshopItem(item); err != nil {
		return err
	}

	progressCh := make(chan domain.Progress, 100)
	go func() {
		for p := range progressCh {
			m.bus.Publish(events.Key(events.KindProgress, id), p)
		}
	}()

	go func() {
		if err := m.steam.DownloadWorkshopItem(inst.InstallPath, workshopID, progressCh, m.installLineSink(id)); err != nil {
			logger.Log.Error().Err(err).Int64("workshop", workshopID).Msg("workshop download failed")
			m.bus.Publish(events.ErrorKey(events.KindProgress, id), err.Error())
			return
		}
		if err := m.store.MarkWorkshopInstalled(item.ID, true); err != nil {
			logger.Log.Warn().Err(err).Str("item", item.ID.String()).Msg("mark workshop installed failed")
		}
		m.bus.Publish(events.CompleteKey(events.KindProgress, id), nil)
	}()

	m.audit("workshop.download", id.String(), map[string]any{"workshop_id": workshopID})
	return nil
}

// GetWorkshopItems lists recorded workshop downloads for an instance.
func (m *Manager) GetWorkshopItems(id uuid.UUID) ([]domain.WorkshopItem, error) {
	return m.store.ListWorkshopItems(id)
}
