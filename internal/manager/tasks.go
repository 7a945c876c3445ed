package manager

import (
	"cs2panel/internal/domain"
	"cs2panel/internal/pkg/logger"
	"cs2panel/internal/rcon"

	"github.com/google/uuid"
)

// RunTask executes one due scheduled task. Called by the scheduler.
func (m *Manager) RunTask(task domain.ScheduledTask) error {
	id := task.InstanceID

	switch task.Action {
	case domain.TaskActionRcon:
		// RCON tasks only make sense against a live server; a stopped
		// instance makes the fire a silent no-op, not a failure.
		if !m.sup.IsRunning(id) {
			logger.Log.Info().Str("task", task.ID.String()).Str("instance", id.String()).
				Msg("scheduled rcon skipped, instance not running")
			return nil
		}
		_, err := m.pool.Send(id, task.Payload, rcon.DefaultTimeout)
		return err

	case domain.TaskActionBackup:
		backupType := task.Payload
		if backupType == "" {
			backupType = domain.BackupFull
		}
		_, err := m.CreateBackup(id, backupType)
		return err

	case domain.TaskActionRestart:
		if !m.sup.IsRunning(id) {
			logger.Log.Info().Str("task", task.ID.String()).Str("instance", id.String()).
				Msg("scheduled restart skipped, instance not running")
			return nil
		}
		return m.RestartInstance(id)

	default:
		return domain.Errorf(domain.KindValidation, "unknown task action: %s", task.Action)
	}
}

// GetScheduledTasks lists an instance's tasks.
func (m *Manager) GetScheduledTasks(id uuid.UUID) ([]domain.ScheduledTask, error) {
	if _, err := m.store.GetInstance(id); err != nil {
		return nil, err
	}
	return m.store.ListTasks(id)
}

// CreateScheduledTask validates and registers a new task.
func (m *Manager) CreateScheduledTask(task *domain.ScheduledTask) error {
	if _, err := m.store.GetInstance(task.InstanceID); err != nil {
		return err
	}
	switch task.Action {
	case domain.TaskActionRcon:
		if task.Payload == "" {
			return domain.Errorf(domain.KindValidation, "rcon task needs a command payload")
		}
	case domain.TaskActionBackup, domain.TaskActionRestart:
	default:
		return domain.Errorf(domain.KindValidation, "unknown task action: %s", task.Action)
	}

	if err := m.sched.AddTask(task); err != nil {
		return err
	}
	m.audit("task.create", task.InstanceID.String(), map[string]any{
		"action": task.Action, "cron": task.CronExpr,
	})
	return nil
}

// SetTaskEnabled toggles a task on or off.
func (m *Manager) SetTaskEnabled(taskID uuid.UUID, enabled bool) error {
	if err := m.sched.SetEnabled(taskID, enabled); err != nil {
		return err
	}
	m.audit("task.toggle", taskID.String(), map[string]any{"enabled": enabled})
	return nil
}

// DeleteScheduledTask removes a task.
func (m *Manager) DeleteScheduledTask(taskID uuid.UUID) error {
	if err := m.sched.RemoveTask(taskID); err != nil {
		return err
	}
	m.audit("task.delete", taskID.String(), nil)
	return nil
}
